package repository

import (
	"context"

	"github.com/dhanbyte/shopwave-sub001/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// StatsRepository maintains the per-user counters and the append-only event
// logs. Every counter mutation is a single atomic statement (upsert with
// additive SET, or a conditional update), never load-modify-overwrite, so
// concurrent operations against the same user cannot lose updates.
type StatsRepository struct {
	db *pgxpool.Pool
}

func NewStatsRepository(db *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{db: db}
}

// RecordSignup appends a signup event and bumps total_signups, lazily
// creating the referrer's stats row. Both writes happen in one transaction.
func (r *StatsRepository) RecordSignup(ctx context.Context, ev *domain.SignupEvent) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO signup_events (id, referrer_id, referee_id, has_purchased)
		VALUES ($1, $2, $3, FALSE)
		RETURNING created_at
	`, ev.ID, ev.ReferrerID, ev.RefereeID).Scan(&ev.CreatedAt)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO referral_stats (user_id, total_signups)
		VALUES ($1, 1)
		ON CONFLICT (user_id) DO UPDATE
		SET total_signups = referral_stats.total_signups + 1,
		    updated_at = NOW()
	`, ev.ReferrerID)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// RecordReward appends a reward event, credits the referrer's counters and
// marks the referee's earliest signup event as purchased, all in one
// transaction.
func (r *StatsRepository) RecordReward(ctx context.Context, ev *domain.RewardEvent) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO reward_events (id, referrer_id, referee_id, order_id, order_amount, reward_amount, coins, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, ev.ID, ev.ReferrerID, ev.RefereeID, ev.OrderID, ev.OrderAmount, ev.RewardAmount, ev.Coins, ev.Status).Scan(&ev.CreatedAt)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO referral_stats (user_id, total_referrals, total_earnings, total_coins)
		VALUES ($1, 1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET total_referrals = referral_stats.total_referrals + 1,
		    total_earnings  = referral_stats.total_earnings + $2,
		    total_coins     = referral_stats.total_coins + $3,
		    updated_at      = NOW()
	`, ev.ReferrerID, ev.RewardAmount, ev.Coins)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE signup_events SET has_purchased = TRUE
		WHERE id = (
			SELECT id FROM signup_events
			WHERE referrer_id = $1 AND referee_id = $2 AND has_purchased = FALSE
			ORDER BY created_at ASC
			LIMIT 1
		)
	`, ev.ReferrerID, ev.RefereeID)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Redeem moves coins from available to used in a single conditional
// statement. pgx.ErrNoRows means the balance was short (a user with no
// stats row has a zero balance and always fails the guard).
func (r *StatsRepository) Redeem(ctx context.Context, userID string, coins int64) (int64, error) {
	var available int64
	err := r.db.QueryRow(ctx, `
		UPDATE referral_stats
		SET used_coins = used_coins + $2, updated_at = NOW()
		WHERE user_id = $1 AND total_coins - used_coins >= $2
		RETURNING available_coins
	`, userID, coins).Scan(&available)
	if err != nil {
		return 0, err
	}
	return available, nil
}

// GetCounters returns the stored counters, or pgx.ErrNoRows when the user
// has no ledger yet.
func (r *StatsRepository) GetCounters(ctx context.Context, userID string) (*domain.StatsCounters, error) {
	row := r.db.QueryRow(ctx, `
		SELECT user_id, total_referrals, total_signups, total_earnings,
		       total_coins, used_coins, available_coins
		FROM referral_stats
		WHERE user_id = $1
	`, userID)

	var c domain.StatsCounters
	if err := row.Scan(&c.UserID, &c.TotalReferrals, &c.TotalSignups, &c.TotalEarnings,
		&c.TotalCoins, &c.UsedCoins, &c.AvailableCoins); err != nil {
		return nil, err
	}
	return &c, nil
}

// RewardHistory returns the referrer's reward events, most recent first.
func (r *StatsRepository) RewardHistory(ctx context.Context, userID string, limit int) ([]domain.RewardEvent, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, referrer_id, referee_id, order_id, order_amount, reward_amount, coins, status, created_at
		FROM reward_events
		WHERE referrer_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []domain.RewardEvent{}
	for rows.Next() {
		var ev domain.RewardEvent
		if err := rows.Scan(&ev.ID, &ev.ReferrerID, &ev.RefereeID, &ev.OrderID, &ev.OrderAmount,
			&ev.RewardAmount, &ev.Coins, &ev.Status, &ev.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// SignupHistory returns the referrer's signup events, most recent first.
func (r *StatsRepository) SignupHistory(ctx context.Context, userID string, limit int) ([]domain.SignupEvent, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, referrer_id, referee_id, has_purchased, created_at
		FROM signup_events
		WHERE referrer_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []domain.SignupEvent{}
	for rows.Next() {
		var ev domain.SignupEvent
		if err := rows.Scan(&ev.ID, &ev.ReferrerID, &ev.RefereeID, &ev.HasPurchased, &ev.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
