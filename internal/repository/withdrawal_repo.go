package repository

import (
	"context"
	"time"

	"github.com/dhanbyte/shopwave-sub001/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WithdrawalRepository stores coin withdrawal requests. Creating a request
// debits the coins from the user's available balance in the same
// transaction; rejecting a request refunds them.
type WithdrawalRepository struct {
	db *pgxpool.Pool
}

func NewWithdrawalRepository(db *pgxpool.Pool) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

// CreateDebit debits coins and inserts a pending withdrawal atomically.
// pgx.ErrNoRows means the available balance was short.
func (r *WithdrawalRepository) CreateDebit(ctx context.Context, w *domain.Withdrawal) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var available int64
	err = tx.QueryRow(ctx, `
		UPDATE referral_stats
		SET used_coins = used_coins + $2, updated_at = NOW()
		WHERE user_id = $1 AND total_coins - used_coins >= $2
		RETURNING available_coins
	`, w.UserID, w.Coins).Scan(&available)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO withdrawals (id, user_id, coins, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, w.ID, w.UserID, w.Coins, w.Status).Scan(&w.CreatedAt)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// GetByID retrieves a withdrawal, or pgx.ErrNoRows.
func (r *WithdrawalRepository) GetByID(ctx context.Context, id string) (*domain.Withdrawal, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, user_id, coins, status, notes, created_at, processed_at
		FROM withdrawals
		WHERE id = $1
	`, id)
	return scanWithdrawal(row)
}

// GetByUser returns a user's withdrawal requests, most recent first.
func (r *WithdrawalRepository) GetByUser(ctx context.Context, userID string, limit int) ([]domain.Withdrawal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, coins, status, notes, created_at, processed_at
		FROM withdrawals
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	withdrawals := []domain.Withdrawal{}
	for rows.Next() {
		var w domain.Withdrawal
		var processedAt *time.Time
		if err := rows.Scan(&w.ID, &w.UserID, &w.Coins, &w.Status, &w.Notes, &w.CreatedAt, &processedAt); err != nil {
			return nil, err
		}
		w.ProcessedAt = processedAt
		withdrawals = append(withdrawals, w)
	}
	return withdrawals, rows.Err()
}

// Resolve moves a pending withdrawal to approved, rejected or paid. A
// rejection refunds the coins to the user's available balance in the same
// transaction. pgx.ErrNoRows means the withdrawal was not pending.
func (r *WithdrawalRepository) Resolve(ctx context.Context, id string, status domain.WithdrawalStatus, notes string) (*domain.Withdrawal, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		UPDATE withdrawals
		SET status = $2, notes = $3, processed_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING id, user_id, coins, status, notes, created_at, processed_at
	`, id, status, notes)

	w, err := scanWithdrawal(row)
	if err != nil {
		return nil, err
	}

	if status == domain.WithdrawalRejected {
		_, err = tx.Exec(ctx, `
			UPDATE referral_stats
			SET used_coins = used_coins - $2, updated_at = NOW()
			WHERE user_id = $1 AND used_coins >= $2
		`, w.UserID, w.Coins)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

// SumPendingCoins returns the total coins locked in pending withdrawals.
func (r *WithdrawalRepository) SumPendingCoins(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(coins), 0) FROM withdrawals WHERE status = 'pending'
	`).Scan(&total)
	return total, err
}

func scanWithdrawal(row pgx.Row) (*domain.Withdrawal, error) {
	var w domain.Withdrawal
	var processedAt *time.Time
	if err := row.Scan(&w.ID, &w.UserID, &w.Coins, &w.Status, &w.Notes, &w.CreatedAt, &processedAt); err != nil {
		return nil, err
	}
	w.ProcessedAt = processedAt
	return &w, nil
}
