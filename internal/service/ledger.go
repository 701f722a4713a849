package service

import (
	"context"
	"errors"
	"time"

	"github.com/dhanbyte/shopwave-sub001/internal/domain"
	"github.com/dhanbyte/shopwave-sub001/internal/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrCodeNotFound       = errors.New("referral code not found")
	ErrInvalidReferral    = errors.New("invalid referral")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInsufficientCoins  = errors.New("insufficient coins")
	ErrWithdrawalNotFound = errors.New("withdrawal not found")
	ErrInvalidStatus      = errors.New("invalid withdrawal status")
)

// CodeStore is the referral-code storage the ledger needs.
type CodeStore interface {
	Create(ctx context.Context, ownerUserID string) (*domain.ReferralCode, error)
	GetActiveByCode(ctx context.Context, code string) (*domain.ReferralCode, error)
	Deactivate(ctx context.Context, code, ownerUserID string) error
	CountActiveByOwner(ctx context.Context, ownerUserID string) (int, error)
}

// StatsStore is the counter-and-event storage the ledger needs. Counter
// mutations must be atomic at the storage layer; Redeem reports a short
// balance as pgx.ErrNoRows.
type StatsStore interface {
	RecordSignup(ctx context.Context, ev *domain.SignupEvent) error
	RecordReward(ctx context.Context, ev *domain.RewardEvent) error
	Redeem(ctx context.Context, userID string, coins int64) (int64, error)
	GetCounters(ctx context.Context, userID string) (*domain.StatsCounters, error)
	RewardHistory(ctx context.Context, userID string, limit int) ([]domain.RewardEvent, error)
	SignupHistory(ctx context.Context, userID string, limit int) ([]domain.SignupEvent, error)
}

// WithdrawalStore is the withdrawal storage the ledger needs.
type WithdrawalStore interface {
	CreateDebit(ctx context.Context, w *domain.Withdrawal) error
	GetByUser(ctx context.Context, userID string, limit int) ([]domain.Withdrawal, error)
	Resolve(ctx context.Context, id string, status domain.WithdrawalStatus, notes string) (*domain.Withdrawal, error)
}

// Ledger owns referral-code resolution, signup/purchase attribution, coin
// redemption, withdrawal requests and per-user stats. It holds no state of
// its own; every operation is a bounded call into storage.
type Ledger struct {
	codes        CodeStore
	stats        StatsStore
	withdrawals  WithdrawalStore
	timeout      time.Duration
	historyLimit int
}

func NewLedger(codes CodeStore, stats StatsStore, withdrawals WithdrawalStore, timeout time.Duration, historyLimit int) *Ledger {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if historyLimit <= 0 {
		historyLimit = 100
	}
	return &Ledger{
		codes:        codes,
		stats:        stats,
		withdrawals:  withdrawals,
		timeout:      timeout,
		historyLimit: historyLimit,
	}
}

func (s *Ledger) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// ValidateCode resolves a code to its record. Inactive codes are treated the
// same as unknown ones.
func (s *Ledger) ValidateCode(ctx context.Context, code string) (*domain.ReferralCode, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	rc, err := s.codes.GetActiveByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}
	return rc, nil
}

// resolveReferrer looks up the active code and rejects self-referral.
func (s *Ledger) resolveReferrer(ctx context.Context, code, refereeID string) (string, error) {
	rc, err := s.codes.GetActiveByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrInvalidReferral
		}
		return "", err
	}
	if rc.OwnerUserID == refereeID {
		return "", ErrInvalidReferral
	}
	return rc.OwnerUserID, nil
}

// AttributeSignup credits a referrer with a new signup. No coins are granted
// at signup time.
func (s *Ledger) AttributeSignup(ctx context.Context, code, newUserID string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	referrerID, err := s.resolveReferrer(ctx, code, newUserID)
	if err != nil {
		return err
	}

	ev := &domain.SignupEvent{
		ID:         uuid.NewString(),
		ReferrerID: referrerID,
		RefereeID:  newUserID,
	}
	return s.stats.RecordSignup(ctx, ev)
}

// AttributePurchase credits a referrer for a referee's purchase. The coin
// grant comes from the reward policy; the order amount is recorded on the
// event only.
func (s *Ledger) AttributePurchase(ctx context.Context, code, refereeID, orderID string, orderAmount int64) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	referrerID, err := s.resolveReferrer(ctx, code, refereeID)
	if err != nil {
		return err
	}

	coins := PurchaseReward(orderAmount)
	ev := &domain.RewardEvent{
		ID:           uuid.NewString(),
		ReferrerID:   referrerID,
		RefereeID:    refereeID,
		OrderID:      orderID,
		OrderAmount:  orderAmount,
		RewardAmount: coins,
		Coins:        coins,
		Status:       "completed",
	}
	return s.stats.RecordReward(ctx, ev)
}

// RedeemCoins consumes coins from the available balance and returns the new
// balance. A user without a ledger has a zero balance.
func (s *Ledger) RedeemCoins(ctx context.Context, userID string, coins int64) (int64, error) {
	if coins <= 0 {
		return 0, ErrInvalidAmount
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	available, err := s.stats.Redeem(ctx, userID, coins)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrInsufficientCoins
		}
		return 0, err
	}
	return available, nil
}

// GetStats returns the user's counters plus both event histories (most
// recent first) and a fresh active-code count. A user with no ledger gets
// the zero-valued shape; history read failures degrade to empty lists so
// the read never breaks caller UIs.
func (s *Ledger) GetStats(ctx context.Context, userID string) (*domain.ReferralStats, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	stats := domain.NewReferralStats(userID)

	counters, err := s.stats.GetCounters(ctx, userID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if counters != nil {
		stats.StatsCounters = *counters
	}

	if rewards, err := s.stats.RewardHistory(ctx, userID, s.historyLimit); err != nil {
		logger.Warn("reward history read failed", "user_id", userID, "error", err)
	} else {
		stats.ReferralHistory = rewards
	}

	if signups, err := s.stats.SignupHistory(ctx, userID, s.historyLimit); err != nil {
		logger.Warn("signup history read failed", "user_id", userID, "error", err)
	} else {
		stats.SignupHistory = signups
	}

	if count, err := s.codes.CountActiveByOwner(ctx, userID); err != nil {
		logger.Warn("active code count failed", "user_id", userID, "error", err)
	} else {
		stats.ActiveReferralCodes = count
	}

	return stats, nil
}

// CreateCode issues a new active referral code for the user.
func (s *Ledger) CreateCode(ctx context.Context, userID string) (*domain.ReferralCode, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	return s.codes.Create(ctx, userID)
}

// DeactivateCode turns off one of the user's codes.
func (s *Ledger) DeactivateCode(ctx context.Context, code, userID string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.codes.Deactivate(ctx, code, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCodeNotFound
		}
		return err
	}
	return nil
}

// RequestWithdrawal debits coins from the available balance into a pending
// withdrawal request.
func (s *Ledger) RequestWithdrawal(ctx context.Context, userID string, coins int64) (*domain.Withdrawal, error) {
	if coins <= 0 {
		return nil, ErrInvalidAmount
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	w := &domain.Withdrawal{
		ID:     uuid.NewString(),
		UserID: userID,
		Coins:  coins,
		Status: domain.WithdrawalPending,
	}
	if err := s.withdrawals.CreateDebit(ctx, w); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInsufficientCoins
		}
		return nil, err
	}
	return w, nil
}

// Withdrawals returns the user's withdrawal requests, most recent first.
func (s *Ledger) Withdrawals(ctx context.Context, userID string) ([]domain.Withdrawal, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	return s.withdrawals.GetByUser(ctx, userID, s.historyLimit)
}

// ResolveWithdrawal moves a pending withdrawal to its final status. A
// rejection refunds the coins.
func (s *Ledger) ResolveWithdrawal(ctx context.Context, id string, status domain.WithdrawalStatus, notes string) (*domain.Withdrawal, error) {
	switch status {
	case domain.WithdrawalApproved, domain.WithdrawalRejected, domain.WithdrawalPaid:
	default:
		return nil, ErrInvalidStatus
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	w, err := s.withdrawals.Resolve(ctx, id, status, notes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWithdrawalNotFound
		}
		return nil, err
	}
	return w, nil
}
