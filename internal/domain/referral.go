package domain

import "time"

// ReferralCode is a shareable token owned by a referring user.
type ReferralCode struct {
	Code        string    `db:"code" json:"code"`
	OwnerUserID string    `db:"owner_user_id" json:"owner_user_id"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// RewardEvent records a purchase-triggered coin grant. Immutable once written.
type RewardEvent struct {
	ID           string    `db:"id" json:"id"`
	ReferrerID   string    `db:"referrer_id" json:"referrer_id"`
	RefereeID    string    `db:"referee_id" json:"referee_id"`
	OrderID      string    `db:"order_id" json:"order_id"`
	OrderAmount  int64     `db:"order_amount" json:"order_amount"`
	RewardAmount int64     `db:"reward_amount" json:"reward_amount"`
	Coins        int64     `db:"coins" json:"coins"`
	Status       string    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// SignupEvent records a signup attributed to a referrer. HasPurchased flips
// to true once the referee completes a first qualifying purchase.
type SignupEvent struct {
	ID           string    `db:"id" json:"id"`
	ReferrerID   string    `db:"referrer_id" json:"referrer_id"`
	RefereeID    string    `db:"referee_id" json:"referee_id"`
	HasPurchased bool      `db:"has_purchased" json:"has_purchased"`
	CreatedAt    time.Time `db:"created_at" json:"signup_at"`
}

// StatsCounters holds the per-user aggregate counters.
// AvailableCoins is always TotalCoins - UsedCoins; the storage layer keeps
// that arithmetic, callers never compute it.
type StatsCounters struct {
	UserID         string `db:"user_id" json:"user_id"`
	TotalReferrals int64  `db:"total_referrals" json:"total_referrals"`
	TotalSignups   int64  `db:"total_signups" json:"total_signups"`
	TotalEarnings  int64  `db:"total_earnings" json:"total_earnings"`
	TotalCoins     int64  `db:"total_coins" json:"total_coins"`
	UsedCoins      int64  `db:"used_coins" json:"used_coins"`
	AvailableCoins int64  `db:"available_coins" json:"available_coins"`
}

// ReferralStats is the full per-user view returned to callers: counters plus
// the two most-recent-first event histories and a fresh active-code count.
type ReferralStats struct {
	StatsCounters
	ActiveReferralCodes int           `json:"active_referral_codes"`
	ReferralHistory     []RewardEvent `json:"referral_history"`
	SignupHistory       []SignupEvent `json:"signup_history"`
}

// NewReferralStats returns the zero-valued stats shape for a user with no
// ledger yet.
func NewReferralStats(userID string) *ReferralStats {
	return &ReferralStats{
		StatsCounters:   StatsCounters{UserID: userID},
		ReferralHistory: []RewardEvent{},
		SignupHistory:   []SignupEvent{},
	}
}

// TopReferrer is one row of the admin ranking.
type TopReferrer struct {
	UserID         string `json:"user_id"`
	TotalReferrals int64  `json:"total_referrals"`
	TotalEarnings  int64  `json:"total_earnings"`
}

// AdminStats is the cross-user rollup shown to admins.
type AdminStats struct {
	TotalReferredSales     int64         `json:"total_referred_sales"`
	TotalCommissionsPaid   int64         `json:"total_commissions_paid"`
	ActiveReferrers        int64         `json:"active_referrers"`
	PendingWithdrawalCoins int64         `json:"pending_withdrawal_coins"`
	TopReferrers           []TopReferrer `json:"top_referrers"`
}
