package domain

import "time"

type WithdrawalStatus string

const (
	WithdrawalPending  WithdrawalStatus = "pending"
	WithdrawalApproved WithdrawalStatus = "approved"
	WithdrawalRejected WithdrawalStatus = "rejected"
	WithdrawalPaid     WithdrawalStatus = "paid"
)

// Withdrawal is a request to cash out coins. The coins are debited from the
// available balance when the request is created; rejecting refunds them.
type Withdrawal struct {
	ID          string           `db:"id" json:"id"`
	UserID      string           `db:"user_id" json:"user_id"`
	Coins       int64            `db:"coins" json:"coins"`
	Status      WithdrawalStatus `db:"status" json:"status"`
	Notes       string           `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	ProcessedAt *time.Time       `db:"processed_at" json:"processed_at,omitempty"`
}
