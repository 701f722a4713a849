package service

import (
	"context"

	"github.com/dhanbyte/shopwave-sub001/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AdminService produces the cross-user rollup. It is a read-only linear
// aggregation over the per-user ledgers; individual query failures degrade
// to zero values rather than failing the report.
type AdminService struct {
	db           *pgxpool.Pool
	topReferrers int
}

func NewAdminService(db *pgxpool.Pool, topReferrers int) *AdminService {
	if topReferrers <= 0 {
		topReferrers = 10
	}
	return &AdminService{db: db, topReferrers: topReferrers}
}

// GetStats returns platform-wide referral statistics.
func (s *AdminService) GetStats(ctx context.Context) (*domain.AdminStats, error) {
	stats := &domain.AdminStats{TopReferrers: []domain.TopReferrer{}}

	// Total order value that flowed through referred purchases
	_ = s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(order_amount), 0) FROM reward_events
	`).Scan(&stats.TotalReferredSales)

	// Total reward value ever granted
	_ = s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_earnings), 0) FROM referral_stats
	`).Scan(&stats.TotalCommissionsPaid)

	// Users with at least one rewarded referral
	_ = s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM referral_stats WHERE total_referrals > 0
	`).Scan(&stats.ActiveReferrers)

	// Coins locked in pending withdrawals
	_ = s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(coins), 0) FROM withdrawals WHERE status = 'pending'
	`).Scan(&stats.PendingWithdrawalCoins)

	rows, err := s.db.Query(ctx, `
		SELECT user_id, total_referrals, total_earnings
		FROM referral_stats
		WHERE total_referrals > 0
		ORDER BY total_earnings DESC, total_referrals DESC
		LIMIT $1
	`, s.topReferrers)
	if err != nil {
		return stats, nil
	}
	defer rows.Close()

	for rows.Next() {
		var top domain.TopReferrer
		if err := rows.Scan(&top.UserID, &top.TotalReferrals, &top.TotalEarnings); err != nil {
			continue
		}
		stats.TopReferrers = append(stats.TopReferrers, top)
	}

	return stats, nil
}
