package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"

	"github.com/dhanbyte/shopwave-sub001/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CodeRepository stores referral-code records. `code` is the primary key, so
// resolution is a single indexed lookup and duplicate codes cannot exist.
type CodeRepository struct {
	db *pgxpool.Pool
}

func NewCodeRepository(db *pgxpool.Pool) *CodeRepository {
	return &CodeRepository{db: db}
}

// GenerateCode returns a random 12-hex referral code.
func GenerateCode() string {
	bytes := make([]byte, 6)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// Create inserts a new active code for the owner, retrying on the rare
// collision with an existing code.
func (r *CodeRepository) Create(ctx context.Context, ownerUserID string) (*domain.ReferralCode, error) {
	var lastErr error
	for i := 0; i < 5; i++ {
		code := &domain.ReferralCode{Code: GenerateCode(), OwnerUserID: ownerUserID, IsActive: true}
		err := r.db.QueryRow(ctx, `
			INSERT INTO referral_codes (code, owner_user_id, is_active)
			VALUES ($1, $2, TRUE)
			RETURNING created_at
		`, code.Code, code.OwnerUserID).Scan(&code.CreatedAt)
		if err == nil {
			return code, nil
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

// GetActiveByCode resolves a code to its record. Inactive and unknown codes
// both come back as pgx.ErrNoRows.
func (r *CodeRepository) GetActiveByCode(ctx context.Context, code string) (*domain.ReferralCode, error) {
	row := r.db.QueryRow(ctx, `
		SELECT code, owner_user_id, is_active, created_at
		FROM referral_codes
		WHERE code = $1 AND is_active = TRUE
	`, code)

	var rc domain.ReferralCode
	if err := row.Scan(&rc.Code, &rc.OwnerUserID, &rc.IsActive, &rc.CreatedAt); err != nil {
		return nil, err
	}
	return &rc, nil
}

// Deactivate turns a code off. Only the owner may deactivate.
func (r *CodeRepository) Deactivate(ctx context.Context, code, ownerUserID string) error {
	result, err := r.db.Exec(ctx, `
		UPDATE referral_codes SET is_active = FALSE
		WHERE code = $1 AND owner_user_id = $2
	`, code, ownerUserID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// CountActiveByOwner returns how many active codes a user holds.
func (r *CodeRepository) CountActiveByOwner(ctx context.Context, ownerUserID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM referral_codes
		WHERE owner_user_id = $1 AND is_active = TRUE
	`, ownerUserID).Scan(&count)
	return count, err
}
