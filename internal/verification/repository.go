// AngelaMos | 2026
// repository.go

package verification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/barbermaster/internal/core"
)

// Repository persists verification codes and password reset tokens. Both
// tables are keyed by email, so storing a new secret replaces the old one.
type Repository interface {
	UpsertCode(ctx context.Context, email, code string, expiresAt time.Time) error
	ConsumeCode(ctx context.Context, email, code string, now time.Time) (bool, error)
	HasLiveCode(ctx context.Context, email string, now time.Time) (bool, error)
	UpsertResetToken(ctx context.Context, email, tokenHash string, expiresAt time.Time) error
	ConsumeResetToken(ctx context.Context, email, tokenHash string, now time.Time) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) (codes, tokens int64, err error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) UpsertCode(
	ctx context.Context,
	email, code string,
	expiresAt time.Time,
) error {
	query := `
		INSERT INTO verification_codes (email, code, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE
		SET code = EXCLUDED.code,
		    expires_at = EXCLUDED.expires_at,
		    created_at = NOW()`

	if _, err := r.db.ExecContext(ctx, query, email, code, expiresAt); err != nil {
		return fmt.Errorf("upsert verification code: %w", err)
	}

	return nil
}

func (r *repository) ConsumeCode(
	ctx context.Context,
	email, code string,
	now time.Time,
) (bool, error) {
	query := `
		DELETE FROM verification_codes
		WHERE email = $1 AND code = $2 AND expires_at > $3
		RETURNING email`

	return deleteReturning(ctx, r.db, "consume verification code", query, email, code, now)
}

func (r *repository) HasLiveCode(ctx context.Context, email string, now time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM verification_codes
			WHERE email = $1 AND expires_at > $2
		)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email, now); err != nil {
		return false, fmt.Errorf("check verification code: %w", err)
	}

	return exists, nil
}

func (r *repository) UpsertResetToken(
	ctx context.Context,
	email, tokenHash string,
	expiresAt time.Time,
) error {
	query := `
		INSERT INTO password_reset_tokens (email, token_hash, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE
		SET token_hash = EXCLUDED.token_hash,
		    expires_at = EXCLUDED.expires_at,
		    created_at = NOW()`

	if _, err := r.db.ExecContext(ctx, query, email, tokenHash, expiresAt); err != nil {
		return fmt.Errorf("upsert reset token: %w", err)
	}

	return nil
}

func (r *repository) ConsumeResetToken(
	ctx context.Context,
	email, tokenHash string,
	now time.Time,
) (bool, error) {
	query := `
		DELETE FROM password_reset_tokens
		WHERE email = $1 AND token_hash = $2 AND expires_at > $3
		RETURNING email`

	return deleteReturning(ctx, r.db, "consume reset token", query, email, tokenHash, now)
}

func (r *repository) PurgeExpired(ctx context.Context, now time.Time) (int64, int64, error) {
	codes, err := r.purge(ctx, "purge verification codes",
		`DELETE FROM verification_codes WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, 0, err
	}

	tokens, err := r.purge(ctx, "purge reset tokens",
		`DELETE FROM password_reset_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return codes, 0, err
	}

	return codes, tokens, nil
}

func (r *repository) purge(ctx context.Context, op, query string, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return rows, nil
}

func deleteReturning(
	ctx context.Context,
	db core.DBTX,
	op, query string,
	args ...any,
) (bool, error) {
	var email string
	err := db.GetContext(ctx, &email, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return true, nil
}
