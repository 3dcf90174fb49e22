// AngelaMos | 2026
// repository.go

package licensing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/barbermaster/internal/core"
)

type Repository interface {
	Insert(ctx context.Context, key *LicenseKey) (bool, error)
	GetAvailableForUpdate(ctx context.Context, code string) (*LicenseKey, error)
	MarkUsed(ctx context.Context, id, tenantID string, usedAt time.Time) error
	List(ctx context.Context, params ListParams) ([]KeyListing, error)
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context) (map[string]int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const keyColumns = `id, code, status, owner_tenant_id, created_at, used_at`

// Insert stores a new available key. A code collision is reported as
// (false, nil) so the caller can retry without aborting an open transaction.
func (r *repository) Insert(ctx context.Context, key *LicenseKey) (bool, error) {
	query := `
		INSERT INTO license_keys (id, code, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (code) DO NOTHING
		RETURNING created_at`

	err := r.db.GetContext(ctx, &key.CreatedAt, query, key.ID, key.Code, StatusAvailable)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert license key: %w", err)
	}

	key.Status = StatusAvailable
	return true, nil
}

// GetAvailableForUpdate locks an available key until the surrounding
// transaction ends. Unknown and used keys both report core.ErrNotFound.
func (r *repository) GetAvailableForUpdate(ctx context.Context, code string) (*LicenseKey, error) {
	query := `SELECT ` + keyColumns + `
		FROM license_keys
		WHERE code = $1 AND status = 'available'
		FOR UPDATE`

	var key LicenseKey
	err := r.db.GetContext(ctx, &key, query, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lock license key: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lock license key: %w", err)
	}

	return &key, nil
}

func (r *repository) MarkUsed(ctx context.Context, id, tenantID string, usedAt time.Time) error {
	query := `
		UPDATE license_keys
		SET status = 'used', owner_tenant_id = $2, used_at = $3
		WHERE id = $1 AND status = 'available'`

	result, err := r.db.ExecContext(ctx, query, id, tenantID, usedAt)
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("mark key used: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("mark key used: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark key used: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("mark key used: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(ctx context.Context, params ListParams) ([]KeyListing, error) {
	query := `
		SELECT k.id, k.code, k.status, k.owner_tenant_id, k.created_at, k.used_at,
		       b.email AS owner_email
		FROM license_keys k
		LEFT JOIN barbers b ON b.id = k.owner_tenant_id`

	args := []any{}
	if params.Status != "" {
		query += ` WHERE k.status = $1`
		args = append(args, params.Status)
	}
	query += ` ORDER BY k.created_at DESC`

	keys := []KeyListing{}
	if err := r.db.SelectContext(ctx, &keys, query, args...); err != nil {
		return nil, fmt.Errorf("list license keys: %w", err)
	}

	return keys, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM license_keys WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete license key: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete license key: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete license key: %w", ErrKeyNotFound)
	}

	return nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[string]int, error) {
	query := `SELECT status, COUNT(*) AS count FROM license_keys GROUP BY status`

	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count license keys: %w", err)
	}

	counts := map[string]int{StatusAvailable: 0, StatusUsed: 0}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}

	return counts, nil
}
