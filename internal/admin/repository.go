// AngelaMos | 2026
// repository.go

package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/barbermaster/internal/core"
)

// setupLockKey names the advisory lock held while the master admin is
// created.
const setupLockKey = "admins.setup-master"

type Repository interface {
	LockSetup(ctx context.Context) error
	CreateFirst(ctx context.Context, a *Admin) error
	GetByID(ctx context.Context, id string) (*Admin, error)
	GetByEmail(ctx context.Context, email string) (*Admin, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

// Store runs repository calls against the pool or inside one transaction.
type Store interface {
	Repository
	InTx(ctx context.Context, fn func(repo Repository) error) error
}

type sqlStore struct {
	Repository
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) Store {
	return &sqlStore{Repository: NewRepository(db), db: db}
}

func (s *sqlStore) InTx(ctx context.Context, fn func(repo Repository) error) error {
	return core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return fn(NewRepository(tx))
	})
}

// LockSetup serializes master admin creation until the transaction ends.
func (r *repository) LockSetup(ctx context.Context) error {
	query := `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`

	if _, err := r.db.ExecContext(ctx, query, setupLockKey); err != nil {
		return fmt.Errorf("lock admin setup: %w", err)
	}

	return nil
}

// CreateFirst inserts a only while the admins table is empty. Run it after
// LockSetup in the same transaction.
func (r *repository) CreateFirst(ctx context.Context, a *Admin) error {
	query := `
		INSERT INTO admins (id, name, email, password_hash)
		SELECT $1, $2, $3, $4
		WHERE NOT EXISTS (SELECT 1 FROM admins)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		a.ID, a.Name, a.Email, a.PasswordHash,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) || core.IsUniqueViolation(err) {
		return ErrMasterExists
	}
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Admin, error) {
	query := `
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM admins
		WHERE id = $1`

	var a Admin
	err := r.db.GetContext(ctx, &a, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get admin: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}

	return &a, nil
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*Admin, error) {
	query := `
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM admins
		WHERE email = $1`

	var a Admin
	err := r.db.GetContext(ctx, &a, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get admin by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get admin by email: %w", err)
	}

	return &a, nil
}

func (r *repository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `
		UPDATE admins
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update admin password: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update admin password: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update admin password: %w", core.ErrNotFound)
	}

	return nil
}
