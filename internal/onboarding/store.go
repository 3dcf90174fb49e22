// AngelaMos | 2026
// store.go

package onboarding

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/barbermaster/internal/barber"
	"github.com/carterperez-dev/barbermaster/internal/core"
	"github.com/carterperez-dev/barbermaster/internal/licensing"
	"github.com/carterperez-dev/barbermaster/internal/verification"
)

// Repos groups the repositories the onboarding flow writes through.
type Repos interface {
	Codes() verification.Repository
	Barbers() barber.Repository
	LicenseKeys() licensing.Repository
}

// Store hands out repositories bound either to the pool or to a single
// transaction that commits only when fn returns nil.
type Store interface {
	Repos
	InTx(ctx context.Context, fn func(tx Repos) error) error
}

type repos struct {
	db core.DBTX
}

func (r repos) Codes() verification.Repository {
	return verification.NewRepository(r.db)
}

func (r repos) Barbers() barber.Repository {
	return barber.NewRepository(r.db)
}

func (r repos) LicenseKeys() licensing.Repository {
	return licensing.NewRepository(r.db)
}

type sqlStore struct {
	repos
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) Store {
	return &sqlStore{repos: repos{db: db}, db: db}
}

func (s *sqlStore) InTx(ctx context.Context, fn func(tx Repos) error) error {
	return core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return fn(repos{db: tx})
	})
}
