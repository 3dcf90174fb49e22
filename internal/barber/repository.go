// AngelaMos | 2026
// repository.go

package barber

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/barbermaster/internal/core"
)

type Repository interface {
	Create(ctx context.Context, b *Barber) error
	GetByID(ctx context.Context, id string) (*Barber, error)
	GetByEmail(ctx context.Context, email string) (*Barber, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ListPending(ctx context.Context) ([]Barber, error)
	AttachLicense(ctx context.Context, id, licenseKey string) error
	HasActiveLicense(ctx context.Context, id string) (bool, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateProfileImage(ctx context.Context, id, ref string) error
	CountByLicenseState(ctx context.Context) (*Counts, error)
}

type Counts struct {
	Total    int `db:"total"    json:"total"`
	Licensed int `db:"licensed" json:"licensed"`
	Pending  int `db:"pending"  json:"pending"`
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const barberColumns = `id, owner_name, email, password_hash, business_name, tax_id,
		       phone, postal_code, street, street_number, district, city, state,
		       profile_image_ref, license_key, created_at, updated_at`

func (r *repository) Create(ctx context.Context, b *Barber) error {
	query := `
		INSERT INTO barbers (
			id, owner_name, email, password_hash, business_name, tax_id,
			phone, postal_code, street, street_number, district, city, state
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, b, query,
		b.ID,
		b.OwnerName,
		b.Email,
		b.PasswordHash,
		b.BusinessName,
		b.TaxID,
		b.Phone,
		b.PostalCode,
		b.Street,
		b.StreetNumber,
		b.District,
		b.City,
		b.State,
	)
	if err != nil {
		switch {
		case core.IsUniqueViolation(err, "barbers_email_key"):
			return fmt.Errorf("create barber: %w", ErrEmailTaken)
		case core.IsUniqueViolation(err, "barbers_tax_id_key"):
			return fmt.Errorf("create barber: %w", ErrTaxIDTaken)
		case core.IsUniqueViolation(err):
			return fmt.Errorf("create barber: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create barber: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Barber, error) {
	query := `SELECT ` + barberColumns + ` FROM barbers WHERE id = $1`

	var b Barber
	err := r.db.GetContext(ctx, &b, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get barber: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get barber: %w", err)
	}

	return &b, nil
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*Barber, error) {
	query := `SELECT ` + barberColumns + ` FROM barbers WHERE email = $1`

	var b Barber
	err := r.db.GetContext(ctx, &b, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get barber by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get barber by email: %w", err)
	}

	return &b, nil
}

func (r *repository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM barbers WHERE email = $1)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		return false, fmt.Errorf("check barber email: %w", err)
	}

	return exists, nil
}

func (r *repository) ListPending(ctx context.Context) ([]Barber, error) {
	query := `SELECT ` + barberColumns + `
		FROM barbers
		WHERE license_key IS NULL
		ORDER BY created_at DESC`

	var barbers []Barber
	if err := r.db.SelectContext(ctx, &barbers, query); err != nil {
		return nil, fmt.Errorf("list pending barbers: %w", err)
	}

	return barbers, nil
}

// AttachLicense sets the license key of a barber that has none yet. A
// missing or already licensed barber reports core.ErrNotFound.
func (r *repository) AttachLicense(ctx context.Context, id, licenseKey string) error {
	query := `
		UPDATE barbers
		SET license_key = $2, updated_at = NOW()
		WHERE id = $1 AND license_key IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, licenseKey)
	if err != nil {
		if core.IsUniqueViolation(err, "barbers_license_key_key") {
			return fmt.Errorf("attach license: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("attach license: %w", err)
	}

	return requireOneRow(result, "attach license")
}

func (r *repository) HasActiveLicense(ctx context.Context, id string) (bool, error) {
	query := `SELECT license_key IS NOT NULL FROM barbers WHERE id = $1`

	var active bool
	err := r.db.GetContext(ctx, &active, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check license: %w", err)
	}

	return active, nil
}

func (r *repository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `
		UPDATE barbers
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return requireOneRow(result, "update password")
}

func (r *repository) UpdateProfileImage(ctx context.Context, id, ref string) error {
	query := `
		UPDATE barbers
		SET profile_image_ref = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, ref)
	if err != nil {
		return fmt.Errorf("update profile image: %w", err)
	}

	return requireOneRow(result, "update profile image")
}

func (r *repository) CountByLicenseState(ctx context.Context) (*Counts, error) {
	query := `
		SELECT COUNT(*) AS total,
		       COUNT(license_key) AS licensed,
		       COUNT(*) - COUNT(license_key) AS pending
		FROM barbers`

	var c Counts
	if err := r.db.GetContext(ctx, &c, query); err != nil {
		return nil, fmt.Errorf("count barbers: %w", err)
	}

	return &c, nil
}

func requireOneRow(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	return nil
}
