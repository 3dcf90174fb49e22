// AngelaMos | 2026
// entity.go

package barber

import (
	"net/http"
	"time"

	"github.com/carterperez-dev/barbermaster/internal/core"
)

// Barber is a tenant account: one barbershop and its owner.
type Barber struct {
	ID              string    `db:"id"`
	OwnerName       string    `db:"owner_name"`
	Email           string    `db:"email"`
	PasswordHash    string    `db:"password_hash"`
	BusinessName    string    `db:"business_name"`
	TaxID           string    `db:"tax_id"`
	Phone           string    `db:"phone"`
	PostalCode      string    `db:"postal_code"`
	Street          string    `db:"street"`
	StreetNumber    string    `db:"street_number"`
	District        string    `db:"district"`
	City            string    `db:"city"`
	State           string    `db:"state"`
	ProfileImageRef *string   `db:"profile_image_ref"`
	LicenseKey      *string   `db:"license_key"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (b *Barber) HasLicense() bool {
	return b.LicenseKey != nil && *b.LicenseKey != ""
}

var (
	ErrEmailTaken = core.ConflictError(
		"EMAIL_TAKEN",
		"email already registered",
		http.StatusBadRequest,
	)
	ErrTaxIDTaken = core.ConflictError(
		"TAX_ID_TAKEN",
		"tax id already registered",
		http.StatusBadRequest,
	)
	ErrInvalidCredentials = core.UnauthorizedError("invalid email or password")
)
