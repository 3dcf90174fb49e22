// AngelaMos | 2026
// entity.go

package licensing

import (
	"net/http"
	"time"

	"github.com/carterperez-dev/barbermaster/internal/core"
)

const (
	StatusAvailable = "available"
	StatusUsed      = "used"
)

// LicenseKey is an activation code. A used key always records who redeemed
// it and when; an available key records neither.
type LicenseKey struct {
	ID            string     `db:"id"              json:"id"`
	Code          string     `db:"code"            json:"chave"`
	Status        string     `db:"status"          json:"status"`
	OwnerTenantID *string    `db:"owner_tenant_id" json:"ownerTenantId,omitempty"`
	CreatedAt     time.Time  `db:"created_at"      json:"createdAt"`
	UsedAt        *time.Time `db:"used_at"         json:"usedAt,omitempty"`
}

func (k *LicenseKey) IsAvailable() bool {
	return k.Status == StatusAvailable
}

// KeyListing is a key joined with the email of the tenant that redeemed it.
type KeyListing struct {
	LicenseKey
	OwnerEmail *string `db:"owner_email" json:"ownerEmail,omitempty"`
}

type ListParams struct {
	Status string
}

var (
	ErrInvalidOrUsedKey = core.StateError(
		"INVALID_OR_USED_KEY",
		"license key is invalid or already used",
	)
	ErrKeyGenerationExhausted = core.NewAppError(
		core.ErrInternalError,
		"could not generate a unique license key",
		http.StatusInternalServerError,
		"KEY_GENERATION_FAILED",
	)
	ErrKeyNotFound = core.NotFoundError("license key")
)
