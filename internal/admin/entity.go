// AngelaMos | 2026
// entity.go

package admin

import (
	"net/http"
	"time"

	"github.com/carterperez-dev/barbermaster/internal/core"
)

// Admin is a platform operator account.
type Admin struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

var (
	ErrMasterExists = core.ConflictError(
		"MASTER_EXISTS",
		"an admin account already exists",
		http.StatusConflict,
	)
	ErrInvalidCredentials = core.UnauthorizedError("invalid email or password")
	ErrWrongPassword      = core.UnauthorizedError("current password is incorrect")
)
