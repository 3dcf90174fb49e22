// AngelaMos | 2026
// license.go

package middleware

import (
	"context"
	"net/http"

	"github.com/carterperez-dev/barbermaster/internal/core"
)

type LicenseChecker interface {
	HasActiveLicense(ctx context.Context, barberID string) (bool, error)
}

var errLicenseRequired = core.NewAppError(
	core.ErrForbidden,
	"an active license is required",
	http.StatusForbidden,
	"LICENSE_REQUIRED",
)

// RequireActiveLicense must run after Authenticator on barber routes.
func RequireActiveLicense(checker LicenseChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			barberID := GetUserID(r.Context())
			if barberID == "" {
				core.JSONError(w, core.UnauthorizedError("authentication required"))
				return
			}

			active, err := checker.HasActiveLicense(r.Context(), barberID)
			if err != nil {
				core.JSONError(w, err)
				return
			}

			if !active {
				core.JSONError(w, errLicenseRequired)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
