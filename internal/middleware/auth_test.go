// AngelaMos | 2026
// auth_test.go

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/barbermaster/internal/core"
)

type stubVerifier struct {
	sessions map[string]*Session
	err      error
}

func (s *stubVerifier) VerifySession(_ context.Context, token string) (*Session, error) {
	if session, ok := s.sessions[token]; ok {
		return session, nil
	}
	if s.err != nil {
		return nil, s.err
	}
	return nil, fmt.Errorf("verify: %w", core.ErrTokenInvalid)
}

type stubLicenses struct {
	active map[string]bool
	err    error
}

func (s *stubLicenses) HasActiveLicense(_ context.Context, id string) (bool, error) {
	return s.active[id], s.err
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	core.OK(w, map[string]string{"subject": GetUserID(r.Context())})
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp core.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func newVerifier() *stubVerifier {
	return &stubVerifier{sessions: map[string]*Session{
		"barber-token": {ID: "s1", SubjectID: "barber-1", Role: "barber"},
		"admin-token":  {ID: "s2", SubjectID: "admin-1", Role: "admin"},
	}}
}

func TestAuthenticatorMissingTokenIs401(t *testing.T) {
	h := Authenticator(newVerifier())(http.HandlerFunc(okHandler))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, rec))
}

func TestAuthenticatorInvalidTokenIs400(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"invalid", nil, "TOKEN_INVALID"},
		{"expired", fmt.Errorf("verify: %w", core.ErrTokenExpired), "TOKEN_EXPIRED"},
		{"revoked", fmt.Errorf("verify: %w", core.ErrTokenRevoked), "TOKEN_REVOKED"},
		{"unknown", errors.New("weird"), "TOKEN_INVALID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newVerifier()
			v.err = tt.err
			h := Authenticator(v)(http.HandlerFunc(okHandler))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer forged")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}
}

func TestAuthenticatorAttachesSession(t *testing.T) {
	h := Authenticator(newVerifier())(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer barber-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "barber-1")
}

func TestRequireRole(t *testing.T) {
	v := newVerifier()
	h := Authenticator(v)(RequireAdmin(http.HandlerFunc(okHandler)))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer barber-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOptionalAuthIgnoresBadToken(t *testing.T) {
	h := OptionalAuth(newVerifier())(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"subject":""`)
}

func TestRequireActiveLicense(t *testing.T) {
	checker := &stubLicenses{active: map[string]bool{"barber-1": false}}
	h := RequireActiveLicense(checker)(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithSession(req.Context(), &Session{SubjectID: "barber-1", Role: "barber"}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "LICENSE_REQUIRED", errorCode(t, rec))

	checker.active["barber-1"] = true
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExtractToken(t *testing.T) {
	tests := map[string]string{
		"":             "",
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"Bearerabc":    "",
	}

	for header, want := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		assert.Equal(t, want, ExtractToken(req), header)
	}
}
