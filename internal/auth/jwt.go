// AngelaMos | 2026
// jwt.go

package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/barbermaster/internal/config"
	"github.com/carterperez-dev/barbermaster/internal/core"
	"github.com/carterperez-dev/barbermaster/internal/middleware"
)

const (
	RoleAdmin  = "admin"
	RoleBarber = "barber"

	sessionTokenType = "session"
	revokedKeyPrefix = "session:revoked:"
)

var ErrInvalidSession = errors.New("invalid session")

// SessionManager issues and verifies signed session tokens for both
// admin and barber subjects.
type SessionManager struct {
	privateKey jwk.Key
	publicKey  jwk.Key
	publicJWKS jwk.Set
	config     config.JWTConfig
	redis      *redis.Client
}

func NewSessionManager(
	cfg config.JWTConfig,
	redisClient *redis.Client,
) (*SessionManager, error) {
	privateKeyPEM, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}

	privateKey, err := jwk.ParseKey(privateKeyPEM, jwk.WithPEM(true))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	return newSessionManager(privateKey, cfg, redisClient)
}

func newSessionManager(
	privateKey jwk.Key,
	cfg config.JWTConfig,
	redisClient *redis.Client,
) (*SessionManager, error) {
	if setErr := privateKey.Set(jwk.AlgorithmKey, jwa.ES256()); setErr != nil {
		return nil, fmt.Errorf("set algorithm: %w", setErr)
	}

	keyID := uuid.New().String()[:8]
	if setErr := privateKey.Set(jwk.KeyIDKey, keyID); setErr != nil {
		return nil, fmt.Errorf("set key id: %w", setErr)
	}

	publicKey, err := privateKey.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("derive public key: %w", err)
	}

	if setErr := publicKey.Set(jwk.KeyUsageKey, "sig"); setErr != nil {
		return nil, fmt.Errorf("set key usage: %w", setErr)
	}

	publicJWKS := jwk.NewSet()
	if addErr := publicJWKS.AddKey(publicKey); addErr != nil {
		return nil, fmt.Errorf("add key to set: %w", addErr)
	}

	return &SessionManager{
		privateKey: privateKey,
		publicKey:  publicKey,
		publicJWKS: publicJWKS,
		config:     cfg,
		redis:      redisClient,
	}, nil
}

// EnsureKeyPair writes a fresh key pair when none exists yet.
func EnsureKeyPair(cfg config.JWTConfig) (bool, error) {
	if _, err := os.Stat(cfg.PrivateKeyPath); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat private key: %w", err)
	}

	for _, p := range []string{cfg.PrivateKeyPath, cfg.PublicKeyPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
			return false, fmt.Errorf("create key directory: %w", err)
		}
	}

	if err := GenerateKeyPair(cfg.PrivateKeyPath, cfg.PublicKeyPath); err != nil {
		return false, err
	}

	return true, nil
}

func GenerateKeyPair(privateKeyPath, publicKeyPath string) error {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}

	jwkPrivate, err := jwk.Import(privateKey)
	if err != nil {
		return fmt.Errorf("import private key: %w", err)
	}

	privatePEM, err := jwk.Pem(jwkPrivate)
	if err != nil {
		return fmt.Errorf("encode private key: %w", err)
	}

	if writeErr := os.WriteFile(privateKeyPath, privatePEM, 0o600); writeErr != nil {
		return fmt.Errorf("write private key: %w", writeErr)
	}

	jwkPublic, err := jwkPrivate.PublicKey()
	if err != nil {
		return fmt.Errorf("derive public key: %w", err)
	}

	publicPEM, err := jwk.Pem(jwkPublic)
	if err != nil {
		return fmt.Errorf("encode public key: %w", err)
	}

	//nolint:gosec // G306: public key is intentionally world-readable
	if writeErr := os.WriteFile(publicKeyPath, publicPEM, 0o644); writeErr != nil {
		return fmt.Errorf("write public key: %w", writeErr)
	}

	return nil
}

// TTLFor returns the default session lifetime of a subject space.
func (m *SessionManager) TTLFor(role string) time.Duration {
	if role == RoleAdmin {
		return m.config.AdminSessionExpire
	}
	return m.config.BarberSessionExpire
}

func (m *SessionManager) Issue(subjectID, role string) (string, time.Time, error) {
	return m.IssueSession(subjectID, role, m.TTLFor(role))
}

func (m *SessionManager) IssueSession(
	subjectID, role string,
	ttl time.Duration,
) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)

	token, err := jwt.NewBuilder().
		JwtID(uuid.New().String()).
		Issuer(m.config.Issuer).
		Audience([]string{m.config.Audience}).
		Subject(subjectID).
		IssuedAt(now).
		Expiration(expiresAt).
		NotBefore(now).
		Claim("role", role).
		Claim("type", sessionTokenType).
		Build()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.ES256(), m.privateKey))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return string(signed), expiresAt, nil
}

func (m *SessionManager) VerifySession(
	ctx context.Context,
	tokenString string,
) (*middleware.Session, error) {
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.ES256(), m.publicKey),
		jwt.WithValidate(true),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithAudience(m.config.Audience),
	)
	if err != nil {
		if isTokenExpiredError(err) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSession, core.ErrTokenExpired)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidSession, core.ErrTokenInvalid)
	}

	var tokenType string
	if err := token.Get("type", &tokenType); err != nil || tokenType != sessionTokenType {
		return nil, fmt.Errorf("%w: wrong token type: %w", ErrInvalidSession, core.ErrTokenInvalid)
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return nil, fmt.Errorf("%w: missing subject: %w", ErrInvalidSession, core.ErrTokenInvalid)
	}

	var role string
	if err := token.Get("role", &role); err != nil || (role != RoleAdmin && role != RoleBarber) {
		return nil, fmt.Errorf("%w: bad role claim: %w", ErrInvalidSession, core.ErrTokenInvalid)
	}

	jti, _ := token.JwtID()
	expiresAt, _ := token.Expiration()

	if m.isRevoked(ctx, jti) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSession, core.ErrTokenRevoked)
	}

	return &middleware.Session{
		ID:        jti,
		SubjectID: subject,
		Role:      role,
		ExpiresAt: expiresAt,
	}, nil
}

// Revoke denies the session until it would have expired anyway.
func (m *SessionManager) Revoke(ctx context.Context, s *middleware.Session) error {
	if m.redis == nil || s == nil || s.ID == "" {
		return nil
	}

	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	if err := m.redis.Set(ctx, revokedKeyPrefix+s.ID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	return nil
}

func (m *SessionManager) isRevoked(ctx context.Context, jti string) bool {
	if m.redis == nil || jti == "" {
		return false
	}

	exists, err := m.redis.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		slog.WarnContext(ctx, "session revocation check failed, allowing",
			"error", err,
		)
		return false
	}

	return exists > 0
}

func isTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "exp") &&
		strings.Contains(errStr, "not satisfied")
}

func (m *SessionManager) JWKSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "public, max-age=3600")

		if err := json.NewEncoder(w).Encode(m.publicJWKS); err != nil {
			http.Error(
				w,
				"Internal Server Error",
				http.StatusInternalServerError,
			)
			return
		}
	}
}

func (m *SessionManager) KeyID() string {
	var kid string
	//nolint:errcheck // key ID always set during construction
	_ = m.privateKey.Get(jwk.KeyIDKey, &kid)
	return kid
}
