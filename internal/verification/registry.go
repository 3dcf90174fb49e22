// AngelaMos | 2026
// registry.go

package verification

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"net/url"
	"time"

	"github.com/carterperez-dev/barbermaster/internal/config"
	"github.com/carterperez-dev/barbermaster/internal/core"
	"github.com/carterperez-dev/barbermaster/internal/metrics"
	"github.com/carterperez-dev/barbermaster/internal/notify"
)

const (
	codeMin   = 100000
	codeSpan  = 900000
	resetSize = 32
)

var (
	ErrEmailAlreadyRegistered = core.ConflictError(
		"EMAIL_ALREADY_REGISTERED",
		"email already registered",
		http.StatusBadRequest,
	)
	ErrAccountNotFound = core.NotFoundError("account")
)

// AccountChecker answers whether a tenant account already uses an email.
type AccountChecker interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// Registry issues single-use email verification codes and password reset
// tokens.
type Registry struct {
	repo     Repository
	accounts AccountChecker
	notifier notify.Notifier
	config   config.OnboardingConfig
	metrics  *metrics.OnboardingMetrics
	now      func() time.Time
	newCode  func() (string, error)
}

func NewRegistry(
	repo Repository,
	accounts AccountChecker,
	notifier notify.Notifier,
	cfg config.OnboardingConfig,
	m *metrics.OnboardingMetrics,
) *Registry {
	return &Registry{
		repo:     repo,
		accounts: accounts,
		notifier: notifier,
		config:   cfg,
		metrics:  m,
		now:      time.Now,
		newCode:  GenerateCode,
	}
}

// GenerateCode returns a six digit code drawn uniformly from 100000-999999.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+codeMin), nil
}

func (r *Registry) CodeTTL() time.Duration {
	return r.config.CodeTTL
}

// RequestCode stores a fresh code for email, replacing any previous one, and
// delivers it.
func (r *Registry) RequestCode(ctx context.Context, email string) error {
	email = core.NormalizeEmail(email)

	exists, err := r.accounts.ExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("request code: %w", err)
	}
	if exists {
		r.metrics.CodeSent(metrics.ResultInvalid)
		return ErrEmailAlreadyRegistered
	}

	code, err := r.newCode()
	if err != nil {
		return err
	}

	expiresAt := r.now().Add(r.config.CodeTTL)
	if err := r.repo.UpsertCode(ctx, email, code, expiresAt); err != nil {
		return fmt.Errorf("request code: %w", err)
	}

	msg := notify.VerificationCodeMessage(email, code, r.config.CodeTTL)
	if err := r.notifier.Send(ctx, msg); err != nil {
		r.metrics.CodeSent(metrics.ResultFailure)
		return core.DeliveryError(err)
	}

	r.metrics.CodeSent(metrics.ResultSuccess)
	slog.InfoContext(ctx, "verification code sent", "email", email)
	return nil
}

// ConsumeCode deletes the code and reports true only when it matches and has
// not expired. Wrong or expired codes leave the stored row untouched.
func (r *Registry) ConsumeCode(ctx context.Context, email, code string) (bool, error) {
	return r.ConsumeWith(ctx, r.repo, email, code)
}

// ConsumeWith is ConsumeCode against a caller supplied repository, typically
// one bound to an open transaction.
func (r *Registry) ConsumeWith(
	ctx context.Context,
	repo Repository,
	email, code string,
) (bool, error) {
	if len(code) != 6 {
		return false, nil
	}
	return repo.ConsumeCode(ctx, core.NormalizeEmail(email), code, r.now())
}

func (r *Registry) HasLiveCode(ctx context.Context, email string) (bool, error) {
	return r.repo.HasLiveCode(ctx, core.NormalizeEmail(email), r.now())
}

// RequestPasswordReset stores a hashed reset token for an existing account
// and mails the raw token as part of a reset link.
func (r *Registry) RequestPasswordReset(ctx context.Context, email string) error {
	email = core.NormalizeEmail(email)

	exists, err := r.accounts.ExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("request password reset: %w", err)
	}
	if !exists {
		return ErrAccountNotFound
	}

	token, err := core.GenerateHexToken(resetSize)
	if err != nil {
		return err
	}

	expiresAt := r.now().Add(r.config.ResetTokenTTL)
	if err := r.repo.UpsertResetToken(ctx, email, core.HashToken(token), expiresAt); err != nil {
		return fmt.Errorf("request password reset: %w", err)
	}

	link := resetLink(r.config.ResetURLBase, token, email)
	if err := r.notifier.Send(ctx, notify.PasswordResetMessage(email, link, r.config.ResetTokenTTL)); err != nil {
		return core.DeliveryError(err)
	}

	slog.InfoContext(ctx, "password reset requested", "email", email)
	return nil
}

// ConsumeResetTokenWith deletes a matching unexpired reset token.
func (r *Registry) ConsumeResetTokenWith(
	ctx context.Context,
	repo Repository,
	email, token string,
) (bool, error) {
	if token == "" {
		return false, nil
	}
	return repo.ConsumeResetToken(ctx, core.NormalizeEmail(email), core.HashToken(token), r.now())
}

func (r *Registry) PurgeExpired(ctx context.Context) (int64, int64, error) {
	return r.repo.PurgeExpired(ctx, r.now())
}

func resetLink(base, token, email string) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("email", email)
	return base + "?" + q.Encode()
}
