// AngelaMos | 2026
// orchestrator.go

package onboarding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/barbermaster/internal/audit"
	"github.com/carterperez-dev/barbermaster/internal/barber"
	"github.com/carterperez-dev/barbermaster/internal/core"
	"github.com/carterperez-dev/barbermaster/internal/licensing"
	"github.com/carterperez-dev/barbermaster/internal/metrics"
	"github.com/carterperez-dev/barbermaster/internal/notify"
	"github.com/carterperez-dev/barbermaster/internal/verification"
)

type State string

const (
	StateNoAccount   State = "NO_ACCOUNT"
	StateCodePending State = "CODE_PENDING"
	StateUnlicensed  State = "UNLICENSED"
	StateActive      State = "ACTIVE"
)

var (
	ErrInvalidOrExpiredCode = core.StateError(
		"INVALID_OR_EXPIRED_CODE",
		"verification code is invalid or expired",
	)
	ErrActivationFailed = core.StateError(
		"ACTIVATION_FAILED",
		"account not found or already activated",
	)
	ErrAlreadyActive = core.ConflictError(
		"ALREADY_ACTIVE",
		"account already has an active license",
		http.StatusConflict,
	)
	ErrEmailMismatch         = core.ValidationError("email does not match the account")
	ErrTenantNotFound        = core.NotFoundError("barber")
	ErrInvalidOrExpiredToken = core.StateError(
		"INVALID_OR_EXPIRED_TOKEN",
		"reset token is invalid or expired",
	)
)

const roleBarber = "barber"

var tracer = otel.Tracer("barbermaster/onboarding")

// RegistrationInput is everything needed to open a tenant account. Code is
// the emailed verification code.
type RegistrationInput struct {
	OwnerName    string
	Email        string
	Password     string
	BusinessName string
	TaxID        string
	Phone        string
	PostalCode   string
	Street       string
	StreetNumber string
	District     string
	City         string
	State        string
	Code         string
}

// Orchestrator drives a tenant from email verification to an active
// license. Every step that touches more than one table runs in a single
// transaction.
type Orchestrator struct {
	store    Store
	codes    *verification.Registry
	ledger   *licensing.Ledger
	notifier notify.Notifier
	audit    *audit.Log
	metrics  *metrics.OnboardingMetrics
}

func NewOrchestrator(
	store Store,
	codes *verification.Registry,
	ledger *licensing.Ledger,
	notifier notify.Notifier,
	auditLog *audit.Log,
	m *metrics.OnboardingMetrics,
) *Orchestrator {
	return &Orchestrator{
		store:    store,
		codes:    codes,
		ledger:   ledger,
		notifier: notifier,
		audit:    auditLog,
		metrics:  m,
	}
}

// CompleteRegistration consumes the verification code and creates an
// unlicensed tenant in one transaction.
func (o *Orchestrator) CompleteRegistration(
	ctx context.Context,
	in RegistrationInput,
) (string, error) {
	ctx, span := tracer.Start(ctx, "onboarding.CompleteRegistration")
	defer span.End()

	hash, err := core.HashPassword(in.Password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	b := &barber.Barber{
		ID:           uuid.New().String(),
		OwnerName:    in.OwnerName,
		Email:        core.NormalizeEmail(in.Email),
		PasswordHash: hash,
		BusinessName: in.BusinessName,
		TaxID:        in.TaxID,
		Phone:        in.Phone,
		PostalCode:   in.PostalCode,
		Street:       in.Street,
		StreetNumber: in.StreetNumber,
		District:     in.District,
		City:         in.City,
		State:        in.State,
	}

	err = o.store.InTx(ctx, func(tx Repos) error {
		ok, err := o.codes.ConsumeWith(ctx, tx.Codes(), b.Email, in.Code)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidOrExpiredCode
		}

		return tx.Barbers().Create(ctx, b)
	})
	if err != nil {
		o.metrics.Registration(resultOf(err))
		core.SetSpanError(ctx, err)
		return "", err
	}

	o.metrics.Registration(metrics.ResultSuccess)
	span.SetAttributes(attribute.String("barber.id", b.ID))
	slog.InfoContext(ctx, "barber registered", "barber_id", b.ID)

	return b.ID, nil
}

// RedeemLicense marks the key used by tenantID and records it on the
// tenant, or changes nothing at all. An unknown or used key is always
// ErrInvalidOrUsedKey whatever the tenant; once the key is found every
// failure is ErrActivationFailed.
func (o *Orchestrator) RedeemLicense(ctx context.Context, code, tenantID string) error {
	ctx, span := tracer.Start(ctx, "onboarding.RedeemLicense")
	defer span.End()

	var (
		redeemed *licensing.LicenseKey
		locked   bool
	)
	err := o.store.InTx(ctx, func(tx Repos) error {
		key, err := o.ledger.Lock(ctx, tx.LicenseKeys(), code)
		if err != nil {
			return err
		}
		locked = true

		if _, err := uuid.Parse(tenantID); err != nil {
			return ErrActivationFailed
		}

		tenant, err := tx.Barbers().GetByID(ctx, tenantID)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return ErrActivationFailed
			}
			return err
		}
		if tenant.HasLicense() {
			return ErrActivationFailed
		}

		if err := o.ledger.Consume(ctx, tx.LicenseKeys(), key, tenantID); err != nil {
			return err
		}
		core.AddSpanEvent(ctx, "license_key.consumed", attribute.String("key.id", key.ID))

		if err := tx.Barbers().AttachLicense(ctx, tenantID, key.Code); err != nil {
			return err
		}

		redeemed = key
		return nil
	})
	if err != nil {
		o.metrics.Redemption(resultOf(err))
		core.SetSpanError(ctx, err)
		if locked && !errors.Is(err, ErrActivationFailed) {
			slog.ErrorContext(ctx, "license activation failed",
				"barber_id", tenantID,
				"error", err,
			)
			err = ErrActivationFailed
		}
		return err
	}

	o.metrics.Redemption(metrics.ResultSuccess)
	o.audit.Record(ctx, tenantID, audit.ActionLicenseActivated, redeemed.Code)
	slog.InfoContext(ctx, "license activated",
		"barber_id", tenantID,
		"key_id", redeemed.ID,
	)

	return nil
}

// AdminIssueAndDeliver generates a key and emails it to the tenant. When
// delivery fails the key is rolled back so no unsent key is left behind.
func (o *Orchestrator) AdminIssueAndDeliver(
	ctx context.Context,
	tenantEmail, tenantID string,
) (*licensing.LicenseKey, error) {
	ctx, span := tracer.Start(ctx, "onboarding.AdminIssueAndDeliver")
	defer span.End()

	if _, err := uuid.Parse(tenantID); err != nil {
		return nil, ErrTenantNotFound
	}

	tenant, err := o.store.Barbers().GetByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	if tenant.HasLicense() {
		return nil, ErrAlreadyActive
	}
	if tenantEmail != "" && core.NormalizeEmail(tenantEmail) != tenant.Email {
		return nil, ErrEmailMismatch
	}

	var key *licensing.LicenseKey
	err = o.store.InTx(ctx, func(tx Repos) error {
		generated, err := o.ledger.GenerateWith(ctx, tx.LicenseKeys())
		if err != nil {
			return err
		}

		if err := o.notifier.Send(ctx, notify.LicenseKeyMessage(tenant.Email, generated.Code)); err != nil {
			return core.DeliveryError(err)
		}

		key = generated
		return nil
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	o.metrics.KeyIssued(licensing.FlowDelivered)
	slog.InfoContext(ctx, "license key delivered",
		"barber_id", tenant.ID,
		"key_id", key.ID,
	)

	return key, nil
}

// Status reports how far an email has progressed through onboarding.
func (o *Orchestrator) Status(ctx context.Context, email string) (State, error) {
	email = core.NormalizeEmail(email)

	b, err := o.store.Barbers().GetByEmail(ctx, email)
	switch {
	case err == nil && b.HasLicense():
		return StateActive, nil
	case err == nil:
		return StateUnlicensed, nil
	case !errors.Is(err, core.ErrNotFound):
		return "", err
	}

	pending, err := o.codes.HasLiveCode(ctx, email)
	if err != nil {
		return "", err
	}
	if pending {
		return StateCodePending, nil
	}

	return StateNoAccount, nil
}

// ResetPassword consumes a reset token and sets a new password together.
func (o *Orchestrator) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	email = core.NormalizeEmail(email)

	hash, err := core.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	var barberID string
	err = o.store.InTx(ctx, func(tx Repos) error {
		ok, err := o.codes.ConsumeResetTokenWith(ctx, tx.Codes(), email, token)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidOrExpiredToken
		}

		b, err := tx.Barbers().GetByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return ErrInvalidOrExpiredToken
			}
			return err
		}
		barberID = b.ID

		return tx.Barbers().UpdatePassword(ctx, b.ID, hash)
	})
	if err != nil {
		return err
	}

	o.audit.Record(ctx, barberID, audit.ActionPasswordReset, "")
	slog.InfoContext(ctx, "password reset", "barber_id", barberID)
	return nil
}

func resultOf(err error) string {
	if _, ok := core.AsAppError(err); ok && !errors.Is(err, core.ErrDelivery) {
		return metrics.ResultInvalid
	}
	return metrics.ResultFailure
}
