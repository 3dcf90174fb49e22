// AngelaMos | 2026
// orchestrator_test.go

package onboarding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/barbermaster/internal/config"
	"github.com/carterperez-dev/barbermaster/internal/core"
	"github.com/carterperez-dev/barbermaster/internal/licensing"
	"github.com/carterperez-dev/barbermaster/internal/notify"
	"github.com/carterperez-dev/barbermaster/internal/verification"
)

type recordingNotifier struct {
	sent []notify.Message
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, msg notify.Message) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

type harness struct {
	store    *memStore
	notifier *recordingNotifier
	codes    *verification.Registry
	ledger   *licensing.Ledger
	orch     *Orchestrator
}

func newHarness() *harness {
	h := &harness{
		store:    newMemStore(),
		notifier: &recordingNotifier{},
	}

	h.codes = verification.NewRegistry(
		h.store.Codes(),
		h.store.Barbers(),
		h.notifier,
		config.OnboardingConfig{
			CodeTTL:       10 * time.Minute,
			ResetTokenTTL: time.Hour,
			ResetURLBase:  "http://localhost:5173/reset-password",
		},
		nil,
	)
	h.ledger = licensing.NewLedger(h.store.LicenseKeys(), config.LicenseConfig{
		KeyPrefix:           "BARBER",
		MaxGenerateAttempts: 5,
	}, nil)
	h.orch = NewOrchestrator(h.store, h.codes, h.ledger, h.notifier, nil, nil)

	return h
}

func (h *harness) register(t *testing.T, email, taxID string) string {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, h.codes.RequestCode(ctx, email))
	code := h.store.state.codes[core.NormalizeEmail(email)].value

	id, err := h.orch.CompleteRegistration(ctx, registration(email, taxID, code))
	require.NoError(t, err)
	return id
}

func (h *harness) seedKey(t *testing.T, code string) {
	t.Helper()
	inserted, err := h.store.LicenseKeys().Insert(context.Background(), &licensing.LicenseKey{
		ID:   uuid.New().String(),
		Code: code,
	})
	require.NoError(t, err)
	require.True(t, inserted)
}

// assertLicenseInvariant checks that a tenant holds a license key exactly
// when one used key names it as owner.
func (h *harness) assertLicenseInvariant(t *testing.T) {
	t.Helper()

	for id, b := range h.store.state.barbers {
		owned := 0
		for _, k := range h.store.state.keys {
			if k.Status == licensing.StatusUsed && k.OwnerTenantID != nil && *k.OwnerTenantID == id {
				owned++
				require.NotNil(t, b.LicenseKey, "barber %s owns a key but has none recorded", id)
				assert.Equal(t, k.Code, *b.LicenseKey)
			}
		}
		if b.HasLicense() {
			assert.Equal(t, 1, owned, "barber %s", id)
		} else {
			assert.Zero(t, owned, "barber %s", id)
		}
	}
}

func registration(email, taxID, code string) RegistrationInput {
	return RegistrationInput{
		OwnerName:    "Carlos Lima",
		Email:        email,
		Password:     "correct-horse",
		BusinessName: "Barbearia do Carlos",
		TaxID:        taxID,
		City:         "Recife",
		State:        "PE",
		Code:         code,
	}
}

func TestEndToEndActivation(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	email := "carlos@shop.test"

	state, err := h.orch.Status(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, StateNoAccount, state)

	require.NoError(t, h.codes.RequestCode(ctx, email))
	state, err = h.orch.Status(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, StateCodePending, state)

	code := h.store.state.codes[email].value
	tenantID, err := h.orch.CompleteRegistration(ctx, registration(email, "12345678000199", code))
	require.NoError(t, err)

	tenant := h.store.state.barbers[tenantID]
	assert.Nil(t, tenant.LicenseKey)
	assert.True(t, core.CheckPassword("correct-horse", tenant.PasswordHash))
	assert.NotContains(t, h.store.state.codes, email)

	state, err = h.orch.Status(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, StateUnlicensed, state)

	h.seedKey(t, "BARBER-AAAAAAAA")
	require.NoError(t, h.orch.RedeemLicense(ctx, "BARBER-AAAAAAAA", tenantID))

	tenant = h.store.state.barbers[tenantID]
	require.NotNil(t, tenant.LicenseKey)
	assert.Equal(t, "BARBER-AAAAAAAA", *tenant.LicenseKey)

	key, ok := h.store.keyByCode("BARBER-AAAAAAAA")
	require.True(t, ok)
	assert.Equal(t, licensing.StatusUsed, key.Status)
	assert.Equal(t, tenantID, *key.OwnerTenantID)
	assert.NotNil(t, key.UsedAt)

	state, err = h.orch.Status(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, StateActive, state)

	h.assertLicenseInvariant(t)
}

func TestRegistrationRejectsWrongCode(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	email := "carlos@shop.test"

	require.NoError(t, h.codes.RequestCode(ctx, email))
	code := h.store.state.codes[email].value
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	_, err := h.orch.CompleteRegistration(ctx, registration(email, "1", wrong))
	assert.ErrorIs(t, err, ErrInvalidOrExpiredCode)
	assert.Empty(t, h.store.state.barbers)
	assert.Contains(t, h.store.state.codes, email)
}

func TestRegistrationCodeIsSingleUse(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	email := "carlos@shop.test"

	require.NoError(t, h.codes.RequestCode(ctx, email))
	code := h.store.state.codes[email].value

	_, err := h.orch.CompleteRegistration(ctx, registration(email, "1", code))
	require.NoError(t, err)

	_, err = h.orch.CompleteRegistration(ctx, registration(email, "2", code))
	assert.ErrorIs(t, err, ErrInvalidOrExpiredCode)
	assert.Len(t, h.store.state.barbers, 1)
}

func TestRegistrationDuplicateTaxIDRollsBackCode(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	h.register(t, "first@shop.test", "12345678000199")

	require.NoError(t, h.codes.RequestCode(ctx, "second@shop.test"))
	code := h.store.state.codes["second@shop.test"].value

	_, err := h.orch.CompleteRegistration(ctx, registration("second@shop.test", "12345678000199", code))
	assert.ErrorIs(t, err, core.ErrConflict)
	assert.Contains(t, h.store.state.codes, "second@shop.test")
	assert.Len(t, h.store.state.barbers, 1)
}

func TestRedeemTwiceFailsSecondTime(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	first := h.register(t, "first@shop.test", "1")
	second := h.register(t, "second@shop.test", "2")
	h.seedKey(t, "BARBER-AAAAAAAA")

	require.NoError(t, h.orch.RedeemLicense(ctx, "BARBER-AAAAAAAA", first))

	err := h.orch.RedeemLicense(ctx, "BARBER-AAAAAAAA", second)
	assert.ErrorIs(t, err, licensing.ErrInvalidOrUsedKey)
	assert.False(t, h.store.hasLicense(second))

	h.assertLicenseInvariant(t)
}

func TestRedeemUnknownKey(t *testing.T) {
	h := newHarness()
	tenant := h.register(t, "carlos@shop.test", "1")

	err := h.orch.RedeemLicense(context.Background(), "BARBER-DEADBEEF", tenant)
	assert.ErrorIs(t, err, licensing.ErrInvalidOrUsedKey)

	appErr, ok := core.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "INVALID_OR_USED_KEY", appErr.Code)
}

func TestRedeemMissingKeyHidesTenantState(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	licensed := h.register(t, "carlos@shop.test", "1")
	h.seedKey(t, "BARBER-AAAAAAAA")
	require.NoError(t, h.orch.RedeemLicense(ctx, "BARBER-AAAAAAAA", licensed))

	cases := []struct {
		name     string
		code     string
		tenantID string
	}{
		{"used key, same tenant", "BARBER-AAAAAAAA", licensed},
		{"unknown key, unknown tenant", "BARBER-0BADC0DE", uuid.New().String()},
		{"unknown key, licensed tenant", "BARBER-0BADC0DE", licensed},
		{"unknown key, malformed tenant", "BARBER-0BADC0DE", "not-a-uuid"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := h.orch.RedeemLicense(ctx, tc.code, tc.tenantID)
			assert.ErrorIs(t, err, licensing.ErrInvalidOrUsedKey)
			assert.NotErrorIs(t, err, ErrActivationFailed)
		})
	}

	h.assertLicenseInvariant(t)
}

func TestRedeemMarkFailureIsActivationFailed(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	tenant := h.register(t, "carlos@shop.test", "1")
	h.seedKey(t, "BARBER-AAAAAAAA")
	h.store.failNext["keys.mark"] = errors.New("connection reset")

	err := h.orch.RedeemLicense(ctx, "BARBER-AAAAAAAA", tenant)
	assert.ErrorIs(t, err, ErrActivationFailed)
	assert.False(t, h.store.hasLicense(tenant))

	require.NoError(t, h.orch.RedeemLicense(ctx, "BARBER-AAAAAAAA", tenant))
	h.assertLicenseInvariant(t)
}

func TestRedeemLookupFailureIsNotActivationFailed(t *testing.T) {
	h := newHarness()
	tenant := h.register(t, "carlos@shop.test", "1")
	h.seedKey(t, "BARBER-AAAAAAAA")
	h.store.failNext["keys.lock"] = errors.New("connection reset")

	err := h.orch.RedeemLicense(context.Background(), "BARBER-AAAAAAAA", tenant)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrActivationFailed)
	assert.False(t, core.IsAppError(err))
}

func TestRedeemForLicensedTenantRollsBackKey(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	tenant := h.register(t, "carlos@shop.test", "1")
	h.seedKey(t, "BARBER-AAAAAAAA")
	h.seedKey(t, "BARBER-BBBBBBBB")
	require.NoError(t, h.orch.RedeemLicense(ctx, "BARBER-AAAAAAAA", tenant))

	err := h.orch.RedeemLicense(ctx, "BARBER-BBBBBBBB", tenant)
	assert.ErrorIs(t, err, ErrActivationFailed)

	key, ok := h.store.keyByCode("BARBER-BBBBBBBB")
	require.True(t, ok)
	assert.True(t, key.IsAvailable())

	h.assertLicenseInvariant(t)
}

func TestRedeemForMissingTenant(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.seedKey(t, "BARBER-AAAAAAAA")

	err := h.orch.RedeemLicense(ctx, "BARBER-AAAAAAAA", uuid.New().String())
	assert.ErrorIs(t, err, ErrActivationFailed)

	err = h.orch.RedeemLicense(ctx, "BARBER-AAAAAAAA", "not-a-uuid")
	assert.ErrorIs(t, err, ErrActivationFailed)

	key, ok := h.store.keyByCode("BARBER-AAAAAAAA")
	require.True(t, ok)
	assert.True(t, key.IsAvailable())
}

func TestRedeemInfrastructureFailureRollsBack(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	tenant := h.register(t, "carlos@shop.test", "1")
	h.seedKey(t, "BARBER-AAAAAAAA")
	h.store.failNext["barbers.attach"] = errors.New("connection reset")

	err := h.orch.RedeemLicense(ctx, "BARBER-AAAAAAAA", tenant)
	assert.ErrorIs(t, err, ErrActivationFailed)

	key, ok := h.store.keyByCode("BARBER-AAAAAAAA")
	require.True(t, ok)
	assert.True(t, key.IsAvailable())
	assert.False(t, h.store.hasLicense(tenant))
}

func TestAdminIssueAndDeliver(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	tenant := h.register(t, "carlos@shop.test", "1")
	h.notifier.sent = nil

	key, err := h.orch.AdminIssueAndDeliver(ctx, "Carlos@Shop.test", tenant)
	require.NoError(t, err)
	assert.True(t, h.ledger.ValidFormat(key.Code))

	require.Len(t, h.notifier.sent, 1)
	assert.Equal(t, "carlos@shop.test", h.notifier.sent[0].To)
	assert.Contains(t, h.notifier.sent[0].TextBody, key.Code)

	require.NoError(t, h.orch.RedeemLicense(ctx, key.Code, tenant))

	_, err = h.orch.AdminIssueAndDeliver(ctx, "carlos@shop.test", tenant)
	assert.ErrorIs(t, err, ErrAlreadyActive)

	h.assertLicenseInvariant(t)
}

func TestAdminIssueDeliveryFailureLeavesNoKey(t *testing.T) {
	h := newHarness()
	tenant := h.register(t, "carlos@shop.test", "1")
	h.notifier.err = errors.New("smtp auth failed")

	_, err := h.orch.AdminIssueAndDeliver(context.Background(), "carlos@shop.test", tenant)
	assert.ErrorIs(t, err, core.ErrDelivery)
	assert.Empty(t, h.store.state.keys)
}

func TestAdminIssueValidatesTenant(t *testing.T) {
	h := newHarness()
	tenant := h.register(t, "carlos@shop.test", "1")

	_, err := h.orch.AdminIssueAndDeliver(context.Background(), "other@shop.test", tenant)
	assert.ErrorIs(t, err, ErrEmailMismatch)

	_, err = h.orch.AdminIssueAndDeliver(context.Background(), "x@shop.test", uuid.New().String())
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.Empty(t, h.store.state.keys)
}

func TestDeletingUsedKeyLeavesTenantLicensed(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	tenant := h.register(t, "carlos@shop.test", "1")

	key, err := h.ledger.Generate(ctx)
	require.NoError(t, err)
	require.NoError(t, h.orch.RedeemLicense(ctx, key.Code, tenant))

	require.NoError(t, h.ledger.Delete(ctx, key.ID))

	keys, err := h.ledger.List(ctx, licensing.ListParams{})
	require.NoError(t, err)
	assert.Empty(t, keys)

	assert.Equal(t, key.Code, *h.store.state.barbers[tenant].LicenseKey)
}

func TestResetPassword(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	tenant := h.register(t, "carlos@shop.test", "1")

	token := "ab12" + "00000000000000000000000000000000000000000000000000000000000"
	require.NoError(t, h.store.Codes().UpsertResetToken(
		ctx, "carlos@shop.test", core.HashToken(token), time.Now().Add(time.Hour)))

	require.NoError(t, h.orch.ResetPassword(ctx, "carlos@shop.test", token, "new-password-1"))
	assert.True(t, core.CheckPassword("new-password-1", h.store.state.barbers[tenant].PasswordHash))

	err := h.orch.ResetPassword(ctx, "carlos@shop.test", token, "another-pass")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
	assert.True(t, core.CheckPassword("new-password-1", h.store.state.barbers[tenant].PasswordHash))
}
