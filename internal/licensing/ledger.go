// AngelaMos | 2026
// ledger.go

package licensing

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/barbermaster/internal/config"
	"github.com/carterperez-dev/barbermaster/internal/core"
	"github.com/carterperez-dev/barbermaster/internal/metrics"
)

const (
	codeBytes = 4

	FlowPregenerated = "pregenerated"
	FlowDelivered    = "delivered"
)

// Ledger creates, lists, deletes and redeems license keys.
type Ledger struct {
	repo    Repository
	prefix  string
	retries int
	metrics *metrics.OnboardingMetrics
	now     func() time.Time
	newCode func() (string, error)
}

func NewLedger(repo Repository, cfg config.LicenseConfig, m *metrics.OnboardingMetrics) *Ledger {
	l := &Ledger{
		repo:    repo,
		prefix:  cfg.KeyPrefix,
		retries: cfg.MaxGenerateAttempts,
		metrics: m,
		now:     time.Now,
	}
	if l.retries < 1 {
		l.retries = 1
	}
	l.newCode = l.randomCode
	return l
}

func (l *Ledger) randomCode() (string, error) {
	buf := make([]byte, codeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate license code: %w", err)
	}
	return l.prefix + "-" + strings.ToUpper(hex.EncodeToString(buf)), nil
}

// ValidFormat reports whether code is PREFIX-XXXXXXXX with eight uppercase
// hex digits.
func (l *Ledger) ValidFormat(code string) bool {
	rest, ok := strings.CutPrefix(code, l.prefix+"-")
	if !ok || len(rest) != codeBytes*2 {
		return false
	}
	for _, c := range rest {
		if (c < '0' || c > '9') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}

// Normalize trims and upper-cases a code typed by a person.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Generate creates one available key for the admin console.
func (l *Ledger) Generate(ctx context.Context) (*LicenseKey, error) {
	key, err := l.GenerateWith(ctx, l.repo)
	if err != nil {
		return nil, err
	}

	l.metrics.KeyIssued(FlowPregenerated)
	slog.InfoContext(ctx, "license key generated", "key_id", key.ID)
	return key, nil
}

// GenerateWith creates a key through repo, retrying on code collisions.
func (l *Ledger) GenerateWith(ctx context.Context, repo Repository) (*LicenseKey, error) {
	for range l.retries {
		code, err := l.newCode()
		if err != nil {
			return nil, err
		}

		key := &LicenseKey{ID: uuid.New().String(), Code: code}
		inserted, err := repo.Insert(ctx, key)
		if err != nil {
			return nil, err
		}
		if inserted {
			return key, nil
		}

		slog.WarnContext(ctx, "license code collision, retrying")
	}

	return nil, ErrKeyGenerationExhausted
}

// Lock finds an available key by code and locks it until the surrounding
// transaction ends. Unknown, used and malformed codes all yield
// ErrInvalidOrUsedKey.
func (l *Ledger) Lock(ctx context.Context, repo Repository, code string) (*LicenseKey, error) {
	code = Normalize(code)
	if !l.ValidFormat(code) {
		return nil, ErrInvalidOrUsedKey
	}

	key, err := repo.GetAvailableForUpdate(ctx, code)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrInvalidOrUsedKey
		}
		return nil, err
	}
	if !key.IsAvailable() {
		return nil, ErrInvalidOrUsedKey
	}

	return key, nil
}

// Consume marks a locked key as used by tenantID. It must run in the
// transaction that locked the key and attaches it to the tenant.
func (l *Ledger) Consume(ctx context.Context, repo Repository, key *LicenseKey, tenantID string) error {
	usedAt := l.now()
	if err := repo.MarkUsed(ctx, key.ID, tenantID, usedAt); err != nil {
		return err
	}

	key.Status = StatusUsed
	key.OwnerTenantID = &tenantID
	key.UsedAt = &usedAt
	return nil
}

func (l *Ledger) List(ctx context.Context, params ListParams) ([]KeyListing, error) {
	if params.Status != "" && params.Status != StatusAvailable && params.Status != StatusUsed {
		return nil, core.ValidationError("status must be available or used")
	}
	return l.repo.List(ctx, params)
}

// Delete removes a key regardless of status. A tenant that redeemed it keeps
// the code on its account.
func (l *Ledger) Delete(ctx context.Context, id string) error {
	if err := l.repo.Delete(ctx, id); err != nil {
		return err
	}

	slog.InfoContext(ctx, "license key deleted", "key_id", id)
	return nil
}

func (l *Ledger) Counts(ctx context.Context) (map[string]int, error) {
	return l.repo.CountByStatus(ctx)
}
