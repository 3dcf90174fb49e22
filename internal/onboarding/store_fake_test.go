// AngelaMos | 2026
// store_fake_test.go

package onboarding

import (
	"context"
	"maps"
	"sort"
	"time"

	"github.com/carterperez-dev/barbermaster/internal/barber"
	"github.com/carterperez-dev/barbermaster/internal/core"
	"github.com/carterperez-dev/barbermaster/internal/licensing"
	"github.com/carterperez-dev/barbermaster/internal/verification"
)

type secret struct {
	value     string
	expiresAt time.Time
}

type memState struct {
	codes   map[string]secret
	tokens  map[string]secret
	barbers map[string]barber.Barber
	keys    map[string]licensing.LicenseKey
}

func (s *memState) clone() *memState {
	return &memState{
		codes:   maps.Clone(s.codes),
		tokens:  maps.Clone(s.tokens),
		barbers: maps.Clone(s.barbers),
		keys:    maps.Clone(s.keys),
	}
}

// memStore keeps every table in maps and restores a snapshot when a
// transaction function fails, mirroring a database rollback.
type memStore struct {
	state    *memState
	txCalls  int
	failNext map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		state: &memState{
			codes:   map[string]secret{},
			tokens:  map[string]secret{},
			barbers: map[string]barber.Barber{},
			keys:    map[string]licensing.LicenseKey{},
		},
		failNext: map[string]error{},
	}
}

func (m *memStore) Codes() verification.Repository    { return memCodes{m} }
func (m *memStore) Barbers() barber.Repository        { return memBarbers{m} }
func (m *memStore) LicenseKeys() licensing.Repository { return memKeys{m} }

func (m *memStore) InTx(_ context.Context, fn func(tx Repos) error) error {
	m.txCalls++
	snapshot := m.state.clone()
	if err := fn(m); err != nil {
		m.state = snapshot
		return err
	}
	return nil
}

func (m *memStore) keyByCode(code string) (licensing.LicenseKey, bool) {
	for _, existing := range m.state.keys {
		if existing.Code == code {
			return existing, true
		}
	}
	return licensing.LicenseKey{}, false
}

func (m *memStore) hasLicense(id string) bool {
	found := m.state.barbers[id]
	return found.HasLicense()
}

func (m *memStore) injected(op string) error {
	err := m.failNext[op]
	delete(m.failNext, op)
	return err
}

type memCodes struct{ m *memStore }

func (c memCodes) UpsertCode(_ context.Context, email, code string, expiresAt time.Time) error {
	c.m.state.codes[email] = secret{code, expiresAt}
	return nil
}

func (c memCodes) ConsumeCode(_ context.Context, email, code string, now time.Time) (bool, error) {
	return consume(c.m.state.codes, email, code, now), nil
}

func (c memCodes) HasLiveCode(_ context.Context, email string, now time.Time) (bool, error) {
	s, ok := c.m.state.codes[email]
	return ok && now.Before(s.expiresAt), nil
}

func (c memCodes) UpsertResetToken(_ context.Context, email, hash string, expiresAt time.Time) error {
	c.m.state.tokens[email] = secret{hash, expiresAt}
	return nil
}

func (c memCodes) ConsumeResetToken(_ context.Context, email, hash string, now time.Time) (bool, error) {
	return consume(c.m.state.tokens, email, hash, now), nil
}

func (c memCodes) PurgeExpired(context.Context, time.Time) (int64, int64, error) {
	return 0, 0, nil
}

func consume(table map[string]secret, email, value string, now time.Time) bool {
	s, ok := table[email]
	if !ok || s.value != value || !now.Before(s.expiresAt) {
		return false
	}
	delete(table, email)
	return true
}

type memBarbers struct{ m *memStore }

func (b memBarbers) Create(_ context.Context, in *barber.Barber) error {
	if err := b.m.injected("barbers.create"); err != nil {
		return err
	}
	for _, existing := range b.m.state.barbers {
		if existing.Email == in.Email {
			return barber.ErrEmailTaken
		}
		if existing.TaxID == in.TaxID {
			return barber.ErrTaxIDTaken
		}
	}
	in.CreatedAt = time.Now()
	in.UpdatedAt = in.CreatedAt
	b.m.state.barbers[in.ID] = *in
	return nil
}

func (b memBarbers) GetByID(_ context.Context, id string) (*barber.Barber, error) {
	found, ok := b.m.state.barbers[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &found, nil
}

func (b memBarbers) GetByEmail(_ context.Context, email string) (*barber.Barber, error) {
	for _, found := range b.m.state.barbers {
		if found.Email == email {
			return &found, nil
		}
	}
	return nil, core.ErrNotFound
}

func (b memBarbers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := b.GetByEmail(ctx, email)
	return err == nil, nil
}

func (b memBarbers) ListPending(context.Context) ([]barber.Barber, error) {
	var out []barber.Barber
	for _, found := range b.m.state.barbers {
		if !found.HasLicense() {
			out = append(out, found)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (b memBarbers) AttachLicense(_ context.Context, id, licenseKey string) error {
	if err := b.m.injected("barbers.attach"); err != nil {
		return err
	}
	found, ok := b.m.state.barbers[id]
	if !ok || found.HasLicense() {
		return core.ErrNotFound
	}
	found.LicenseKey = &licenseKey
	b.m.state.barbers[id] = found
	return nil
}

func (b memBarbers) HasActiveLicense(_ context.Context, id string) (bool, error) {
	found, ok := b.m.state.barbers[id]
	return ok && found.HasLicense(), nil
}

func (b memBarbers) UpdatePassword(_ context.Context, id, hash string) error {
	found, ok := b.m.state.barbers[id]
	if !ok {
		return core.ErrNotFound
	}
	found.PasswordHash = hash
	b.m.state.barbers[id] = found
	return nil
}

func (b memBarbers) UpdateProfileImage(_ context.Context, id, ref string) error {
	found, ok := b.m.state.barbers[id]
	if !ok {
		return core.ErrNotFound
	}
	found.ProfileImageRef = &ref
	b.m.state.barbers[id] = found
	return nil
}

func (b memBarbers) CountByLicenseState(ctx context.Context) (*barber.Counts, error) {
	pending, _ := b.ListPending(ctx)
	total := len(b.m.state.barbers)
	return &barber.Counts{Total: total, Licensed: total - len(pending), Pending: len(pending)}, nil
}

type memKeys struct{ m *memStore }

func (k memKeys) Insert(_ context.Context, key *licensing.LicenseKey) (bool, error) {
	for _, existing := range k.m.state.keys {
		if existing.Code == key.Code {
			return false, nil
		}
	}
	key.Status = licensing.StatusAvailable
	key.CreatedAt = time.Now()
	k.m.state.keys[key.ID] = *key
	return true, nil
}

func (k memKeys) GetAvailableForUpdate(_ context.Context, code string) (*licensing.LicenseKey, error) {
	if err := k.m.injected("keys.lock"); err != nil {
		return nil, err
	}
	key, ok := k.m.keyByCode(code)
	if !ok || !key.IsAvailable() {
		return nil, core.ErrNotFound
	}
	return &key, nil
}

func (k memKeys) MarkUsed(_ context.Context, id, tenantID string, usedAt time.Time) error {
	if err := k.m.injected("keys.mark"); err != nil {
		return err
	}
	key, ok := k.m.state.keys[id]
	if !ok || !key.IsAvailable() {
		return core.ErrNotFound
	}
	for _, other := range k.m.state.keys {
		if other.OwnerTenantID != nil && *other.OwnerTenantID == tenantID {
			return core.ErrDuplicateKey
		}
	}
	key.Status = licensing.StatusUsed
	key.OwnerTenantID = &tenantID
	key.UsedAt = &usedAt
	k.m.state.keys[id] = key
	return nil
}

func (k memKeys) List(_ context.Context, params licensing.ListParams) ([]licensing.KeyListing, error) {
	out := []licensing.KeyListing{}
	for _, key := range k.m.state.keys {
		if params.Status == "" || key.Status == params.Status {
			out = append(out, licensing.KeyListing{LicenseKey: key})
		}
	}
	return out, nil
}

func (k memKeys) Delete(_ context.Context, id string) error {
	if _, ok := k.m.state.keys[id]; !ok {
		return licensing.ErrKeyNotFound
	}
	delete(k.m.state.keys, id)
	return nil
}

func (k memKeys) CountByStatus(context.Context) (map[string]int, error) {
	counts := map[string]int{licensing.StatusAvailable: 0, licensing.StatusUsed: 0}
	for _, key := range k.m.state.keys {
		counts[key.Status]++
	}
	return counts, nil
}
