// AngelaMos | 2026
// service.go

package barber

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/barbermaster/internal/core"
)

const roleBarber = "barber"

type SessionIssuer interface {
	Issue(subjectID, role string) (string, time.Time, error)
}

type ImageStore interface {
	PutImage(ctx context.Context, objectName string, data []byte) error
	URL(ctx context.Context, objectName string) (string, error)
	Remove(ctx context.Context, objectName string) error
}

var ErrStorageDisabled = core.UnavailableError("image storage is not configured")

type Service struct {
	repo     Repository
	sessions SessionIssuer
	images   ImageStore
}

// NewService builds the tenant account service. images may be nil when
// object storage is disabled.
func NewService(repo Repository, sessions SessionIssuer, images ImageStore) *Service {
	return &Service{repo: repo, sessions: sessions, images: images}
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	b, err := s.repo.GetByEmail(ctx, core.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get barber: %w", err)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(req.Password, &b.PasswordHash)
	if err != nil || !valid {
		return nil, ErrInvalidCredentials
	}

	if newHash != "" {
		//nolint:errcheck // best-effort rehash upgrade
		_ = s.repo.UpdatePassword(ctx, b.ID, newHash)
	}

	token, expiresAt, err := s.sessions.Issue(b.ID, roleBarber)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	return &LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      s.toResponse(ctx, b),
	}, nil
}

func (s *Service) Profile(ctx context.Context, id string) (*BarberResponse, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := s.toResponse(ctx, b)
	return &resp, nil
}

func (s *Service) ListPending(ctx context.Context) ([]Barber, error) {
	return s.repo.ListPending(ctx)
}

func (s *Service) HasActiveLicense(ctx context.Context, id string) (bool, error) {
	return s.repo.HasActiveLicense(ctx, id)
}

func (s *Service) Counts(ctx context.Context) (*Counts, error) {
	return s.repo.CountByLicenseState(ctx)
}

// UpdateProfileImage stores a new image and points the barber at it. The
// previous object is removed on a best-effort basis.
func (s *Service) UpdateProfileImage(ctx context.Context, id string, data []byte, ext string) (*BarberResponse, error) {
	if s.images == nil {
		return nil, ErrStorageDisabled
	}

	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	objectName := fmt.Sprintf("barbers/%s/%s%s", id, uuid.New().String(), ext)
	if err := s.images.PutImage(ctx, objectName, data); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateProfileImage(ctx, id, objectName); err != nil {
		//nolint:errcheck // orphan cleanup, the update error is what matters
		_ = s.images.Remove(ctx, objectName)
		return nil, err
	}

	if b.ProfileImageRef != nil {
		if err := s.images.Remove(ctx, *b.ProfileImageRef); err != nil {
			slog.WarnContext(ctx, "remove previous profile image failed",
				"barber_id", id,
				"error", err,
			)
		}
	}

	b.ProfileImageRef = &objectName
	resp := s.toResponse(ctx, b)
	return &resp, nil
}

func (s *Service) toResponse(ctx context.Context, b *Barber) BarberResponse {
	resp := ToBarberResponse(b)

	if s.images != nil && b.ProfileImageRef != nil {
		url, err := s.images.URL(ctx, *b.ProfileImageRef)
		if err != nil {
			slog.WarnContext(ctx, "presign profile image failed", "barber_id", b.ID, "error", err)
		} else {
			resp.ProfileImageURL = url
		}
	}

	return resp
}
