// AngelaMos | 2026
// service.go

package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/barbermaster/internal/core"
)

const roleAdmin = "admin"

type SessionIssuer interface {
	Issue(subjectID, role string) (string, time.Time, error)
}

type Service struct {
	repo     Store
	sessions SessionIssuer
}

func NewService(repo Store, sessions SessionIssuer) *Service {
	return &Service{repo: repo, sessions: sessions}
}

// SetupMaster creates the first admin. It fails once any admin exists.
func (s *Service) SetupMaster(ctx context.Context, req SetupMasterRequest) (*Admin, error) {
	hash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	a := &Admin{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Email:        core.NormalizeEmail(req.Email),
		PasswordHash: hash,
	}
	err = s.repo.InTx(ctx, func(repo Repository) error {
		if err := repo.LockSetup(ctx); err != nil {
			return err
		}
		return repo.CreateFirst(ctx, a)
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "master admin created", "admin_id", a.ID)
	return a, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	a, err := s.repo.GetByEmail(ctx, core.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(req.Password, &a.PasswordHash)
	if err != nil || !valid {
		return nil, ErrInvalidCredentials
	}

	if newHash != "" {
		//nolint:errcheck // best-effort rehash upgrade
		_ = s.repo.UpdatePassword(ctx, a.ID, newHash)
	}

	token, expiresAt, err := s.sessions.Issue(a.ID, roleAdmin)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	return &LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      ToAdminResponse(a),
	}, nil
}

func (s *Service) ChangePassword(ctx context.Context, id string, req ChangePasswordRequest) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !core.CheckPassword(req.CurrentPassword, a.PasswordHash) {
		return ErrWrongPassword
	}

	hash, err := core.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, id, hash); err != nil {
		return err
	}

	slog.InfoContext(ctx, "admin password changed", "admin_id", id)
	return nil
}
