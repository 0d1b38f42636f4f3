package auth

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/gamestore/gamestore-admin/internal/shared"
)

// PasswordChecker verifies a password for an email outside the local store.
type PasswordChecker interface {
	CheckPassword(ctx context.Context, email, password string) error
}

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	issuer   *Issuer
	external PasswordChecker
	logger   *slog.Logger
}

// NewService constructs a new Service. external may be nil, in which case
// passwords are checked against the stored bcrypt hash.
func NewService(repo Repository, issuer *Issuer, external PasswordChecker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, issuer: issuer, external: external, logger: logger}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Account, error) {
	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Error("auth lookup account", slog.Any("error", err))
		}
		return Account{}, shared.ErrInvalidCredentials
	}
	if !account.IsActive {
		return Account{}, shared.ErrInvalidCredentials
	}
	if s.external != nil {
		if err := s.external.CheckPassword(ctx, email, password); err != nil {
			if !errors.Is(err, shared.ErrInvalidCredentials) {
				s.logger.Error("auth external check", slog.Any("error", err))
			}
			return Account{}, shared.ErrInvalidCredentials
		}
		return account, nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return Account{}, shared.ErrInvalidCredentials
	}
	return account, nil
}

// Login authenticates and issues a credential.
func (s *Service) Login(ctx context.Context, email, password string) (Credential, error) {
	account, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return Credential{}, err
	}
	cred, err := s.issuer.Issue(ctx, account)
	if err != nil {
		return Credential{}, err
	}
	s.logger.Info("auth login", slog.String("subject", account.ID.String()), slog.Any("roles", cred.Roles))
	return cred, nil
}
