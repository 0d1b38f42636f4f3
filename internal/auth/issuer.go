package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gamestore/gamestore-admin/internal/shared"
)

// RoleResolver supplies a user's role names and the permissions stored for them.
type RoleResolver interface {
	ResolveRoles(ctx context.Context, userID uuid.UUID) (roles []string, permissions []string, err error)
}

// IssuerConfig configures credential signing.
type IssuerConfig struct {
	Secret     string
	Issuer     string
	Audience   string
	TTLMinutes int
}

// Issuer signs HS256 credentials embedding a snapshot of the account's roles
// and permissions.
type Issuer struct {
	cfg   IssuerConfig
	roles RoleResolver
	now   func() time.Time
}

// NewIssuer constructs an Issuer. Configuration problems surface on Issue and Probe.
func NewIssuer(cfg IssuerConfig, roles RoleResolver) *Issuer {
	return &Issuer{cfg: cfg, roles: roles, now: time.Now}
}

// WithClock replaces the time source.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	clone := *i
	clone.now = now
	return &clone
}

// Probe signs a throwaway token so configuration problems stop startup
// instead of the first login.
func (i *Issuer) Probe() error {
	if err := i.checkConfig(); err != nil {
		return err
	}
	_, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Issuer: i.cfg.Issuer}).
		SignedString([]byte(i.cfg.Secret))
	return err
}

// Issue builds and signs a credential for account.
func (i *Issuer) Issue(ctx context.Context, account Account) (Credential, error) {
	if err := i.checkConfig(); err != nil {
		return Credential{}, err
	}

	roles, perms, err := i.roles.ResolveRoles(ctx, account.ID)
	if err != nil {
		return Credential{}, fmt.Errorf("resolve roles: %w", err)
	}

	issuedAt := i.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(time.Duration(i.cfg.TTLMinutes) * time.Minute)
	claims := Claims{
		Name:        account.Name,
		Email:       account.Email,
		Roles:       roles,
		Permissions: perms,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID.String(),
			Issuer:    i.cfg.Issuer,
			Audience:  jwt.ClaimStrings{i.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(i.cfg.Secret))
	if err != nil {
		return Credential{}, fmt.Errorf("sign credential: %w", err)
	}
	return Credential{Token: signed, ExpiresAt: expiresAt, Roles: roles, Permissions: perms}, nil
}

func (i *Issuer) checkConfig() error {
	if i.cfg.Secret == "" {
		return fmt.Errorf("%w: signing secret is not set", shared.ErrConfiguration)
	}
	if i.cfg.TTLMinutes <= 0 {
		return fmt.Errorf("%w: credential ttl must be positive", shared.ErrConfiguration)
	}
	return nil
}
