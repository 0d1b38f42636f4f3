package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gamestore/gamestore-admin/internal/shared"
)

// ValidatorConfig mirrors the issuer settings a credential must match.
type ValidatorConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

// Validator verifies presented credentials. Every failure is reported the
// same way so callers cannot tell why a token was rejected.
type Validator struct {
	cfg ValidatorConfig
	now func() time.Time
}

// NewValidator constructs a Validator.
func NewValidator(cfg ValidatorConfig) *Validator {
	return &Validator{cfg: cfg, now: time.Now}
}

// WithClock replaces the time source.
func (v *Validator) WithClock(now func() time.Time) *Validator {
	clone := *v
	clone.now = now
	return &clone
}

// Validate reports whether token carries a valid signature, issuer, audience
// and unexpired lifetime.
func (v *Validator) Validate(token string) bool {
	_, ok := v.parse(token)
	return ok
}

// Identity validates token and returns the identity it carries.
func (v *Validator) Identity(token string) (shared.Identity, bool) {
	claims, ok := v.parse(token)
	if !ok || claims.Subject == "" {
		return shared.Identity{}, false
	}
	return shared.Identity{
		Subject:     claims.Subject,
		Email:       claims.Email,
		Name:        claims.Name,
		Roles:       claims.Roles,
		Permissions: claims.Permissions,
	}, true
}

func (v *Validator) parse(token string) (*Claims, bool) {
	if v.cfg.Secret == "" || token == "" {
		return nil, false
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.cfg.Issuer),
		jwt.WithAudience(v.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(0),
		jwt.WithTimeFunc(v.now),
	)
	claims := &Claims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(v.cfg.Secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, false
	}
	return claims, true
}
