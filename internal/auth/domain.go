package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Account represents a user allowed to sign in.
type Account struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	IsActive     bool
}

// Credential is a signed access token plus the claims it was issued with.
type Credential struct {
	Token       string    `json:"token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Roles       []string  `json:"roles"`
	Permissions []string  `json:"permissions"`
}

// Claims is the JWT payload. Roles and permissions are flat repeated claims.
type Claims struct {
	Name        string   `json:"name,omitempty"`
	Email       string   `json:"email,omitempty"`
	Roles       []string `json:"role,omitempty"`
	Permissions []string `json:"permission,omitempty"`
	jwt.RegisteredClaims
}
