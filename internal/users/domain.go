package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/gamestore/gamestore-admin/internal/shared"
)

// User represents a user account for management.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
}

// Page is one page of a user listing.
type Page struct {
	Users      []User            `json:"users"`
	Pagination shared.Pagination `json:"pagination"`
}

// RolesPayload is the body accepted when replacing a user's roles.
type RolesPayload struct {
	Roles []string `json:"roles" validate:"required,dive,required"`
}
