package shared

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogHasNoDuplicates(t *testing.T) {
	seen := map[string]bool{}
	for _, p := range AllPermissions() {
		require.False(t, seen[p], "duplicate permission %s", p)
		seen[p] = true
		assert.True(t, IsKnownPermission(p))
	}
	assert.False(t, IsKnownPermission("viewgame"))
	assert.False(t, IsKnownPermission(""))
}

func TestSortPermissions(t *testing.T) {
	perms := []string{"zeta", PermManageRoles, "alpha", PermViewUsers, PermViewGame}
	SortPermissions(perms)
	assert.Equal(t, []string{PermViewUsers, PermManageRoles, PermViewGame, "alpha", "zeta"}, perms)
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"name": "required", "email": "email"}}
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "validation failed: email: email; name: required", err.Error())
	assert.Equal(t, "validation failed", (&ValidationError{}).Error())
}

func TestIdentityContext(t *testing.T) {
	assert.Nil(t, IdentityFromContext(context.Background()))
	id := &Identity{Subject: "abc", Roles: []string{"Admin"}}
	assert.Same(t, id, IdentityFromContext(ContextWithIdentity(context.Background(), id)))
}

func TestPagination(t *testing.T) {
	p := NewPagination(0, 0, 41)
	assert.Equal(t, Pagination{Page: 1, PerPage: 20, Total: 41, TotalPages: 3}, p)
	assert.Equal(t, 0, p.Offset())
	assert.Equal(t, 20, NewPagination(2, 20, 41).Offset())
}
