package rbac

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type seededFixture struct {
	store     *MemoryStore
	service   *Service
	hierarchy *Hierarchy
}

func newSeededFixture(t *testing.T) seededFixture {
	t.Helper()
	logger := discardLogger()
	store := NewMemoryStore()
	h := DefaultHierarchy(logger)
	svc := NewService(store, h, logger)
	_, err := svc.Seed(context.Background(), h)
	require.NoError(t, err)
	return seededFixture{store: store, service: svc, hierarchy: h}
}

// addUser registers an active user holding roles.
func (f seededFixture) addUser(t *testing.T, name string, roles ...string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	f.store.PutUser(User{ID: id, Name: name, Email: name + "@gamestore.local", IsActive: true})
	require.NoError(t, f.service.SetUserRoles(context.Background(), id, roles))
	return id
}
