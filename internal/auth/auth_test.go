package auth_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gamestore/gamestore-admin/internal/auth"
	"github.com/gamestore/gamestore-admin/internal/rbac"
	"github.com/gamestore/gamestore-admin/internal/shared"
)

const (
	testSecret   = "test-signing-secret-0123456789abcdef"
	testIssuer   = "gamestore-test"
	testAudience = "gamestore-spa"
	testPassword = "correct-horse"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubRepo struct {
	accounts map[string]auth.Account
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (auth.Account, error) {
	a, ok := s.accounts[email]
	if !ok {
		return auth.Account{}, shared.ErrNotFound
	}
	return a, nil
}

type fixture struct {
	store   *rbac.MemoryStore
	rbac    *rbac.Service
	repo    *stubRepo
	issuer  *auth.Issuer
	service *auth.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := discardLogger()
	store := rbac.NewMemoryStore()
	h := rbac.DefaultHierarchy(logger)
	svc := rbac.NewService(store, h, logger)
	_, err := svc.Seed(context.Background(), h)
	require.NoError(t, err)

	issuer := auth.NewIssuer(auth.IssuerConfig{
		Secret:     testSecret,
		Issuer:     testIssuer,
		Audience:   testAudience,
		TTLMinutes: 30,
	}, svc).WithClock(func() time.Time { return fixedNow })

	repo := &stubRepo{accounts: map[string]auth.Account{}}
	return &fixture{
		store:   store,
		rbac:    svc,
		repo:    repo,
		issuer:  issuer,
		service: auth.NewService(repo, issuer, nil, logger),
	}
}

func (f *fixture) addAccount(t *testing.T, email string, active bool, roles ...string) auth.Account {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	account := auth.Account{ID: uuid.New(), Email: email, Name: email, PasswordHash: string(hash), IsActive: active}
	f.repo.accounts[email] = account
	f.store.PutUser(rbac.User{ID: account.ID, Email: email, Name: email, IsActive: active})
	require.NoError(t, f.rbac.SetUserRoles(context.Background(), account.ID, roles))
	return account
}

func newTestValidator() *auth.Validator {
	return auth.NewValidator(auth.ValidatorConfig{
		Secret:   testSecret,
		Issuer:   testIssuer,
		Audience: testAudience,
	}).WithClock(func() time.Time { return fixedNow.Add(time.Minute) })
}
