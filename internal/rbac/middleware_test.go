package rbac

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamestore/gamestore-admin/internal/shared"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func withIdentity(req *http.Request, id *shared.Identity) *http.Request {
	if id == nil {
		return req
	}
	return req.WithContext(shared.ContextWithIdentity(req.Context(), id))
}

func TestMiddlewareRequireAny(t *testing.T) {
	f := newSeededFixture(t)
	mw := Middleware{Evaluator: newEvaluator(f, nil), Logger: discardLogger()}
	admin := identityFor(f.addUser(t, "admin", RoleAdmin))
	player := identityFor(f.addUser(t, "player", RoleUser))
	h := mw.RequireAny(shared.PermViewRoles)(okHandler())

	cases := []struct {
		name string
		id   *shared.Identity
		want int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"player", player, http.StatusForbidden},
		{"admin", admin, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, withIdentity(httptest.NewRequest(http.MethodGet, "/roles", nil), tc.id))
			assert.Equal(t, tc.want, rr.Code)
		})
	}
}

func TestMiddlewareRequireAll(t *testing.T) {
	f := newSeededFixture(t)
	mw := Middleware{Evaluator: newEvaluator(f, nil)}
	manager := identityFor(f.addUser(t, "manager", RoleManager))
	h := mw.RequireAll(shared.PermViewOrders, shared.PermShipOrders)(okHandler())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, withIdentity(httptest.NewRequest(http.MethodPost, "/orders/1/ship", nil), manager))
	assert.Equal(t, http.StatusOK, rr.Code)

	h = mw.RequireAll(shared.PermViewOrders, shared.PermManageUsers)(okHandler())
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, withIdentity(httptest.NewRequest(http.MethodGet, "/", nil), manager))
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
}

func TestMiddlewareRequireResourceFromURL(t *testing.T) {
	f := newSeededFixture(t)
	mw := Middleware{Evaluator: newEvaluator(f, nil)}
	moderator := identityFor(f.addUser(t, "mod", RoleModerator))

	r := chi.NewRouter()
	r.With(mw.RequireResource("")).Get("/pages/{resource}", okHandler().ServeHTTP)

	for resource, want := range map[string]int{
		"comments": http.StatusOK,
		"Ban":      http.StatusOK,
		"orders":   http.StatusForbidden,
	} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, withIdentity(httptest.NewRequest(http.MethodGet, "/pages/"+resource, nil), moderator))
		assert.Equal(t, want, rr.Code, resource)
	}
}

func TestAccessRoutes(t *testing.T) {
	f := newSeededFixture(t)
	ev := newEvaluator(f, nil)
	handler := NewPermissionsHandler(discardLogger(), ev, Middleware{Evaluator: ev})
	guest := identityFor(f.addUser(t, "guest", RoleGuest))

	r := chi.NewRouter()
	r.Route("/access", handler.MountAccessRoutes)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, withIdentity(httptest.NewRequest(http.MethodGet, "/access/Orders", nil), guest))
	require.Equal(t, http.StatusOK, rr.Code)

	var body accessResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, accessResponse{Resource: "Orders", Permission: shared.PermViewOrders, Mapped: true, Allowed: false}, body)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, withIdentity(httptest.NewRequest(http.MethodGet, "/access/Games", nil), guest))
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.True(t, body.Allowed)
}

func TestPermissionsCatalogRoute(t *testing.T) {
	f := newSeededFixture(t)
	ev := newEvaluator(f, nil)
	handler := NewPermissionsHandler(discardLogger(), ev, Middleware{Evaluator: ev})
	admin := identityFor(f.addUser(t, "admin", RoleAdmin))

	r := chi.NewRouter()
	r.Route("/permissions", handler.MountRoutes)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, withIdentity(httptest.NewRequest(http.MethodGet, "/permissions", nil), admin))
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Families []shared.PermissionFamily `json:"families"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Len(t, body.Families, len(shared.PermissionFamilies()))
}
