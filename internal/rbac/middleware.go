package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gamestore/gamestore-admin/internal/platform/httpx"
	"github.com/gamestore/gamestore-admin/internal/shared"
)

// Middleware wires RBAC authorization helpers for HTTP handlers.
// Callers without an identity get 401; denied callers get 403.
type Middleware struct {
	Evaluator *Evaluator
	Logger    *slog.Logger
}

// RequireAny ensures the current user has at least one of the required permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return m.guard("rbac require any", func(r *http.Request, id *shared.Identity) Decision {
		return m.Evaluator.HasAny(r.Context(), id, perms...)
	})
}

// RequireAll ensures the current user has all required permissions.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	return m.guard("rbac require all", func(r *http.Request, id *shared.Identity) Decision {
		return m.Evaluator.HasAll(r.Context(), id, perms...)
	})
}

// RequireResource ensures the current user may access the named resource.
// An empty resource reads the {resource} URL parameter.
func (m Middleware) RequireResource(resource string) func(http.Handler) http.Handler {
	return m.guard("rbac require resource", func(r *http.Request, id *shared.Identity) Decision {
		target := resource
		if target == "" {
			target = chi.URLParam(r, "resource")
		}
		return m.Evaluator.CheckAccess(r.Context(), id, target)
	})
}

func (m Middleware) guard(name string, decide func(*http.Request, *shared.Identity) Decision) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := shared.IdentityFromContext(r.Context())
			if id == nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
				return
			}
			if decide(r, id).Allowed() {
				next.ServeHTTP(w, r)
				return
			}
			if m.Logger != nil {
				m.Logger.Info(name+" denied", slog.String("subject", id.Subject), slog.String("path", r.URL.Path))
			}
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
		})
	}
}
