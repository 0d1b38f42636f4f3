package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gamestore/gamestore-admin/internal/platform/httpx"
	"github.com/gamestore/gamestore-admin/internal/shared"
)

// PermissionsHandler exposes the permission catalog and per-resource access checks.
type PermissionsHandler struct {
	logger    *slog.Logger
	evaluator *Evaluator
	rbac      Middleware
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(logger *slog.Logger, evaluator *Evaluator, rbac Middleware) *PermissionsHandler {
	return &PermissionsHandler{logger: logger, evaluator: evaluator, rbac: rbac}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermViewRoles))
		r.Get("/", h.listPermissions)
	})
}

// MountAccessRoutes registers the page guard endpoint used by the SPA.
func (h *PermissionsHandler) MountAccessRoutes(r chi.Router) {
	r.Get("/{resource}", h.checkAccess)
}

func (h *PermissionsHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"families": shared.PermissionFamilies()})
}

type accessResponse struct {
	Resource   string `json:"resource"`
	Permission string `json:"permission"`
	Mapped     bool   `json:"mapped"`
	Allowed    bool   `json:"allowed"`
}

func (h *PermissionsHandler) checkAccess(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	id := shared.IdentityFromContext(r.Context())
	perm, mapped := h.evaluator.Resources().Required(resource)

	var decision Decision
	if r.URL.Query().Get("source") == "claims" {
		decision = h.evaluator.CheckClaims(id, resource)
	} else {
		decision = h.evaluator.CheckAccess(r.Context(), id, resource)
	}
	if h.logger != nil {
		h.logger.Debug("access check", slog.String("resource", resource), slog.String("decision", decision.String()))
	}
	httpx.JSON(w, http.StatusOK, accessResponse{
		Resource:   resource,
		Permission: perm,
		Mapped:     mapped,
		Allowed:    decision.Allowed(),
	})
}
