package rbac

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gamestore/gamestore-admin/internal/shared"
)

// Decision is the outcome of an access check.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Allowed reports whether d grants access.
func (d Decision) Allowed() bool { return d == Allow }

// DecisionRecorder receives every resource decision labelled by required permission.
type DecisionRecorder interface {
	RecordAccessDecision(permission string, allowed bool)
}

// Evaluator decides whether a caller may access a target resource. It never
// returns errors: anything that cannot be resolved is a Deny.
type Evaluator struct {
	service   *Service
	resources ResourceTable
	logger    *slog.Logger
	recorder  DecisionRecorder
}

// NewEvaluator constructs an Evaluator. recorder may be nil.
func NewEvaluator(service *Service, resources ResourceTable, logger *slog.Logger, recorder DecisionRecorder) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{service: service, resources: resources, logger: logger, recorder: recorder}
}

// Resources returns the resource table used for lookups.
func (e *Evaluator) Resources() ResourceTable {
	return e.resources
}

// CheckAccess re-derives the caller's permissions from current role membership
// and decides access to target. The credential's permission snapshot is ignored.
func (e *Evaluator) CheckAccess(ctx context.Context, id *shared.Identity, target string) Decision {
	required, mapped := e.resources.Required(target)
	granted, ok := e.callerPermissions(ctx, id)
	return e.record(decisionLabel(required, mapped), ok && required != "" && contains(granted, required))
}

// CheckClaims decides access to target from the permission snapshot carried by
// the credential, without touching the store.
func (e *Evaluator) CheckClaims(id *shared.Identity, target string) Decision {
	required, mapped := e.resources.Required(target)
	if id == nil || id.Subject == "" {
		return e.record(decisionLabel(required, mapped), false)
	}
	return e.record(decisionLabel(required, mapped), required != "" && contains(id.Permissions, required))
}

// HasAny allows when the caller currently holds at least one of perms.
func (e *Evaluator) HasAny(ctx context.Context, id *shared.Identity, perms ...string) Decision {
	granted, ok := e.callerPermissions(ctx, id)
	if !ok {
		return Deny
	}
	for _, p := range perms {
		if contains(granted, p) {
			return Allow
		}
	}
	return Deny
}

// HasAll allows when the caller currently holds every one of perms.
func (e *Evaluator) HasAll(ctx context.Context, id *shared.Identity, perms ...string) Decision {
	granted, ok := e.callerPermissions(ctx, id)
	if !ok || len(perms) == 0 {
		return Deny
	}
	for _, p := range perms {
		if !contains(granted, p) {
			return Deny
		}
	}
	return Allow
}

func (e *Evaluator) callerPermissions(ctx context.Context, id *shared.Identity) ([]string, bool) {
	if id == nil || id.Subject == "" {
		return nil, false
	}
	userID, err := uuid.Parse(id.Subject)
	if err != nil {
		e.logger.Warn("rbac unparseable subject", slog.String("subject", id.Subject))
		return nil, false
	}
	perms, err := e.service.UserPermissions(ctx, userID)
	if err != nil {
		e.logger.Warn("rbac resolve permissions", slog.String("subject", id.Subject), slog.Any("error", err))
		return nil, false
	}
	return perms, true
}

func (e *Evaluator) record(label string, allowed bool) Decision {
	if e.recorder != nil {
		e.recorder.RecordAccessDecision(label, allowed)
	}
	if allowed {
		return Allow
	}
	return Deny
}

// decisionLabel keeps metric cardinality bounded: literal fallbacks are only
// labelled by name when they are catalog permissions.
func decisionLabel(required string, mapped bool) string {
	if mapped || shared.IsKnownPermission(required) {
		return required
	}
	return "unknown"
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
