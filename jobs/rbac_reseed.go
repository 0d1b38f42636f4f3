package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/gamestore/gamestore-admin/internal/jobs"
	"github.com/gamestore/gamestore-admin/internal/rbac"
)

// Seeder applies a hierarchy's permission sets to the role store.
type Seeder interface {
	Seed(ctx context.Context, h *rbac.Hierarchy) (rbac.SeedReport, error)
}

// RBACReseedJob restores built-in role permissions removed since the last run
// and reports how many claims it had to re-add.
type RBACReseedJob struct {
	Seeder    Seeder
	Hierarchy *rbac.Hierarchy
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewRBACReseedJob wires dependencies for the reseed handler.
func NewRBACReseedJob(seeder Seeder, h *rbac.Hierarchy, logger *slog.Logger, metrics *jobmetrics.Metrics) *RBACReseedJob {
	return &RBACReseedJob{Seeder: seeder, Hierarchy: h, Logger: logger, Metrics: metrics}
}

// Handle processes TaskRBACReseed tasks.
func (j *RBACReseedJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Seeder == nil || j.Hierarchy == nil {
		return errors.New("rbac reseed: handler not configured")
	}
	var payload RBACReseedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskRBACReseed)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("reason", payload.Reason))
	start := time.Now()
	report, err := j.Seeder.Seed(ctx, j.Hierarchy)
	for role, added := range report.ClaimsAdded {
		j.Metrics.AddDrift(role, len(added))
		logger.Warn("rbac reseed restored permissions", slog.String("role", role), slog.Any("permissions", added))
	}
	if err != nil {
		logger.Error("rbac reseed", slog.Any("error", err))
		return err
	}
	logger.Info("rbac reseed",
		slog.Int("roles_created", len(report.RolesCreated)),
		slog.Int("claims_added", report.Drift()),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *RBACReseedJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
