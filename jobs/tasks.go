package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskRBACReseed re-applies the built-in role permission sets.
	TaskRBACReseed = "rbac:reseed"
)

// RBACReseedPayload describes why a reseed was requested.
type RBACReseedPayload struct {
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewRBACReseedTask constructs an Asynq task for reseeding role permissions.
func NewRBACReseedTask(reason string, at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(RBACReseedPayload{Reason: reason, RequestedAt: at.UTC()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRBACReseed, body, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}
