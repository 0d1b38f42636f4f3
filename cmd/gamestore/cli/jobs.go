package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/gamestore/gamestore-admin/jobs"
)

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    *jobs.Client
	inspector *asynq.Inspector
}

// NewJobsCLI initialises the CLI helpers using the provided Redis address.
func NewJobsCLI(redisAddr string) *JobsCLI {
	opts := asynq.RedisClientOpt{Addr: redisAddr}
	return &JobsCLI{client: jobs.NewClient(opts), inspector: asynq.NewInspector(opts)}
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	if c.inspector != nil {
		err = errors.Join(err, c.inspector.Close())
	}
	if c.client != nil {
		err = errors.Join(err, c.client.Close())
	}
	return err
}

// Trigger enqueues a supported job by name with default payload.
func (c *JobsCLI) Trigger(ctx context.Context, name string) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	switch name {
	case jobs.TaskRBACReseed:
		return c.client.EnqueueRBACReseed(ctx, "manual")
	default:
		return nil, fmt.Errorf("jobs cli: unsupported job %s", name)
	}
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
}

func (s QueueStats) String() string {
	return fmt.Sprintf("queue=%s pending=%d active=%d scheduled=%d retry=%d", s.Queue, s.Pending, s.Active, s.Scheduled, s.Retry)
}

// InspectQueue reports the queue metrics for the default queue.
func (c *JobsCLI) InspectQueue(ctx context.Context) (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return QueueStats{}, err
	}
	stats := QueueStats{Queue: jobs.QueueDefault}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
	}
	return stats, nil
}

// Run executes a jobs subcommand: "trigger <job>" or "stats".
func (c *JobsCLI) Run(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 {
		return "", errors.New("usage: jobs trigger <job> | jobs stats")
	}
	switch args[0] {
	case "trigger":
		if len(args) < 2 {
			return "", errors.New("usage: jobs trigger <job>")
		}
		info, err := c.Trigger(ctx, args[1])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("enqueued %s id=%s queue=%s", info.Type, info.ID, info.Queue), nil
	case "stats":
		stats, err := c.InspectQueue(ctx)
		if err != nil {
			return "", err
		}
		return stats.String(), nil
	default:
		return "", fmt.Errorf("jobs cli: unknown command %q", args[0])
	}
}
