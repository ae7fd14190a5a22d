package redis

import (
	"context"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// MarkStore records last-run times for periodic tasks, one RFC3339 value
// per task name. Satisfies tasks.MarkStore.
type MarkStore struct {
	client *backend.Client
	prefix string
}

// NewMarkStore creates a mark store on an existing client.
func NewMarkStore(client *backend.Client) *MarkStore {
	return &MarkStore{client: client, prefix: "hearth:task:"}
}

// LastRun returns the task's recorded run time, or the zero time when it
// has never run.
func (m *MarkStore) LastRun(ctx context.Context, name string) (time.Time, error) {
	val, err := m.client.Get(ctx, m.prefix+name).Result()
	if err != nil {
		if err == backend.Nil {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to get task mark: %w", err)
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse task mark: %w", err)
	}
	return t, nil
}

// MarkRun records a run of the task at the given time.
func (m *MarkStore) MarkRun(ctx context.Context, name string, at time.Time) error {
	if err := m.client.Set(ctx, m.prefix+name, at.Format(time.RFC3339), 0).Err(); err != nil {
		return fmt.Errorf("failed to set task mark: %w", err)
	}
	return nil
}
