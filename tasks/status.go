package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Render task states. Status lives in Redis rather than process memory so it
// survives restarts and is visible to every worker.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// ErrTaskNotFound means no status record exists for the task ID (never
// created, or expired).
var ErrTaskNotFound = errors.New("render task not found")

// RenderStatus is the durable status record for one render task.
type RenderStatus struct {
	TaskID    string    `json:"task_id"`
	Status    string    `json:"status"`
	URL       string    `json:"url,omitempty"`
	Key       string    `json:"key,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// statusKV is the slice of the redis client the registry needs.
type statusKV interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// StatusStore reads and writes render task status records keyed by task ID.
type StatusStore struct {
	kv  statusKV
	ttl time.Duration
}

func NewStatusStore(rdb *redis.Client) *StatusStore {
	return &StatusStore{kv: rdb, ttl: 24 * time.Hour}
}

func statusKey(taskID string) string {
	return "render_task:" + taskID
}

func (s *StatusStore) Set(ctx context.Context, st RenderStatus) error {
	st.UpdatedAt = time.Now().UTC()
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, statusKey(st.TaskID), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("write status for task %s: %w", st.TaskID, err)
	}
	return nil
}

func (s *StatusStore) Get(ctx context.Context, taskID string) (*RenderStatus, error) {
	raw, err := s.kv.Get(ctx, statusKey(taskID)).Result()
	if err == redis.Nil {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read status for task %s: %w", taskID, err)
	}

	var st RenderStatus
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, fmt.Errorf("decode status for task %s: %w", taskID, err)
	}
	return &st, nil
}
