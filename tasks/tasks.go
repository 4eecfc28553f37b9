package tasks

import (
	"encoding/json"

	"github.com/adi29tyax/omniai-hub-backend/timeline"
)

// ---
// QUEUE DEFINITIONS
// ---
// All queue names are defined as constants here.
const (
	// QueueRender carries compiled render plans to the render workers.
	QueueRender = "q_render"
)

// ---
// TASK PAYLOADS
// ---
// These structs are JSON-marshalled and sent to Redis.

// RenderTaskPayload is the payload for QueueRender.
type RenderTaskPayload struct {
	TaskID    string              `json:"task_id"`
	ProjectID uint                `json:"project_id,omitempty"`
	Title     string              `json:"title,omitempty"`
	Plan      timeline.RenderPlan `json:"plan"`
}

// Marshal creates a JSON payload for a task.
func Marshal(payload interface{}) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
