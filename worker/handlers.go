package worker

import (
	"context"
	"encoding/json"
	"log"

	"github.com/adi29tyax/omniai-hub-backend/models"
	"github.com/adi29tyax/omniai-hub-backend/tasks"
)

// HandleRender processes tasks from QueueRender: it runs the encoder over
// the compiled plan carried in the payload, publishes progress through the
// durable status registry, and records the finished episode as an asset.
func (p *Processor) HandleRender(ctx context.Context, payload string) error {
	var task tasks.RenderTaskPayload
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		return err
	}

	log.Printf("Processing render task %s (project %d)", task.TaskID, task.ProjectID)

	if err := p.Status.Set(ctx, tasks.RenderStatus{
		TaskID: task.TaskID,
		Status: tasks.StatusProcessing,
	}); err != nil {
		log.Printf("Failed to mark task %s processing: %v", task.TaskID, err)
	}

	result, err := p.Render.Render(ctx, task.TaskID, task.Plan)
	if err != nil {
		if stErr := p.Status.Set(ctx, tasks.RenderStatus{
			TaskID: task.TaskID,
			Status: tasks.StatusFailed,
			Error:  err.Error(),
		}); stErr != nil {
			log.Printf("Failed to mark task %s failed: %v", task.TaskID, stErr)
		}
		return err
	}

	if task.ProjectID != 0 {
		asset := &models.Asset{
			ProjectID: task.ProjectID,
			Type:      models.AssetEpisode,
			URL:       result.URL,
			Metadata: models.JSONMap{
				"task_id":        task.TaskID,
				"title":          task.Title,
				"total_duration": task.Plan.TotalDuration,
				"segments":       len(task.Plan.Segments),
				"r2_key":         result.Key,
			},
			Settings: models.JSONMap{
				"resolution": task.Plan.Resolution,
				"fps":        task.Plan.FPS,
			},
		}
		if err := p.Store.CreateAsset(ctx, asset); err != nil {
			log.Printf("Failed to record episode asset for task %s: %v", task.TaskID, err)
		}
	}

	if err := p.Status.Set(ctx, tasks.RenderStatus{
		TaskID: task.TaskID,
		Status: tasks.StatusCompleted,
		URL:    result.URL,
		Key:    result.Key,
	}); err != nil {
		log.Printf("Failed to mark task %s completed: %v", task.TaskID, err)
	}

	log.Printf("Render task %s completed: %s", task.TaskID, result.URL)
	return nil
}
