package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/adi29tyax/omniai-hub-backend/models"
)

// EpisodeRequest parameterizes a full pipeline run.
type EpisodeRequest struct {
	ProjectID       uint
	Concept         string
	Style           string
	DurationMinutes int
	AnimationModel  string
}

// EpisodeResult is the outcome of a completed run.
type EpisodeResult struct {
	StoryID    uint    `json:"story_id"`
	Title      string  `json:"title"`
	EpisodeURL string  `json:"episode_url"`
	Duration   float64 `json:"duration"`
	Scenes     int     `json:"scenes"`
	Shots      int     `json:"shots"`
}

// GenerateEpisode runs the whole pipeline for one concept: story, shot
// breakdowns, keyframes, animation, sound effects, background music,
// timeline compilation, and the final render. Within each stage independent
// units run concurrently; the stage joins before the next one starts. The
// returned log lines cover everything that completed, including on failure.
func (d *Director) GenerateEpisode(ctx context.Context, req EpisodeRequest) (*EpisodeResult, []string, error) {
	trail := &logTrail{}
	result, err := d.runEpisode(ctx, req, trail)
	return result, trail.Lines(), err
}

func (d *Director) runEpisode(ctx context.Context, req EpisodeRequest, trail *logTrail) (*EpisodeResult, error) {
	style := req.Style
	if style == "" {
		style = "Anime"
	}
	model := req.AnimationModel
	if model == "" {
		model = d.animationModel()
	}

	trail.Addf("[story] generating outline for project %d", req.ProjectID)
	story, err := d.GenerateStory(ctx, req.ProjectID, req.Concept, style, req.DurationMinutes)
	if err != nil {
		return nil, fmt.Errorf("story stage: %w", err)
	}

	scenes, err := d.Store.ScenesByStory(ctx, story.ID)
	if err != nil {
		return nil, err
	}
	trail.Addf("[story] %q with %d scenes", story.Title, len(scenes))

	// Breakdown: one unit per scene.
	g, gctx := errgroup.WithContext(ctx)
	sceneShots := make([][]models.Shot, len(scenes))
	for i, scene := range scenes {
		i, scene := i, scene
		g.Go(func() error {
			shots, err := d.BreakdownScene(gctx, scene.ID, style, "")
			if err != nil {
				return fmt.Errorf("breakdown stage, scene %s: %w", scene.SceneID, err)
			}
			trail.Addf("[breakdown] scene %s: %d shots", scene.SceneID, len(shots))
			sceneShots[i] = shots
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	totalShots := 0
	for _, shots := range sceneShots {
		totalShots += len(shots)
	}

	// Keyframes: one unit per shot, joined before animation so every
	// animation prompt can anchor on its shot's keyframe.
	g, gctx = errgroup.WithContext(ctx)
	for i, scene := range scenes {
		scene := scene
		for _, shot := range sceneShots[i] {
			shot := shot
			g.Go(func() error {
				if _, err := d.GenerateKeyframe(gctx, req.ProjectID, scene.ID, shot.ID, style, ""); err != nil {
					return fmt.Errorf("keyframe stage, shot %s/%s: %w", scene.SceneID, shot.ShotID, err)
				}
				trail.Addf("[keyframe] %s/%s done", scene.SceneID, shot.ShotID)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Animation, sound effects, and music all depend only on the joined
	// stages above, so they share one barrier.
	g, gctx = errgroup.WithContext(ctx)
	for i, scene := range scenes {
		scene := scene
		for _, shot := range sceneShots[i] {
			shot := shot
			g.Go(func() error {
				if _, err := d.GenerateAnimation(gctx, req.ProjectID, scene.ID, shot.ID, model, d.animationSeconds(), ""); err != nil {
					return fmt.Errorf("animation stage, shot %s/%s: %w", scene.SceneID, shot.ShotID, err)
				}
				trail.Addf("[animation] %s/%s done", scene.SceneID, shot.ShotID)
				return nil
			})
			g.Go(func() error {
				if _, err := d.GenerateSFX(gctx, req.ProjectID, scene.ID, shot.ID, shot.Action); err != nil {
					return fmt.Errorf("sfx stage, shot %s/%s: %w", scene.SceneID, shot.ShotID, err)
				}
				trail.Addf("[sfx] %s/%s done", scene.SceneID, shot.ShotID)
				return nil
			})
		}
		g.Go(func() error {
			if _, err := d.GenerateBGM(gctx, req.ProjectID, scene.ID, story.Theme, "medium"); err != nil {
				return fmt.Errorf("bgm stage, scene %s: %w", scene.SceneID, err)
			}
			trail.Addf("[bgm] scene %s done", scene.SceneID)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	trail.Addf("[timeline] compiling %d scenes, %d shots", len(scenes), totalShots)
	episode, err := d.CompileEpisode(ctx, req.ProjectID, story.ID)
	if err != nil {
		return nil, fmt.Errorf("compile stage: %w", err)
	}
	trail.Addf("[render] episode at %s", episode.URL)

	return &EpisodeResult{
		StoryID:    story.ID,
		Title:      story.Title,
		EpisodeURL: episode.URL,
		Duration:   floatField(episode.Metadata, "total_duration"),
		Scenes:     len(scenes),
		Shots:      totalShots,
	}, nil
}
