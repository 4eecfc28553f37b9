package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/adi29tyax/omniai-hub-backend/models"
	"github.com/adi29tyax/omniai-hub-backend/timeline"
)

// CompileTimeline assembles the most recent generation of every shot in a
// story into a render plan. Shots without an animation asset compile as
// static segments at the default duration.
func (d *Director) CompileTimeline(ctx context.Context, storyID uint) (*timeline.RenderPlan, error) {
	in, err := d.buildTimelineInput(ctx, storyID)
	if err != nil {
		return nil, err
	}
	plan := timeline.Compile(*in)
	return &plan, nil
}

// CompileEpisode compiles the story's timeline, renders it synchronously,
// and records the finished episode as a project-level asset.
func (d *Director) CompileEpisode(ctx context.Context, projectID, storyID uint) (*models.Asset, error) {
	plan, err := d.CompileTimeline(ctx, storyID)
	if err != nil {
		return nil, err
	}

	taskID := uuid.NewString()
	result, err := d.Render.Render(ctx, taskID, *plan)
	if err != nil {
		return nil, fmt.Errorf("episode render: %w", err)
	}

	asset := &models.Asset{
		ProjectID: projectID,
		Type:      models.AssetEpisode,
		URL:       result.URL,
		Metadata: models.JSONMap{
			"task_id":        taskID,
			"story_id":       storyID,
			"total_duration": plan.TotalDuration,
			"segments":       len(plan.Segments),
			"r2_key":         result.Key,
		},
		Settings: models.JSONMap{
			"resolution": plan.Resolution,
			"fps":        plan.FPS,
		},
	}
	if err := d.Store.CreateAsset(ctx, asset); err != nil {
		return nil, err
	}
	return asset, nil
}

// buildTimelineInput lifts the persisted story graph and the latest asset of
// each kind into the compiler's input shape.
func (d *Director) buildTimelineInput(ctx context.Context, storyID uint) (*timeline.Input, error) {
	scenes, err := d.Store.ScenesByStory(ctx, storyID)
	if err != nil {
		return nil, err
	}

	in := &timeline.Input{ShotSeconds: d.animationSeconds()}
	voice := timeline.AudioLayer{Kind: "voice"}
	sfx := timeline.AudioLayer{Kind: "sfx"}
	bgm := timeline.AudioLayer{Kind: "bgm"}

	for _, scene := range scenes {
		shots, err := d.Store.ShotsByScene(ctx, scene.ID)
		if err != nil {
			return nil, err
		}

		tlScene := timeline.Scene{ID: scene.SceneID}
		for _, shot := range shots {
			tlShot := timeline.Shot{ID: shot.ShotID}

			if anim, err := d.Store.LatestAssetByShot(ctx, shot.ID, models.AssetAnimation); err == nil {
				block := timeline.Block{
					Source:   anim.URL,
					Duration: floatField(anim.Settings, "duration"),
					Motion:   stringField(anim.Metadata, "motion"),
					Camera:   stringField(anim.Metadata, "camera"),
					Easing:   stringField(anim.Metadata, "easing"),
				}
				if kf, err := d.Store.LatestAssetByShot(ctx, shot.ID, models.AssetKeyframe); err == nil {
					block.FromKeyframe = kf.URL
				}
				tlShot.Blocks = []timeline.Block{block}
			} else if kf, err := d.Store.LatestAssetByShot(ctx, shot.ID, models.AssetKeyframe); err == nil {
				tlShot.Source = kf.URL
			}
			tlScene.Shots = append(tlScene.Shots, tlShot)
		}
		in.Scenes = append(in.Scenes, tlScene)

		for _, layer := range []struct {
			kind string
			dst  *timeline.AudioLayer
		}{
			{models.AssetVoice, &voice},
			{models.AssetSFX, &sfx},
			{models.AssetBGM, &bgm},
		} {
			assets, err := d.Store.AssetsByScene(ctx, scene.ID, layer.kind)
			if err != nil {
				return nil, err
			}
			for _, a := range assets {
				layer.dst.Tracks = append(layer.dst.Tracks, audioTrack(a, layer.kind))
			}
		}
	}

	for _, layer := range []timeline.AudioLayer{voice, sfx, bgm} {
		if len(layer.Tracks) > 0 {
			in.AudioLayers = append(in.AudioLayers, layer)
		}
	}
	return in, nil
}

func audioTrack(a models.Asset, kind string) timeline.AudioTrack {
	track := timeline.AudioTrack{Source: a.URL, Kind: kind, Volume: 1.0}
	if a.TimelineIn != nil {
		track.Start = *a.TimelineIn
	}
	if a.TimelineOut != nil && a.TimelineIn != nil && *a.TimelineOut > *a.TimelineIn {
		track.Duration = *a.TimelineOut - *a.TimelineIn
	}
	if kind == models.AssetBGM {
		track.Volume = 0.3
	}
	return track
}

func stringField(m models.JSONMap, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

// floatField reads a numeric field that may round-trip through JSON as
// float64 or survive in memory as an int or float.
func floatField(m models.JSONMap, key string) float64 {
	if m == nil {
		return 0
	}
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}
