package pipeline

import (
	"context"
	"fmt"

	"github.com/adi29tyax/omniai-hub-backend/models"
	"github.com/adi29tyax/omniai-hub-backend/stages"
)

// GenerateStory runs the story stage for a project and persists the
// resulting story graph (story, characters, scenes).
func (d *Director) GenerateStory(ctx context.Context, projectID uint, concept, style string, durationMinutes int) (*models.Story, error) {
	if _, err := d.Store.Project(ctx, projectID); err != nil {
		return nil, err
	}

	outline, err := d.Stages.GenerateStory(ctx, stages.StoryInput{
		Concept:         concept,
		Style:           style,
		DurationMinutes: durationMinutes,
	})
	if err != nil {
		return nil, err
	}

	return d.Store.CreateStoryGraph(ctx, projectID, outline, style)
}

// BreakdownScene runs the breakdown stage for one scene and replaces the
// scene's shots with the new generation.
func (d *Director) BreakdownScene(ctx context.Context, sceneID uint, style, overrideConcept string) ([]models.Shot, error) {
	scene, err := d.Store.Scene(ctx, sceneID)
	if err != nil {
		return nil, err
	}
	chars, err := d.Store.CharactersByStory(ctx, scene.StoryID)
	if err != nil {
		return nil, err
	}

	summary := scene.Summary
	if overrideConcept != "" {
		summary = overrideConcept
	}

	breakdown, err := d.Stages.BreakdownScene(ctx, stages.BreakdownInput{
		SceneSummary: summary,
		Characters:   characterBriefs(chars),
		Style:        style,
	})
	if err != nil {
		return nil, err
	}

	shots := make([]models.Shot, 0, len(breakdown.Shots))
	for i, item := range breakdown.Shots {
		shotID := item.ShotID
		if shotID == "" {
			shotID = fmt.Sprintf("SHOT-%02d", i+1)
		}
		shots = append(shots, models.Shot{
			ShotID: shotID,
			Type:   item.Type,
			Camera: joinCamera(item.CameraMovement, item.Lens),
			Action: item.Action,
			Prompt: item.Prompt,
		})
	}

	if err := d.Store.ReplaceShots(ctx, sceneID, shots); err != nil {
		return nil, err
	}
	return d.Store.ShotsByScene(ctx, sceneID)
}

func joinCamera(movement, lens string) string {
	switch {
	case movement == "":
		return lens
	case lens == "":
		return movement
	default:
		return movement + " " + lens
	}
}

// GenerateKeyframe produces the keyframe image for one shot and records it
// as a new asset.
func (d *Director) GenerateKeyframe(ctx context.Context, projectID, sceneID, shotID uint, style, overridePrompt string) (*models.Asset, error) {
	shot, err := d.Store.Shot(ctx, shotID)
	if err != nil {
		return nil, err
	}
	scene, err := d.Store.Scene(ctx, sceneID)
	if err != nil {
		return nil, err
	}
	chars, err := d.Store.CharactersByStory(ctx, scene.StoryID)
	if err != nil {
		return nil, err
	}

	prompt := shot.Prompt
	if overridePrompt != "" {
		prompt = overridePrompt
	}

	kf, err := d.Stages.GenerateKeyframePrompt(ctx, stages.KeyframeInput{
		ShotType:   shot.Type,
		Camera:     shot.Camera,
		Action:     shot.Action,
		Prompt:     prompt,
		Style:      style,
		Characters: characterBriefs(chars),
	})
	if err != nil {
		return nil, err
	}

	img, err := d.Media.Image(ctx, kf.Positive)
	if err != nil {
		return nil, fmt.Errorf("keyframe image generation: %w", err)
	}
	put, err := d.Upload.UploadPublic(ctx, fmt.Sprintf("keyframe_%d.png", shotID), img, "image/png")
	if err != nil {
		return nil, err
	}

	asset := &models.Asset{
		ProjectID: projectID,
		SceneID:   &sceneID,
		ShotID:    &shotID,
		Type:      models.AssetKeyframe,
		URL:       put.URL,
		Metadata: models.JSONMap{
			"positive": kf.Positive,
			"negative": kf.Negative,
			"camera":   kf.Camera,
			"lens":     kf.Lens,
			"lighting": kf.Lighting,
			"style":    kf.Style,
			"details":  kf.Details,
			"r2_key":   put.Key,
		},
		Settings: models.JSONMap{
			"model":    "Flux.1-dev",
			"steps":    30,
			"guidance": 7.5,
			"style":    style,
		},
	}
	if err := d.Store.CreateAsset(ctx, asset); err != nil {
		return nil, err
	}
	return asset, nil
}

// GenerateAnimation produces the animation clip for one shot, anchored on
// the shot's most recent keyframe, and records it as a new asset.
func (d *Director) GenerateAnimation(ctx context.Context, projectID, sceneID, shotID uint, model string, seconds float64, overridePrompt string) (*models.Asset, error) {
	shot, err := d.Store.Shot(ctx, shotID)
	if err != nil {
		return nil, err
	}

	if model == "" {
		model = d.animationModel()
	}
	if seconds <= 0 {
		seconds = d.animationSeconds()
	}

	keyframePrompt := ""
	style := "Anime"
	if kf, err := d.Store.LatestAssetByShot(ctx, shotID, models.AssetKeyframe); err == nil {
		if p, ok := kf.Metadata["positive"].(string); ok {
			keyframePrompt = p
		}
		if s, ok := kf.Metadata["style"].(string); ok && s != "" {
			style = s
		}
	}
	if overridePrompt != "" {
		keyframePrompt = overridePrompt
	}

	anim, err := d.Stages.GenerateAnimationPrompt(ctx, stages.AnimationInput{
		Camera:         shot.Camera,
		Action:         shot.Action,
		KeyframePrompt: keyframePrompt,
		Style:          style,
		Model:          model,
	})
	if err != nil {
		return nil, err
	}

	clip, err := d.Media.Video(ctx, anim.Positive, seconds)
	if err != nil {
		return nil, fmt.Errorf("animation clip generation: %w", err)
	}
	put, err := d.Upload.UploadPublic(ctx, fmt.Sprintf("animation_%d.mp4", shotID), clip, "video/mp4")
	if err != nil {
		return nil, err
	}

	asset := &models.Asset{
		ProjectID: projectID,
		SceneID:   &sceneID,
		ShotID:    &shotID,
		Type:      models.AssetAnimation,
		URL:       put.URL,
		Metadata: models.JSONMap{
			"positive": anim.Positive,
			"negative": anim.Negative,
			"motion":   anim.Motion,
			"camera":   anim.Camera,
			"lighting": anim.Lighting,
			"style":    anim.Style,
			"easing":   anim.Easing,
			"details":  anim.Details,
			"r2_key":   put.Key,
		},
		Settings: models.JSONMap{
			"model":    model,
			"duration": seconds,
			"style":    style,
		},
	}
	if err := d.Store.CreateAsset(ctx, asset); err != nil {
		return nil, err
	}
	return asset, nil
}

// GenerateVoice produces a voice clip for a line of dialogue in a shot.
func (d *Director) GenerateVoice(ctx context.Context, projectID, sceneID, shotID uint, character, text, emotion string) (*models.Asset, error) {
	if _, err := d.Store.Shot(ctx, shotID); err != nil {
		return nil, err
	}

	direction, err := d.Stages.GenerateVoiceDirection(ctx, stages.VoiceInput{
		Character: character,
		Text:      text,
		Emotion:   emotion,
	})
	if err != nil {
		return nil, err
	}

	audio, err := d.Media.Speech(ctx, direction.TTSPrompt, direction.EmotionProfile)
	if err != nil {
		return nil, fmt.Errorf("voice synthesis: %w", err)
	}
	put, err := d.Upload.UploadPublic(ctx, fmt.Sprintf("voice_%d.wav", shotID), audio, "audio/wav")
	if err != nil {
		return nil, err
	}

	asset := &models.Asset{
		ProjectID: projectID,
		SceneID:   &sceneID,
		ShotID:    &shotID,
		Type:      models.AssetVoice,
		URL:       put.URL,
		Metadata: models.JSONMap{
			"text":            text,
			"emotion_profile": direction.EmotionProfile,
			"tts_prompt":      direction.TTSPrompt,
			"lip_sync":        lipSyncStub(text),
			"r2_key":          put.Key,
		},
		Settings: models.JSONMap{"engine": "placeholder"},
	}
	if err := d.Store.CreateAsset(ctx, asset); err != nil {
		return nil, err
	}
	return asset, nil
}

// lipSyncStub stands in for a real phoneme analyzer. It emits a fixed
// mouth-shape track so downstream consumers have the field shape to build on.
func lipSyncStub(text string) map[string]interface{} {
	return map[string]interface{}{
		"metadata": map[string]interface{}{
			"times":        []float64{0.0, 0.5, 1.0, 1.5},
			"mouth_shapes": []string{"A", "B", "C", "X"},
		},
	}
}

// GenerateSFX produces one sound-effect asset per effect the sound-design
// stage lists for a shot's action.
func (d *Director) GenerateSFX(ctx context.Context, projectID, sceneID, shotID uint, action string) ([]*models.Asset, error) {
	if _, err := d.Store.Shot(ctx, shotID); err != nil {
		return nil, err
	}

	plan, err := d.Stages.GenerateSFXList(ctx, action)
	if err != nil {
		return nil, err
	}

	var assets []*models.Asset
	for i, sfx := range plan.SFXList {
		audio, err := d.Media.SFX(ctx, sfx.Description)
		if err != nil {
			return nil, fmt.Errorf("sfx generation for %q: %w", sfx.Name, err)
		}
		put, err := d.Upload.UploadPublic(ctx, fmt.Sprintf("sfx_%d_%d.wav", shotID, i), audio, "audio/wav")
		if err != nil {
			return nil, err
		}

		asset := &models.Asset{
			ProjectID: projectID,
			SceneID:   &sceneID,
			ShotID:    &shotID,
			Type:      models.AssetSFX,
			URL:       put.URL,
			Metadata: models.JSONMap{
				"name":        sfx.Name,
				"description": sfx.Description,
				"r2_key":      put.Key,
			},
			Settings: models.JSONMap{"engine": "placeholder"},
		}
		if err := d.Store.CreateAsset(ctx, asset); err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

// GenerateBGM produces a background music asset for one scene.
func (d *Director) GenerateBGM(ctx context.Context, projectID, sceneID uint, mood, pacing string) (*models.Asset, error) {
	if _, err := d.Store.Scene(ctx, sceneID); err != nil {
		return nil, err
	}

	spec, err := d.Stages.GenerateBGMSpec(ctx, mood, pacing)
	if err != nil {
		return nil, err
	}

	audio, err := d.Media.Music(ctx, spec.Description, 30)
	if err != nil {
		return nil, fmt.Errorf("bgm generation: %w", err)
	}
	put, err := d.Upload.UploadPublic(ctx, fmt.Sprintf("bgm_%d.mp3", sceneID), audio, "audio/mpeg")
	if err != nil {
		return nil, err
	}

	asset := &models.Asset{
		ProjectID: projectID,
		SceneID:   &sceneID,
		Type:      models.AssetBGM,
		URL:       put.URL,
		Metadata: models.JSONMap{
			"description": spec.Description,
			"genre":       spec.Genre,
			"tempo":       spec.Tempo,
			"instruments": spec.Instruments,
			"r2_key":      put.Key,
		},
		Settings: models.JSONMap{"engine": "placeholder"},
	}
	if err := d.Store.CreateAsset(ctx, asset); err != nil {
		return nil, err
	}
	return asset, nil
}
