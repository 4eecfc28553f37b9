// Package pipeline drives the full episode generation run:
// Story -> Scenes -> Shots -> Keyframes -> Animation -> Audio -> Timeline ->
// Render. Within a stage, independent units fan out concurrently and the
// stage joins before the next one begins. Any unit failure aborts the run;
// entities already written are not rolled back.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/adi29tyax/omniai-hub-backend/models"
	"github.com/adi29tyax/omniai-hub-backend/render"
	"github.com/adi29tyax/omniai-hub-backend/stages"
	"github.com/adi29tyax/omniai-hub-backend/storage"
	"github.com/adi29tyax/omniai-hub-backend/timeline"
)

// EntityStore is the slice of the asset store the orchestrator uses.
type EntityStore interface {
	Project(ctx context.Context, id uint) (*models.Project, error)
	CreateStoryGraph(ctx context.Context, projectID uint, outline *stages.StoryOutline, style string) (*models.Story, error)
	Story(ctx context.Context, id uint) (*models.Story, error)
	ScenesByStory(ctx context.Context, storyID uint) ([]models.Scene, error)
	CharactersByStory(ctx context.Context, storyID uint) ([]models.Character, error)
	Scene(ctx context.Context, id uint) (*models.Scene, error)
	Shot(ctx context.Context, id uint) (*models.Shot, error)
	ShotsByScene(ctx context.Context, sceneID uint) ([]models.Shot, error)
	ReplaceShots(ctx context.Context, sceneID uint, shots []models.Shot) error
	CreateAsset(ctx context.Context, a *models.Asset) error
	LatestAssetByShot(ctx context.Context, shotID uint, assetType string) (*models.Asset, error)
	AssetsByScene(ctx context.Context, sceneID uint, assetType string) ([]models.Asset, error)
}

// Uploader is the slice of the object-storage client the orchestrator uses.
type Uploader interface {
	UploadPublic(ctx context.Context, filename string, data []byte, contentType string) (*storage.PutResult, error)
}

// Renderer drives the external encoder from a compiled plan.
type Renderer interface {
	Render(ctx context.Context, taskID string, plan timeline.RenderPlan) (*render.Result, error)
}

// StageEngine is the generation stage adapter set.
type StageEngine interface {
	GenerateStory(ctx context.Context, in stages.StoryInput) (*stages.StoryOutline, error)
	BreakdownScene(ctx context.Context, in stages.BreakdownInput) (*stages.ShotBreakdown, error)
	GenerateKeyframePrompt(ctx context.Context, in stages.KeyframeInput) (*stages.KeyframePrompt, error)
	GenerateAnimationPrompt(ctx context.Context, in stages.AnimationInput) (*stages.AnimationPrompt, error)
	GenerateVoiceDirection(ctx context.Context, in stages.VoiceInput) (*stages.VoiceDirection, error)
	GenerateSFXList(ctx context.Context, action string) (*stages.SFXPlan, error)
	GenerateBGMSpec(ctx context.Context, mood, pacing string) (*stages.BGMSpec, error)
}

// Director wires the stage adapters, the asset store, the media providers,
// and the render driver into one pipeline.
type Director struct {
	Store  EntityStore
	Stages StageEngine
	Media  stages.MediaGenerator
	Upload Uploader
	Render Renderer

	// AnimationModel names the video model recorded in animation asset
	// settings. Defaults to Luma-Dream-Machine.
	AnimationModel string
	// AnimationSeconds is the default duration of a generated animation
	// block. Defaults to 4 seconds.
	AnimationSeconds float64
}

func NewDirector(store EntityStore, engine StageEngine, media stages.MediaGenerator, upload Uploader, renderer Renderer) *Director {
	return &Director{
		Store:            store,
		Stages:           engine,
		Media:            media,
		Upload:           upload,
		Render:           renderer,
		AnimationModel:   "Luma-Dream-Machine",
		AnimationSeconds: 4,
	}
}

func (d *Director) animationModel() string {
	if d.AnimationModel == "" {
		return "Luma-Dream-Machine"
	}
	return d.AnimationModel
}

func (d *Director) animationSeconds() float64 {
	if d.AnimationSeconds <= 0 {
		return 4
	}
	return d.AnimationSeconds
}

// logTrail accumulates the ordered, human-readable progress lines returned
// to callers. Units inside one fan-out barrier may interleave; stages never
// do.
type logTrail struct {
	mu    sync.Mutex
	lines []string
}

func (l *logTrail) Addf(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	log.Println(line)
	l.mu.Lock()
	l.lines = append(l.lines, line)
	l.mu.Unlock()
}

func (l *logTrail) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

func characterBriefs(chars []models.Character) []stages.CharacterBrief {
	briefs := make([]stages.CharacterBrief, 0, len(chars))
	for _, c := range chars {
		briefs = append(briefs, stages.CharacterBrief{
			Name:        c.Name,
			Role:        c.Role,
			Description: c.Description,
			VisualStyle: c.VisualStyle,
		})
	}
	return briefs
}
