package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/adi29tyax/omniai-hub-backend/models"
	"github.com/adi29tyax/omniai-hub-backend/render"
	"github.com/adi29tyax/omniai-hub-backend/stages"
	"github.com/adi29tyax/omniai-hub-backend/storage"
	"github.com/adi29tyax/omniai-hub-backend/store"
	"github.com/adi29tyax/omniai-hub-backend/timeline"
)

// memStore is an in-memory EntityStore for pipeline tests.
type memStore struct {
	mu       sync.Mutex
	nextID   uint
	projects map[uint]*models.Project
	stories  map[uint]*models.Story
	chars    map[uint][]models.Character
	scenes   map[uint]*models.Scene
	shots    map[uint]*models.Shot
	assets   []*models.Asset
}

func newMemStore() *memStore {
	return &memStore{
		nextID:   1,
		projects: map[uint]*models.Project{},
		stories:  map[uint]*models.Story{},
		chars:    map[uint][]models.Character{},
		scenes:   map[uint]*models.Scene{},
		shots:    map[uint]*models.Shot{},
	}
}

func (m *memStore) id() uint {
	id := m.nextID
	m.nextID++
	return id
}

func (m *memStore) addProject(p *models.Project) *models.Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.id()
	m.projects[p.ID] = p
	return p
}

func (m *memStore) Project(ctx context.Context, id uint) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return p, nil
}

func (m *memStore) CreateStoryGraph(ctx context.Context, projectID uint, outline *stages.StoryOutline, style string) (*models.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	story := &models.Story{
		ID:        m.id(),
		ProjectID: projectID,
		Title:     outline.Title,
		Logline:   outline.Logline,
		Theme:     outline.Theme,
		Style:     style,
	}
	m.stories[story.ID] = story
	for _, c := range outline.Characters {
		m.chars[story.ID] = append(m.chars[story.ID], models.Character{
			ID: m.id(), StoryID: story.ID, Name: c.Name, Role: c.Role,
			Description: c.Description, VisualStyle: c.VisualStyle,
		})
	}
	for i, s := range outline.Scenes {
		sceneID := s.SceneID
		if sceneID == "" {
			sceneID = fmt.Sprintf("SCENE-%02d", i+1)
		}
		scene := &models.Scene{
			ID: m.id(), StoryID: story.ID, SceneNumber: i + 1,
			SceneID: sceneID, Title: s.Title, Summary: s.Summary,
		}
		m.scenes[scene.ID] = scene
	}
	return story, nil
}

func (m *memStore) Story(ctx context.Context, id uint) (*models.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stories[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s, nil
}

func (m *memStore) ScenesByStory(ctx context.Context, storyID uint) ([]models.Scene, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Scene
	for num := 1; ; num++ {
		found := false
		for _, s := range m.scenes {
			if s.StoryID == storyID && s.SceneNumber == num {
				out = append(out, *s)
				found = true
			}
		}
		if !found {
			break
		}
	}
	return out, nil
}

func (m *memStore) CharactersByStory(ctx context.Context, storyID uint) ([]models.Character, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.chars[storyID], nil
}

func (m *memStore) Scene(ctx context.Context, id uint) (*models.Scene, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.scenes[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s, nil
}

func (m *memStore) Shot(ctx context.Context, id uint) (*models.Shot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shots[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s, nil
}

func (m *memStore) ShotsByScene(ctx context.Context, sceneID uint) ([]models.Shot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Shot
	for num := 1; ; num++ {
		found := false
		for _, s := range m.shots {
			if s.SceneID == sceneID && s.ShotNumber == num {
				out = append(out, *s)
				found = true
			}
		}
		if !found {
			break
		}
	}
	return out, nil
}

func (m *memStore) ReplaceShots(ctx context.Context, sceneID uint, shots []models.Shot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.shots {
		if s.SceneID == sceneID {
			delete(m.shots, id)
		}
	}
	for i := range shots {
		shot := shots[i]
		shot.ID = m.id()
		shot.SceneID = sceneID
		shot.ShotNumber = i + 1
		m.shots[shot.ID] = &shot
	}
	return nil
}

func (m *memStore) CreateAsset(ctx context.Context, a *models.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.id()
	if a.Version == 0 {
		a.Version = 1
	}
	m.assets = append(m.assets, a)
	return nil
}

func (m *memStore) LatestAssetByShot(ctx context.Context, shotID uint, assetType string) (*models.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.assets) - 1; i >= 0; i-- {
		a := m.assets[i]
		if a.ShotID != nil && *a.ShotID == shotID && a.Type == assetType {
			return a, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) AssetsByScene(ctx context.Context, sceneID uint, assetType string) ([]models.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Asset
	for _, a := range m.assets {
		if a.SceneID != nil && *a.SceneID == sceneID && (assetType == "" || a.Type == assetType) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memStore) assetCount(assetType string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.assets {
		if a.Type == assetType {
			n++
		}
	}
	return n
}

// fakeEngine returns canned structured outputs.
type fakeEngine struct {
	scenes       int
	shotsPer     int
	breakdownErr error
}

func (f *fakeEngine) GenerateStory(ctx context.Context, in stages.StoryInput) (*stages.StoryOutline, error) {
	out := &stages.StoryOutline{
		Title:      "Test Episode",
		Theme:      "perseverance",
		Characters: []stages.CharacterDef{{Name: "Mira", Role: "Protagonist"}},
	}
	for i := 0; i < f.scenes; i++ {
		out.Scenes = append(out.Scenes, stages.SceneDef{
			SceneID: fmt.Sprintf("SCENE-%02d", i+1),
			Title:   fmt.Sprintf("Scene %d", i+1),
			Summary: "something happens",
		})
	}
	return out, nil
}

func (f *fakeEngine) BreakdownScene(ctx context.Context, in stages.BreakdownInput) (*stages.ShotBreakdown, error) {
	if f.breakdownErr != nil {
		return nil, f.breakdownErr
	}
	out := &stages.ShotBreakdown{}
	for i := 0; i < f.shotsPer; i++ {
		out.Shots = append(out.Shots, stages.ShotDef{
			ShotID: fmt.Sprintf("SHOT-%02d", i+1),
			Type:   "Wide",
			Action: "the character moves",
			Prompt: "wide shot, character moving",
		})
	}
	return out, nil
}

func (f *fakeEngine) GenerateKeyframePrompt(ctx context.Context, in stages.KeyframeInput) (*stages.KeyframePrompt, error) {
	return &stages.KeyframePrompt{Positive: "detailed keyframe: " + in.Action, Style: in.Style}, nil
}

func (f *fakeEngine) GenerateAnimationPrompt(ctx context.Context, in stages.AnimationInput) (*stages.AnimationPrompt, error) {
	return &stages.AnimationPrompt{Positive: "animated: " + in.KeyframePrompt, Motion: "slow pan"}, nil
}

func (f *fakeEngine) GenerateVoiceDirection(ctx context.Context, in stages.VoiceInput) (*stages.VoiceDirection, error) {
	return &stages.VoiceDirection{TTSPrompt: in.Text, EmotionProfile: map[string]interface{}{"tone": in.Emotion}}, nil
}

func (f *fakeEngine) GenerateSFXList(ctx context.Context, action string) (*stages.SFXPlan, error) {
	return &stages.SFXPlan{SFXList: []stages.SFXDef{{Name: "whoosh", Description: action}}}, nil
}

func (f *fakeEngine) GenerateBGMSpec(ctx context.Context, mood, pacing string) (*stages.BGMSpec, error) {
	return &stages.BGMSpec{Description: mood + " underscore", Genre: "ambient"}, nil
}

type fakeUploader struct {
	mu    sync.Mutex
	count int
}

func (f *fakeUploader) UploadPublic(ctx context.Context, filename string, data []byte, contentType string) (*storage.PutResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count++
	key := fmt.Sprintf("%d/%s", f.count, filename)
	return &storage.PutResult{Key: key, URL: "https://cdn.test/" + key}, nil
}

type fakeRenderer struct {
	lastPlan timeline.RenderPlan
	err      error
}

func (f *fakeRenderer) Render(ctx context.Context, taskID string, plan timeline.RenderPlan) (*render.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastPlan = plan
	return &render.Result{
		TaskID:   taskID,
		URL:      "https://cdn.test/render_" + taskID + ".mp4",
		Key:      "render_" + taskID + ".mp4",
		Duration: plan.TotalDuration,
	}, nil
}

func newTestDirector(st *memStore, engine *fakeEngine, renderer *fakeRenderer) *Director {
	return NewDirector(st, engine, stages.PlaceholderMedia{}, &fakeUploader{}, renderer)
}

func TestGenerateEpisodeFullRun(t *testing.T) {
	st := newMemStore()
	project := st.addProject(&models.Project{UserID: "u1", Name: "demo"})
	engine := &fakeEngine{scenes: 2, shotsPer: 2}
	renderer := &fakeRenderer{}
	d := newTestDirector(st, engine, renderer)

	result, logs, err := d.GenerateEpisode(context.Background(), EpisodeRequest{
		ProjectID: project.ID,
		Concept:   "a lighthouse keeper",
	})
	if err != nil {
		t.Fatalf("GenerateEpisode: %v", err)
	}

	if result.Scenes != 2 || result.Shots != 4 {
		t.Errorf("result = %+v", result)
	}
	if result.EpisodeURL == "" {
		t.Error("missing episode URL")
	}
	if st.assetCount(models.AssetKeyframe) != 4 {
		t.Errorf("keyframes = %d", st.assetCount(models.AssetKeyframe))
	}
	if st.assetCount(models.AssetAnimation) != 4 {
		t.Errorf("animations = %d", st.assetCount(models.AssetAnimation))
	}
	if st.assetCount(models.AssetSFX) != 4 {
		t.Errorf("sfx = %d", st.assetCount(models.AssetSFX))
	}
	if st.assetCount(models.AssetBGM) != 2 {
		t.Errorf("bgm = %d", st.assetCount(models.AssetBGM))
	}
	if st.assetCount(models.AssetEpisode) != 1 {
		t.Errorf("episodes = %d", st.assetCount(models.AssetEpisode))
	}

	// Every shot rendered as one animation block plus audio in the mix.
	if len(renderer.lastPlan.Segments) != 4 {
		t.Errorf("plan segments = %d", len(renderer.lastPlan.Segments))
	}
	if len(renderer.lastPlan.AudioMix) == 0 {
		t.Error("plan has no audio")
	}

	if len(logs) == 0 {
		t.Fatal("no progress logs")
	}
	if !strings.Contains(logs[len(logs)-1], "[render]") {
		t.Errorf("last log line = %q", logs[len(logs)-1])
	}
}

func TestGenerateEpisodeAbortsOnStageFailure(t *testing.T) {
	st := newMemStore()
	project := st.addProject(&models.Project{UserID: "u1", Name: "demo"})
	boom := errors.New("model unavailable")
	engine := &fakeEngine{scenes: 2, shotsPer: 2, breakdownErr: boom}
	d := newTestDirector(st, engine, &fakeRenderer{})

	_, logs, err := d.GenerateEpisode(context.Background(), EpisodeRequest{
		ProjectID: project.ID,
		Concept:   "doomed run",
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(err.Error(), "breakdown stage") {
		t.Errorf("err = %v", err)
	}

	// The story stage completed before the failure, so its logs survive.
	if len(logs) == 0 || !strings.Contains(logs[0], "[story]") {
		t.Errorf("logs = %v", logs)
	}
	if st.assetCount(models.AssetKeyframe) != 0 {
		t.Error("keyframes generated after aborted breakdown")
	}
}

func TestGenerateEpisodeUnknownProject(t *testing.T) {
	d := newTestDirector(newMemStore(), &fakeEngine{scenes: 1, shotsPer: 1}, &fakeRenderer{})

	_, _, err := d.GenerateEpisode(context.Background(), EpisodeRequest{ProjectID: 99, Concept: "x"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestBreakdownSceneReplacesShots(t *testing.T) {
	st := newMemStore()
	project := st.addProject(&models.Project{UserID: "u1", Name: "demo"})
	engine := &fakeEngine{scenes: 1, shotsPer: 3}
	d := newTestDirector(st, engine, &fakeRenderer{})

	story, err := d.GenerateStory(context.Background(), project.ID, "concept", "Anime", 1)
	if err != nil {
		t.Fatalf("GenerateStory: %v", err)
	}
	scenes, _ := st.ScenesByStory(context.Background(), story.ID)
	if len(scenes) != 1 {
		t.Fatalf("scenes = %d", len(scenes))
	}

	first, err := d.BreakdownScene(context.Background(), scenes[0].ID, "Anime", "")
	if err != nil {
		t.Fatalf("BreakdownScene: %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("shots = %d", len(first))
	}

	// A second breakdown replaces, not appends.
	engine.shotsPer = 2
	second, err := d.BreakdownScene(context.Background(), scenes[0].ID, "Anime", "darker take")
	if err != nil {
		t.Fatalf("BreakdownScene: %v", err)
	}
	if len(second) != 2 {
		t.Errorf("shots after regen = %d", len(second))
	}
	for i, shot := range second {
		if shot.ShotNumber != i+1 {
			t.Errorf("shot %d has number %d", i, shot.ShotNumber)
		}
	}
}

func TestGenerateAnimationAnchorsOnKeyframe(t *testing.T) {
	st := newMemStore()
	project := st.addProject(&models.Project{UserID: "u1", Name: "demo"})
	engine := &fakeEngine{scenes: 1, shotsPer: 1}
	d := newTestDirector(st, engine, &fakeRenderer{})

	story, err := d.GenerateStory(context.Background(), project.ID, "concept", "Anime", 1)
	if err != nil {
		t.Fatalf("GenerateStory: %v", err)
	}
	scenes, _ := st.ScenesByStory(context.Background(), story.ID)
	shots, err := d.BreakdownScene(context.Background(), scenes[0].ID, "Anime", "")
	if err != nil {
		t.Fatalf("BreakdownScene: %v", err)
	}

	if _, err := d.GenerateKeyframe(context.Background(), project.ID, scenes[0].ID, shots[0].ID, "Anime", ""); err != nil {
		t.Fatalf("GenerateKeyframe: %v", err)
	}

	asset, err := d.GenerateAnimation(context.Background(), project.ID, scenes[0].ID, shots[0].ID, "", 0, "")
	if err != nil {
		t.Fatalf("GenerateAnimation: %v", err)
	}

	positive, _ := asset.Metadata["positive"].(string)
	if !strings.Contains(positive, "detailed keyframe") {
		t.Errorf("animation prompt did not anchor on keyframe: %q", positive)
	}
	if asset.Settings["model"] != "Luma-Dream-Machine" {
		t.Errorf("model = %v", asset.Settings["model"])
	}
	if asset.Settings["duration"] != 4.0 {
		t.Errorf("duration = %v", asset.Settings["duration"])
	}
}

func TestCompileEpisodeRecordsAsset(t *testing.T) {
	st := newMemStore()
	project := st.addProject(&models.Project{UserID: "u1", Name: "demo"})
	engine := &fakeEngine{scenes: 1, shotsPer: 2}
	renderer := &fakeRenderer{}
	d := newTestDirector(st, engine, renderer)

	story, err := d.GenerateStory(context.Background(), project.ID, "concept", "Anime", 1)
	if err != nil {
		t.Fatalf("GenerateStory: %v", err)
	}
	scenes, _ := st.ScenesByStory(context.Background(), story.ID)
	if _, err := d.BreakdownScene(context.Background(), scenes[0].ID, "Anime", ""); err != nil {
		t.Fatalf("BreakdownScene: %v", err)
	}

	// No animation assets yet: every shot compiles as a static segment.
	plan, err := d.CompileTimeline(context.Background(), story.ID)
	if err != nil {
		t.Fatalf("CompileTimeline: %v", err)
	}
	if len(plan.Segments) != 2 {
		t.Fatalf("segments = %d", len(plan.Segments))
	}
	for _, seg := range plan.Segments {
		if seg.Kind != timeline.StaticShot {
			t.Errorf("segment kind = %v", seg.Kind)
		}
	}

	asset, err := d.CompileEpisode(context.Background(), project.ID, story.ID)
	if err != nil {
		t.Fatalf("CompileEpisode: %v", err)
	}
	if asset.Type != models.AssetEpisode {
		t.Errorf("asset type = %q", asset.Type)
	}
	if asset.URL == "" {
		t.Error("missing episode URL")
	}
}
