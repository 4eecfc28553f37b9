// Package director exposes the generation pipeline over HTTP. Stage
// endpoints run synchronously; only the final episode render has an async
// queue-backed path.
package director

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/adi29tyax/omniai-hub-backend/models"
	"github.com/adi29tyax/omniai-hub-backend/pipeline"
	"github.com/adi29tyax/omniai-hub-backend/stages"
	"github.com/adi29tyax/omniai-hub-backend/store"
	"github.com/adi29tyax/omniai-hub-backend/tasks"
)

type Handler struct {
	Store    *store.Store
	Director *pipeline.Director
	Redis    *redis.Client
	Status   *tasks.StatusStore
}

func NewHandler(st *store.Store, d *pipeline.Director, rdb *redis.Client) *Handler {
	return &Handler{
		Store:    st,
		Director: d,
		Redis:    rdb,
		Status:   tasks.NewStatusStore(rdb),
	}
}

type StoryRequest struct {
	ProjectID       uint   `json:"project_id" binding:"required"`
	Concept         string `json:"concept" binding:"required"`
	Style           string `json:"style"`
	DurationMinutes int    `json:"duration_minutes"`
}

func (h *Handler) GenerateStory(c *gin.Context) {
	var req StoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	story, err := h.Director.GenerateStory(c.Request.Context(), req.ProjectID, req.Concept, req.Style, req.DurationMinutes)
	if err != nil {
		h.stageError(c, err)
		return
	}

	c.JSON(http.StatusOK, story)
}

type EpisodeRequest struct {
	ProjectID       uint   `json:"project_id" binding:"required"`
	Concept         string `json:"concept" binding:"required"`
	Style           string `json:"style"`
	DurationMinutes int    `json:"duration_minutes"`
	AnimationModel  string `json:"animation_model"`
}

// GenerateEpisode runs the entire pipeline in one request. Slow by design;
// callers wanting progress should drive the stages individually.
func (h *Handler) GenerateEpisode(c *gin.Context) {
	var req EpisodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, logs, err := h.Director.GenerateEpisode(c.Request.Context(), pipeline.EpisodeRequest{
		ProjectID:       req.ProjectID,
		Concept:         req.Concept,
		Style:           req.Style,
		DurationMinutes: req.DurationMinutes,
		AnimationModel:  req.AnimationModel,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error(), "logs": logs})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result, "logs": logs})
}

type BreakdownRequest struct {
	Style   string `json:"style"`
	Concept string `json:"concept"`
}

func (h *Handler) BreakdownScene(c *gin.Context) {
	sceneID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req BreakdownRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	shots, err := h.Director.BreakdownScene(c.Request.Context(), sceneID, req.Style, req.Concept)
	if err != nil {
		h.stageError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"scene_id": sceneID, "shots": shots})
}

type KeyframeRequest struct {
	Style  string `json:"style"`
	Prompt string `json:"prompt"`
}

func (h *Handler) GenerateKeyframe(c *gin.Context) {
	shot, scene, projectID, ok := h.shotScope(c)
	if !ok {
		return
	}
	var req KeyframeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	asset, err := h.Director.GenerateKeyframe(c.Request.Context(), projectID, scene.ID, shot.ID, req.Style, req.Prompt)
	if err != nil {
		h.stageError(c, err)
		return
	}

	c.JSON(http.StatusOK, asset)
}

type AnimationRequest struct {
	Model   string  `json:"model"`
	Seconds float64 `json:"seconds"`
	Prompt  string  `json:"prompt"`
}

func (h *Handler) GenerateAnimation(c *gin.Context) {
	shot, scene, projectID, ok := h.shotScope(c)
	if !ok {
		return
	}
	var req AnimationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	asset, err := h.Director.GenerateAnimation(c.Request.Context(), projectID, scene.ID, shot.ID, req.Model, req.Seconds, req.Prompt)
	if err != nil {
		h.stageError(c, err)
		return
	}

	c.JSON(http.StatusOK, asset)
}

type VoiceRequest struct {
	Character string `json:"character" binding:"required"`
	Text      string `json:"text" binding:"required"`
	Emotion   string `json:"emotion"`
}

func (h *Handler) GenerateVoice(c *gin.Context) {
	shot, scene, projectID, ok := h.shotScope(c)
	if !ok {
		return
	}
	var req VoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	asset, err := h.Director.GenerateVoice(c.Request.Context(), projectID, scene.ID, shot.ID, req.Character, req.Text, req.Emotion)
	if err != nil {
		h.stageError(c, err)
		return
	}

	c.JSON(http.StatusOK, asset)
}

type SFXRequest struct {
	Action string `json:"action"`
}

func (h *Handler) GenerateSFX(c *gin.Context) {
	shot, scene, projectID, ok := h.shotScope(c)
	if !ok {
		return
	}
	var req SFXRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	action := req.Action
	if action == "" {
		action = shot.Action
	}

	assets, err := h.Director.GenerateSFX(c.Request.Context(), projectID, scene.ID, shot.ID, action)
	if err != nil {
		h.stageError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"shot_id": shot.ID, "assets": assets})
}

type BGMRequest struct {
	Mood   string `json:"mood" binding:"required"`
	Pacing string `json:"pacing"`
}

func (h *Handler) GenerateBGM(c *gin.Context) {
	sceneID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req BGMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	scene, err := h.Store.Scene(c.Request.Context(), sceneID)
	if err != nil {
		h.stageError(c, err)
		return
	}
	story, err := h.Store.Story(c.Request.Context(), scene.StoryID)
	if err != nil {
		h.stageError(c, err)
		return
	}

	pacing := req.Pacing
	if pacing == "" {
		pacing = "medium"
	}
	asset, err := h.Director.GenerateBGM(c.Request.Context(), story.ProjectID, sceneID, req.Mood, pacing)
	if err != nil {
		h.stageError(c, err)
		return
	}

	c.JSON(http.StatusOK, asset)
}

// CompileTimeline returns the render plan without rendering it.
func (h *Handler) CompileTimeline(c *gin.Context) {
	storyID, ok := idParam(c, "id")
	if !ok {
		return
	}

	plan, err := h.Director.CompileTimeline(c.Request.Context(), storyID)
	if err != nil {
		h.stageError(c, err)
		return
	}

	c.JSON(http.StatusOK, plan)
}

// RenderEpisode compiles the story's timeline and hands the render to the
// worker queue. Returns a task ID the caller polls for the result.
func (h *Handler) RenderEpisode(c *gin.Context) {
	storyID, ok := idParam(c, "id")
	if !ok {
		return
	}

	story, err := h.Store.Story(c.Request.Context(), storyID)
	if err != nil {
		h.stageError(c, err)
		return
	}

	plan, err := h.Director.CompileTimeline(c.Request.Context(), storyID)
	if err != nil {
		h.stageError(c, err)
		return
	}
	if len(plan.Segments) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to render: story has no compiled segments"})
		return
	}

	taskID := uuid.NewString()
	payload, err := tasks.Marshal(tasks.RenderTaskPayload{
		TaskID:    taskID,
		ProjectID: story.ProjectID,
		Title:     story.Title,
		Plan:      *plan,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build render task"})
		return
	}

	if err := h.Status.Set(c.Request.Context(), tasks.RenderStatus{
		TaskID: taskID,
		Status: tasks.StatusQueued,
	}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register render task"})
		return
	}
	if err := h.Redis.LPush(c.Request.Context(), tasks.QueueRender, payload).Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue render task"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"task_id": taskID, "status": tasks.StatusQueued})
}

func (h *Handler) RenderStatus(c *gin.Context) {
	taskID := c.Param("task_id")
	st, err := h.Status.Get(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, tasks.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown render task"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read task status"})
		}
		return
	}

	c.JSON(http.StatusOK, st)
}

// GetStory returns the story with its characters, scenes, and shots.
func (h *Handler) GetStory(c *gin.Context) {
	storyID, ok := idParam(c, "id")
	if !ok {
		return
	}

	story, err := h.Store.Story(c.Request.Context(), storyID)
	if err != nil {
		h.stageError(c, err)
		return
	}
	chars, err := h.Store.CharactersByStory(c.Request.Context(), storyID)
	if err != nil {
		h.stageError(c, err)
		return
	}
	scenes, err := h.Store.ScenesByStory(c.Request.Context(), storyID)
	if err != nil {
		h.stageError(c, err)
		return
	}
	for i := range scenes {
		shots, err := h.Store.ShotsByScene(c.Request.Context(), scenes[i].ID)
		if err != nil {
			h.stageError(c, err)
			return
		}
		scenes[i].Shots = shots
	}
	story.Characters = chars
	story.Scenes = scenes

	c.JSON(http.StatusOK, story)
}

// GetSceneAssets returns the scene's assets, optionally filtered by type.
func (h *Handler) GetSceneAssets(c *gin.Context) {
	sceneID, ok := idParam(c, "id")
	if !ok {
		return
	}

	assets, err := h.Store.AssetsByScene(c.Request.Context(), sceneID, c.Query("type"))
	if err != nil {
		h.stageError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"scene_id": sceneID, "assets": assets})
}

// shotScope resolves the :id shot param up to its scene and owning project.
func (h *Handler) shotScope(c *gin.Context) (*models.Shot, *models.Scene, uint, bool) {
	shotID, ok := idParam(c, "id")
	if !ok {
		return nil, nil, 0, false
	}

	shot, err := h.Store.Shot(c.Request.Context(), shotID)
	if err != nil {
		h.stageError(c, err)
		return nil, nil, 0, false
	}
	scene, err := h.Store.Scene(c.Request.Context(), shot.SceneID)
	if err != nil {
		h.stageError(c, err)
		return nil, nil, 0, false
	}
	story, err := h.Store.Story(c.Request.Context(), scene.StoryID)
	if err != nil {
		h.stageError(c, err)
		return nil, nil, 0, false
	}
	return shot, scene, story.ProjectID, true
}

func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return 0, false
	}
	return uint(id), true
}

// stageError maps pipeline and store failures onto HTTP statuses. A model
// response that could not be coerced into the stage's schema is the model's
// fault, not the caller's, so it reports as a 502.
func (h *Handler) stageError(c *gin.Context, err error) {
	var parseErr *stages.ParseError
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.As(err, &parseErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "stage": parseErr.Stage})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
