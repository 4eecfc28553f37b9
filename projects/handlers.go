package projects

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/adi29tyax/omniai-hub-backend/models"
	"github.com/adi29tyax/omniai-hub-backend/store"
)

type Handler struct {
	Store *store.Store
}

func NewHandler(st *store.Store) *Handler {
	return &Handler{Store: st}
}

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (h *Handler) CreateProject(c *gin.Context) {
	userID := c.GetString("user_id")
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project := models.Project{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
	}
	if err := h.Store.CreateProject(c.Request.Context(), &project); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	c.JSON(http.StatusOK, project)
}

func (h *Handler) GetUserProjects(c *gin.Context) {
	userID := c.GetString("user_id")
	list, err := h.Store.ProjectsByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve projects"})
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetProject(c *gin.Context) {
	project, ok := h.ownedProject(c)
	if !ok {
		return
	}

	assets, err := h.Store.AssetsByProject(c.Request.Context(), project.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve assets"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"project": project, "assets": assets})
}

func (h *Handler) DeleteProject(c *gin.Context) {
	project, ok := h.ownedProject(c)
	if !ok {
		return
	}

	if err := h.Store.DeleteProject(c.Request.Context(), project.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": project.ID})
}

// ownedProject resolves the :id param and verifies the project belongs to
// the caller. Writes the error response itself when it returns false.
func (h *Handler) ownedProject(c *gin.Context) (*models.Project, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
		return nil, false
	}

	project, err := h.Store.Project(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		}
		return nil, false
	}

	if project.UserID != c.GetString("user_id") {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return nil, false
	}
	return project, true
}
