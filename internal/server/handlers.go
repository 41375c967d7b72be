package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"taskboard/internal/models"
	"taskboard/pkg/logger"
)

// Handler carries the mock service's state and auth secret.
type Handler struct {
	store     *TaskStore
	jwtSecret string
}

func NewHandler(store *TaskStore, jwtSecret string) *Handler {
	return &Handler{store: store, jwtSecret: jwtSecret}
}

// Health returns 200 if the process is alive. Doubles as the client's
// connectivity probe target.
func Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// Login issues a signed session token in the authToken cookie. Credentials
// are not checked beyond being non-empty; real authentication is out of
// scope for the mock service.
func (h *Handler) Login(c *gin.Context) {
	ctx := c.Request.Context()
	var body struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	claims := jwt.RegisteredClaims{
		Subject:   body.Username,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.jwtSecret))
	if err != nil {
		logger.Error(ctx, "Token signing failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}
	c.SetCookie(authCookieName, token, int((24 * time.Hour).Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"user": body.Username})
}

// Logout clears the session cookie.
func (h *Handler) Logout(c *gin.Context) {
	c.SetCookie(authCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetTasks returns all tasks.
func (h *Handler) GetTasks(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.List())
}

// GetTask returns one task, 404 if absent.
func (h *Handler) GetTask(c *gin.Context) {
	task, ok := h.store.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	c.JSON(http.StatusOK, task)
}

// CreateTask validates the body and appends a new todo task, returning 201.
func (h *Handler) CreateTask(c *gin.Context) {
	var body struct {
		Title       string              `json:"title" binding:"required"`
		Description string              `json:"description"`
		Priority    models.TaskPriority `json:"priority"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	if body.Priority == "" {
		body.Priority = models.PriorityMedium
	}
	if !body.Priority.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priority"})
		return
	}
	task := h.store.Create(models.CreateTaskData{
		Title:       body.Title,
		Description: body.Description,
		Priority:    body.Priority,
	})
	c.JSON(http.StatusCreated, task)
}

// UpdateTask merges partial fields into the task and returns the merged
// copy with updatedAt refreshed.
func (h *Handler) UpdateTask(c *gin.Context) {
	var updates models.UpdateTaskData
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if updates.Status != nil && !updates.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}
	if updates.Priority != nil && !updates.Priority.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priority"})
		return
	}
	task, ok := h.store.Patch(c.Param("id"), updates)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	c.JSON(http.StatusOK, task)
}

// DeleteTask removes the task, returning {success:true} or 404.
func (h *Handler) DeleteTask(c *gin.Context) {
	if !h.store.Delete(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
