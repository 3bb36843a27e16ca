package api

import (
	"net/http"
	"strconv"

	"github.com/bradreaney/dnd-session-engine/internal/constants"
	"github.com/bradreaney/dnd-session-engine/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CreateSessionPayload struct {
	CampaignID       uint   `json:"campaign_id"`
	Name             string `json:"name"`
	SceneName        string `json:"scene_name"`
	SceneDescription string `json:"scene_description"`
}

// CreateSession creates a new active session and returns its UUID.
func (h *Handler) CreateSession(c *gin.Context) {
	var req CreateSessionPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}

	s := game.Session{
		CampaignID:       req.CampaignID,
		SessionUUID:      uuid.NewString(),
		Name:             req.Name,
		Status:           game.SessionStatusActive,
		SceneName:        req.SceneName,
		SceneDescription: req.SceneDescription,
	}
	if err := h.repo.CreateSession(&s); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedCreate})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session_uuid": s.SessionUUID})
}

// GetSession returns the session's live state when it is hot, falling
// back to the durable row for completed or cold sessions.
func (h *Handler) GetSession(c *gin.Context) {
	id := c.Param("sessionID")
	row, err := h.repo.FindSessionByUUID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrSessionNotFound})
		return
	}
	if row.Status == game.SessionStatusCompleted {
		c.JSON(http.StatusOK, gin.H{"session": row})
		return
	}
	gs, err := h.engine.GameState(id)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"session": row})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": row, "game_state": gs})
}

// GetSessionMessages returns the most recent session log entries,
// oldest first. The limit query parameter defaults to 50.
func (h *Handler) GetSessionMessages(c *gin.Context) {
	id := c.Param("sessionID")
	if _, err := h.repo.FindSessionByUUID(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrSessionNotFound})
		return
	}
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	msgs, err := h.repo.RecentMessages(id, limit, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetch})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// Health reports readiness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{constants.JSONKeyStatus: "ok"})
}
