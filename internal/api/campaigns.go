package api

import (
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/bradreaney/dnd-session-engine/internal/constants"
	"github.com/bradreaney/dnd-session-engine/internal/game"

	"github.com/gin-gonic/gin"
)

type CreateCampaignPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Setting     string `json:"setting"`
}

// CreateCampaign creates a new campaign and returns its ID.
func (h *Handler) CreateCampaign(c *gin.Context) {
	var req CreateCampaignPayload
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	if utf8.RuneCountInString(req.Name) > 64 {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}

	campaign := game.Campaign{
		Name:        req.Name,
		Description: req.Description,
		Setting:     req.Setting,
	}
	if err := h.repo.CreateCampaign(&campaign); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedCreate})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"campaign_id": campaign.ID})
}

// GetCampaign returns one campaign by numeric ID.
func (h *Handler) GetCampaign(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("campaignID"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	campaign, err := h.repo.GetCampaignByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrCampaignNotFound})
		return
	}
	c.JSON(http.StatusOK, campaign)
}
