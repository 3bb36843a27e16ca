package api

import (
	"net/http"

	"github.com/bradreaney/dnd-session-engine/internal/constants"
	"github.com/bradreaney/dnd-session-engine/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CreateCharacterPayload struct {
	CampaignID uint   `json:"campaign_id"`
	Name       string `json:"name"`
	Class      string `json:"class"`
	Race       string `json:"race"`
	Level      int    `json:"level"`

	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
	Charisma     int `json:"charisma"`

	ArmorClass   int `json:"armor_class"`
	MaxHitPoints int `json:"max_hit_points"`

	Proficiencies []string `json:"proficiencies"`
	Expertise     []string `json:"expertise"`
}

// CreateCharacter creates a character sheet and returns its UUID.
func (h *Handler) CreateCharacter(c *gin.Context) {
	var req CreateCharacterPayload
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	if req.Level < 1 {
		req.Level = 1
	}

	char := game.Character{
		CampaignID:       req.CampaignID,
		CharacterUUID:    uuid.NewString(),
		Name:             req.Name,
		Class:            req.Class,
		Race:             req.Race,
		Level:            req.Level,
		Strength:         req.Strength,
		Dexterity:        req.Dexterity,
		Constitution:     req.Constitution,
		Intelligence:     req.Intelligence,
		Wisdom:           req.Wisdom,
		Charisma:         req.Charisma,
		ArmorClass:       req.ArmorClass,
		MaxHitPoints:     req.MaxHitPoints,
		CurrentHitPoints: req.MaxHitPoints,
		Proficiencies:    req.Proficiencies,
		Expertise:        req.Expertise,
	}
	if err := h.repo.CreateCharacter(&char); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedCreate})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"character_uuid": char.CharacterUUID})
}

// GetCharacter returns one character sheet by UUID.
func (h *Handler) GetCharacter(c *gin.Context) {
	char, err := h.repo.FindCharacterByUUID(c.Param("characterID"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrCharacterNotFound})
		return
	}
	c.JSON(http.StatusOK, char)
}
