package game

import (
	"time"

	"gorm.io/gorm"
)

// Campaign groups sessions, characters and their shared setting.
type Campaign struct {
	gorm.Model
	Name        string `json:"name" gorm:"size:64"`
	Description string `json:"description" gorm:"size:512"`
	Setting     string `json:"setting" gorm:"size:128"`
}

// Character is the persisted character sheet. Ability scores use the
// raw 3–18 (plus racial/magic bonuses) representation; derived modifiers
// are computed by the rules package and never stored.
type Character struct {
	gorm.Model
	CampaignID    uint   `json:"-"`
	CharacterUUID string `json:"character_uuid" gorm:"uniqueIndex"`
	Name          string `json:"name" gorm:"size:64"`
	Class         string `json:"class" gorm:"size:32"`
	Race          string `json:"race" gorm:"size:32"`
	Level         int    `json:"level"`
	Experience    int    `json:"experience"`

	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
	Charisma     int `json:"charisma"`

	ArmorClass       int `json:"armor_class"`
	MaxHitPoints     int `json:"max_hit_points"`
	CurrentHitPoints int `json:"current_hit_points"`

	// Skills the character is trained in, lowercase skill names.
	// Expertise entries must also appear in Proficiencies.
	Proficiencies []string `json:"proficiencies" gorm:"serializer:json"`
	Expertise     []string `json:"expertise" gorm:"serializer:json"`
}

func (Character) TableName() string { return "character_sheets" }

// Session is the durable record behind a live GameState. The structured
// columns (initiative, combat, world, active characters) are serialized
// JSON so the schema stays stable while the in-memory shapes evolve.
type Session struct {
	gorm.Model
	CampaignID  uint   `json:"-"`
	SessionUUID string `json:"session_uuid" gorm:"uniqueIndex"`
	Name        string `json:"name" gorm:"size:64"`
	Status      string `json:"status" gorm:"size:16"` // active | completed

	SceneName        string `json:"scene_name" gorm:"size:128"`
	SceneDescription string `json:"scene_description" gorm:"size:1024"`
	TurnCounter      int    `json:"turn_counter"`

	ActiveCharacters []string          `json:"active_characters" gorm:"serializer:json"`
	Initiative       []InitiativeEntry `json:"initiative" gorm:"serializer:json"`
	Combat           CombatState       `json:"combat" gorm:"serializer:json"`
	World            WorldState        `json:"world" gorm:"serializer:json"`
}

func (Session) TableName() string { return "game_sessions" }

const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
)

// Message is one entry of a session's chronological log: player chat,
// AI narration, and system records of resolved checks and actions.
type Message struct {
	gorm.Model
	SessionUUID   string `json:"session_uuid" gorm:"index"`
	MessageUUID   string `json:"message_uuid" gorm:"uniqueIndex"`
	Role          string `json:"role" gorm:"size:16"` // player | ai | system
	CharacterUUID string `json:"character_uuid" gorm:"size:64"`
	Content       string `json:"content"`
}

func (Message) TableName() string { return "session_messages" }

const (
	RolePlayer = "player"
	RoleAI     = "ai"
	RoleSystem = "system"
)

// NarrativeCacheEntry caches generated narration keyed by a canonical
// prompt fingerprint so identical prompts within the TTL skip the
// generator entirely.
type NarrativeCacheEntry struct {
	gorm.Model
	Fingerprint string    `json:"fingerprint" gorm:"uniqueIndex"`
	Response    string    `json:"response"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (NarrativeCacheEntry) TableName() string { return "narrative_cache" }
