package storage

import (
	"time"

	"github.com/bradreaney/dnd-session-engine/internal/game"
)

// Repository is the durable-store collaborator for the session engine.
// The in-memory GameState remains authoritative while a session is hot;
// these calls are the best-effort write-through behind it.
type Repository interface {
	CreateCampaign(c *game.Campaign) error
	GetCampaignByID(id uint) (*game.Campaign, error)

	CreateCharacter(c *game.Character) error
	FindCharacterByUUID(uuid string) (*game.Character, error)
	SaveCharacter(c *game.Character) error

	CreateSession(s *game.Session) error
	FindSessionByUUID(uuid string) (*game.Session, error)
	SaveSession(s *game.Session) error

	// SaveMessage appends one entry to a session's chronological log.
	SaveMessage(m *game.Message) error
	// RecentMessages returns up to limit messages for the session,
	// filtered to the given roles, oldest first.
	RecentMessages(sessionUUID string, limit int, roles []string) ([]game.Message, error)

	// Narrative response cache keyed by prompt fingerprint. Expired
	// entries behave as misses.
	GetCachedNarrative(fingerprint string) (string, bool, error)
	SaveCachedNarrative(fingerprint, response string, ttl time.Duration) error
}
