package engine

import (
	"context"
	"errors"

	"github.com/bradreaney/dnd-session-engine/internal/constants"
	"github.com/bradreaney/dnd-session-engine/internal/game"
	"github.com/bradreaney/dnd-session-engine/internal/logging"
	"github.com/bradreaney/dnd-session-engine/internal/narrative"
	"github.com/bradreaney/dnd-session-engine/internal/rules"
	"github.com/bradreaney/dnd-session-engine/internal/session"

	"github.com/google/uuid"
)

var (
	ErrCharacterNotFound = errors.New("character not found")
	// ErrSessionNotFound re-exported so transport code has one import.
	ErrSessionNotFound = session.ErrSessionNotFound
)

// Repo is the durable-store surface the engine needs. Satisfied by
// storage.Repository.
type Repo interface {
	FindCharacterByUUID(uuid string) (*game.Character, error)
	SaveCharacter(c *game.Character) error
	FindSessionByUUID(uuid string) (*game.Session, error)
	SaveSession(s *game.Session) error
	SaveMessage(m *game.Message) error
	RecentMessages(sessionUUID string, limit int, roles []string) ([]game.Message, error)
}

// Broadcaster fans an event out to every participant of a session.
// Satisfied by realtime.Hub.
type Broadcaster interface {
	Broadcast(sessionID, event string, payload interface{})
}

// Narrator produces in-character replies. Satisfied by
// narrative.Narrator.
type Narrator interface {
	Respond(ctx context.Context, turns []narrative.Turn) narrative.Result
}

// Engine orchestrates inbound participant actions: it resolves them
// with the rules package, mutates the live GameState under the store's
// per-session lock, writes through to durable storage and fans results
// out to the session's room.
type Engine struct {
	store        *session.Store
	repo         Repo
	narrator     Narrator
	hub          Broadcaster
	roller       rules.Roller
	contextLimit int
}

func New(store *session.Store, repo Repo, narrator Narrator, hub Broadcaster, roller rules.Roller, contextLimit int) *Engine {
	return &Engine{
		store:        store,
		repo:         repo,
		narrator:     narrator,
		hub:          hub,
		roller:       roller,
		contextLimit: contextLimit,
	}
}

// JoinResult is the caller-directed session-joined payload.
type JoinResult struct {
	SessionID   string          `json:"session_id"`
	CharacterID string          `json:"character_id"`
	GameState   *game.GameState `json:"game_state"`
}

// PlayerJoined is broadcast to the room when a character joins.
type PlayerJoined struct {
	SessionID   string `json:"session_id"`
	CharacterID string `json:"character_id"`
}

// JoinSession adds the character to the session (idempotent) and
// announces the join to the room.
func (e *Engine) JoinSession(sessionID, characterID string) (*JoinResult, error) {
	if _, err := e.repo.FindCharacterByUUID(characterID); err != nil {
		return nil, ErrCharacterNotFound
	}
	gs, err := e.store.Join(sessionID, characterID)
	if err != nil {
		return nil, err
	}
	e.hub.Broadcast(sessionID, constants.EventPlayerJoined, PlayerJoined{SessionID: sessionID, CharacterID: characterID})
	return &JoinResult{SessionID: sessionID, CharacterID: characterID, GameState: gs}, nil
}

// LeaveSession removes the character from the active list. Per the
// transport contract this emits no broadcast; the room membership
// change happens at the connection layer.
func (e *Engine) LeaveSession(sessionID, characterID string) error {
	err := e.store.WithSession(sessionID, func(gs *game.GameState) error {
		gs.RemoveCharacter(characterID)
		return nil
	})
	if err != nil {
		return err
	}
	e.store.Persist(sessionID)
	return nil
}

// GameState returns a snapshot of the session's live state.
func (e *Engine) GameState(sessionID string) (*game.GameState, error) {
	return e.store.Get(sessionID)
}

// logMessage appends a system/player/ai record to the session log.
// Failures are logged and swallowed: the log is derived data and must
// never fail an action.
func (e *Engine) logMessage(sessionID, role, characterID, content string) {
	m := &game.Message{
		SessionUUID:   sessionID,
		MessageUUID:   uuid.NewString(),
		Role:          role,
		CharacterUUID: characterID,
		Content:       content,
	}
	if err := e.repo.SaveMessage(m); err != nil {
		logging.Error("failed to append session log entry", err, logging.Fields{constants.LogFieldSessionID: sessionID})
	}
}
