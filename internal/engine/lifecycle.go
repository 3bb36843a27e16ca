package engine

import (
	"github.com/bradreaney/dnd-session-engine/internal/constants"
	"github.com/bradreaney/dnd-session-engine/internal/game"
)

// SessionEnded is broadcast once, after the durable transition.
type SessionEnded struct {
	SessionID string `json:"session_id"`
	Turns     int    `json:"turns"`
}

// EndSession writes the final state through, marks the durable record
// completed and drops the live entry. The broadcast happens only after
// the durable transition succeeds.
func (e *Engine) EndSession(sessionID string) (*SessionEnded, error) {
	gs, err := e.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	e.store.Persist(sessionID)

	row, err := e.repo.FindSessionByUUID(sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	row.Status = game.SessionStatusCompleted
	if err := e.repo.SaveSession(row); err != nil {
		return nil, err
	}
	e.store.End(sessionID)

	e.logMessage(sessionID, game.RoleSystem, "", "The session draws to a close.")
	ended := SessionEnded{SessionID: sessionID, Turns: gs.TurnCounter}
	e.hub.Broadcast(sessionID, constants.EventSessionEnded, ended)
	return &ended, nil
}
