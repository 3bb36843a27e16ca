package engine

import (
	"context"

	"github.com/bradreaney/dnd-session-engine/internal/constants"
	"github.com/bradreaney/dnd-session-engine/internal/game"
	"github.com/bradreaney/dnd-session-engine/internal/logging"
	"github.com/bradreaney/dnd-session-engine/internal/narrative"
)

// AIResponse is sent to the room after the narrator replies.
type AIResponse struct {
	SessionID   string `json:"session_id"`
	CharacterID string `json:"character_id"`
	Message     string `json:"message"`
	Response    string `json:"response"`
	Source      string `json:"source"`
	Degraded    bool   `json:"degraded"`
}

// AIMessage stores the player's message, asks the narrator for a reply
// over the recent conversation window, stores the reply and fans it out.
// The narrator itself never fails (it degrades to fallback text), so the
// only errors here are an unknown session or character.
func (e *Engine) AIMessage(ctx context.Context, sessionID, characterID, message string) (*AIResponse, error) {
	if _, err := e.store.Get(sessionID); err != nil {
		return nil, err
	}

	// Context is built before the inbound message is stored so the message
	// rides only as the final user turn, not twice.
	turns, err := narrative.BuildConversationContext(e.repo, sessionID, e.contextLimit, message)
	if err != nil {
		// History is an enrichment; narrate from the message alone.
		logging.Warn("conversation history unavailable", logging.Fields{constants.LogFieldSessionID: sessionID})
		turns = []narrative.Turn{{Role: narrative.RoleUser, Text: message}}
	}
	e.logMessage(sessionID, game.RolePlayer, characterID, message)
	result := e.narrator.Respond(ctx, turns)
	if result.Degraded {
		logging.Warn("narrator degraded to fallback", logging.Fields{
			constants.LogFieldSessionID: sessionID,
			constants.LogFieldSource:    result.Source,
		})
	}

	e.logMessage(sessionID, game.RoleAI, "", result.Text)

	resp := AIResponse{
		SessionID:   sessionID,
		CharacterID: characterID,
		Message:     message,
		Response:    result.Text,
		Source:      result.Source,
		Degraded:    result.Degraded,
	}
	e.hub.Broadcast(sessionID, constants.EventAIResponse, resp)
	return &resp, nil
}
