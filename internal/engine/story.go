package engine

import (
	"fmt"

	"github.com/bradreaney/dnd-session-engine/internal/constants"
	"github.com/bradreaney/dnd-session-engine/internal/game"
)

// StoryCommand is one inbound narrative action outside combat. Location
// is set when the action takes the party somewhere.
type StoryCommand struct {
	SessionID   string `json:"session_id"`
	CharacterID string `json:"character_id"`
	Action      string `json:"action"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

// StoryEvent is the room-facing record of a story action.
type StoryEvent struct {
	SessionID   string `json:"session_id"`
	CharacterID string `json:"character_id"`
	Action      string `json:"action"`
	Description string `json:"description"`
	Location    string `json:"location,omitempty"`
	Turn        int    `json:"turn"`
}

// StoryAction records a freeform narrative action, updating the world
// state when it moves the party, and fans it out to the room.
func (e *Engine) StoryAction(cmd StoryCommand) (*StoryEvent, error) {
	var turn int
	err := e.store.WithSession(cmd.SessionID, func(gs *game.GameState) error {
		gs.TurnCounter++
		if cmd.Location != "" {
			gs.DiscoverLocation(cmd.Location)
		}
		turn = gs.TurnCounter
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.store.Persist(cmd.SessionID)

	text := cmd.Description
	if text == "" {
		text = fmt.Sprintf("The party chooses to %s", cmd.Action)
	}
	e.logMessage(cmd.SessionID, game.RoleSystem, cmd.CharacterID, text)

	event := StoryEvent{
		SessionID:   cmd.SessionID,
		CharacterID: cmd.CharacterID,
		Action:      cmd.Action,
		Description: text,
		Location:    cmd.Location,
		Turn:        turn,
	}
	e.hub.Broadcast(cmd.SessionID, constants.EventStoryEventAdded, event)
	return &event, nil
}
