package narrative

import (
	"github.com/bradreaney/dnd-session-engine/internal/game"
)

// maxContextTurns is the hard cap on prior turns fed to the generator,
// independent of how many messages the repository returns.
const maxContextTurns = 8

// Generator role names. These follow the Gemini chat contract: player
// messages become "user" turns, previous narration becomes "model" turns.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn is one entry of the generator's conversation context.
type Turn struct {
	Role string
	Text string
}

// MessageHistory is the slice of the repository the context builder
// needs.
type MessageHistory interface {
	RecentMessages(sessionUUID string, limit int, roles []string) ([]game.Message, error)
}

// BuildConversationContext assembles the bounded conversation fed to the
// narrative generator: up to limit stored messages (player/ai/system,
// chronological), truncated to the most recent 8 turns, mapped onto
// generator roles. System messages count toward the cap but are dropped
// from the turn list; the current inbound message is appended as the
// final user turn.
func BuildConversationContext(history MessageHistory, sessionUUID string, limit int, current string) ([]Turn, error) {
	msgs, err := history.RecentMessages(sessionUUID, limit, []string{game.RolePlayer, game.RoleAI, game.RoleSystem})
	if err != nil {
		return nil, err
	}
	if len(msgs) > maxContextTurns {
		msgs = msgs[len(msgs)-maxContextTurns:]
	}

	turns := make([]Turn, 0, len(msgs)+1)
	for _, m := range msgs {
		switch m.Role {
		case game.RolePlayer:
			turns = append(turns, Turn{Role: RoleUser, Text: m.Content})
		case game.RoleAI:
			turns = append(turns, Turn{Role: RoleModel, Text: m.Content})
		}
		// system entries inform nothing downstream; skip
	}
	turns = append(turns, Turn{Role: RoleUser, Text: current})
	return turns, nil
}
