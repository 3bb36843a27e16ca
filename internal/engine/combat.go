package engine

import (
	"github.com/bradreaney/dnd-session-engine/internal/constants"
	"github.com/bradreaney/dnd-session-engine/internal/game"
	"github.com/bradreaney/dnd-session-engine/internal/logging"
	"github.com/bradreaney/dnd-session-engine/internal/rules"
)

// CombatCommand is one inbound combat action.
type CombatCommand struct {
	SessionID   string           `json:"session_id"`
	CharacterID string           `json:"character_id"`
	Action      rules.ActionType `json:"action"`
	Target      string           `json:"target"`
	TargetAC    int              `json:"target_ac"`
	Spell       string           `json:"spell"`
	Weapon      string           `json:"weapon"`
	Description string           `json:"description"`
}

// CombatActionPerformed is the room-facing record of a resolved action.
type CombatActionPerformed struct {
	SessionID   string             `json:"session_id"`
	CharacterID string             `json:"character_id"`
	Result      rules.CombatResult `json:"result"`
	Round       int                `json:"round"`
	NextUp      string             `json:"next_up"`
}

// CombatStarted carries the rolled turn order to the room.
type CombatStarted struct {
	SessionID string                 `json:"session_id"`
	Round     int                    `json:"round"`
	Order     []game.InitiativeEntry `json:"order"`
}

// CombatEnded announces that combat state was cleared.
type CombatEnded struct {
	SessionID string `json:"session_id"`
	Rounds    int    `json:"rounds"`
}

// CombatAction resolves an action, advances the turn order when combat
// is running and fans the outcome out to the room. Unknown action kinds
// are rejected before any state changes.
func (e *Engine) CombatAction(cmd CombatCommand) (*CombatActionPerformed, error) {
	char, err := e.repo.FindCharacterByUUID(cmd.CharacterID)
	if err != nil {
		return nil, ErrCharacterNotFound
	}

	result, err := rules.ResolveCombatAction(char, rules.CombatAction{
		Type:        cmd.Action,
		Target:      cmd.Target,
		TargetAC:    cmd.TargetAC,
		Spell:       cmd.Spell,
		Weapon:      cmd.Weapon,
		Description: cmd.Description,
	}, e.roller)
	if err != nil {
		return nil, err
	}

	var round int
	var nextUp string
	err = e.store.WithSession(cmd.SessionID, func(gs *game.GameState) error {
		gs.AdvanceTurn(cmd.CharacterID)
		round = gs.Combat.Round
		nextUp = gs.Combat.CurrentCharacter
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.store.Persist(cmd.SessionID)

	e.logMessage(cmd.SessionID, game.RoleSystem, cmd.CharacterID, result.Description)

	performed := CombatActionPerformed{
		SessionID:   cmd.SessionID,
		CharacterID: cmd.CharacterID,
		Result:      result,
		Round:       round,
		NextUp:      nextUp,
	}
	e.hub.Broadcast(cmd.SessionID, constants.EventCombatActionPerformed, performed)
	return &performed, nil
}

// StartCombat rolls initiative (d20 + dexterity modifier) for every
// active character and announces the resulting turn order. Characters
// whose sheet cannot be loaded roll with no modifier rather than
// blocking the rest of the party.
func (e *Engine) StartCombat(sessionID string) (*CombatStarted, error) {
	gs, err := e.store.Get(sessionID)
	if err != nil {
		return nil, err
	}

	entries := make([]game.InitiativeEntry, 0, len(gs.ActiveCharacters))
	for _, id := range gs.ActiveCharacters {
		mod := 0
		if char, err := e.repo.FindCharacterByUUID(id); err == nil {
			mod = rules.AbilityModifier(char.Dexterity)
		} else {
			logging.Warn("initiative rolled without sheet", logging.Fields{
				constants.LogFieldSessionID:   sessionID,
				constants.LogFieldCharacterID: id,
			})
		}
		entries = append(entries, game.InitiativeEntry{
			CharacterID: id,
			Initiative:  e.roller.Roll(20) + mod,
		})
	}

	var started CombatStarted
	err = e.store.WithSession(sessionID, func(gs *game.GameState) error {
		gs.StartCombat(entries)
		started = CombatStarted{
			SessionID: sessionID,
			Round:     gs.Combat.Round,
			Order:     append([]game.InitiativeEntry(nil), gs.Initiative...),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.store.Persist(sessionID)

	e.logMessage(sessionID, game.RoleSystem, "", "Combat begins. Roll for initiative!")
	e.hub.Broadcast(sessionID, constants.EventCombatStarted, started)
	return &started, nil
}

// EndCombat clears combat state and initiative and announces the end.
func (e *Engine) EndCombat(sessionID string) (*CombatEnded, error) {
	var rounds int
	err := e.store.WithSession(sessionID, func(gs *game.GameState) error {
		rounds = gs.Combat.Round
		gs.EndCombat()
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.store.Persist(sessionID)

	e.logMessage(sessionID, game.RoleSystem, "", "Combat ends.")
	ended := CombatEnded{SessionID: sessionID, Rounds: rounds}
	e.hub.Broadcast(sessionID, constants.EventCombatEnded, ended)
	return &ended, nil
}
