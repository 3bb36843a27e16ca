package engine

import (
	"fmt"

	"github.com/bradreaney/dnd-session-engine/internal/constants"
	"github.com/bradreaney/dnd-session-engine/internal/game"
	"github.com/bradreaney/dnd-session-engine/internal/logging"
	"github.com/bradreaney/dnd-session-engine/internal/rules"
)

// SkillCheckCommand is one inbound skill-check action. Difficulty is a
// named tier ("easy", "hard", ...) unless DC carries an explicit class.
type SkillCheckCommand struct {
	SessionID    string               `json:"session_id"`
	CharacterID  string               `json:"character_id"`
	Skill        string               `json:"skill"`
	Difficulty   string               `json:"difficulty"`
	DC           int                  `json:"dc"`
	Roll         int                  `json:"roll"`
	Advantage    bool                 `json:"advantage"`
	Disadvantage bool                 `json:"disadvantage"`
	Modifiers    rules.NamedModifiers `json:"modifiers"`
}

// SkillCheckPerformed is the room-facing summary of a resolved check.
// The full breakdown goes only to the caller.
type SkillCheckPerformed struct {
	SessionID   string `json:"session_id"`
	CharacterID string `json:"character_id"`
	Skill       string `json:"skill"`
	Total       int    `json:"total"`
	DC          int    `json:"dc"`
	Success     bool   `json:"success"`
	Critical    bool   `json:"critical"`
}

// SkillCheck resolves a check against the character's sheet, banks the
// experience award, logs the attempt to the session record and fans the
// summary out to the room. The full result goes back to the caller.
func (e *Engine) SkillCheck(cmd SkillCheckCommand) (*rules.SkillCheckResult, error) {
	char, err := e.repo.FindCharacterByUUID(cmd.CharacterID)
	if err != nil {
		return nil, ErrCharacterNotFound
	}

	dc := cmd.DC
	if dc <= 0 {
		dc = rules.DifficultyClass(cmd.Difficulty)
	}
	result := rules.ResolveSkillCheck(char, rules.SkillCheckRequest{
		Skill:        cmd.Skill,
		Roll:         cmd.Roll,
		DC:           dc,
		Advantage:    cmd.Advantage,
		Disadvantage: cmd.Disadvantage,
		Modifiers:    cmd.Modifiers,
	}, e.roller)

	err = e.store.WithSession(cmd.SessionID, func(gs *game.GameState) error {
		gs.TurnCounter++
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.store.Persist(cmd.SessionID)

	// Experience is banked on the sheet immediately; a failed save keeps
	// the resolved result valid, the award just lags.
	if result.Experience > 0 {
		char.Experience += result.Experience
		if err := e.repo.SaveCharacter(char); err != nil {
			logging.Error("failed to bank experience award", err, logging.Fields{
				constants.LogFieldCharacterID: cmd.CharacterID,
				constants.LogFieldSkill:       result.Skill,
			})
		}
	}

	verdict := "failure"
	if result.Success {
		verdict = "success"
	}
	if result.Critical {
		verdict = "critical " + verdict
	}
	e.logMessage(cmd.SessionID, game.RoleSystem, cmd.CharacterID,
		fmt.Sprintf("%s attempted a %s check (DC %d): %s (rolled %d, total %d)",
			char.Name, result.Skill, result.DC, verdict, result.Roll, result.Total))

	e.hub.Broadcast(cmd.SessionID, constants.EventSkillCheckPerformed, SkillCheckPerformed{
		SessionID:   cmd.SessionID,
		CharacterID: cmd.CharacterID,
		Skill:       result.Skill,
		Total:       result.Total,
		DC:          result.DC,
		Success:     result.Success,
		Critical:    result.Critical,
	})
	return &result, nil
}
