package rules

import (
	"errors"
	"fmt"

	"github.com/bradreaney/dnd-session-engine/internal/game"
)

// ErrUnknownAction rejects combat actions outside the known set before
// any die is rolled.
var ErrUnknownAction = errors.New("unknown combat action")

// ActionType is the closed set of combat action kinds.
type ActionType string

const (
	ActionAttack    ActionType = "attack"
	ActionSpell     ActionType = "spell"
	ActionMove      ActionType = "move"
	ActionDash      ActionType = "dash"
	ActionDodge     ActionType = "dodge"
	ActionHelp      ActionType = "help"
	ActionReady     ActionType = "ready"
	ActionSearch    ActionType = "search"
	ActionUseObject ActionType = "use_object"
)

// ValidAction reports whether the kind is in the known set.
func ValidAction(a ActionType) bool {
	switch a {
	case ActionAttack, ActionSpell, ActionMove, ActionDash, ActionDodge,
		ActionHelp, ActionReady, ActionSearch, ActionUseObject:
		return true
	}
	return false
}

// Default armor class assumed when the action names no modeled target.
const defaultTargetAC = 15

// CombatAction describes one submitted combat action.
type CombatAction struct {
	Type        ActionType
	Target      string
	TargetAC    int
	Spell       string
	Weapon      string
	Description string
}

// CombatResult is the outcome of one combat action.
type CombatResult struct {
	Action      ActionType `json:"action"`
	Success     bool       `json:"success"`
	AttackRoll  int        `json:"attack_roll,omitempty"`
	AttackTotal int        `json:"attack_total,omitempty"`
	TargetAC    int        `json:"target_ac,omitempty"`
	Damage      int        `json:"damage,omitempty"`
	Description string     `json:"description"`
	NextHint    string     `json:"next_hint,omitempty"`
}

// ResolveCombatAction dispatches on the action kind. Attack is the only
// kind with real dice behind it; spell and move always succeed, and the
// remaining kinds resolve as a generic success.
func ResolveCombatAction(c *game.Character, action CombatAction, roller Roller) (CombatResult, error) {
	if !ValidAction(action.Type) {
		return CombatResult{}, ErrUnknownAction
	}

	switch action.Type {
	case ActionAttack:
		return resolveAttack(c, action, roller), nil
	case ActionSpell:
		spell := action.Spell
		if spell == "" {
			spell = "a spell"
		}
		return CombatResult{
			Action:      action.Type,
			Success:     true,
			Description: fmt.Sprintf("%s casts %s", c.Name, spell),
			NextHint:    "resolve the spell's effect",
		}, nil
	case ActionMove:
		return CombatResult{
			Action:      action.Type,
			Success:     true,
			Description: fmt.Sprintf("%s repositions across the battlefield", c.Name),
		}, nil
	default:
		return CombatResult{
			Action:      action.Type,
			Success:     true,
			Description: fmt.Sprintf("%s performs %s", c.Name, action.Type),
		}, nil
	}
}

func resolveAttack(c *game.Character, action CombatAction, roller Roller) CombatResult {
	mod := AbilityModifier(c.Strength)
	targetAC := action.TargetAC
	if targetAC <= 0 {
		targetAC = defaultTargetAC
	}

	roll := roller.Roll(20)
	total := roll + mod
	res := CombatResult{
		Action:      action.Type,
		AttackRoll:  roll,
		AttackTotal: total,
		TargetAC:    targetAC,
	}

	target := action.Target
	if target == "" {
		target = "the target"
	}
	weapon := action.Weapon
	if weapon == "" {
		weapon = "their weapon"
	}

	if total >= targetAC {
		dmg := roller.Roll(8) + mod
		if dmg < 1 {
			dmg = 1
		}
		res.Success = true
		res.Damage = dmg
		res.Description = fmt.Sprintf("%s hits %s with %s for %d damage", c.Name, target, weapon, dmg)
		res.NextHint = "apply damage and check for defeat"
	} else {
		res.Description = fmt.Sprintf("%s swings %s at %s and misses", c.Name, weapon, target)
	}
	return res
}
