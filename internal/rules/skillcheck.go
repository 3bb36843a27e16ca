package rules

import "github.com/bradreaney/dnd-session-engine/internal/game"

// SkillCheckRequest carries everything needed to resolve one check.
// Roll <= 0 asks the resolver to roll; a positive Roll is taken as the
// already-chosen die (advantage/disadvantage resolved by the caller).
type SkillCheckRequest struct {
	Skill        string
	Roll         int
	DC           int
	Advantage    bool
	Disadvantage bool
	Modifiers    NamedModifiers
}

// NamedModifiers are situational bonuses applied on top of ability and
// proficiency.
type NamedModifiers struct {
	Circumstantial int `json:"circumstantial"`
	Magical        int `json:"magical"`
	Environmental  int `json:"environmental"`
	Other          int `json:"other"`
}

func (m NamedModifiers) total() int {
	return m.Circumstantial + m.Magical + m.Environmental + m.Other
}

// SkillCheckResult is the immutable outcome of one check. It is derived
// fresh on every call and never stored; only its effects (XP award, log
// entry) are persisted by the orchestrator.
type SkillCheckResult struct {
	Skill        string         `json:"skill"`
	Ability      string         `json:"ability"`
	Proficient   bool           `json:"proficient"`
	Expertise    bool           `json:"expertise"`
	Roll         int            `json:"roll"`
	Rolls        []int          `json:"rolls,omitempty"`
	Advantage    bool           `json:"advantage"`
	Disadvantage bool           `json:"disadvantage"`
	DC           int            `json:"dc"`
	AbilityMod   int            `json:"ability_modifier"`
	ProfMod      int            `json:"proficiency_modifier"`
	Modifiers    NamedModifiers `json:"modifiers"`
	TotalMod     int            `json:"total_modifier"`
	Total        int            `json:"total"`
	Success      bool           `json:"success"`
	Critical     bool           `json:"critical"`
	Consequences []string       `json:"consequences"`
	Experience   int            `json:"experience"`
}

// AbilityModifier derives the bonus/penalty from a raw ability score.
func AbilityModifier(score int) int {
	return floorDiv(score-10, 2)
}

// ProficiencyBonus derives the level-scaled bonus (L1–4 → +2 … L17–20 → +6).
func ProficiencyBonus(level int) int {
	if level < 1 {
		level = 1
	}
	return (level-1)/4 + 2
}

// floorDiv divides rounding toward negative infinity, so a score of 9
// yields -1 rather than 0.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// abilityScore reads the named ability off a character sheet.
func abilityScore(c *game.Character, ability string) int {
	switch ability {
	case AbilityStrength:
		return c.Strength
	case AbilityDexterity:
		return c.Dexterity
	case AbilityConstitution:
		return c.Constitution
	case AbilityWisdom:
		return c.Wisdom
	case AbilityCharisma:
		return c.Charisma
	default:
		return c.Intelligence
	}
}

func hasSkill(list []string, skill string) bool {
	for _, s := range list {
		if NormalizeSkill(s) == skill {
			return true
		}
	}
	return false
}

// ResolveSkillCheck resolves a check against a character sheet. Pure
// apart from the injected roller, which is only consulted when the
// request carries no pre-rolled die.
func ResolveSkillCheck(c *game.Character, req SkillCheckRequest, roller Roller) SkillCheckResult {
	skill := NormalizeSkill(req.Skill)
	ability := SkillAbility(skill)
	proficient := hasSkill(c.Proficiencies, skill)
	expertise := proficient && hasSkill(c.Expertise, skill)

	res := SkillCheckResult{
		Skill:        skill,
		Ability:      ability,
		Proficient:   proficient,
		Expertise:    expertise,
		Advantage:    req.Advantage,
		Disadvantage: req.Disadvantage,
		DC:           req.DC,
		Modifiers:    req.Modifiers,
	}

	res.Roll = req.Roll
	if req.Roll <= 0 {
		res.Roll, res.Rolls = rollD20(roller, req.Advantage, req.Disadvantage)
	}

	res.AbilityMod = AbilityModifier(abilityScore(c, ability))
	switch {
	case expertise:
		res.ProfMod = 2 * ProficiencyBonus(c.Level)
	case proficient:
		res.ProfMod = ProficiencyBonus(c.Level)
	}
	res.TotalMod = res.AbilityMod + res.ProfMod + req.Modifiers.total()
	res.Total = res.Roll + res.TotalMod

	res.Success = res.Total >= req.DC
	// A natural 20 or 1 is critical no matter what the DC comparison says.
	res.Critical = res.Roll == 20 || res.Roll == 1

	res.Consequences = consequencesFor(skill, classify(res.Success, res.Critical, res.Roll))
	res.Experience = experienceFor(skill, res.Success, res.Critical)
	return res
}

// rollD20 rolls the check die, applying advantage/disadvantage as
// roll-twice-take-higher/lower. Both flags together cancel out.
func rollD20(roller Roller, advantage, disadvantage bool) (int, []int) {
	first := roller.Roll(20)
	if advantage == disadvantage {
		return first, []int{first}
	}
	second := roller.Roll(20)
	chosen := first
	if advantage && second > first {
		chosen = second
	}
	if disadvantage && second < first {
		chosen = second
	}
	return chosen, []int{first, second}
}

func classify(success, critical bool, roll int) outcome {
	switch {
	case critical && roll == 20 && success:
		return outcomeCriticalSuccess
	case critical && roll == 1 && !success:
		return outcomeCriticalFailure
	case success:
		return outcomeSuccess
	default:
		return outcomeFailure
	}
}

func consequencesFor(skill string, o outcome) []string {
	if table, ok := skillConsequences[skill]; ok {
		if cs, ok := table[o]; ok {
			return append([]string(nil), cs...)
		}
	}
	return append([]string(nil), genericConsequences[o]...)
}

func experienceFor(skill string, success, critical bool) int {
	base := xpFailure
	switch {
	case success && critical:
		base = xpCriticalSuccess
	case success:
		base = xpSuccess
	}
	mult, ok := skillXPMultipliers[skill]
	if !ok {
		mult = 1.0
	}
	return int(float64(base) * mult)
}
