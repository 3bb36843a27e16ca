package rules

import "strings"

// Ability names used in skill metadata and modifier breakdowns.
const (
	AbilityStrength     = "strength"
	AbilityDexterity    = "dexterity"
	AbilityConstitution = "constitution"
	AbilityIntelligence = "intelligence"
	AbilityWisdom       = "wisdom"
	AbilityCharisma     = "charisma"
)

// skillAbilities maps the standard skill list to its governing ability.
// Unrecognized skills fall back to Intelligence.
var skillAbilities = map[string]string{
	"acrobatics":      AbilityDexterity,
	"animal handling": AbilityWisdom,
	"arcana":          AbilityIntelligence,
	"athletics":       AbilityStrength,
	"deception":       AbilityCharisma,
	"history":         AbilityIntelligence,
	"insight":         AbilityWisdom,
	"intimidation":    AbilityCharisma,
	"investigation":   AbilityIntelligence,
	"medicine":        AbilityWisdom,
	"nature":          AbilityIntelligence,
	"perception":      AbilityWisdom,
	"performance":     AbilityCharisma,
	"persuasion":      AbilityCharisma,
	"religion":        AbilityIntelligence,
	"sleight of hand": AbilityDexterity,
	"stealth":         AbilityDexterity,
	"survival":        AbilityWisdom,
}

// skillXPMultipliers scales the base XP award per skill. Knowledge and
// social skills pay slightly more than physical ones.
var skillXPMultipliers = map[string]float64{
	"acrobatics":      1.0,
	"animal handling": 1.1,
	"arcana":          1.5,
	"athletics":       1.0,
	"deception":       1.2,
	"history":         1.3,
	"insight":         1.2,
	"intimidation":    1.1,
	"investigation":   1.3,
	"medicine":        1.2,
	"nature":          1.3,
	"perception":      1.1,
	"performance":     1.1,
	"persuasion":      1.2,
	"religion":        1.3,
	"sleight of hand": 1.2,
	"stealth":         1.2,
	"survival":        1.1,
}

// skillConsequences holds flavor outcomes per skill keyed by outcome
// class. Skills without an entry use genericConsequences.
var skillConsequences = map[string]map[outcome][]string{
	"stealth": {
		outcomeCriticalSuccess: {"moves with uncanny silence", "finds an even better hiding spot"},
		outcomeSuccess:         {"slips by unnoticed"},
		outcomeFailure:         {"makes a small noise", "draws a suspicious glance"},
		outcomeCriticalFailure: {"knocks something over loudly", "is spotted immediately"},
	},
	"athletics": {
		outcomeCriticalSuccess: {"performs the feat with ease and style"},
		outcomeSuccess:         {"completes the physical feat"},
		outcomeFailure:         {"strains without success"},
		outcomeCriticalFailure: {"pulls a muscle", "loses their footing badly"},
	},
	"arcana": {
		outcomeCriticalSuccess: {"recalls an obscure and valuable detail", "senses the deeper weave of the magic"},
		outcomeSuccess:         {"identifies the magical effect"},
		outcomeFailure:         {"the magic remains opaque"},
		outcomeCriticalFailure: {"badly misreads the enchantment"},
	},
	"perception": {
		outcomeCriticalSuccess: {"notices every relevant detail", "spots something others would never see"},
		outcomeSuccess:         {"notices the important detail"},
		outcomeFailure:         {"misses the detail"},
		outcomeCriticalFailure: {"is distracted at the worst moment"},
	},
	"persuasion": {
		outcomeCriticalSuccess: {"wins them over completely"},
		outcomeSuccess:         {"makes a convincing case"},
		outcomeFailure:         {"fails to sway them"},
		outcomeCriticalFailure: {"offends the listener"},
	},
}

var genericConsequences = map[outcome][]string{
	outcomeCriticalSuccess: {"succeeds spectacularly"},
	outcomeSuccess:         {"succeeds"},
	outcomeFailure:         {"fails"},
	outcomeCriticalFailure: {"fails badly"},
}

type outcome int

const (
	outcomeCriticalFailure outcome = iota
	outcomeFailure
	outcomeSuccess
	outcomeCriticalSuccess
)

// Base XP awards before the per-skill multiplier.
const (
	xpCriticalSuccess = 25
	xpSuccess         = 10
	xpFailure         = 2
)

// NormalizeSkill lowercases and trims a skill name for table lookups.
func NormalizeSkill(skill string) string {
	return strings.ToLower(strings.TrimSpace(skill))
}

// SkillAbility resolves the governing ability for a skill, defaulting to
// Intelligence for unrecognized skills.
func SkillAbility(skill string) string {
	if a, ok := skillAbilities[NormalizeSkill(skill)]; ok {
		return a
	}
	return AbilityIntelligence
}

// Difficulty tiers accepted by the transport, mapped to fixed DCs.
var difficultyClasses = map[string]int{
	"very_easy":         5,
	"easy":              10,
	"medium":            15,
	"hard":              20,
	"very_hard":         25,
	"nearly_impossible": 30,
}

// DifficultyClass maps a named difficulty tier to its DC. Unknown tiers
// resolve to medium.
func DifficultyClass(tier string) int {
	if dc, ok := difficultyClasses[strings.ToLower(strings.TrimSpace(tier))]; ok {
		return dc
	}
	return difficultyClasses["medium"]
}
