package game

import "sort"

// InitiativeEntry is one member of the combat turn order.
type InitiativeEntry struct {
	CharacterID string `json:"character_id"`
	Initiative  int    `json:"initiative"`
	HasActed    bool   `json:"has_acted"`
}

// Condition is a temporary combat condition on a character.
type Condition struct {
	CharacterID string `json:"character_id"`
	Condition   string `json:"condition"`
	Duration    int    `json:"duration"`
	Source      string `json:"source"`
}

// CombatState tracks whether combat is running and whose turn it is.
type CombatState struct {
	IsActive         bool        `json:"is_active"`
	Round            int         `json:"round"`
	CurrentCharacter string      `json:"current_character"`
	Conditions       []Condition `json:"conditions"`
}

// ActiveEffect is a lingering world-level effect (weather, blessings,
// area hazards) independent of combat.
type ActiveEffect struct {
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	Duration           int      `json:"duration"`
	AffectedCharacters []string `json:"affected_characters"`
	Source             string   `json:"source"`
}

// WorldState is the session-wide exploration snapshot.
type WorldState struct {
	CurrentLocation     string         `json:"current_location"`
	DiscoveredLocations []string       `json:"discovered_locations"`
	ActiveEffects       []ActiveEffect `json:"active_effects"`
}

// GameState is the live, in-memory state of one session. It is the sole
// mutable source of truth while the session is hot; the durable Session
// row trails it via best-effort write-through. All mutation happens
// under the owning store entry's lock.
type GameState struct {
	SessionID        string            `json:"session_id"`
	SceneName        string            `json:"scene_name"`
	SceneDescription string            `json:"scene_description"`
	ActiveCharacters []string          `json:"active_characters"`
	TurnCounter      int               `json:"turn_counter"`
	Initiative       []InitiativeEntry `json:"initiative"`
	Combat           CombatState       `json:"combat"`
	World            WorldState        `json:"world"`
}

// StateFromSession builds the in-memory representation from a durable
// session row. Slices are copied so later mutation never aliases the
// GORM-managed struct.
func StateFromSession(s *Session) *GameState {
	gs := &GameState{
		SessionID:        s.SessionUUID,
		SceneName:        s.SceneName,
		SceneDescription: s.SceneDescription,
		TurnCounter:      s.TurnCounter,
		ActiveCharacters: append([]string(nil), s.ActiveCharacters...),
		Initiative:       append([]InitiativeEntry(nil), s.Initiative...),
		Combat:           s.Combat,
		World:            s.World,
	}
	gs.Combat.Conditions = append([]Condition(nil), s.Combat.Conditions...)
	gs.World.DiscoveredLocations = append([]string(nil), s.World.DiscoveredLocations...)
	gs.World.ActiveEffects = append([]ActiveEffect(nil), s.World.ActiveEffects...)
	return gs
}

// ApplyToSession copies the live state back onto the durable row before
// a save.
func (gs *GameState) ApplyToSession(s *Session) {
	s.SceneName = gs.SceneName
	s.SceneDescription = gs.SceneDescription
	s.TurnCounter = gs.TurnCounter
	s.ActiveCharacters = append([]string(nil), gs.ActiveCharacters...)
	s.Initiative = append([]InitiativeEntry(nil), gs.Initiative...)
	s.Combat = gs.Combat
	s.World = gs.World
}

// AddCharacter adds the character to the active list. Idempotent: a
// second join of the same character is a no-op.
func (gs *GameState) AddCharacter(characterID string) bool {
	for _, id := range gs.ActiveCharacters {
		if id == characterID {
			return false
		}
	}
	gs.ActiveCharacters = append(gs.ActiveCharacters, characterID)
	return true
}

// RemoveCharacter drops the character from the active list.
func (gs *GameState) RemoveCharacter(characterID string) {
	for i, id := range gs.ActiveCharacters {
		if id == characterID {
			gs.ActiveCharacters = append(gs.ActiveCharacters[:i], gs.ActiveCharacters[i+1:]...)
			return
		}
	}
}

// StartCombat begins combat with the given rolled entries. The order is
// sorted descending by initiative; ties keep insertion order (stable
// sort), so the first-listed of two equal rolls acts first.
func (gs *GameState) StartCombat(entries []InitiativeEntry) {
	order := append([]InitiativeEntry(nil), entries...)
	sort.SliceStable(order, func(i, j int) bool { return order[i].Initiative > order[j].Initiative })
	for i := range order {
		order[i].HasActed = false
	}
	gs.Initiative = order
	gs.Combat.IsActive = true
	gs.Combat.Round = 1
	gs.Combat.Conditions = nil
	if len(order) > 0 {
		gs.Combat.CurrentCharacter = order[0].CharacterID
	} else {
		gs.Combat.CurrentCharacter = ""
	}
}

// EndCombat clears the combat state and initiative order.
func (gs *GameState) EndCombat() {
	gs.Initiative = nil
	gs.Combat = CombatState{}
}

// AdvanceTurn marks the acting character's initiative entry as acted and
// moves CurrentCharacter to the next un-acted entry. When every entry
// has acted the round increments and HasActed flags reset. Characters
// without an initiative entry still advance the turn counter.
func (gs *GameState) AdvanceTurn(characterID string) {
	gs.TurnCounter++
	if !gs.Combat.IsActive || len(gs.Initiative) == 0 {
		return
	}
	for i := range gs.Initiative {
		if gs.Initiative[i].CharacterID == characterID {
			gs.Initiative[i].HasActed = true
			break
		}
	}
	next := gs.nextUnacted()
	if next == "" {
		gs.Combat.Round++
		for i := range gs.Initiative {
			gs.Initiative[i].HasActed = false
		}
		gs.expireConditions()
		next = gs.Initiative[0].CharacterID
	}
	gs.Combat.CurrentCharacter = next
}

func (gs *GameState) nextUnacted() string {
	for i := range gs.Initiative {
		if !gs.Initiative[i].HasActed {
			return gs.Initiative[i].CharacterID
		}
	}
	return ""
}

// expireConditions ticks condition durations at the round boundary and
// drops the ones that ran out.
func (gs *GameState) expireConditions() {
	kept := gs.Combat.Conditions[:0]
	for _, c := range gs.Combat.Conditions {
		c.Duration--
		if c.Duration > 0 {
			kept = append(kept, c)
		}
	}
	gs.Combat.Conditions = kept
}

// DiscoverLocation records a newly visited location and makes it
// current. Re-discovering a known location only moves the party.
func (gs *GameState) DiscoverLocation(name string) {
	gs.World.CurrentLocation = name
	for _, l := range gs.World.DiscoveredLocations {
		if l == name {
			return
		}
	}
	gs.World.DiscoveredLocations = append(gs.World.DiscoveredLocations, name)
}
