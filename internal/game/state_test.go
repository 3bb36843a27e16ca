package game

import "testing"

func TestAddCharacterIdempotent(t *testing.T) {
	gs := &GameState{SessionID: "s1"}
	if !gs.AddCharacter("c1") {
		t.Fatalf("first join should add the character")
	}
	if gs.AddCharacter("c1") {
		t.Fatalf("second join of the same character should be a no-op")
	}
	if len(gs.ActiveCharacters) != 1 {
		t.Fatalf("expected one active character, got %d", len(gs.ActiveCharacters))
	}
}

func TestStartCombatSortsDescendingWithStableTies(t *testing.T) {
	gs := &GameState{SessionID: "s1"}
	gs.StartCombat([]InitiativeEntry{
		{CharacterID: "slow", Initiative: 8},
		{CharacterID: "first-tie", Initiative: 15},
		{CharacterID: "second-tie", Initiative: 15},
		{CharacterID: "fast", Initiative: 19},
	})

	want := []string{"fast", "first-tie", "second-tie", "slow"}
	for i, w := range want {
		if gs.Initiative[i].CharacterID != w {
			t.Fatalf("initiative[%d] = %s, want %s", i, gs.Initiative[i].CharacterID, w)
		}
	}
	if !gs.Combat.IsActive || gs.Combat.Round != 1 {
		t.Fatalf("combat should start active at round 1, got active=%v round=%d", gs.Combat.IsActive, gs.Combat.Round)
	}
	if gs.Combat.CurrentCharacter != "fast" {
		t.Fatalf("first turn belongs to the highest initiative, got %s", gs.Combat.CurrentCharacter)
	}
}

func TestAdvanceTurnCyclesRounds(t *testing.T) {
	gs := &GameState{SessionID: "s1"}
	gs.StartCombat([]InitiativeEntry{
		{CharacterID: "a", Initiative: 20},
		{CharacterID: "b", Initiative: 10},
	})

	gs.AdvanceTurn("a")
	if gs.Combat.CurrentCharacter != "b" || gs.Combat.Round != 1 {
		t.Fatalf("after a acts, b is up in round 1; got %s round %d", gs.Combat.CurrentCharacter, gs.Combat.Round)
	}

	gs.AdvanceTurn("b")
	if gs.Combat.Round != 2 {
		t.Fatalf("all acted: round should increment to 2, got %d", gs.Combat.Round)
	}
	if gs.Combat.CurrentCharacter != "a" {
		t.Fatalf("new round starts back at the top, got %s", gs.Combat.CurrentCharacter)
	}
	for _, e := range gs.Initiative {
		if e.HasActed {
			t.Fatalf("HasActed flags should reset at the round boundary")
		}
	}
	if gs.TurnCounter != 2 {
		t.Fatalf("turn counter should count every action, got %d", gs.TurnCounter)
	}
}

func TestAdvanceTurnExpiresConditions(t *testing.T) {
	gs := &GameState{SessionID: "s1"}
	gs.StartCombat([]InitiativeEntry{{CharacterID: "a", Initiative: 12}})
	gs.Combat.Conditions = []Condition{
		{CharacterID: "a", Condition: "poisoned", Duration: 2, Source: "trap"},
		{CharacterID: "a", Condition: "stunned", Duration: 1, Source: "spell"},
	}

	gs.AdvanceTurn("a") // round boundary: durations tick
	if len(gs.Combat.Conditions) != 1 || gs.Combat.Conditions[0].Condition != "poisoned" {
		t.Fatalf("stunned should expire and poisoned remain, got %+v", gs.Combat.Conditions)
	}
}

func TestEndCombatClearsState(t *testing.T) {
	gs := &GameState{SessionID: "s1"}
	gs.StartCombat([]InitiativeEntry{{CharacterID: "a", Initiative: 12}})
	gs.EndCombat()
	if gs.Combat.IsActive || len(gs.Initiative) != 0 || gs.Combat.CurrentCharacter != "" {
		t.Fatalf("end combat should clear combat state, got %+v", gs.Combat)
	}
}

func TestStateRoundTripWithSession(t *testing.T) {
	s := &Session{
		SessionUUID:      "s1",
		SceneName:        "The Sunken Crypt",
		SceneDescription: "Water drips from the vaulted ceiling.",
		TurnCounter:      4,
		ActiveCharacters: []string{"c1", "c2"},
		Initiative:       []InitiativeEntry{{CharacterID: "c1", Initiative: 17}},
		Combat:           CombatState{IsActive: true, Round: 2, CurrentCharacter: "c1"},
		World: WorldState{
			CurrentLocation:     "crypt",
			DiscoveredLocations: []string{"village", "crypt"},
		},
	}

	gs := StateFromSession(s)
	if gs.SceneName != s.SceneName || gs.TurnCounter != 4 || !gs.Combat.IsActive {
		t.Fatalf("hydrated state should mirror the session row")
	}

	gs.DiscoverLocation("catacombs")
	gs.AdvanceTurn("c1")

	var out Session
	gs.ApplyToSession(&out)
	if out.World.CurrentLocation != "catacombs" || len(out.World.DiscoveredLocations) != 3 {
		t.Fatalf("write-back should carry world mutations, got %+v", out.World)
	}
	if out.TurnCounter != 5 {
		t.Fatalf("write-back should carry turn counter, got %d", out.TurnCounter)
	}
	// The source row must not alias the live slices.
	if len(s.World.DiscoveredLocations) != 2 {
		t.Fatalf("mutating the live state must not touch the source row")
	}
}

func TestDiscoverLocationDeduplicates(t *testing.T) {
	gs := &GameState{SessionID: "s1"}
	gs.DiscoverLocation("village")
	gs.DiscoverLocation("crypt")
	gs.DiscoverLocation("village")
	if len(gs.World.DiscoveredLocations) != 2 {
		t.Fatalf("re-discovery should not duplicate, got %v", gs.World.DiscoveredLocations)
	}
	if gs.World.CurrentLocation != "village" {
		t.Fatalf("current location should follow the latest move, got %s", gs.World.CurrentLocation)
	}
}
