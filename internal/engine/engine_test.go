package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/bradreaney/dnd-session-engine/internal/game"
	"github.com/bradreaney/dnd-session-engine/internal/narrative"
	"github.com/bradreaney/dnd-session-engine/internal/rules"
	"github.com/bradreaney/dnd-session-engine/internal/session"
)

type fakeRepo struct {
	mu         sync.Mutex
	characters map[string]*game.Character
	sessions   map[string]*game.Session
	messages   []game.Message
	saveErr    error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		characters: map[string]*game.Character{},
		sessions:   map[string]*game.Session{},
	}
}

func (f *fakeRepo) FindCharacterByUUID(uuid string) (*game.Character, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.characters[uuid]
	if !ok {
		return nil, errors.New("record not found")
	}
	cp := *c
	return &cp, nil
}

func (f *fakeRepo) SaveCharacter(c *game.Character) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	cp := *c
	f.characters[c.CharacterUUID] = &cp
	return nil
}

func (f *fakeRepo) FindSessionByUUID(uuid string) (*game.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[uuid]
	if !ok {
		return nil, errors.New("record not found")
	}
	cp := *s
	return &cp, nil
}

func (f *fakeRepo) SaveSession(s *game.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.sessions[s.SessionUUID] = &cp
	return nil
}

func (f *fakeRepo) SaveMessage(m *game.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, *m)
	return nil
}

func (f *fakeRepo) RecentMessages(sessionUUID string, limit int, roles []string) ([]game.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wanted := map[string]bool{}
	for _, r := range roles {
		wanted[r] = true
	}
	out := []game.Message{}
	for _, m := range f.messages {
		if m.SessionUUID == sessionUUID && (len(wanted) == 0 || wanted[m.Role]) {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (f *fakeRepo) messagesByRole(role string) []game.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []game.Message{}
	for _, m := range f.messages {
		if m.Role == role {
			out = append(out, m)
		}
	}
	return out
}

type broadcastRecord struct {
	sessionID string
	event     string
	payload   interface{}
}

type fakeHub struct {
	mu     sync.Mutex
	events []broadcastRecord
}

func (f *fakeHub) Broadcast(sessionID, event string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, broadcastRecord{sessionID, event, payload})
}

func (f *fakeHub) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, e := range f.events {
		out[i] = e.event
	}
	return out
}

type fakeNarrator struct {
	result narrative.Result
	turns  []narrative.Turn
}

func (f *fakeNarrator) Respond(ctx context.Context, turns []narrative.Turn) narrative.Result {
	f.turns = turns
	return f.result
}

func seedCharacter() *game.Character {
	return &game.Character{
		CharacterUUID: "c1",
		Name:          "Vex",
		Level:         5,
		Strength:      14,
		Dexterity:     16,
		Intelligence:  10,
		Proficiencies: []string{"stealth"},
	}
}

func seedSession() *game.Session {
	return &game.Session{
		SessionUUID:      "s1",
		Status:           game.SessionStatusActive,
		ActiveCharacters: []string{"c1"},
	}
}

func newTestEngine(repo *fakeRepo, hub *fakeHub, narr Narrator, roller rules.Roller) *Engine {
	if narr == nil {
		narr = &fakeNarrator{result: narrative.Result{Text: "ok", Source: narrative.SourceModel}}
	}
	if roller == nil {
		roller = &rules.FixedRoller{Values: []int{10}}
	}
	return New(session.NewStore(repo), repo, narr, hub, roller, 20)
}

func TestJoinSessionBroadcastsAndReturnsState(t *testing.T) {
	repo := newFakeRepo()
	repo.characters["c2"] = &game.Character{CharacterUUID: "c2", Name: "Brin"}
	repo.sessions["s1"] = seedSession()
	hub := &fakeHub{}
	eng := newTestEngine(repo, hub, nil, nil)

	res, err := eng.JoinSession("s1", "c2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.GameState.ActiveCharacters) != 2 {
		t.Fatalf("expected joined state, got %v", res.GameState.ActiveCharacters)
	}
	if got := hub.names(); len(got) != 1 || got[0] != "player-joined" {
		t.Fatalf("expected a player-joined broadcast, got %v", got)
	}
}

func TestJoinSessionUnknownCharacter(t *testing.T) {
	repo := newFakeRepo()
	repo.sessions["s1"] = seedSession()
	eng := newTestEngine(repo, &fakeHub{}, nil, nil)

	if _, err := eng.JoinSession("s1", "ghost"); !errors.Is(err, ErrCharacterNotFound) {
		t.Fatalf("expected ErrCharacterNotFound, got %v", err)
	}
}

func TestSkillCheckResolvesBanksXPAndBroadcasts(t *testing.T) {
	repo := newFakeRepo()
	repo.characters["c1"] = seedCharacter()
	repo.sessions["s1"] = seedSession()
	hub := &fakeHub{}
	eng := newTestEngine(repo, hub, nil, nil)

	res, err := eng.SkillCheck(SkillCheckCommand{
		SessionID:   "s1",
		CharacterID: "c1",
		Skill:       "stealth",
		Difficulty:  "medium",
		Roll:        14,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// DEX 16 → +3, proficient at level 5 → +3; 14+6 vs DC 15.
	if !res.Success || res.Total != 20 {
		t.Fatalf("expected a total-20 success, got %+v", res)
	}
	if repo.characters["c1"].Experience != res.Experience || res.Experience == 0 {
		t.Fatalf("experience should be banked on the sheet, got %d (award %d)",
			repo.characters["c1"].Experience, res.Experience)
	}
	if got := hub.names(); len(got) != 1 || got[0] != "skill-check-performed" {
		t.Fatalf("expected a skill-check-performed broadcast, got %v", got)
	}
	logs := repo.messagesByRole(game.RoleSystem)
	if len(logs) != 1 || !strings.Contains(logs[0].Content, "stealth") {
		t.Fatalf("expected a system log entry naming the skill, got %v", logs)
	}
	gs, _ := eng.GameState("s1")
	if gs.TurnCounter != 1 {
		t.Fatalf("skill check should advance the turn counter, got %d", gs.TurnCounter)
	}
}

func TestSkillCheckFailedXPSaveStillSucceeds(t *testing.T) {
	repo := newFakeRepo()
	repo.characters["c1"] = seedCharacter()
	repo.sessions["s1"] = seedSession()
	repo.saveErr = errors.New("disk full")
	eng := newTestEngine(repo, &fakeHub{}, nil, nil)

	res, err := eng.SkillCheck(SkillCheckCommand{
		SessionID: "s1", CharacterID: "c1", Skill: "stealth", DC: 10, Roll: 14,
	})
	if err != nil {
		t.Fatalf("XP save failure must not fail the check: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
}

func TestCombatActionAdvancesTurnOrder(t *testing.T) {
	repo := newFakeRepo()
	repo.characters["c1"] = seedCharacter()
	repo.characters["c2"] = &game.Character{CharacterUUID: "c2", Name: "Brin", Dexterity: 10}
	s := seedSession()
	s.ActiveCharacters = []string{"c1", "c2"}
	repo.sessions["s1"] = s
	hub := &fakeHub{}
	// c1 rolls 18+3, c2 rolls 5+0, then attack roll 13 and damage 6.
	eng := newTestEngine(repo, hub, nil, &rules.FixedRoller{Values: []int{18, 5, 13, 6}})

	started, err := eng.StartCombat("s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if started.Order[0].CharacterID != "c1" || started.Order[0].Initiative != 21 {
		t.Fatalf("expected c1 first on 21, got %+v", started.Order)
	}

	performed, err := eng.CombatAction(CombatCommand{
		SessionID: "s1", CharacterID: "c1", Action: rules.ActionAttack, Target: "the bandit",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// STR 14 → +2; 13+2=15 meets AC 15; damage 6+2.
	if !performed.Result.Success || performed.Result.Damage != 8 {
		t.Fatalf("expected a hit for 8, got %+v", performed.Result)
	}
	if performed.NextUp != "c2" {
		t.Fatalf("turn should pass to c2, got %q", performed.NextUp)
	}
	if got := hub.names(); got[len(got)-1] != "combat-action-performed" {
		t.Fatalf("expected combat-action-performed broadcast, got %v", got)
	}
}

func TestCombatActionUnknownKindRejected(t *testing.T) {
	repo := newFakeRepo()
	repo.characters["c1"] = seedCharacter()
	repo.sessions["s1"] = seedSession()
	hub := &fakeHub{}
	eng := newTestEngine(repo, hub, nil, nil)

	_, err := eng.CombatAction(CombatCommand{
		SessionID: "s1", CharacterID: "c1", Action: "taunt",
	})
	if !errors.Is(err, rules.ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
	if len(hub.names()) != 0 {
		t.Fatalf("rejected action must not broadcast, got %v", hub.names())
	}
	gs, _ := eng.GameState("s1")
	if gs.TurnCounter != 0 {
		t.Fatalf("rejected action must not advance the turn, got %d", gs.TurnCounter)
	}
}

func TestEndCombatClearsStateAndBroadcasts(t *testing.T) {
	repo := newFakeRepo()
	repo.characters["c1"] = seedCharacter()
	repo.sessions["s1"] = seedSession()
	hub := &fakeHub{}
	eng := newTestEngine(repo, hub, nil, nil)

	if _, err := eng.StartCombat("s1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := eng.EndCombat("s1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	gs, _ := eng.GameState("s1")
	if gs.Combat.IsActive || len(gs.Initiative) != 0 {
		t.Fatalf("combat state should be cleared, got %+v", gs.Combat)
	}
	if got := hub.names(); got[len(got)-1] != "combat-ended" {
		t.Fatalf("expected combat-ended broadcast, got %v", got)
	}
}

func TestStoryActionDiscoversLocation(t *testing.T) {
	repo := newFakeRepo()
	repo.sessions["s1"] = seedSession()
	hub := &fakeHub{}
	eng := newTestEngine(repo, hub, nil, nil)

	event, err := eng.StoryAction(StoryCommand{
		SessionID:   "s1",
		CharacterID: "c1",
		Action:      "travel",
		Description: "The party follows the river north.",
		Location:    "old mill",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.Turn != 1 {
		t.Fatalf("expected turn 1, got %d", event.Turn)
	}
	gs, _ := eng.GameState("s1")
	if gs.World.CurrentLocation != "old mill" || len(gs.World.DiscoveredLocations) != 1 {
		t.Fatalf("expected discovered location, got %+v", gs.World)
	}
	if got := hub.names(); got[0] != "story-event-added" {
		t.Fatalf("expected story-event-added broadcast, got %v", got)
	}
	// Write-through should have carried the world state to the row.
	if repo.sessions["s1"].World.CurrentLocation != "old mill" {
		t.Fatalf("expected durable write-through, got %+v", repo.sessions["s1"].World)
	}
}

func TestAIMessageStoresBothSidesAndBroadcasts(t *testing.T) {
	repo := newFakeRepo()
	repo.sessions["s1"] = seedSession()
	hub := &fakeHub{}
	narr := &fakeNarrator{result: narrative.Result{Text: "The door creaks open.", Source: narrative.SourceModel}}
	eng := newTestEngine(repo, hub, narr, nil)

	resp, err := eng.AIMessage(context.Background(), "s1", "c1", "I open the door")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Response != "The door creaks open." || resp.Degraded {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(repo.messagesByRole(game.RolePlayer)) != 1 || len(repo.messagesByRole(game.RoleAI)) != 1 {
		t.Fatalf("both sides of the exchange should be stored")
	}
	if got := hub.names(); got[len(got)-1] != "ai-response" {
		t.Fatalf("expected ai-response broadcast, got %v", got)
	}
	// The player's message must be the final user turn handed over.
	last := narr.turns[len(narr.turns)-1]
	if last.Role != narrative.RoleUser || last.Text != "I open the door" {
		t.Fatalf("expected the message as the final user turn, got %+v", last)
	}
}

func TestAIMessageDegradedResultStillDelivered(t *testing.T) {
	repo := newFakeRepo()
	repo.sessions["s1"] = seedSession()
	hub := &fakeHub{}
	narr := &fakeNarrator{result: narrative.Result{
		Text: narrative.FallbackText, Source: narrative.SourceFallback, Degraded: true,
	}}
	eng := newTestEngine(repo, hub, narr, nil)

	resp, err := eng.AIMessage(context.Background(), "s1", "c1", "hello?")
	if err != nil {
		t.Fatalf("degraded narration must not error: %v", err)
	}
	if !resp.Degraded || resp.Response != narrative.FallbackText {
		t.Fatalf("expected the fallback reply, got %+v", resp)
	}
}

func TestEndSessionTransitionsDurablyAndEvicts(t *testing.T) {
	repo := newFakeRepo()
	repo.sessions["s1"] = seedSession()
	hub := &fakeHub{}
	eng := newTestEngine(repo, hub, nil, nil)

	if _, err := eng.StoryAction(StoryCommand{SessionID: "s1", Action: "rest"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ended, err := eng.EndSession("s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ended.Turns != 1 {
		t.Fatalf("expected one recorded turn, got %d", ended.Turns)
	}
	if repo.sessions["s1"].Status != game.SessionStatusCompleted {
		t.Fatalf("durable record should be completed, got %q", repo.sessions["s1"].Status)
	}
	if got := hub.names(); got[len(got)-1] != "session-ended" {
		t.Fatalf("expected session-ended broadcast, got %v", got)
	}
}
