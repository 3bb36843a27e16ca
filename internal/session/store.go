package session

import (
	"errors"
	"sync"
	"time"

	"github.com/bradreaney/dnd-session-engine/internal/constants"
	"github.com/bradreaney/dnd-session-engine/internal/game"
	"github.com/bradreaney/dnd-session-engine/internal/logging"
)

// ErrSessionNotFound is returned when a session exists neither in
// memory nor in durable storage.
var ErrSessionNotFound = errors.New("session not found")

// SessionLoader is the slice of the repository the store needs for
// hydration and write-through.
type SessionLoader interface {
	FindSessionByUUID(uuid string) (*game.Session, error)
	SaveSession(s *game.Session) error
}

type entry struct {
	mu         sync.Mutex
	state      *game.GameState
	lastAccess time.Time
}

// Store is the in-memory registry of live GameStates, keyed by session
// id. At most one entry exists per id; entries hydrate lazily from the
// repository and are evicted on explicit end or after idling. Each entry
// carries its own mutex so concurrent actions against one session are
// strictly serialized while different sessions proceed in parallel.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	repo    SessionLoader
}

func NewStore(repo SessionLoader) *Store {
	return &Store{entries: make(map[string]*entry), repo: repo}
}

// lookup returns the live entry for the session, hydrating from the
// repository when absent.
func (st *Store) lookup(sessionID string) (*entry, error) {
	st.mu.Lock()
	e, ok := st.entries[sessionID]
	if ok {
		e.lastAccess = time.Now()
		st.mu.Unlock()
		return e, nil
	}
	st.mu.Unlock()

	// Hydrate outside the registry lock; the repository read can be slow.
	row, err := st.repo.FindSessionByUUID(sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	// Another caller may have hydrated while we read; keep theirs.
	if e, ok = st.entries[sessionID]; ok {
		e.lastAccess = time.Now()
		return e, nil
	}
	e = &entry{state: game.StateFromSession(row), lastAccess: time.Now()}
	st.entries[sessionID] = e
	logging.Info("session hydrated", logging.Fields{constants.LogFieldSessionID: sessionID})
	return e, nil
}

// Get returns a snapshot copy of the session's live state, hydrating it
// if needed. The copy is safe to serialize without holding any lock.
func (st *Store) Get(sessionID string) (*game.GameState, error) {
	var snap *game.GameState
	err := st.WithSession(sessionID, func(gs *game.GameState) error {
		snap = snapshot(gs)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// WithSession runs fn with the session's live state under that session's
// mutex. All engine mutations flow through here, which is what makes two
// concurrent actions against one session strictly ordered.
func (st *Store) WithSession(sessionID string, fn func(gs *game.GameState) error) error {
	e, err := st.lookup(sessionID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.state)
}

// Join idempotently adds the character to the session's active list and
// persists the change best-effort. Joining an already-present character
// is not an error.
func (st *Store) Join(sessionID, characterID string) (*game.GameState, error) {
	var snap *game.GameState
	err := st.WithSession(sessionID, func(gs *game.GameState) error {
		if gs.AddCharacter(characterID) {
			st.persist(gs)
		}
		snap = snapshot(gs)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Persist writes the session's live state through to durable storage.
// Failures are logged, never propagated: the in-memory state stays
// authoritative and durable storage may lag (known limitation).
func (st *Store) Persist(sessionID string) {
	_ = st.WithSession(sessionID, func(gs *game.GameState) error {
		st.persist(gs)
		return nil
	})
}

func (st *Store) persist(gs *game.GameState) {
	row, err := st.repo.FindSessionByUUID(gs.SessionID)
	if err != nil {
		logging.Error("write-through load failed", err, logging.Fields{constants.LogFieldSessionID: gs.SessionID})
		return
	}
	gs.ApplyToSession(row)
	if err := st.repo.SaveSession(row); err != nil {
		logging.Error("write-through save failed", err, logging.Fields{constants.LogFieldSessionID: gs.SessionID})
	}
}

// End removes the session from the registry. The caller owns the
// durable "completed" transition.
func (st *Store) End(sessionID string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.entries, sessionID)
}

// EvictIdle drops sessions untouched for longer than maxIdle after a
// final write-through, and returns how many were evicted. The next Get
// re-hydrates from durable storage.
func (st *Store) EvictIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	st.mu.Lock()
	ids := make([]string, 0)
	stale := make([]*entry, 0)
	for id, e := range st.entries {
		if e.lastAccess.Before(cutoff) {
			ids = append(ids, id)
			stale = append(stale, e)
			delete(st.entries, id)
		}
	}
	st.mu.Unlock()

	// Final write-through for each evicted entry. An action racing the
	// eviction simply re-hydrates from the row we just saved.
	for i, e := range stale {
		e.mu.Lock()
		st.persist(e.state)
		e.mu.Unlock()
		logging.Info("idle session evicted", logging.Fields{constants.LogFieldSessionID: ids[i]})
	}
	return len(stale)
}

// Len reports how many sessions are currently hot.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.entries)
}

// snapshot deep-copies a GameState for lock-free use by callers.
func snapshot(gs *game.GameState) *game.GameState {
	cp := *gs
	cp.ActiveCharacters = append([]string(nil), gs.ActiveCharacters...)
	cp.Initiative = append([]game.InitiativeEntry(nil), gs.Initiative...)
	cp.Combat.Conditions = append([]game.Condition(nil), gs.Combat.Conditions...)
	cp.World.DiscoveredLocations = append([]string(nil), gs.World.DiscoveredLocations...)
	cp.World.ActiveEffects = append([]game.ActiveEffect(nil), gs.World.ActiveEffects...)
	return &cp
}
