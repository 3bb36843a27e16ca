package narrative

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeGenerator struct {
	mu    sync.Mutex
	calls int
	text  string
	err   error
	delay time.Duration
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string, history []Turn) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.text, f.err
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string
	getErr  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]string{}}
}

func (f *fakeCache) GetCachedNarrative(fp string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", false, f.getErr
	}
	v, ok := f.entries[fp]
	return v, ok, nil
}

func (f *fakeCache) SaveCachedNarrative(fp, response string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[fp] = response
	return nil
}

func TestNarratorRespond_ModelSuccessIsCached(t *testing.T) {
	gen := &fakeGenerator{text: "A cold wind rises."}
	cache := newFakeCache()
	n := NewNarrator(gen, cache, "DM reply to: {{message}}", time.Second, time.Hour)

	turns := []Turn{{Role: RoleUser, Text: "I listen at the door (one)"}}
	res := n.Respond(context.Background(), turns)
	if res.Degraded || res.Source != SourceModel || res.Text != "A cold wind rises." {
		t.Fatalf("expected model response, got %+v", res)
	}

	// Second identical call is served from cache without another generation.
	res = n.Respond(context.Background(), turns)
	if res.Source != SourceCache || res.Text != "A cold wind rises." {
		t.Fatalf("expected cache hit, got %+v", res)
	}
	if gen.callCount() != 1 {
		t.Fatalf("generator should have run once, ran %d times", gen.callCount())
	}
}

func TestNarratorRespond_GeneratorErrorFallsBack(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("upstream down")}
	n := NewNarrator(gen, newFakeCache(), "{{message}}", time.Second, time.Hour)

	res := n.Respond(context.Background(), []Turn{{Role: RoleUser, Text: "hello (two)"}})
	if !res.Degraded || res.Source != SourceFallback {
		t.Fatalf("generator failure must degrade to fallback, got %+v", res)
	}
	if res.Text != FallbackText {
		t.Fatalf("expected neutral fallback text, got %q", res.Text)
	}
}

func TestNarratorRespond_TimeoutFallsBack(t *testing.T) {
	gen := &fakeGenerator{text: "too late", delay: 500 * time.Millisecond}
	n := NewNarrator(gen, newFakeCache(), "{{message}}", 50*time.Millisecond, time.Hour)

	res := n.Respond(context.Background(), []Turn{{Role: RoleUser, Text: "hurry (three)"}})
	if !res.Degraded || res.Source != SourceFallback {
		t.Fatalf("timeout must degrade to fallback, got %+v", res)
	}
}

func TestNarratorRespond_CacheErrorTreatedAsMiss(t *testing.T) {
	gen := &fakeGenerator{text: "Despite the broken cache, the story goes on."}
	cache := newFakeCache()
	cache.getErr = errors.New("cache unavailable")
	n := NewNarrator(gen, cache, "{{message}}", time.Second, time.Hour)

	res := n.Respond(context.Background(), []Turn{{Role: RoleUser, Text: "onward (four)"}})
	if res.Degraded || res.Source != SourceModel {
		t.Fatalf("cache failure must not block narration, got %+v", res)
	}
}

func TestNarratorRespond_DistinctPromptsDistinctFingerprints(t *testing.T) {
	gen := &fakeGenerator{text: "reply"}
	cache := newFakeCache()
	n := NewNarrator(gen, cache, "{{message}}", time.Second, time.Hour)

	for i := 0; i < 3; i++ {
		n.Respond(context.Background(), []Turn{{Role: RoleUser, Text: fmt.Sprintf("unique prompt %d (five)", i)}})
	}
	if gen.callCount() != 3 {
		t.Fatalf("three distinct prompts should generate three times, got %d", gen.callCount())
	}
}
