package realtime

import (
	"sync"
	"testing"
	"time"
)

// fakeConn records written envelopes in order.
type fakeConn struct {
	mu     sync.Mutex
	writes []Envelope
	closed bool
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, v.(Envelope))
	return nil
}

func (f *fakeConn) SetWriteDeadline(t time.Time) error { return nil }

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.writes))
	for i, e := range f.writes {
		out[i] = e.Event
	}
	return out
}

func waitForWrites(t *testing.T, f *fakeConn, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		f.mu.Lock()
		got := len(f.writes)
		f.mu.Unlock()
		if got >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d writes", n)
}

func TestBroadcastReachesRoomMembersOnly(t *testing.T) {
	hub := NewHub()
	inRoom, other := &fakeConn{}, &fakeConn{}
	c1 := NewClient(inRoom)
	c2 := NewClient(other)
	defer c1.Close()
	defer c2.Close()

	hub.Join("s1", c1)
	hub.Join("s2", c2)

	hub.Broadcast("s1", "story-event-added", map[string]string{"action": "explore"})
	waitForWrites(t, inRoom, 1)

	if got := inRoom.events(); len(got) != 1 || got[0] != "story-event-added" {
		t.Fatalf("room member should receive the event, got %v", got)
	}
	if got := other.events(); len(got) != 0 {
		t.Fatalf("other room must not receive the event, got %v", got)
	}
}

func TestLeaveStopsDelivery(t *testing.T) {
	hub := NewHub()
	conn := &fakeConn{}
	c := NewClient(conn)
	defer c.Close()

	hub.Join("s1", c)
	hub.Broadcast("s1", "first", nil)
	waitForWrites(t, conn, 1)

	hub.Leave("s1", c)
	hub.Broadcast("s1", "second", nil)
	time.Sleep(20 * time.Millisecond)

	if got := conn.events(); len(got) != 1 {
		t.Fatalf("expected delivery to stop after leave, got %v", got)
	}
	if hub.RoomSize("s1") != 0 {
		t.Fatalf("empty room should be dropped")
	}
}

func TestSlowSubscriberIsDroppedNotBlocked(t *testing.T) {
	hub := NewHub()
	conn := &fakeConn{}
	c := NewClient(conn)
	// Stop the pump so the buffer fills up.
	c.Close()
	hub.Join("s1", c)

	done := make(chan struct{})
	go func() {
		for i := 0; i < sendBufferSize*2; i++ {
			hub.Broadcast("s1", "tick", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("broadcast must never block on a dead subscriber")
	}
}

func TestClientSendIsCallerDirected(t *testing.T) {
	conn := &fakeConn{}
	c := NewClient(conn)
	defer c.Close()

	c.Send("skill-check-result", map[string]bool{"success": true})
	waitForWrites(t, conn, 1)
	if got := conn.events(); got[0] != "skill-check-result" {
		t.Fatalf("unexpected event: %v", got)
	}
}
