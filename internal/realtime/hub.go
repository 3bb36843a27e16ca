package realtime

import (
	"sync"

	"github.com/bradreaney/dnd-session-engine/internal/constants"
	"github.com/bradreaney/dnd-session-engine/internal/logging"
)

// Envelope is the wire shape of every outbound realtime message.
type Envelope struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// Hub tracks per-session rooms and fans messages out to their members.
// Broadcast is fire-and-forget: no acknowledgment, no retry, and no
// ordering guarantee beyond each connection's own write order.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Client]struct{})}
}

// Join adds the client to the session's room, creating it on first use.
func (h *Hub) Join(sessionID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[sessionID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[sessionID] = room
	}
	room[c] = struct{}{}
}

// Leave removes the client from the session's room, dropping the room
// once empty.
func (h *Hub) Leave(sessionID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[sessionID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, sessionID)
		}
	}
}

// Remove detaches the client from every room (connection closed).
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, room := range h.rooms {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, id)
		}
	}
}

// Broadcast sends the event to every member of the session's room.
// Slow consumers are skipped, not waited for.
func (h *Hub) Broadcast(sessionID, event string, payload interface{}) {
	h.mu.Lock()
	members := make([]*Client, 0, len(h.rooms[sessionID]))
	for c := range h.rooms[sessionID] {
		members = append(members, c)
	}
	h.mu.Unlock()

	env := Envelope{Event: event, Payload: payload}
	for _, c := range members {
		if !c.enqueue(env) {
			logging.Warn("dropping broadcast to slow subscriber", logging.Fields{
				constants.LogFieldSessionID: sessionID,
				constants.LogFieldEvent:     event,
			})
		}
	}
}

// RoomSize reports the current member count for a session's room.
func (h *Hub) RoomSize(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[sessionID])
}
