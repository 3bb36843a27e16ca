package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/bradreaney/dnd-session-engine/internal/constants"
	"github.com/bradreaney/dnd-session-engine/internal/engine"
	"github.com/bradreaney/dnd-session-engine/internal/logging"
	"github.com/bradreaney/dnd-session-engine/internal/realtime"
	"github.com/bradreaney/dnd-session-engine/internal/rules"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const aiMessageTimeout = 60 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The session backend sits behind the game frontend; origin policy is
	// enforced at the proxy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// inboundEvent is the wire shape of every client-to-server message.
type inboundEvent struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type joinPayload struct {
	SessionID   string `json:"session_id"`
	CharacterID string `json:"character_id"`
}

type aiMessagePayload struct {
	SessionID   string `json:"session_id"`
	CharacterID string `json:"character_id"`
	Message     string `json:"message"`
}

type sessionPayload struct {
	SessionID string `json:"session_id"`
}

// Websocket upgrades the connection and runs its read loop. Caller
// replies go back on this connection only; room-wide effects fan out
// through the hub. Passing session and character query parameters joins
// immediately, equivalent to a first join-session event.
func (h *Handler) Websocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Error("websocket upgrade failed", err, nil)
		return
	}
	client := realtime.NewClient(conn)
	defer func() {
		h.hub.Remove(client)
		client.Close()
	}()

	if sessionID := c.Query("session"); sessionID != "" {
		res, err := h.engine.JoinSession(sessionID, c.Query("character"))
		if err != nil {
			sendError(client, err)
		} else {
			h.hub.Join(sessionID, client)
			client.Send(constants.EventSessionJoined, res)
		}
	}

	for {
		var in inboundEvent
		if err := conn.ReadJSON(&in); err != nil {
			return
		}
		h.dispatch(client, in)
	}
}

// dispatch routes one inbound event to the engine. Failures become
// caller-directed error events; the connection stays up.
func (h *Handler) dispatch(client *realtime.Client, in inboundEvent) {
	switch in.Event {
	case constants.EventJoinSession:
		var p joinPayload
		if !decode(client, in.Payload, &p) {
			return
		}
		res, err := h.engine.JoinSession(p.SessionID, p.CharacterID)
		if err != nil {
			sendError(client, err)
			return
		}
		h.hub.Join(p.SessionID, client)
		client.Send(constants.EventSessionJoined, res)

	case constants.EventLeaveSession:
		var p joinPayload
		if !decode(client, in.Payload, &p) {
			return
		}
		h.hub.Leave(p.SessionID, client)
		if err := h.engine.LeaveSession(p.SessionID, p.CharacterID); err != nil {
			sendError(client, err)
		}

	case constants.EventSkillCheck:
		var cmd engine.SkillCheckCommand
		if !decode(client, in.Payload, &cmd) {
			return
		}
		res, err := h.engine.SkillCheck(cmd)
		if err != nil {
			sendError(client, err)
			return
		}
		client.Send(constants.EventSkillCheckResult, res)

	case constants.EventCombatAction:
		var cmd engine.CombatCommand
		if !decode(client, in.Payload, &cmd) {
			return
		}
		res, err := h.engine.CombatAction(cmd)
		if err != nil {
			sendError(client, err)
			return
		}
		client.Send(constants.EventCombatResult, res)

	case constants.EventStoryAction:
		var cmd engine.StoryCommand
		if !decode(client, in.Payload, &cmd) {
			return
		}
		if _, err := h.engine.StoryAction(cmd); err != nil {
			sendError(client, err)
		}

	case constants.EventAIMessage:
		var p aiMessagePayload
		if !decode(client, in.Payload, &p) {
			return
		}
		// Narration can take a while; resolve it off the read loop so the
		// player can keep acting. The reply reaches them via the room
		// broadcast.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), aiMessageTimeout)
			defer cancel()
			if _, err := h.engine.AIMessage(ctx, p.SessionID, p.CharacterID, p.Message); err != nil {
				sendError(client, err)
			}
		}()

	case constants.EventStartCombat:
		var p sessionPayload
		if !decode(client, in.Payload, &p) {
			return
		}
		if _, err := h.engine.StartCombat(p.SessionID); err != nil {
			sendError(client, err)
		}

	case constants.EventEndCombat:
		var p sessionPayload
		if !decode(client, in.Payload, &p) {
			return
		}
		if _, err := h.engine.EndCombat(p.SessionID); err != nil {
			sendError(client, err)
		}

	case constants.EventEndSession:
		var p sessionPayload
		if !decode(client, in.Payload, &p) {
			return
		}
		if _, err := h.engine.EndSession(p.SessionID); err != nil {
			sendError(client, err)
		}

	default:
		client.Send(constants.EventError, gin.H{constants.JSONKeyMessage: constants.ErrInvalidRequest})
	}
}

func decode(client *realtime.Client, raw json.RawMessage, v interface{}) bool {
	if err := json.Unmarshal(raw, v); err != nil {
		client.Send(constants.EventError, gin.H{constants.JSONKeyMessage: constants.ErrInvalidRequest})
		return false
	}
	return true
}

// sendError maps engine errors onto the short client-facing messages.
func sendError(client *realtime.Client, err error) {
	msg := constants.ErrInvalidRequest
	switch {
	case errors.Is(err, engine.ErrSessionNotFound):
		msg = constants.ErrSessionNotFound
	case errors.Is(err, engine.ErrCharacterNotFound):
		msg = constants.ErrCharacterNotFound
	case errors.Is(err, rules.ErrUnknownAction):
		msg = constants.ErrUnknownAction
	}
	client.Send(constants.EventError, gin.H{constants.JSONKeyMessage: msg})
}
