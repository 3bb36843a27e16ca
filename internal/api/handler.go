package api

import (
	"github.com/bradreaney/dnd-session-engine/internal/engine"
	"github.com/bradreaney/dnd-session-engine/internal/realtime"
	"github.com/bradreaney/dnd-session-engine/internal/storage"
)

// Handler groups the REST and websocket handlers for the session
// backend.
type Handler struct {
	repo   storage.Repository
	engine *engine.Engine
	hub    *realtime.Hub
}

// NewHandler creates a Handler with the given repository, engine and
// realtime hub.
func NewHandler(repo storage.Repository, eng *engine.Engine, hub *realtime.Hub) *Handler {
	return &Handler{repo: repo, engine: eng, hub: hub}
}
