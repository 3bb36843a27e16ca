package main

import (
	"time"

	"github.com/bradreaney/dnd-session-engine/internal/session"
)

// startIdleScanner periodically writes idle sessions through to durable
// storage and drops them from the in-memory registry. The next action
// against an evicted session re-hydrates it transparently.
func startIdleScanner(store *session.Store, maxIdle time.Duration) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			store.EvictIdle(maxIdle)
		}
	}()
}
