// Package session provides session management for the Memory Match Game.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Ownership of one game controller per session
//   - Fan-out of game events to a single handler
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// Each service.Session holds an engine.Controller that runs its own reveal
// window and clock. Sessions live in memory only.
//
// Session Identifiers:
//
// Sessions use 4-character hex IDs for easy reference. Lookups are
// case-insensitive.
//
// Usage:
//
//	manager := session.NewManager(session.WithLogger(logger))
//	manager.OnEvent(func(id string, ev engine.Event) {
//		hub.PublishEvent(id, ev)
//	})
//
//	sess, err := manager.Create("", engine.DefaultDifficulty())
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Cleanup:
//
// Deleting or expiring a session closes its controller, so pending timers
// never touch a session that is gone.
package session
