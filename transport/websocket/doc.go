// Package websocket provides WebSocket transport for the Memory Match Game.
//
// The websocket package implements:
//   - Session-aware WebSocket connections
//   - Push of every game event (flips, comparisons, clock ticks, outcome)
//   - Player actions sent over the socket
//   - Connection lifecycle management
//
// Architecture:
//
// A central Hub owns all connections and runs a single event loop. Game
// controllers publish into a buffered queue from their timer goroutines and
// never block on slow clients. Each client has a read and a write goroutine.
//
// Message Protocol:
//
// Outgoing messages carry the session id, the event name and the redacted
// game state:
//
//	{"session_id":"ab12","event":"mismatch","card_ids":["..",".."],"game_state":{...}}
//
// Incoming actions:
//
//	{"action":"flip","card_id":"..."}
//	{"action":"restart"}
//	{"action":"set_difficulty","difficulty":"HARD"}
//	{"action":"toggle_settings"}
//
// A flip the game ignores is not an error: the sender alone gets a
// "flip_ignored" message with the reason and the current state. Actions that
// fail (unknown session or difficulty, malformed message) are answered with an
// "error" event to the sender only.
//
// Usage:
//
//	hub := websocket.NewHub(websocket.WithLogger(logger))
//	hub.SetActionHandler(websocket.ServiceActionHandler(gameService))
//	go hub.Run(ctx)
//
//	sessions.OnEvent(hub.PublishEvent)
package websocket
