// Package api provides HTTP REST API handlers for the Memory Match Game.
//
// The api package implements:
//   - Session management endpoints
//   - Game operations (flip, restart, difficulty change, settings panel)
//   - Difficulty catalog listing and creation
//   - Join QR codes for watching a session from another device
//   - WebSocket upgrade handling
//   - Optional static file serving
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create new session ({"difficulty": "EASY"}, optional)
//   - GET /api/sessions - List sessions (sort=created|accessed, order=asc|desc, limit=N)
//   - GET /api/sessions/{id} - Get specific session
//   - DELETE /api/sessions/{id} - Delete session and stop its timers
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current game state
//   - POST /api/sessions/{id}/flip - Flip a card ({"card_id": "..."})
//   - POST /api/sessions/{id}/restart - Deal a fresh game
//   - POST /api/sessions/{id}/difficulty - Switch difficulty ({"difficulty": "HARD"})
//   - POST /api/sessions/{id}/settings/toggle - Open or close the settings panel
//   - GET /api/sessions/{id}/qr - PNG QR code of the join URL
//
// Difficulties:
//   - GET /api/difficulties - List the catalog
//   - GET /api/difficulties/{name} - Full definition of one difficulty
//   - POST /api/difficulties - Validate and save a difficulty
//
// Other:
//   - GET /healthz - Liveness probe
//   - GET /ws?session={id} - WebSocket stream of game events
//
// Game states returned by every endpoint hide the number and asset of cards
// that are face down.
//
// A flip the game ignores (comparison in progress, card already matched,
// game over) is answered with 200 and "accepted": false plus a reason.
//
// Error Handling:
//
// Errors are returned as JSON:
//
//	{"error": "session not found: ab12"}
//
// Unknown sessions and difficulties map to 404, malformed bodies and invalid
// difficulties to 400, anything else to 500.
package api
