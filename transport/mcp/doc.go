// Package mcp exposes the Memory Match Game as Model Context Protocol tools.
//
// The Client is a thin proxy: every tool call becomes a request against the
// REST API, and the JSON response is rendered as text an agent can read.
// Game rules live in the server only.
//
// Tools:
//   - create_session, list_sessions, get_session
//   - game_state - board rendered as a grid with 1-based positions
//   - flip_card - by card_id or card_index
//   - restart_game, set_difficulty
//   - list_difficulties, game_instructions
//
// API failures are returned as tool errors rather than protocol errors, so the
// agent sees the message and can recover.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
