// Package service provides the business logic layer for the Memory Match Game.
//
// The service package implements:
//   - Multi-session game management
//   - Difficulty catalog access
//   - Forwarding of player intents to each session's game controller
//   - Redaction of hidden card faces before state leaves the server
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages the difficulty catalog.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. Each session owns its own engine.Controller, which runs the
// reveal window and the game clock for that session only.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	info, err := gameService.CreateSession(ctx, "EASY")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.FlipCard(ctx, info.ID, info.GameState.Cards[0].ID)
//
// Errors:
//
// Unknown sessions wrap ErrSessionNotFound and unknown difficulties wrap
// ErrDifficultyNotFound so transports can map them with errors.Is.
package service
