// Package engine provides the core game logic for the Memory Match Game.
//
// The engine package implements the game mechanics including:
//   - Deck building and unbiased shuffling
//   - Card flips and pair resolution
//   - Turn and time budgets
//   - Win/loss determination
//   - Difficulty configuration and validation
//
// Core Types:
//
// Game is a synchronous state machine with named transitions (Flip, Resolve,
// Tick, Restart, SetDifficulty). Controller wraps a Game, owns the reveal
// window timer and the game clock, and is safe for concurrent use. GameState
// is the read-only view handed to presentation layers.
//
// Usage:
//
//	ctrl := engine.NewController(engine.DefaultDifficulty(),
//		engine.WithListener(func(ev engine.Event) {
//			log.Printf("%s: %s", ev.Type, ev.State.Outcome)
//		}),
//	)
//	defer ctrl.Close()
//
//	result := ctrl.Flip(cardID)
//	state := ctrl.State()
//
// Game Rules:
//
// Cards are dealt face down. The player reveals two at a time; a matching
// pair stays revealed, a mismatch flips back after a short reveal window.
// The game is won when every pair is matched and lost when the time budget
// runs out or the turn budget is spent with pairs still hidden.
//
// Timers:
//
// Delayed effects capture the game generation when they are scheduled. A
// restart bumps the generation, so callbacks from an earlier game are
// dropped instead of cancelled.
package engine
