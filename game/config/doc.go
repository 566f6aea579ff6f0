// Package config provides configuration management for the Memory Match Game.
//
// The config package handles:
//   - Loading difficulties from JSON and YAML files
//   - Merging the file catalog over the built-in EASY, NORMAL and HARD levels
//   - Default difficulty management
//   - Runtime settings read from the environment
//
// Catalog Format:
//
// Each file in the config directory holds one difficulty. The id defaults to
// the file name without its extension, upper-cased:
//
//	{
//	  "name": "Easy",
//	  "card_faces": [{"number": 1, "asset": "images/apple.svg"}],
//	  "turn_budget": 20,
//	  "time_budget": 90,
//	  "turn_cost": "pair"
//	}
//
// Files that fail validation are skipped; loading them by id reports
// ErrInvalidDifficulty with the validation error.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	d, err := manager.LoadDifficulty("hard")
//	infos, err := manager.ListDifficulties()
//
// Runtime Settings:
//
// LoadRuntime reads MEMORY_REVEAL_DELAY, MEMORY_TICK_INTERVAL,
// MEMORY_DEFAULT_DIFFICULTY, MEMORY_SESSION_TTL and MEMORY_CLEANUP_INTERVAL.
package config
