package service

import (
	"time"

	"github.com/wricardo/mcp-training/memorygame/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string            `json:"id"`
	Difficulty     string            `json:"difficulty"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	GameState      *engine.GameState `json:"game_state"`
}

// FlipResult contains the result of a flip request
type FlipResult struct {
	Accepted     bool               `json:"accepted"`
	Reason       string             `json:"reason,omitempty"`
	CardID       string             `json:"card_id"`
	TurnConsumed bool               `json:"turn_consumed"`
	Comparison   *engine.Comparison `json:"comparison,omitempty"`
	GameState    *engine.GameState  `json:"game_state"`
	Message      string             `json:"message,omitempty"`
}

// DifficultyInfo describes a catalog entry
type DifficultyInfo struct {
	ID          string          `json:"id"` // The identifier to use for session creation
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Pairs       int             `json:"pairs"`
	TurnBudget  int             `json:"turn_budget"`
	TimeBudget  int             `json:"time_budget"`
	TurnCost    engine.TurnCost `json:"turn_cost"`
	Source      string          `json:"source"` // "builtin" or the catalog file name
	IsDefault   bool            `json:"is_default"`
}

// NewDifficultyInfo summarizes a difficulty
func NewDifficultyInfo(d *engine.Difficulty, source string) *DifficultyInfo {
	return &DifficultyInfo{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Pairs:       d.PairCount(),
		TurnBudget:  d.TurnBudget,
		TimeBudget:  d.TimeBudget,
		TurnCost:    d.Cost(),
		Source:      source,
	}
}
