package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/mcp-training/memorygame/game/engine"
)

// Errors shared by the service and its collaborators
var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrDifficultyNotFound = errors.New("difficulty not found")
	ErrInvalidDifficulty  = errors.New("invalid difficulty")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, difficulty string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	FlipCard(ctx context.Context, sessionID, cardID string) (*FlipResult, error)
	Restart(ctx context.Context, sessionID string) (*engine.GameState, error)
	SetDifficulty(ctx context.Context, sessionID, difficulty string) (*engine.GameState, error)
	ToggleSettings(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Difficulties
	ListDifficulties(ctx context.Context) ([]*DifficultyInfo, error)
	LoadDifficulty(ctx context.Context, name string) (*engine.Difficulty, error)
	SaveDifficulty(ctx context.Context, difficulty *engine.Difficulty) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, difficulty *engine.Difficulty) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ConfigManager handles the difficulty catalog
type ConfigManager interface {
	LoadDifficulty(name string) (*engine.Difficulty, error)
	ListDifficulties() ([]*DifficultyInfo, error)
	GetDefault() *engine.Difficulty
	SaveDifficulty(difficulty *engine.Difficulty) error
}

// Session represents an active game session
type Session struct {
	ID             string
	Game           engine.Engine
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
