package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/memorygame/game/engine"
)

// Option configures the game service
type Option func(*gameServiceImpl)

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *gameServiceImpl) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	logger   *zap.Logger
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// resolveDifficulty loads a difficulty by name, falling back to the default for an empty name
func (s *gameServiceImpl) resolveDifficulty(name string) (*engine.Difficulty, error) {
	if name == "" {
		return s.configs.GetDefault(), nil
	}

	d, err := s.configs.LoadDifficulty(name)
	if err == nil {
		return d, nil
	}

	// Provide helpful error message with available options
	if errors.Is(err, ErrDifficultyNotFound) {
		available, listErr := s.configs.ListDifficulties()
		if listErr == nil && len(available) > 0 {
			ids := make([]string, 0, len(available))
			for _, info := range available {
				ids = append(ids, info.ID)
			}
			return nil, fmt.Errorf("%w: '%s'. Available difficulties: %v", ErrDifficultyNotFound, name, ids)
		}
		return nil, fmt.Errorf("%w: '%s'. Use /api/difficulties to list available difficulties", ErrDifficultyNotFound, name)
	}
	return nil, fmt.Errorf("failed to load difficulty %s: %w", name, err)
}

// session marks a session as accessed and returns a snapshot of it
func (s *gameServiceImpl) session(sessionID string) (*Session, error) {
	if err := s.sessions.UpdateLastAccessed(sessionID); err != nil {
		return nil, notFound(err)
	}
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, notFound(err)
	}
	return sess, nil
}

func notFound(err error) error {
	if errors.Is(err, ErrSessionNotFound) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrSessionNotFound, err)
}

func sessionInfo(sess *Session) *SessionInfo {
	state := sess.Game.State()
	return &SessionInfo{
		ID:             sess.ID,
		Difficulty:     state.Difficulty,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      state.Redacted(),
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, difficulty string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.resolveDifficulty(difficulty)
	if err != nil {
		return nil, err
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", d)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("session created",
		zap.String("session_id", sess.ID),
		zap.String("difficulty", d.ID))

	return sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sessionInfo(sess), nil
}

// ListSessions returns all active sessions ordered by creation time
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})

	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session and stops its game
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return err
	}
	s.logger.Info("session deleted", zap.String("session_id", sessionID))
	return nil
}

// FlipCard forwards a flip request to the session's game
func (s *gameServiceImpl) FlipCard(ctx context.Context, sessionID, cardID string) (*FlipResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	res := sess.Game.Flip(cardID)
	state := sess.Game.State()

	s.logger.Debug("card flip",
		zap.String("session_id", sess.ID),
		zap.String("card_id", cardID),
		zap.Bool("accepted", res.Accepted),
		zap.String("reason", res.Reason),
		zap.String("outcome", string(state.Outcome)))

	return &FlipResult{
		Accepted:     res.Accepted,
		Reason:       res.Reason,
		CardID:       res.CardID,
		TurnConsumed: res.TurnConsumed,
		Comparison:   res.Comparison,
		GameState:    state.Redacted(),
		Message:      state.Message,
	}, nil
}

// Restart deals a new game with the session's current difficulty
func (s *gameServiceImpl) Restart(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Game.Restart()
	s.logger.Debug("game restarted", zap.String("session_id", sess.ID))
	return sess.Game.State().Redacted(), nil
}

// SetDifficulty switches the session to another difficulty. An unknown
// difficulty leaves the running game untouched.
func (s *gameServiceImpl) SetDifficulty(ctx context.Context, sessionID, difficulty string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	d, err := s.resolveDifficulty(difficulty)
	if err != nil {
		return nil, err
	}

	sess.Game.SetDifficulty(d)
	s.logger.Debug("difficulty changed",
		zap.String("session_id", sess.ID),
		zap.String("difficulty", d.ID))
	return sess.Game.State().Redacted(), nil
}

// ToggleSettings opens or closes the session's settings panel
func (s *gameServiceImpl) ToggleSettings(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Game.ToggleSettings()
	return sess.Game.State().Redacted(), nil
}

// GetGameState returns the redacted game state of a session
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Game.State().Redacted(), nil
}

// ListDifficulties returns the difficulty catalog
func (s *gameServiceImpl) ListDifficulties(ctx context.Context) ([]*DifficultyInfo, error) {
	return s.configs.ListDifficulties()
}

// LoadDifficulty loads a difficulty by name
func (s *gameServiceImpl) LoadDifficulty(ctx context.Context, name string) (*engine.Difficulty, error) {
	return s.configs.LoadDifficulty(name)
}

// SaveDifficulty validates and stores a difficulty in the catalog
func (s *gameServiceImpl) SaveDifficulty(ctx context.Context, difficulty *engine.Difficulty) error {
	if err := s.configs.SaveDifficulty(difficulty); err != nil {
		return err
	}
	s.logger.Info("difficulty saved", zap.String("difficulty", difficulty.ID))
	return nil
}
