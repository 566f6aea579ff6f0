package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/memorygame/game/engine"
	"github.com/wricardo/mcp-training/memorygame/game/service"
)

var (
	ErrSessionNotFound      = service.ErrSessionNotFound
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

const maxSessionIDLength = 64

// EventHandler receives the events of every session's game
type EventHandler func(sessionID string, ev engine.Event)

// Option configures a Manager
type Option func(*Manager)

// WithTiming sets the reveal delay and clock interval of new games
func WithTiming(t engine.Timing) Option {
	return func(m *Manager) {
		m.timing = t
	}
}

// WithScheduler sets the scheduler used by new games
func WithScheduler(s engine.Scheduler) Option {
	return func(m *Manager) {
		m.scheduler = s
	}
}

// WithLogger sets the manager logger
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithControllerOptions appends options passed to every new controller
func WithControllerOptions(opts ...engine.ControllerOption) Option {
	return func(m *Manager) {
		m.ctrlOpts = append(m.ctrlOpts, opts...)
	}
}

// Manager handles game session lifecycle
type Manager struct {
	sessions map[string]*service.Session
	mu       sync.RWMutex

	timing    engine.Timing
	scheduler engine.Scheduler
	ctrlOpts  []engine.ControllerOption
	logger    *zap.Logger

	handlerMu sync.RWMutex
	handler   EventHandler
}

// NewManager creates a new session manager
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions:  make(map[string]*service.Session),
		timing:    engine.DefaultTiming(),
		scheduler: engine.RealScheduler{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnEvent registers the handler receiving every session's game events
func (m *Manager) OnEvent(h EventHandler) {
	m.handlerMu.Lock()
	defer m.handlerMu.Unlock()
	m.handler = h
}

func (m *Manager) dispatch(sessionID string, ev engine.Event) {
	m.handlerMu.RLock()
	h := m.handler
	m.handlerMu.RUnlock()

	if h != nil {
		h(sessionID, ev)
	}
}

// Create creates a new session with the given ID and difficulty. An empty
// ID generates a random 4-character one.
func (m *Manager) Create(id string, d *engine.Difficulty) (*service.Session, error) {
	if id != "" && !validSessionID(id) {
		return nil, ErrInvalidSessionID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		id = m.generateSessionID()
	}

	// Check if session already exists (case-insensitive)
	if m.sessionExists(id) {
		return nil, ErrSessionAlreadyExists
	}

	sessionID := id
	opts := []engine.ControllerOption{
		engine.WithScheduler(m.scheduler),
		engine.WithTiming(m.timing),
		engine.WithListener(func(ev engine.Event) {
			m.dispatch(sessionID, ev)
		}),
	}
	opts = append(opts, m.ctrlOpts...)

	now := time.Now()
	session := &service.Session{
		ID:             id,
		Game:           engine.NewController(d, opts...),
		CreatedAt:      now,
		LastAccessedAt: now,
	}

	m.sessions[strings.ToLower(id)] = session
	m.logger.Debug("session stored", zap.String("session_id", id), zap.Int("sessions", len(m.sessions)))
	return snapshot(session), nil
}

// snapshot copies a stored session so callers never read fields the manager
// writes under its lock. The copy shares the game controller.
func snapshot(s *service.Session) *service.Session {
	c := *s
	return &c
}

// Get retrieves a snapshot of a session by ID (case-insensitive)
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return snapshot(session), nil
}

// List returns all active sessions
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, snapshot(session))
	}
	return result
}

// Delete removes a session and stops its game
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	session, exists := m.sessions[strings.ToLower(id)]
	if exists {
		delete(m.sessions, strings.ToLower(id))
	}
	m.mu.Unlock()

	if !exists {
		return ErrSessionNotFound
	}
	session.Game.Close()
	return nil
}

// UpdateLastAccessed updates the last accessed time for a session
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return ErrSessionNotFound
	}
	session.LastAccessedAt = time.Now()
	return nil
}

// CleanupExpiredSessions removes sessions that haven't been accessed in the given duration
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	var expired []*service.Session
	for key, session := range m.sessions {
		if session.LastAccessedAt.Before(cutoff) {
			delete(m.sessions, key)
			expired = append(expired, session)
		}
	}
	m.mu.Unlock()

	for _, session := range expired {
		session.Game.Close()
		m.logger.Info("session expired", zap.String("session_id", session.ID))
	}
	return len(expired)
}

// CloseAll stops every game and forgets all sessions
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*service.Session)
	m.mu.Unlock()

	for _, session := range sessions {
		session.Game.Close()
	}
}

// Count returns the number of active sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// generateSessionID generates an unused random 4-character session ID.
// Callers hold the write lock.
func (m *Manager) generateSessionID() string {
	for {
		// Generate 2 random bytes (4 hex characters)
		bytes := make([]byte, 2)
		if _, err := rand.Read(bytes); err != nil {
			bytes = []byte{byte(time.Now().UnixNano() >> 8), byte(time.Now().UnixNano())}
		}
		id := hex.EncodeToString(bytes)
		if !m.sessionExists(id) {
			return id
		}
	}
}

// sessionExists checks if a session exists (case-insensitive)
func (m *Manager) sessionExists(id string) bool {
	_, exists := m.sessions[strings.ToLower(id)]
	return exists
}

func validSessionID(id string) bool {
	if len(id) > maxSessionIDLength {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
