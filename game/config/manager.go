package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/mcp-training/memorygame/game/engine"
	"github.com/wricardo/mcp-training/memorygame/game/service"
)

var (
	ErrDifficultyNotFound = service.ErrDifficultyNotFound
	ErrInvalidDifficulty  = service.ErrInvalidDifficulty
)

const sourceBuiltin = "builtin"

var catalogExtensions = []string{".json", ".yaml", ".yml"}

type entry struct {
	difficulty *engine.Difficulty
	source     string
}

// Manager handles difficulty catalog loading and caching
type Manager struct {
	configDir string
	defaultID string
	entries   map[string]*entry
	invalid   map[string]error
	mu        sync.RWMutex
}

// NewManager creates a catalog backed by configDir. A missing directory
// leaves only the built-in difficulties.
func NewManager(configDir string) (*Manager, error) {
	if info, err := os.Stat(configDir); err == nil && !info.IsDir() {
		return nil, fmt.Errorf("config path is not a directory: %s", configDir)
	} else if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat config directory: %w", err)
	}

	m := &Manager{
		configDir: configDir,
		defaultID: engine.DefaultDifficultyID,
	}

	if err := m.RefreshCache(); err != nil {
		return nil, fmt.Errorf("failed to load difficulty catalog: %w", err)
	}
	return m, nil
}

// LoadDifficulty returns a copy of the difficulty with the given id (case-insensitive)
func (m *Manager) LoadDifficulty(name string) (*engine.Difficulty, error) {
	key := catalogKey(name)

	m.mu.RLock()
	// Check cache first
	if e, exists := m.entries[key]; exists {
		m.mu.RUnlock()
		return e.difficulty.Clone(), nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if e, exists := m.entries[key]; exists {
		return e.difficulty.Clone(), nil
	}

	// The file may have been added since the last scan
	if err := m.scan(); err != nil {
		return nil, err
	}
	if e, exists := m.entries[key]; exists {
		return e.difficulty.Clone(), nil
	}
	if err, bad := m.invalid[key]; bad {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDifficulty, err)
	}
	return nil, ErrDifficultyNotFound
}

// ListDifficulties returns the catalog ordered by pair count then id
func (m *Manager) ListDifficulties() ([]*service.DifficultyInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]*service.DifficultyInfo, 0, len(m.entries))
	for _, e := range m.entries {
		info := service.NewDifficultyInfo(e.difficulty, e.source)
		info.IsDefault = e.difficulty.ID == m.defaultID
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Pairs != infos[j].Pairs {
			return infos[i].Pairs < infos[j].Pairs
		}
		return infos[i].ID < infos[j].ID
	})
	return infos, nil
}

// GetDefault returns the default difficulty
func (m *Manager) GetDefault() *engine.Difficulty {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if e, exists := m.entries[m.defaultID]; exists {
		return e.difficulty.Clone()
	}
	return engine.DefaultDifficulty()
}

// SetDefault sets the default difficulty by id
func (m *Manager) SetDefault(name string) error {
	d, err := m.LoadDifficulty(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultID = d.ID
	return nil
}

// RefreshCache reloads the catalog from disk
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scan()
}

// SaveDifficulty validates a difficulty and writes it to the catalog directory as JSON
func (m *Manager) SaveDifficulty(d *engine.Difficulty) error {
	if err := engine.ValidateDifficulty(d); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDifficulty, err)
	}

	d = d.Clone()
	d.ID = catalogKey(d.ID)

	filename := strings.ToLower(d.ID) + ".json"
	if filepath.Base(filename) != filename {
		return fmt.Errorf("%w: id %q is not a valid file name", ErrInvalidDifficulty, d.ID)
	}

	if err := os.MkdirAll(m.configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal difficulty: %w", err)
	}
	if err := os.WriteFile(filepath.Join(m.configDir, filename), data, 0644); err != nil {
		return fmt.Errorf("failed to write difficulty file: %w", err)
	}

	// Update cache
	m.mu.Lock()
	m.entries[d.ID] = &entry{difficulty: d, source: filename}
	delete(m.invalid, d.ID)
	m.mu.Unlock()

	return nil
}

// scan rebuilds the catalog: built-ins first, then every file in the
// directory, which may override a built-in. Callers hold the write lock.
func (m *Manager) scan() error {
	entries := make(map[string]*entry)
	for id, d := range engine.BuiltinDifficulties() {
		entries[id] = &entry{difficulty: d, source: sourceBuiltin}
	}
	invalid := make(map[string]error)

	files, err := os.ReadDir(m.configDir)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read config directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || !isCatalogFile(file.Name()) {
			continue
		}

		path := filepath.Join(m.configDir, file.Name())
		d, err := engine.LoadDifficulty(path)
		if err != nil {
			// Skip invalid files but remember why
			invalid[fileKey(file.Name())] = err
			continue
		}

		d.ID = catalogKey(d.ID)
		entries[d.ID] = &entry{difficulty: d, source: file.Name()}
	}

	m.entries = entries
	m.invalid = invalid

	if _, exists := m.entries[m.defaultID]; !exists {
		m.defaultID = engine.DefaultDifficultyID
	}
	return nil
}

// Count returns the number of difficulties in the catalog
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// InvalidFiles returns the load error of every catalog file that was skipped
func (m *Manager) InvalidFiles() map[string]error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]error, len(m.invalid))
	for k, v := range m.invalid {
		out[k] = v
	}
	return out
}

func catalogKey(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

func fileKey(filename string) string {
	return catalogKey(strings.TrimSuffix(filename, filepath.Ext(filename)))
}

func isCatalogFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range catalogExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
