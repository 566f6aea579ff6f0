package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/wricardo/mcp-training/memorygame/game/engine"
)

// Runtime holds the game timing and session settings read from the environment
type Runtime struct {
	RevealDelay       time.Duration `env:"MEMORY_REVEAL_DELAY"       envDefault:"1200ms"`
	TickInterval      time.Duration `env:"MEMORY_TICK_INTERVAL"      envDefault:"1s"`
	DefaultDifficulty string        `env:"MEMORY_DEFAULT_DIFFICULTY" envDefault:"NORMAL"`
	SessionTTL        time.Duration `env:"MEMORY_SESSION_TTL"        envDefault:"24h"`
	CleanupInterval   time.Duration `env:"MEMORY_CLEANUP_INTERVAL"   envDefault:"1h"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadRuntime reads the runtime settings and rejects non-positive durations
func LoadRuntime() (Runtime, error) {
	var rt Runtime
	if err := ParseEnv(&rt); err != nil {
		return Runtime{}, err
	}

	for name, d := range map[string]time.Duration{
		"MEMORY_REVEAL_DELAY":     rt.RevealDelay,
		"MEMORY_TICK_INTERVAL":    rt.TickInterval,
		"MEMORY_SESSION_TTL":      rt.SessionTTL,
		"MEMORY_CLEANUP_INTERVAL": rt.CleanupInterval,
	} {
		if d <= 0 {
			return Runtime{}, fmt.Errorf("parse env: %s must be positive, got %s", name, d)
		}
	}
	return rt, nil
}

// Timing returns the controller timing for the runtime settings
func (rt Runtime) Timing() engine.Timing {
	return engine.Timing{
		RevealDelay:  rt.RevealDelay,
		TickInterval: rt.TickInterval,
	}
}
