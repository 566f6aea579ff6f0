package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultDifficultyID is the difficulty used when none is selected
const DefaultDifficultyID = "NORMAL"

// Difficulty maps a named level to its card set and budgets
type Difficulty struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	CardFaces   []CardFace `json:"card_faces" yaml:"card_faces"`
	TurnBudget  int        `json:"turn_budget" yaml:"turn_budget"`
	TimeBudget  int        `json:"time_budget" yaml:"time_budget"`
	TurnCost    TurnCost   `json:"turn_cost,omitempty" yaml:"turn_cost,omitempty"`
}

// PairCount returns the number of distinct pairs the difficulty deals
func (d *Difficulty) PairCount() int {
	return len(normalizeFaces(d.CardFaces))
}

// Cost returns the turn cost policy, defaulting to TurnCostPair
func (d *Difficulty) Cost() TurnCost {
	if d.TurnCost == TurnCostFlip {
		return TurnCostFlip
	}
	return TurnCostPair
}

// Clone returns a deep copy of the difficulty
func (d *Difficulty) Clone() *Difficulty {
	out := *d
	out.CardFaces = append([]CardFace(nil), d.CardFaces...)
	return &out
}

// ValidID reports whether id is a non-empty identifier of letters, digits,
// '-' and '_'. Difficulty ids double as catalog file names.
func ValidID(id string) bool {
	if id == "" || len(id) > MaxIDLength {
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

// ValidateDifficulty validates a difficulty definition for correctness and playability
func ValidateDifficulty(d *Difficulty) error {
	if d == nil {
		return fmt.Errorf("difficulty validation: difficulty is nil")
	}
	if d.ID == "" {
		return fmt.Errorf("difficulty validation: id is required")
	}
	if !ValidID(d.ID) {
		return fmt.Errorf("difficulty validation: id %q must be at most %d letters, digits, '-' or '_'",
			d.ID, MaxIDLength)
	}
	if d.Name == "" {
		return fmt.Errorf("difficulty validation: name is required")
	}

	if len(d.CardFaces) < MinPairs || len(d.CardFaces) > MaxPairs {
		return fmt.Errorf("difficulty validation: card_faces must have between %d and %d entries, got %d",
			MinPairs, MaxPairs, len(d.CardFaces))
	}
	seen := make(map[int]int, len(d.CardFaces))
	for i, face := range d.CardFaces {
		if prev, ok := seen[face.Number]; ok {
			return fmt.Errorf("difficulty validation: card_faces[%d] repeats number %d from card_faces[%d]",
				i, face.Number, prev)
		}
		seen[face.Number] = i
	}

	if d.TurnBudget < MinTurnBudget || d.TurnBudget > MaxTurnBudget {
		return fmt.Errorf("difficulty validation: turn_budget must be between %d and %d, got %d",
			MinTurnBudget, MaxTurnBudget, d.TurnBudget)
	}
	if d.TimeBudget < MinTimeBudget || d.TimeBudget > MaxTimeBudget {
		return fmt.Errorf("difficulty validation: time_budget must be between %d and %d, got %d",
			MinTimeBudget, MaxTimeBudget, d.TimeBudget)
	}

	switch d.TurnCost {
	case "", TurnCostPair, TurnCostFlip:
	default:
		return fmt.Errorf("difficulty validation: turn_cost must be %q or %q, got %q",
			TurnCostPair, TurnCostFlip, d.TurnCost)
	}

	// Every pair needs at least one turn
	if d.Cost() == TurnCostPair && d.TurnBudget < len(d.CardFaces) {
		return fmt.Errorf("difficulty validation: turn_budget %d cannot match %d pairs",
			d.TurnBudget, len(d.CardFaces))
	}
	if d.Cost() == TurnCostFlip && d.TurnBudget < 2*len(d.CardFaces) {
		return fmt.Errorf("difficulty validation: turn_budget %d cannot flip %d cards",
			d.TurnBudget, 2*len(d.CardFaces))
	}

	return nil
}

// ParseDifficulty decodes a difficulty from JSON or YAML depending on the file extension.
// A missing id defaults to the upper-cased file name.
func ParseDifficulty(filename string, data []byte) (*Difficulty, error) {
	var d Difficulty
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("failed to parse difficulty '%s': %w", filename, err)
		}
	default:
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("failed to parse difficulty '%s': %w", filename, err)
		}
	}

	if d.ID == "" {
		base := filepath.Base(filename)
		d.ID = strings.ToUpper(strings.TrimSuffix(base, filepath.Ext(base)))
	}
	return &d, nil
}

// LoadDifficulty loads and validates a difficulty from a JSON or YAML file
func LoadDifficulty(filename string) (*Difficulty, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	d, err := ParseDifficulty(filename, data)
	if err != nil {
		return nil, err
	}

	if err := ValidateDifficulty(d); err != nil {
		return nil, err
	}
	return d, nil
}

var builtinFaces = []CardFace{
	{Number: 1, Asset: "images/apple.svg"},
	{Number: 2, Asset: "images/banana.svg"},
	{Number: 3, Asset: "images/cherry.svg"},
	{Number: 4, Asset: "images/grape.svg"},
	{Number: 5, Asset: "images/lemon.svg"},
	{Number: 6, Asset: "images/orange.svg"},
	{Number: 7, Asset: "images/pear.svg"},
	{Number: 8, Asset: "images/plum.svg"},
	{Number: 9, Asset: "images/strawberry.svg"},
	{Number: 10, Asset: "images/watermelon.svg"},
}

// BuiltinDifficulties returns fresh copies of the EASY, NORMAL and HARD levels
func BuiltinDifficulties() map[string]*Difficulty {
	return map[string]*Difficulty{
		"EASY": {
			ID:          "EASY",
			Name:        "Easy",
			Description: "Six pairs with a generous clock",
			CardFaces:   append([]CardFace(nil), builtinFaces[:6]...),
			TurnBudget:  20,
			TimeBudget:  90,
		},
		"NORMAL": {
			ID:          "NORMAL",
			Name:        "Normal",
			Description: "Eight pairs against the clock",
			CardFaces:   append([]CardFace(nil), builtinFaces[:8]...),
			TurnBudget:  20,
			TimeBudget:  75,
		},
		"HARD": {
			ID:          "HARD",
			Name:        "Hard",
			Description: "Ten pairs, few turns, little time",
			CardFaces:   append([]CardFace(nil), builtinFaces...),
			TurnBudget:  18,
			TimeBudget:  60,
		},
	}
}

// DefaultDifficulty returns a fresh copy of the NORMAL level
func DefaultDifficulty() *Difficulty {
	return BuiltinDifficulties()[DefaultDifficultyID]
}
