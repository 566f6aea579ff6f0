package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func createValidDifficulty() *Difficulty {
	return &Difficulty{
		ID:          "CUSTOM",
		Name:        "Custom",
		Description: "A valid test difficulty",
		CardFaces: []CardFace{
			{Number: 1, Asset: "images/apple.svg"},
			{Number: 2, Asset: "images/banana.svg"},
			{Number: 3, Asset: "images/cherry.svg"},
		},
		TurnBudget: 10,
		TimeBudget: 45,
	}
}

func TestValidateDifficulty(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(d *Difficulty)
		wantErr string
	}{
		{"valid", func(d *Difficulty) {}, ""},
		{"valid flip cost", func(d *Difficulty) { d.TurnCost = TurnCostFlip }, ""},
		{"missing id", func(d *Difficulty) { d.ID = "" }, "id is required"},
		{"path in id", func(d *Difficulty) { d.ID = "../escaped" }, "must be at most 64 letters"},
		{"space in id", func(d *Difficulty) { d.ID = "my level" }, "must be at most 64 letters"},
		{"long id", func(d *Difficulty) { d.ID = strings.Repeat("x", MaxIDLength+1) }, "must be at most 64 letters"},
		{"missing name", func(d *Difficulty) { d.Name = "" }, "name is required"},
		{"no faces", func(d *Difficulty) { d.CardFaces = nil }, "card_faces must have between"},
		{"too many faces", func(d *Difficulty) {
			d.CardFaces = make([]CardFace, MaxPairs+1)
			for i := range d.CardFaces {
				d.CardFaces[i].Number = i
			}
			d.TurnBudget = MaxTurnBudget
		}, "card_faces must have between"},
		{"duplicate numbers", func(d *Difficulty) { d.CardFaces[2].Number = 1 }, "repeats number 1"},
		{"zero turns", func(d *Difficulty) { d.TurnBudget = 0 }, "turn_budget must be between"},
		{"too many turns", func(d *Difficulty) { d.TurnBudget = MaxTurnBudget + 1 }, "turn_budget must be between"},
		{"zero time", func(d *Difficulty) { d.TimeBudget = 0 }, "time_budget must be between"},
		{"too much time", func(d *Difficulty) { d.TimeBudget = MaxTimeBudget + 1 }, "time_budget must be between"},
		{"unknown turn cost", func(d *Difficulty) { d.TurnCost = "card" }, "turn_cost must be"},
		{"too few turns for pairs", func(d *Difficulty) { d.TurnBudget = 2 }, "cannot match 3 pairs"},
		{"too few turns for flips", func(d *Difficulty) {
			d.TurnCost = TurnCostFlip
			d.TurnBudget = 5
		}, "cannot flip 6 cards"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := createValidDifficulty()
			tt.modify(d)

			err := ValidateDifficulty(d)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Expected valid difficulty, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
			if !strings.HasPrefix(err.Error(), "difficulty validation:") {
				t.Errorf("Expected validation prefix, got %v", err)
			}
		})
	}

	if err := ValidateDifficulty(nil); err == nil {
		t.Error("Expected error for nil difficulty")
	}
}

func TestValidID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"EASY", true},
		{"speed_run-2", true},
		{strings.Repeat("a", MaxIDLength), true},
		{"", false},
		{strings.Repeat("a", MaxIDLength+1), false},
		{"../escaped", false},
		{"a/b", false},
		{`a\b`, false},
		{"hard.json", false},
		{"é", false},
	}
	for _, tt := range tests {
		if got := ValidID(tt.id); got != tt.want {
			t.Errorf("ValidID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestBuiltinDifficultiesAreValid(t *testing.T) {
	builtins := BuiltinDifficulties()
	for _, id := range []string{"EASY", "NORMAL", "HARD"} {
		d, ok := builtins[id]
		if !ok {
			t.Fatalf("Missing builtin %s", id)
		}
		if err := ValidateDifficulty(d); err != nil {
			t.Errorf("Builtin %s invalid: %v", id, err)
		}
	}

	if DefaultDifficulty().ID != DefaultDifficultyID {
		t.Errorf("Expected default %s, got %s", DefaultDifficultyID, DefaultDifficulty().ID)
	}

	// Callers get independent copies
	a := BuiltinDifficulties()["EASY"]
	a.CardFaces[0].Asset = "changed"
	if BuiltinDifficulties()["EASY"].CardFaces[0].Asset == "changed" {
		t.Error("Builtin catalog was mutated through a returned copy")
	}
}

func TestDifficultyCloneAndCost(t *testing.T) {
	d := createValidDifficulty()
	c := d.Clone()
	c.CardFaces[0].Number = 99
	if d.CardFaces[0].Number == 99 {
		t.Error("Clone shares card faces with the original")
	}

	if d.Cost() != TurnCostPair {
		t.Errorf("Expected default cost %s, got %s", TurnCostPair, d.Cost())
	}
	d.TurnCost = "bogus"
	if d.Cost() != TurnCostPair {
		t.Errorf("Unknown cost should fall back to %s", TurnCostPair)
	}

	d.CardFaces = append(d.CardFaces, CardFace{Number: 1})
	if d.PairCount() != 3 {
		t.Errorf("Expected 3 pairs after normalization, got %d", d.PairCount())
	}
}

func TestParseDifficultyYAML(t *testing.T) {
	data := []byte(`
name: Yaml Level
description: Loaded from YAML
card_faces:
  - number: 1
    asset: "#ff0000"
  - number: 2
    asset: "#00ff00"
turn_budget: 4
time_budget: 30
turn_cost: flip
`)

	d, err := ParseDifficulty("configs/tiny.yaml", data)
	if err != nil {
		t.Fatalf("Failed to parse YAML: %v", err)
	}
	if d.ID != "TINY" {
		t.Errorf("Expected id from file name, got %s", d.ID)
	}
	if d.Name != "Yaml Level" || len(d.CardFaces) != 2 || d.CardFaces[1].Asset != "#00ff00" {
		t.Errorf("Unexpected difficulty %+v", d)
	}
	if d.TurnCost != TurnCostFlip {
		t.Errorf("Expected flip cost, got %s", d.TurnCost)
	}
	if err := ValidateDifficulty(d); err != nil {
		t.Errorf("Parsed difficulty should be valid: %v", err)
	}
}

func TestParseDifficultyJSON(t *testing.T) {
	data := []byte(`{"id":"BLITZ","name":"Blitz","card_faces":[{"number":7,"asset":"a.svg"}],"turn_budget":3,"time_budget":10}`)

	d, err := ParseDifficulty("blitz.json", data)
	if err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	if d.ID != "BLITZ" || d.TurnBudget != 3 || d.CardFaces[0].Number != 7 {
		t.Errorf("Unexpected difficulty %+v", d)
	}

	if _, err := ParseDifficulty("broken.json", []byte("{")); err == nil {
		t.Error("Expected error for malformed JSON")
	}
	if _, err := ParseDifficulty("broken.yml", []byte("card_faces: [")); err == nil {
		t.Error("Expected error for malformed YAML")
	}
}

func TestLoadDifficulty(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "quick.json")
	content := `{"name":"Quick","card_faces":[{"number":1,"asset":"x"},{"number":2,"asset":"y"}],"turn_budget":5,"time_budget":20}`
	if err := os.WriteFile(valid, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	d, err := LoadDifficulty(valid)
	if err != nil {
		t.Fatalf("Failed to load difficulty: %v", err)
	}
	if d.ID != "QUICK" {
		t.Errorf("Expected QUICK, got %s", d.ID)
	}

	invalid := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(invalid, []byte(`{"name":"Bad","card_faces":[],"turn_budget":5,"time_budget":20}`), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if _, err := LoadDifficulty(invalid); err == nil {
		t.Error("Expected validation error")
	}

	if _, err := LoadDifficulty(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}
