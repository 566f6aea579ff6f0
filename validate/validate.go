// Command validate provides a small CLI that validates difficulty files
// (*.json, *.yaml, *.yml) in a catalog directory, ../configs by default. It checks:
//   - File syntax and required fields (id, name)
//   - Card faces: pair count within limits and no repeated numbers
//   - Turn and time budgets within limits
//   - Turn cost policy and whether the turn budget can match every pair
//   - Difficulty ids that collide across files
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/mcp-training/memorygame/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	ID     string
	Valid  bool
	Errors []string
}

// validateDifficulty loads and validates a single difficulty file
func validateDifficulty(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	d, err := engine.ParseDifficulty(filePath, data)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid syntax: %v", err))
		return result
	}
	result.ID = strings.ToUpper(d.ID)

	if err := engine.ValidateDifficulty(d); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, strings.TrimPrefix(err.Error(), "difficulty validation: "))
		return result
	}

	pairs := d.PairCount()
	result.Errors = append(result.Errors,
		fmt.Sprintf("✓ Id: %s (%s)", result.ID, d.Name),
		fmt.Sprintf("✓ Pairs: %d (%d cards)", pairs, 2*pairs),
		fmt.Sprintf("✓ Turn budget: %d (%s cost, %d spare)", d.TurnBudget, d.Cost(), spareTurns(d)),
		fmt.Sprintf("✓ Time budget: %ds", d.TimeBudget),
	)

	for _, face := range d.CardFaces {
		if face.Asset == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("✓ Note: face %d has no asset", face.Number))
		}
	}

	return result
}

// spareTurns is the number of turns left over by a perfect game
func spareTurns(d *engine.Difficulty) int {
	if d.Cost() == engine.TurnCostFlip {
		return d.TurnBudget - 2*d.PairCount()
	}
	return d.TurnBudget - d.PairCount()
}

// validateDirectory validates every catalog file in dir, flagging ids that
// more than one file defines
func validateDirectory(dir string) ([]ValidationResult, error) {
	var files []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	results := make([]ValidationResult, 0, len(files))
	seen := make(map[string]string)
	for _, file := range files {
		result := validateDifficulty(file)
		if result.ID != "" {
			if prev, dup := seen[result.ID]; dup {
				result.Valid = false
				result.Errors = append(result.Errors, fmt.Sprintf("Duplicate id %s, already defined by %s", result.ID, prev))
			} else {
				seen[result.ID] = result.File
			}
		}
		results = append(results, result)
	}
	return results, nil
}

// report prints the results and returns whether all of them are valid
func report(w io.Writer, results []ValidationResult) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Errors {
				fmt.Fprintln(w, "  "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Fprintln(w, "  ❌ "+err)
				}
			}
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	switch {
	case len(results) == 0:
		fmt.Fprintln(w, "No difficulty files found, the built-in catalog will be used")
	case allValid:
		fmt.Fprintln(w, "✅ All difficulties are valid!")
	default:
		fmt.Fprintln(w, "❌ Some difficulties have errors")
	}
	return allValid
}

// main validates the catalog directory given as the first argument,
// exiting with non-zero status if any file is invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	results, err := validateDirectory(configDir)
	if err != nil {
		fmt.Printf("Error finding difficulty files: %v\n", err)
		os.Exit(1)
	}

	if !report(os.Stdout, results) {
		os.Exit(1)
	}
}
