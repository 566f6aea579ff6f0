package main

import (
	"github.com/wricardo/mcp-training/memorygame/game/engine"
)

// MemoryStrategy picks flips with perfect recall of every face it has seen.
// It only learns from face-up cards, so it plays on the same redacted view a
// human gets.
type MemoryStrategy struct {
	seen map[string]int // card ID -> number
}

func NewMemoryStrategy() *MemoryStrategy {
	return &MemoryStrategy{seen: make(map[string]int)}
}

// Reset forgets everything. Card IDs change on every deal.
func (s *MemoryStrategy) Reset() {
	s.seen = make(map[string]int)
}

// Known returns how many cards the strategy has seen face up
func (s *MemoryStrategy) Known() int {
	return len(s.seen)
}

// Observe records the faces visible in state
func (s *MemoryStrategy) Observe(state *engine.GameState) {
	if state == nil {
		return
	}
	for _, card := range state.Cards {
		if card.IsFlipped && card.Number > 0 {
			s.seen[card.ID] = card.Number
		}
	}
}

// Next returns the card to flip, or "" when no flip is possible right now
func (s *MemoryStrategy) Next(state *engine.GameState) string {
	if state == nil || state.Comparing || state.Outcome.Terminal() {
		return ""
	}

	var pending *engine.Card
	var faceDown []engine.Card
	for i, card := range state.Cards {
		switch {
		case card.IsMatched:
		case card.IsFlipped:
			if pending == nil {
				pending = &state.Cards[i]
			}
		case !card.IsDisabled:
			faceDown = append(faceDown, card)
		}
	}
	if len(faceDown) == 0 {
		return ""
	}

	// Face-down cards we have seen, grouped by number in deal order
	known := make(map[int][]string)
	for _, card := range faceDown {
		if n, ok := s.seen[card.ID]; ok {
			known[n] = append(known[n], card.ID)
		}
	}

	if pending != nil {
		if ids := known[pending.Number]; len(ids) > 0 {
			return ids[0]
		}
		return s.explore(faceDown)
	}

	for _, card := range faceDown {
		if ids := known[s.seen[card.ID]]; len(ids) >= 2 {
			return ids[0]
		}
	}
	return s.explore(faceDown)
}

// explore prefers a card never seen, falling back to any face-down card
func (s *MemoryStrategy) explore(faceDown []engine.Card) string {
	for _, card := range faceDown {
		if _, ok := s.seen[card.ID]; !ok {
			return card.ID
		}
	}
	return faceDown[0].ID
}
