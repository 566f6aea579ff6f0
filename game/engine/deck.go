package engine

import (
	"math/rand/v2"

	"github.com/google/uuid"
)

// NewCardID returns a fresh opaque card identifier
func NewCardID() string {
	return uuid.NewString()
}

// BuildDeck duplicates the faces, shuffles them and deals face-down cards.
// Faces sharing a number are collapsed so every number appears on exactly two cards.
func BuildDeck(faces []CardFace, rng *rand.Rand, newID func() string) []Card {
	if newID == nil {
		newID = NewCardID
	}

	faces = normalizeFaces(faces)
	pairs := make([]CardFace, 0, 2*len(faces))
	pairs = append(pairs, faces...)
	pairs = append(pairs, faces...)
	Shuffle(rng, pairs)

	deck := make([]Card, len(pairs))
	for i, face := range pairs {
		deck[i] = Card{
			ID:        newID(),
			Number:    face.Number,
			FaceAsset: face.Asset,
		}
	}
	return deck
}

// normalizeFaces drops faces whose number was already seen
func normalizeFaces(faces []CardFace) []CardFace {
	seen := make(map[int]bool, len(faces))
	out := make([]CardFace, 0, len(faces))
	for _, face := range faces {
		if seen[face.Number] {
			continue
		}
		seen[face.Number] = true
		out = append(out, face)
	}
	return out
}

// CloneDeck returns an independent copy of the deck
func CloneDeck(deck []Card) []Card {
	out := make([]Card, len(deck))
	copy(out, deck)
	return out
}

// FaceUpUnmatched returns the cards currently flipped but not yet matched
func FaceUpUnmatched(deck []Card) []Card {
	var up []Card
	for _, card := range deck {
		if card.IsFlipped && !card.IsMatched {
			up = append(up, card)
		}
	}
	return up
}

// MatchedCount returns the number of matched cards
func MatchedCount(deck []Card) int {
	count := 0
	for _, card := range deck {
		if card.IsMatched {
			count++
		}
	}
	return count
}

// AllMatched reports whether every card is matched; an empty deck counts as matched
func AllMatched(deck []Card) bool {
	return MatchedCount(deck) == len(deck)
}

// ComparisonInFlight reports whether input is locked for a pending comparison
func ComparisonInFlight(deck []Card) bool {
	for _, card := range deck {
		if card.IsDisabled {
			return true
		}
	}
	return false
}

func indexOf(deck []Card, id string) int {
	for i := range deck {
		if deck[i].ID == id {
			return i
		}
	}
	return -1
}
