package engine

// ResolvePair compares two face-up cards and returns whether they match along
// with the next deck. Matched cards stay face up for good, mismatched cards are
// turned back down, and input is re-enabled on the whole deck.
func ResolvePair(deck []Card, firstID, secondID string) (bool, []Card) {
	next := CloneDeck(deck)
	for i := range next {
		next[i].IsDisabled = false
	}

	i, j := indexOf(next, firstID), indexOf(next, secondID)
	if i < 0 || j < 0 || i == j {
		return false, next
	}

	if next[i].Number == next[j].Number {
		next[i].IsMatched = true
		next[j].IsMatched = true
		return true, next
	}

	next[i].IsFlipped = false
	next[j].IsFlipped = false
	return false, next
}
