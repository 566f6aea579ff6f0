package engine

// EvaluateOutcome derives the outcome from the deck and budget.
//
// A terminal outcome is kept as is. Otherwise a fully matched deck wins, and
// WON is checked before either loss rule so the match that completes the deck
// on the last turn is a win. Running out of turns only loses once no
// comparison is in flight.
func EvaluateOutcome(current Outcome, deck []Card, b Budget) Outcome {
	if current.Terminal() {
		return current
	}
	if AllMatched(deck) {
		return Won
	}
	if b.TimeExhausted() {
		return Lost
	}
	if b.TurnsExhausted() && !ComparisonInFlight(deck) {
		return Lost
	}
	return InProgress
}

// lossReason reports which budget ended a lost game
func lossReason(b Budget) LossReason {
	if b.TimeExhausted() {
		return LossTime
	}
	return LossTurns
}
