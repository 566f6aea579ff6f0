package engine

// Budget tracks the turns and seconds left in a game
type Budget struct {
	TurnsLeft int `json:"turns_left"`
	TimeLeft  int `json:"time_left"`
}

// NewBudget returns a full budget for the difficulty
func NewBudget(d *Difficulty) Budget {
	return Budget{
		TurnsLeft: d.TurnBudget,
		TimeLeft:  d.TimeBudget,
	}
}

// ConsumeTurn spends one turn. TurnsLeft may go negative under the flip cost policy.
func (b *Budget) ConsumeTurn() {
	b.TurnsLeft--
}

// Tick spends one second, never going below zero
func (b *Budget) Tick() {
	if b.TimeLeft > 0 {
		b.TimeLeft--
	}
}

// TurnsExhausted reports whether the turn budget is spent
func (b Budget) TurnsExhausted() bool {
	return b.TurnsLeft <= 0
}

// TimeExhausted reports whether the countdown reached zero
func (b Budget) TimeExhausted() bool {
	return b.TimeLeft <= 0
}
