package engine

import (
	"math/rand/v2"

	"github.com/oklog/ulid/v2"
)

// Reasons a flip request is ignored
const (
	ReasonGameOver       = "game_over"
	ReasonUnknownCard    = "unknown_card"
	ReasonComparing      = "comparison_in_progress"
	ReasonAlreadyMatched = "already_matched"
	ReasonDisabled       = "card_disabled"
	ReasonAlreadyFlipped = "already_flipped"
	ReasonClosed         = "closed"
)

// FlipResult describes what a flip request did
type FlipResult struct {
	CardID       string      `json:"card_id"`
	Accepted     bool        `json:"accepted"`
	Reason       string      `json:"reason,omitempty"`
	TurnConsumed bool        `json:"turn_consumed"`
	Comparison   *Comparison `json:"comparison,omitempty"`
	Outcome      Outcome     `json:"outcome"`
}

// ResolveResult describes an applied comparison
type ResolveResult struct {
	Comparison Comparison `json:"comparison"`
	Matched    bool       `json:"matched"`
	Outcome    Outcome    `json:"outcome"`
}

// Option configures a Game
type Option func(*Game)

// WithRand sets the generator used to shuffle decks
func WithRand(rng *rand.Rand) Option {
	return func(g *Game) {
		g.rng = rng
	}
}

// WithIDGenerator sets the function used to mint card ids
func WithIDGenerator(fn func() string) Option {
	return func(g *Game) {
		g.newID = fn
	}
}

// Game is the memory game state machine. It is not safe for concurrent use;
// Controller serializes access and drives the delayed transitions.
type Game struct {
	difficulty   *Difficulty
	deck         []Card
	budget       Budget
	outcome      Outcome
	lossReason   LossReason
	generation   uint64
	gameID       string
	pending      *Comparison
	settingsOpen bool

	rng   *rand.Rand
	newID func() string
}

// NewGame deals a new game for the difficulty. A nil difficulty selects the default.
func NewGame(d *Difficulty, opts ...Option) *Game {
	g := &Game{}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = NewRand()
	}
	if g.newID == nil {
		g.newID = NewCardID
	}

	g.reset(d)
	return g
}

// reset rebuilds the deck and budgets and starts a new generation
func (g *Game) reset(d *Difficulty) {
	if d == nil {
		d = DefaultDifficulty()
	}

	g.difficulty = d.Clone()
	g.generation++
	g.gameID = ulid.Make().String()
	g.deck = BuildDeck(g.difficulty.CardFaces, g.rng, g.newID)
	g.budget = NewBudget(g.difficulty)
	g.outcome = InProgress
	g.lossReason = ""
	g.pending = nil
	g.settingsOpen = false

	// A deck without pairs is won on the spot
	g.evaluate()
}

// Flip turns a face-down card face up. Requests that cannot apply are ignored
// and reported through FlipResult.Reason. When the flip leaves two unmatched
// cards face up, the whole deck is disabled and the returned comparison must
// be passed to Resolve.
func (g *Game) Flip(id string) FlipResult {
	result := FlipResult{CardID: id, Outcome: g.outcome}

	if g.outcome.Terminal() {
		result.Reason = ReasonGameOver
		return result
	}

	idx := indexOf(g.deck, id)
	if idx < 0 {
		result.Reason = ReasonUnknownCard
		return result
	}

	card := &g.deck[idx]
	switch {
	case g.pending != nil:
		result.Reason = ReasonComparing
		return result
	case card.IsMatched:
		result.Reason = ReasonAlreadyMatched
		return result
	case card.IsDisabled:
		result.Reason = ReasonDisabled
		return result
	case card.IsFlipped:
		result.Reason = ReasonAlreadyFlipped
		return result
	}

	card.IsFlipped = true
	result.Accepted = true

	faceUp := FaceUpUnmatched(g.deck)
	if g.difficulty.Cost() == TurnCostFlip || len(faceUp) == 2 {
		g.budget.ConsumeTurn()
		result.TurnConsumed = true
	}

	if len(faceUp) == 2 {
		first := faceUp[0].ID
		if first == id {
			first = faceUp[1].ID
		}
		for i := range g.deck {
			g.deck[i].IsDisabled = true
		}
		g.pending = &Comparison{First: first, Second: id, Generation: g.generation}
		cmp := *g.pending
		result.Comparison = &cmp
	}

	g.evaluate()
	result.Outcome = g.outcome
	return result
}

// Resolve applies a comparison opened by Flip. It returns false without
// touching the game when the comparison is stale: from another generation,
// already resolved, or arriving after the game ended.
func (g *Game) Resolve(c Comparison) (ResolveResult, bool) {
	if g.pending == nil || *g.pending != c || c.Generation != g.generation || g.outcome.Terminal() {
		return ResolveResult{}, false
	}

	matched, next := ResolvePair(g.deck, c.First, c.Second)
	g.deck = next
	g.pending = nil
	g.evaluate()

	return ResolveResult{Comparison: c, Matched: matched, Outcome: g.outcome}, true
}

// Tick spends one second of the time budget. It is a no-op once the game ended.
func (g *Game) Tick() bool {
	if g.outcome.Terminal() {
		return false
	}
	g.budget.Tick()
	g.evaluate()
	return true
}

// Restart deals a new game under the current difficulty
func (g *Game) Restart() {
	g.reset(g.difficulty)
}

// SetDifficulty switches to a new difficulty and deals a new game
func (g *Game) SetDifficulty(d *Difficulty) {
	g.reset(d)
}

// ToggleSettings opens or closes the settings panel
func (g *Game) ToggleSettings() bool {
	g.settingsOpen = !g.settingsOpen
	return g.settingsOpen
}

// Evaluate returns the outcome derived from the current deck and budget without changing the game
func (g *Game) Evaluate() Outcome {
	return EvaluateOutcome(g.outcome, g.deck, g.budget)
}

func (g *Game) evaluate() {
	next := g.Evaluate()
	if next == Lost && g.outcome != Lost {
		g.lossReason = lossReason(g.budget)
	}
	g.outcome = next
}

// Outcome returns the current outcome
func (g *Game) Outcome() Outcome {
	return g.outcome
}

// Generation returns the current game generation
func (g *Game) Generation() uint64 {
	return g.generation
}

// GameID returns the identifier of the current game instance
func (g *Game) GameID() string {
	return g.gameID
}

// Difficulty returns a copy of the active difficulty
func (g *Game) Difficulty() *Difficulty {
	return g.difficulty.Clone()
}

// Budget returns the remaining budget
func (g *Game) Budget() Budget {
	return g.budget
}

// Pending returns the comparison awaiting resolution, or nil
func (g *Game) Pending() *Comparison {
	if g.pending == nil {
		return nil
	}
	cmp := *g.pending
	return &cmp
}

// Deck returns a copy of the deck
func (g *Game) Deck() []Card {
	return CloneDeck(g.deck)
}

// State returns a snapshot of the game
func (g *Game) State() *GameState {
	state := &GameState{
		GameID:       g.gameID,
		Generation:   g.generation,
		Difficulty:   g.difficulty.ID,
		Cards:        CloneDeck(g.deck),
		TurnsLeft:    g.budget.TurnsLeft,
		TimeLeft:     g.budget.TimeLeft,
		TurnBudget:   g.difficulty.TurnBudget,
		TimeBudget:   g.difficulty.TimeBudget,
		TurnCost:     g.difficulty.Cost(),
		Outcome:      g.outcome,
		LossReason:   g.lossReason,
		Comparing:    g.pending != nil,
		MatchedPairs: MatchedCount(g.deck) / 2,
		TotalPairs:   len(g.deck) / 2,
		SettingsOpen: g.settingsOpen,
	}

	switch g.outcome {
	case Won:
		state.Message = MessageWon
	case Lost:
		state.Message = MessageLost
	}
	return state
}
