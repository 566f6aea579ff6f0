package engine

import (
	"fmt"
	"math/rand/v2"
	"testing"
)

func createTestDifficulty(pairs, turns, seconds int) *Difficulty {
	faces := make([]CardFace, pairs)
	for i := range faces {
		faces[i] = CardFace{Number: i + 1, Asset: fmt.Sprintf("images/%d.svg", i+1)}
	}
	return &Difficulty{
		ID:          "TEST",
		Name:        "Test",
		Description: "Difficulty for engine tests",
		CardFaces:   faces,
		TurnBudget:  turns,
		TimeBudget:  seconds,
	}
}

func newTestGame(d *Difficulty) *Game {
	return NewGame(d, WithRand(rand.New(rand.NewPCG(1, 2))))
}

// pairIDs groups card ids by face number
func pairIDs(cards []Card) map[int][]string {
	out := make(map[int][]string)
	for _, card := range cards {
		out[card.Number] = append(out[card.Number], card.ID)
	}
	return out
}

// mismatchedIDs returns two cards from different pairs
func mismatchedIDs(t *testing.T, cards []Card) (string, string) {
	t.Helper()
	for i := range cards {
		for j := i + 1; j < len(cards); j++ {
			if cards[i].Number != cards[j].Number {
				return cards[i].ID, cards[j].ID
			}
		}
	}
	t.Fatal("deck has no mismatched cards")
	return "", ""
}

func matchPair(t *testing.T, g *Game, ids []string) ResolveResult {
	t.Helper()
	if res := g.Flip(ids[0]); !res.Accepted {
		t.Fatalf("first flip rejected: %s", res.Reason)
	}
	res := g.Flip(ids[1])
	if !res.Accepted || res.Comparison == nil {
		t.Fatalf("second flip should open a comparison, got %+v", res)
	}
	out, ok := g.Resolve(*res.Comparison)
	if !ok {
		t.Fatal("comparison should resolve")
	}
	return out
}

func TestNewGameDealsPairs(t *testing.T) {
	for id, d := range BuiltinDifficulties() {
		t.Run(id, func(t *testing.T) {
			g := newTestGame(d)
			state := g.State()

			if len(state.Cards) != 2*len(d.CardFaces) {
				t.Fatalf("Expected %d cards, got %d", 2*len(d.CardFaces), len(state.Cards))
			}

			seen := make(map[string]bool)
			for _, card := range state.Cards {
				if seen[card.ID] {
					t.Errorf("Card id %s dealt twice", card.ID)
				}
				seen[card.ID] = true
				if card.IsFlipped || card.IsMatched || card.IsDisabled {
					t.Errorf("Card %s should start face down and enabled: %+v", card.ID, card)
				}
			}
			for number, ids := range pairIDs(state.Cards) {
				if len(ids) != 2 {
					t.Errorf("Number %d appears %d times", number, len(ids))
				}
			}

			if state.TurnsLeft != d.TurnBudget || state.TimeLeft != d.TimeBudget {
				t.Errorf("Expected budgets %d/%d, got %d/%d", d.TurnBudget, d.TimeBudget, state.TurnsLeft, state.TimeLeft)
			}
			if state.Outcome != InProgress {
				t.Errorf("Expected in_progress, got %s", state.Outcome)
			}
			if state.TotalPairs != len(d.CardFaces) || state.MatchedPairs != 0 {
				t.Errorf("Unexpected pair counters %d/%d", state.MatchedPairs, state.TotalPairs)
			}
		})
	}
}

func TestNewGameNilDifficultyUsesDefault(t *testing.T) {
	g := newTestGame(nil)
	if g.Difficulty().ID != DefaultDifficultyID {
		t.Errorf("Expected %s, got %s", DefaultDifficultyID, g.Difficulty().ID)
	}
}

func TestFlipSameCardTwice(t *testing.T) {
	g := newTestGame(createTestDifficulty(2, 10, 60))
	id := g.Deck()[0].ID

	first := g.Flip(id)
	if !first.Accepted || first.TurnConsumed {
		t.Fatalf("Expected accepted flip without turn cost, got %+v", first)
	}

	second := g.Flip(id)
	if second.Accepted {
		t.Fatal("Second flip of the same card should be ignored")
	}
	if second.Reason != ReasonAlreadyFlipped {
		t.Errorf("Expected reason %s, got %s", ReasonAlreadyFlipped, second.Reason)
	}

	if up := FaceUpUnmatched(g.Deck()); len(up) != 1 {
		t.Errorf("Expected one face-up card, got %d", len(up))
	}
	if g.Budget().TurnsLeft != 10 {
		t.Errorf("Expected 10 turns left, got %d", g.Budget().TurnsLeft)
	}
	if g.Pending() != nil {
		t.Error("No comparison should be open")
	}
}

func TestTwoPairWin(t *testing.T) {
	g := newTestGame(createTestDifficulty(2, 10, 60))
	pairs := pairIDs(g.Deck())

	res := matchPair(t, g, pairs[1])
	if !res.Matched || res.Outcome != InProgress {
		t.Fatalf("Expected match with game in progress, got %+v", res)
	}

	res = matchPair(t, g, pairs[2])
	if !res.Matched || res.Outcome != Won {
		t.Fatalf("Expected winning match, got %+v", res)
	}

	state := g.State()
	if state.Message != MessageWon {
		t.Errorf("Expected message %q, got %q", MessageWon, state.Message)
	}
	if state.TurnsLeft != 8 {
		t.Errorf("Expected 8 turns left, got %d", state.TurnsLeft)
	}
	if state.MatchedPairs != 2 {
		t.Errorf("Expected 2 matched pairs, got %d", state.MatchedPairs)
	}
	for _, card := range state.Cards {
		if !card.IsFlipped || !card.IsMatched || card.IsDisabled {
			t.Errorf("Card should be matched and face up: %+v", card)
		}
	}
}

func TestLastTurnMismatchLoses(t *testing.T) {
	g := newTestGame(createTestDifficulty(2, 1, 60))
	a, b := mismatchedIDs(t, g.Deck())

	g.Flip(a)
	res := g.Flip(b)
	if res.Comparison == nil {
		t.Fatal("Expected a comparison")
	}
	if g.Budget().TurnsLeft != 0 {
		t.Fatalf("Expected 0 turns left, got %d", g.Budget().TurnsLeft)
	}
	if g.Outcome() != InProgress {
		t.Fatalf("Game should not be lost while the comparison is in flight, got %s", g.Outcome())
	}

	out, ok := g.Resolve(*res.Comparison)
	if !ok || out.Matched {
		t.Fatalf("Expected a mismatch, got %+v ok=%v", out, ok)
	}
	if out.Outcome != Lost {
		t.Fatalf("Expected lost, got %s", out.Outcome)
	}

	state := g.State()
	if state.LossReason != LossTurns {
		t.Errorf("Expected loss reason %s, got %s", LossTurns, state.LossReason)
	}
	if state.Message != MessageLost {
		t.Errorf("Expected message %q, got %q", MessageLost, state.Message)
	}
}

func TestLastTurnFinalMatchWins(t *testing.T) {
	g := newTestGame(createTestDifficulty(2, 2, 60))
	pairs := pairIDs(g.Deck())

	matchPair(t, g, pairs[1])
	if g.Budget().TurnsLeft != 1 {
		t.Fatalf("Expected 1 turn left, got %d", g.Budget().TurnsLeft)
	}

	res := matchPair(t, g, pairs[2])
	if res.Outcome != Won {
		t.Fatalf("Final match on the last turn should win, got %s", res.Outcome)
	}
	if g.Budget().TurnsLeft != 0 {
		t.Errorf("Expected 0 turns left, got %d", g.Budget().TurnsLeft)
	}
}

func TestTimeExpiresDuringComparison(t *testing.T) {
	g := newTestGame(createTestDifficulty(2, 10, 2))
	a, b := mismatchedIDs(t, g.Deck())

	g.Flip(a)
	res := g.Flip(b)
	if res.Comparison == nil {
		t.Fatal("Expected a comparison")
	}

	g.Tick()
	if g.Outcome() != InProgress {
		t.Fatalf("Expected in_progress after one tick, got %s", g.Outcome())
	}
	g.Tick()
	if g.Outcome() != Lost {
		t.Fatalf("Expected lost when time runs out, got %s", g.Outcome())
	}
	if g.State().LossReason != LossTime {
		t.Errorf("Expected loss reason %s, got %s", LossTime, g.State().LossReason)
	}

	before := g.Deck()
	if _, ok := g.Resolve(*res.Comparison); ok {
		t.Fatal("Resolution after the game ended should be ignored")
	}
	after := g.Deck()
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("Card %d changed after a stale resolution: %+v -> %+v", i, before[i], after[i])
		}
	}
	if g.Outcome() != Lost {
		t.Errorf("Outcome should stay lost, got %s", g.Outcome())
	}

	if g.Tick() {
		t.Error("Tick after the end should be a no-op")
	}
	if g.Budget().TimeLeft != 0 {
		t.Errorf("Expected time left 0, got %d", g.Budget().TimeLeft)
	}
}

func TestRestartResetsGame(t *testing.T) {
	d := createTestDifficulty(3, 5, 30)
	g := newTestGame(d)
	oldDeck := g.Deck()
	oldGen := g.Generation()
	oldID := g.GameID()

	a, b := mismatchedIDs(t, oldDeck)
	g.Flip(a)
	res := g.Flip(b)
	g.Tick()
	g.ToggleSettings()

	g.Restart()

	if g.Generation() != oldGen+1 {
		t.Errorf("Expected generation %d, got %d", oldGen+1, g.Generation())
	}
	if g.GameID() == oldID {
		t.Error("Expected a new game id")
	}

	state := g.State()
	if state.TurnsLeft != d.TurnBudget || state.TimeLeft != d.TimeBudget {
		t.Errorf("Budgets not reset: %d/%d", state.TurnsLeft, state.TimeLeft)
	}
	if state.Outcome != InProgress || state.Comparing || state.SettingsOpen {
		t.Errorf("Unexpected state after restart: %+v", state)
	}

	oldIDs := make(map[string]bool)
	for _, card := range oldDeck {
		oldIDs[card.ID] = true
	}
	for _, card := range state.Cards {
		if oldIDs[card.ID] {
			t.Errorf("Card id %s reused across restart", card.ID)
		}
		if card.IsFlipped || card.IsMatched || card.IsDisabled {
			t.Errorf("Card should be face down after restart: %+v", card)
		}
	}

	if _, ok := g.Resolve(*res.Comparison); ok {
		t.Error("Comparison from the previous game should be stale")
	}
}

func TestFlipRejections(t *testing.T) {
	g := newTestGame(createTestDifficulty(3, 10, 60))
	pairs := pairIDs(g.Deck())

	if res := g.Flip("missing"); res.Accepted || res.Reason != ReasonUnknownCard {
		t.Errorf("Expected unknown card rejection, got %+v", res)
	}

	matchPair(t, g, pairs[1])
	if res := g.Flip(pairs[1][0]); res.Accepted || res.Reason != ReasonAlreadyMatched {
		t.Errorf("Expected already matched rejection, got %+v", res)
	}

	g.Flip(pairs[2][0])
	g.Flip(pairs[3][0])
	res := g.Flip(pairs[2][1])
	if res.Accepted || res.Reason != ReasonComparing {
		t.Errorf("Expected comparison in progress rejection, got %+v", res)
	}
	for _, card := range g.Deck() {
		if !card.IsDisabled {
			t.Errorf("Every card should be disabled during a comparison: %+v", card)
		}
	}
}

func TestFlipAfterGameOver(t *testing.T) {
	g := newTestGame(createTestDifficulty(2, 10, 1))
	g.Tick()
	if g.Outcome() != Lost {
		t.Fatalf("Expected lost, got %s", g.Outcome())
	}

	res := g.Flip(g.Deck()[0].ID)
	if res.Accepted || res.Reason != ReasonGameOver {
		t.Errorf("Expected game over rejection, got %+v", res)
	}
}

func TestFlipCostPolicy(t *testing.T) {
	d := createTestDifficulty(2, 3, 60)
	d.TurnCost = TurnCostFlip
	g := newTestGame(d)
	a, b := mismatchedIDs(t, g.Deck())

	res := g.Flip(a)
	if !res.TurnConsumed {
		t.Error("Every flip should consume a turn under the flip policy")
	}
	res = g.Flip(b)
	if !res.TurnConsumed || g.Budget().TurnsLeft != 1 {
		t.Fatalf("Expected 1 turn left, got %d", g.Budget().TurnsLeft)
	}

	g.Resolve(*res.Comparison)
	if g.Outcome() != InProgress {
		t.Fatalf("Expected in_progress, got %s", g.Outcome())
	}

	// The last turn is spent on a single card with nothing in flight
	g.Flip(a)
	if g.Outcome() != Lost {
		t.Errorf("Expected lost once turns run out, got %s", g.Outcome())
	}
}

func TestEmptyDeckWinsImmediately(t *testing.T) {
	d := createTestDifficulty(0, 5, 10)
	g := newTestGame(d)

	if g.Outcome() != Won {
		t.Errorf("Expected an empty deck to be won, got %s", g.Outcome())
	}
	if len(g.Deck()) != 0 {
		t.Errorf("Expected no cards, got %d", len(g.Deck()))
	}
}

func TestDuplicateFacesNormalized(t *testing.T) {
	d := createTestDifficulty(2, 5, 10)
	d.CardFaces = append(d.CardFaces, CardFace{Number: 1, Asset: "images/dup.svg"})
	g := newTestGame(d)

	if len(g.Deck()) != 4 {
		t.Fatalf("Expected 4 cards, got %d", len(g.Deck()))
	}
	for number, ids := range pairIDs(g.Deck()) {
		if len(ids) != 2 {
			t.Errorf("Number %d appears %d times", number, len(ids))
		}
	}
}

func TestSetDifficultyClosesSettings(t *testing.T) {
	g := newTestGame(createTestDifficulty(2, 5, 10))
	if !g.ToggleSettings() {
		t.Fatal("Expected settings to open")
	}

	hard := BuiltinDifficulties()["HARD"]
	g.SetDifficulty(hard)

	state := g.State()
	if state.SettingsOpen {
		t.Error("Settings should close on difficulty change")
	}
	if state.Difficulty != "HARD" {
		t.Errorf("Expected HARD, got %s", state.Difficulty)
	}
	if len(state.Cards) != 2*len(hard.CardFaces) {
		t.Errorf("Expected %d cards, got %d", 2*len(hard.CardFaces), len(state.Cards))
	}
	if state.TurnsLeft != hard.TurnBudget || state.TimeLeft != hard.TimeBudget {
		t.Errorf("Budgets not taken from the new difficulty: %d/%d", state.TurnsLeft, state.TimeLeft)
	}
}

func TestEvaluateDoesNotMutate(t *testing.T) {
	g := newTestGame(createTestDifficulty(2, 5, 10))
	before := g.State()

	for i := 0; i < 3; i++ {
		if g.Evaluate() != before.Outcome {
			t.Fatalf("Evaluate changed its answer on call %d", i)
		}
	}

	after := g.State()
	if after.Outcome != before.Outcome || after.TurnsLeft != before.TurnsLeft || after.Generation != before.Generation {
		t.Error("Evaluate should not change the game")
	}
}
