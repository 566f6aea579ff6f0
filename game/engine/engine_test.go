package engine

import (
	"math/rand/v2"
	"sync"
	"testing"
	"time"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) listen(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

func (r *eventRecorder) count(typ EventType) int {
	n := 0
	for _, got := range r.types() {
		if got == typ {
			n++
		}
	}
	return n
}

func (r *eventRecorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func createTestController(d *Difficulty, opts ...ControllerOption) (*Controller, *ManualScheduler, *eventRecorder) {
	sched := NewManualScheduler()
	rec := &eventRecorder{}
	base := []ControllerOption{
		WithScheduler(sched),
		WithListener(rec.listen),
		WithGameOptions(WithRand(rand.New(rand.NewPCG(11, 13)))),
	}
	return NewController(d, append(base, opts...)...), sched, rec
}

func TestControllerResolvesAfterRevealDelay(t *testing.T) {
	ctrl, sched, rec := createTestController(createTestDifficulty(2, 10, 60), WithoutClock())
	defer ctrl.Close()

	a, b := mismatchedIDs(t, ctrl.State().Cards)
	ctrl.Flip(a)
	res := ctrl.Flip(b)
	if res.Comparison == nil {
		t.Fatal("Expected the second flip to open a comparison")
	}

	state := ctrl.State()
	if !state.Comparing {
		t.Error("Expected comparing while the reveal window is open")
	}
	for _, card := range state.Cards {
		if !card.IsDisabled {
			t.Errorf("Card %s should be disabled during the reveal window", card.ID)
		}
	}

	sched.Advance(DefaultRevealDelay - time.Millisecond)
	if !ctrl.State().Comparing {
		t.Fatal("Comparison resolved before the reveal delay")
	}

	sched.Advance(time.Millisecond)
	state = ctrl.State()
	if state.Comparing {
		t.Fatal("Comparison should be resolved after the reveal delay")
	}
	for _, card := range state.Cards {
		if card.IsFlipped || card.IsDisabled {
			t.Errorf("Mismatched cards should be face down and enabled: %+v", card)
		}
	}

	expected := []EventType{EventFlip, EventFlip, EventComparisonStarted, EventMismatch}
	got := rec.types()
	if len(got) != len(expected) {
		t.Fatalf("Expected events %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("Event %d: expected %s, got %s", i, expected[i], got[i])
		}
	}
}

func TestControllerCustomRevealDelay(t *testing.T) {
	ctrl, sched, rec := createTestController(createTestDifficulty(2, 10, 60),
		WithoutClock(), WithTiming(Timing{RevealDelay: 50 * time.Millisecond}))
	defer ctrl.Close()

	pairs := pairIDs(ctrl.State().Cards)
	ctrl.Flip(pairs[1][0])
	ctrl.Flip(pairs[1][1])

	sched.Advance(50 * time.Millisecond)
	if rec.count(EventMatch) != 1 {
		t.Fatalf("Expected a match event, got %v", rec.types())
	}
	if ctrl.State().MatchedPairs != 1 {
		t.Errorf("Expected 1 matched pair, got %d", ctrl.State().MatchedPairs)
	}
}

func TestControllerClockRunsOut(t *testing.T) {
	ctrl, sched, rec := createTestController(createTestDifficulty(2, 10, 3))
	defer ctrl.Close()

	sched.Advance(2 * time.Second)
	if got := ctrl.State().TimeLeft; got != 1 {
		t.Fatalf("Expected 1 second left, got %d", got)
	}

	sched.Advance(time.Second)
	state := ctrl.State()
	if state.Outcome != Lost || state.LossReason != LossTime {
		t.Fatalf("Expected lost on time, got %s (%s)", state.Outcome, state.LossReason)
	}
	if sched.Pending() != 0 {
		t.Errorf("Clock should stop after the game ends, %d tasks pending", sched.Pending())
	}
	if rec.count(EventTick) != 3 || rec.count(EventLost) != 1 {
		t.Errorf("Unexpected events %v", rec.types())
	}

	sched.Advance(10 * time.Second)
	if ctrl.State().TimeLeft != 0 {
		t.Error("Time should not move after the game ended")
	}
}

func TestControllerTimeExpiresDuringComparison(t *testing.T) {
	ctrl, sched, rec := createTestController(createTestDifficulty(2, 10, 1))
	defer ctrl.Close()

	a, b := mismatchedIDs(t, ctrl.State().Cards)
	ctrl.Flip(a)
	ctrl.Flip(b)

	// The clock fires at 1s, before the 1.2s reveal window closes
	sched.Advance(time.Second)
	if ctrl.State().Outcome != Lost {
		t.Fatalf("Expected lost, got %s", ctrl.State().Outcome)
	}

	before := ctrl.State()
	sched.Advance(time.Second)
	after := ctrl.State()

	if rec.count(EventMismatch) != 0 || rec.count(EventMatch) != 0 {
		t.Errorf("Resolution should be dropped after the game ended: %v", rec.types())
	}
	for i := range before.Cards {
		if before.Cards[i] != after.Cards[i] {
			t.Errorf("Card changed after the game ended: %+v -> %+v", before.Cards[i], after.Cards[i])
		}
	}
}

func TestControllerRestartDropsPendingComparison(t *testing.T) {
	ctrl, sched, rec := createTestController(createTestDifficulty(3, 10, 60), WithoutClock())
	defer ctrl.Close()

	a, b := mismatchedIDs(t, ctrl.State().Cards)
	ctrl.Flip(a)
	ctrl.Flip(b)
	oldGen := ctrl.State().Generation

	ctrl.Restart()
	rec.reset()
	sched.Advance(5 * time.Second)

	state := ctrl.State()
	if state.Generation != oldGen+1 {
		t.Errorf("Expected generation %d, got %d", oldGen+1, state.Generation)
	}
	if len(rec.types()) != 0 {
		t.Errorf("No events expected from the previous game, got %v", rec.types())
	}
	for _, card := range state.Cards {
		if card.IsFlipped || card.IsDisabled {
			t.Errorf("New deck should be untouched: %+v", card)
		}
	}
}

func TestControllerRestartRestartsClock(t *testing.T) {
	ctrl, sched, _ := createTestController(createTestDifficulty(2, 10, 5))
	defer ctrl.Close()

	sched.Advance(5 * time.Second)
	if ctrl.State().Outcome != Lost {
		t.Fatalf("Expected lost, got %s", ctrl.State().Outcome)
	}

	ctrl.Restart()
	if ctrl.State().TimeLeft != 5 {
		t.Fatalf("Expected a full clock, got %d", ctrl.State().TimeLeft)
	}
	if sched.Pending() != 1 {
		t.Fatalf("Expected exactly one clock task, got %d", sched.Pending())
	}

	sched.Advance(2 * time.Second)
	if ctrl.State().TimeLeft != 3 {
		t.Errorf("Expected 3 seconds left, got %d", ctrl.State().TimeLeft)
	}
}

func TestControllerRestartMidTickKeepsSingleClock(t *testing.T) {
	ctrl, sched, _ := createTestController(createTestDifficulty(2, 10, 30))
	defer ctrl.Close()

	sched.Advance(500 * time.Millisecond)
	ctrl.Restart()
	ctrl.Restart()

	sched.Advance(time.Second)
	if got := ctrl.State().TimeLeft; got != 29 {
		t.Errorf("Expected exactly one tick after restarts, got time left %d", got)
	}
}

func TestControllerSetDifficulty(t *testing.T) {
	ctrl, _, rec := createTestController(createTestDifficulty(2, 10, 60), WithoutClock())
	defer ctrl.Close()

	ctrl.ToggleSettings()
	easy := BuiltinDifficulties()["EASY"]
	ctrl.SetDifficulty(easy)

	state := ctrl.State()
	if state.Difficulty != "EASY" || len(state.Cards) != 2*len(easy.CardFaces) {
		t.Errorf("Difficulty not applied: %s with %d cards", state.Difficulty, len(state.Cards))
	}
	if state.SettingsOpen {
		t.Error("Settings should close on difficulty change")
	}
	if rec.count(EventDifficultyChanged) != 1 || rec.count(EventSettingsToggled) != 1 {
		t.Errorf("Unexpected events %v", rec.types())
	}
	if ctrl.Difficulty().ID != "EASY" {
		t.Errorf("Expected EASY, got %s", ctrl.Difficulty().ID)
	}
}

func TestControllerWinStopsTimers(t *testing.T) {
	ctrl, sched, rec := createTestController(createTestDifficulty(1, 5, 60))
	defer ctrl.Close()

	ids := pairIDs(ctrl.State().Cards)[1]
	ctrl.Flip(ids[0])
	ctrl.Flip(ids[1])
	sched.Advance(DefaultRevealDelay)

	if ctrl.State().Outcome != Won {
		t.Fatalf("Expected won, got %s", ctrl.State().Outcome)
	}
	if sched.Pending() != 0 {
		t.Errorf("Expected no pending tasks after a win, got %d", sched.Pending())
	}
	if rec.count(EventWon) != 1 {
		t.Errorf("Expected one won event, got %v", rec.types())
	}
	if ctrl.State().TimeLeft != 59 {
		t.Errorf("Expected one tick before the win, got time left %d", ctrl.State().TimeLeft)
	}
}

func TestControllerClose(t *testing.T) {
	ctrl, sched, rec := createTestController(createTestDifficulty(2, 10, 60))

	a, b := mismatchedIDs(t, ctrl.State().Cards)
	ctrl.Flip(a)
	ctrl.Flip(b)
	ctrl.Close()

	if !ctrl.Closed() {
		t.Fatal("Expected controller closed")
	}
	if sched.Pending() != 0 {
		t.Errorf("Close should cancel timers, %d pending", sched.Pending())
	}

	rec.reset()
	res := ctrl.Flip(a)
	if res.Accepted || res.Reason != ReasonClosed {
		t.Errorf("Expected closed rejection, got %+v", res)
	}
	ctrl.Restart()
	ctrl.Tick()
	if len(rec.types()) != 0 {
		t.Errorf("Closed controller should not emit events, got %v", rec.types())
	}
}

func TestControllerListenerMayReadState(t *testing.T) {
	sched := NewManualScheduler()
	var ctrl *Controller
	seen := make(chan Outcome, 16)

	ctrl = NewController(createTestDifficulty(2, 10, 60),
		WithScheduler(sched),
		WithoutClock(),
		WithListener(func(ev Event) {
			seen <- ctrl.State().Outcome
		}),
	)
	defer ctrl.Close()

	ctrl.Tick()

	select {
	case outcome := <-seen:
		if outcome != InProgress {
			t.Errorf("Expected in_progress, got %s", outcome)
		}
	case <-time.After(time.Second):
		t.Fatal("Listener did not run")
	}
}

func TestControllerEventsCarryState(t *testing.T) {
	ctrl, _, rec := createTestController(createTestDifficulty(2, 10, 60), WithoutClock())
	defer ctrl.Close()

	id := ctrl.State().Cards[0].ID
	ctrl.Flip(id)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.events) != 1 {
		t.Fatalf("Expected one event, got %d", len(rec.events))
	}
	ev := rec.events[0]
	if ev.State == nil || ev.GameID != ev.State.GameID || ev.Generation != ev.State.Generation {
		t.Fatalf("Event state does not match the event: %+v", ev)
	}
	if len(ev.CardIDs) != 1 || ev.CardIDs[0] != id {
		t.Errorf("Expected card ids [%s], got %v", id, ev.CardIDs)
	}
	if ev.Timestamp.IsZero() {
		t.Error("Expected a timestamp")
	}
}

func TestControllerConcurrentFlips(t *testing.T) {
	ctrl, sched, _ := createTestController(createTestDifficulty(8, 100, 600))
	defer ctrl.Close()

	cards := ctrl.State().Cards
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				ctrl.Flip(cards[(offset*7+j)%len(cards)].ID)
				_ = ctrl.State()
				if j%10 == 0 {
					sched.Advance(DefaultRevealDelay)
				}
			}
		}(i)
	}
	wg.Wait()

	if up := FaceUpUnmatched(ctrl.State().Cards); len(up) > 2 {
		t.Errorf("At most two unmatched cards may be face up, got %d", len(up))
	}
}

func TestRealSchedulerResolves(t *testing.T) {
	done := make(chan struct{}, 4)
	ctrl := NewController(createTestDifficulty(1, 5, 60),
		WithTiming(Timing{RevealDelay: 10 * time.Millisecond}),
		WithoutClock(),
		WithListener(func(ev Event) {
			if ev.Type == EventWon {
				done <- struct{}{}
			}
		}),
	)
	defer ctrl.Close()

	ids := pairIDs(ctrl.State().Cards)[1]
	ctrl.Flip(ids[0])
	ctrl.Flip(ids[1])

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Comparison was never resolved")
	}
}
