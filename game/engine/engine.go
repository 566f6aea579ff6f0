package engine

import (
	"sync"
	"time"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Player intents
	Flip(cardID string) FlipResult
	Restart()
	SetDifficulty(d *Difficulty)
	ToggleSettings() bool

	// Clock
	Tick()

	// Views
	State() *GameState
	Difficulty() *Difficulty

	// Teardown
	Close()
}

// Timing holds the controller delays
type Timing struct {
	RevealDelay  time.Duration
	TickInterval time.Duration
}

// DefaultTiming returns the reveal window and clock interval used by the game
func DefaultTiming() Timing {
	return Timing{
		RevealDelay:  DefaultRevealDelay,
		TickInterval: DefaultTickInterval,
	}
}

// Listener receives events after the controller lock is released
type Listener func(Event)

// ControllerOption configures a Controller
type ControllerOption func(*Controller)

// WithScheduler sets the scheduler driving the reveal window and the clock
func WithScheduler(s Scheduler) ControllerOption {
	return func(c *Controller) {
		c.scheduler = s
	}
}

// WithTiming overrides the reveal delay and the tick interval. Zero fields keep the defaults.
func WithTiming(t Timing) ControllerOption {
	return func(c *Controller) {
		if t.RevealDelay > 0 {
			c.timing.RevealDelay = t.RevealDelay
		}
		if t.TickInterval > 0 {
			c.timing.TickInterval = t.TickInterval
		}
	}
}

// WithListener registers the event listener
func WithListener(l Listener) ControllerOption {
	return func(c *Controller) {
		c.listener = l
	}
}

// WithGameOptions passes options to every game the controller deals
func WithGameOptions(opts ...Option) ControllerOption {
	return func(c *Controller) {
		c.gameOpts = append(c.gameOpts, opts...)
	}
}

// WithoutClock disables the automatic clock; time only moves through Tick
func WithoutClock() ControllerOption {
	return func(c *Controller) {
		c.clockEnabled = false
	}
}

// Controller implements the Engine interface. It serializes access to a Game
// and owns the reveal-window timer and the game clock.
type Controller struct {
	mu sync.Mutex

	game         *Game
	scheduler    Scheduler
	timing       Timing
	listener     Listener
	gameOpts     []Option
	clockEnabled bool

	reveal Timer
	clock  Timer
	closed bool
}

var _ Engine = (*Controller)(nil)

// NewController deals a game for the difficulty and starts its clock.
// A nil difficulty selects the default.
func NewController(d *Difficulty, opts ...ControllerOption) *Controller {
	c := &Controller{
		scheduler:    RealScheduler{},
		timing:       DefaultTiming(),
		clockEnabled: true,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.game = NewGame(d, c.gameOpts...)
	c.armClock()
	return c
}

// Flip forwards a flip request to the game. An accepted second flip opens a
// comparison that resolves after the reveal delay.
func (c *Controller) Flip(cardID string) FlipResult {
	c.mu.Lock()
	if c.closed {
		outcome := c.game.Outcome()
		c.mu.Unlock()
		return FlipResult{CardID: cardID, Reason: ReasonClosed, Outcome: outcome}
	}

	prev := c.game.Outcome()
	result := c.game.Flip(cardID)

	var events []Event
	if result.Accepted {
		events = append(events, c.event(EventFlip, cardID))
		if cmp := result.Comparison; cmp != nil {
			events = append(events, c.event(EventComparisonStarted, cmp.First, cmp.Second))
			c.scheduleReveal(*cmp)
		}
		events = c.finish(prev, events)
	}
	listener := c.listener
	c.mu.Unlock()

	emit(listener, events)
	return result
}

// Restart deals a new game under the current difficulty
func (c *Controller) Restart() {
	c.reset(EventRestart, nil)
}

// SetDifficulty switches difficulty and deals a new game
func (c *Controller) SetDifficulty(d *Difficulty) {
	if d == nil {
		d = DefaultDifficulty()
	}
	c.reset(EventDifficultyChanged, d)
}

func (c *Controller) reset(typ EventType, d *Difficulty) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	c.stopTimers()
	if d == nil {
		c.game.Restart()
	} else {
		c.game.SetDifficulty(d)
	}

	events := []Event{c.event(typ)}
	events = c.finish(InProgress, events)
	c.armClock()
	listener := c.listener
	c.mu.Unlock()

	emit(listener, events)
}

// Tick spends one second of the time budget
func (c *Controller) Tick() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	events := c.tick()
	listener := c.listener
	c.mu.Unlock()

	emit(listener, events)
}

func (c *Controller) tick() []Event {
	prev := c.game.Outcome()
	if !c.game.Tick() {
		return nil
	}
	events := []Event{c.event(EventTick)}
	return c.finish(prev, events)
}

// ToggleSettings opens or closes the settings panel and returns the new state
func (c *Controller) ToggleSettings() bool {
	c.mu.Lock()
	if c.closed {
		open := c.game.State().SettingsOpen
		c.mu.Unlock()
		return open
	}
	open := c.game.ToggleSettings()
	events := []Event{c.event(EventSettingsToggled)}
	listener := c.listener
	c.mu.Unlock()

	emit(listener, events)
	return open
}

// State returns a snapshot of the current game
func (c *Controller) State() *GameState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.game.State()
}

// Difficulty returns the active difficulty
func (c *Controller) Difficulty() *Difficulty {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.game.Difficulty()
}

// Close stops the timers. Callbacks that fire afterwards do nothing.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.stopTimers()
}

// Closed reports whether Close was called
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Controller) scheduleReveal(cmp Comparison) {
	c.reveal = c.scheduler.AfterFunc(c.timing.RevealDelay, func() {
		c.resolve(cmp)
	})
}

func (c *Controller) resolve(cmp Comparison) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	prev := c.game.Outcome()
	result, ok := c.game.Resolve(cmp)
	if !ok {
		c.mu.Unlock()
		return
	}
	c.reveal = nil

	typ := EventMismatch
	if result.Matched {
		typ = EventMatch
	}
	events := []Event{c.event(typ, cmp.First, cmp.Second)}
	events = c.finish(prev, events)
	listener := c.listener
	c.mu.Unlock()

	emit(listener, events)
}

func (c *Controller) armClock() {
	if !c.clockEnabled || c.closed || c.game.Outcome().Terminal() {
		return
	}
	gen := c.game.Generation()
	c.clock = c.scheduler.AfterFunc(c.timing.TickInterval, func() {
		c.onClock(gen)
	})
}

func (c *Controller) onClock(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.game.Generation() {
		c.mu.Unlock()
		return
	}
	c.clock = nil
	events := c.tick()
	c.armClock()
	listener := c.listener
	c.mu.Unlock()

	emit(listener, events)
}

// finish appends the outcome event and stops the timers when the game just ended
func (c *Controller) finish(prev Outcome, events []Event) []Event {
	outcome := c.game.Outcome()
	if prev.Terminal() || !outcome.Terminal() {
		return events
	}

	c.stopTimers()
	typ := EventWon
	if outcome == Lost {
		typ = EventLost
	}
	return append(events, c.event(typ))
}

func (c *Controller) stopTimers() {
	if c.reveal != nil {
		c.reveal.Stop()
		c.reveal = nil
	}
	if c.clock != nil {
		c.clock.Stop()
		c.clock = nil
	}
}

func (c *Controller) event(typ EventType, cardIDs ...string) Event {
	return Event{
		Type:       typ,
		GameID:     c.game.GameID(),
		Generation: c.game.Generation(),
		CardIDs:    cardIDs,
		Timestamp:  time.Now(),
		State:      c.game.State(),
	}
}

func emit(listener Listener, events []Event) {
	if listener == nil {
		return
	}
	for _, ev := range events {
		listener(ev)
	}
}
