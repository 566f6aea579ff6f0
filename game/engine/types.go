package engine

import "time"

// Outcome represents the result of a single game instance
type Outcome string

const (
	InProgress Outcome = "in_progress"
	Won        Outcome = "won"
	Lost       Outcome = "lost"
)

// Terminal reports whether the outcome ends the game
func (o Outcome) Terminal() bool {
	return o == Won || o == Lost
}

// TurnCost selects which manual flips consume a turn
type TurnCost string

const (
	// TurnCostPair charges one turn for the flip that reveals the second card of a pair
	TurnCostPair TurnCost = "pair"
	// TurnCostFlip charges one turn for every accepted manual flip
	TurnCostFlip TurnCost = "flip"
)

// LossReason explains why a game was lost
type LossReason string

const (
	LossTime  LossReason = "time"
	LossTurns LossReason = "turns"
)

const (
	// Validation constants
	MinPairs      = 1
	MaxPairs      = 64
	MinTurnBudget = 1
	MaxTurnBudget = 1000
	MinTimeBudget = 1
	MaxTimeBudget = 3600
	MaxIDLength   = 64

	DefaultRevealDelay  = 1200 * time.Millisecond
	DefaultTickInterval = time.Second
	WebSocketBufferSize = 256
)

// Messages shown with the game state
const (
	MessageWon  = "YOU WON"
	MessageLost = "YOU LOST"
)

// CardFace defines one pair-group of the deck
type CardFace struct {
	Number int    `json:"number" yaml:"number"`
	Asset  string `json:"asset" yaml:"asset"`
}

// Card represents a single card in the deck
type Card struct {
	ID         string `json:"id"`
	Number     int    `json:"number"`
	FaceAsset  string `json:"face_asset,omitempty"`
	IsFlipped  bool   `json:"is_flipped"`
	IsMatched  bool   `json:"is_matched"`
	IsDisabled bool   `json:"is_disabled"`
}

// Comparison identifies the two face-up cards awaiting resolution
type Comparison struct {
	First      string `json:"first"`
	Second     string `json:"second"`
	Generation uint64 `json:"generation"`
}

// GameState is the read-only view of a game instance
type GameState struct {
	GameID       string     `json:"game_id"`
	Generation   uint64     `json:"generation"`
	Difficulty   string     `json:"difficulty"`
	Cards        []Card     `json:"cards"`
	TurnsLeft    int        `json:"turns_left"`
	TimeLeft     int        `json:"time_left"`
	TurnBudget   int        `json:"turn_budget"`
	TimeBudget   int        `json:"time_budget"`
	TurnCost     TurnCost   `json:"turn_cost"`
	Outcome      Outcome    `json:"outcome"`
	LossReason   LossReason `json:"loss_reason,omitempty"`
	Comparing    bool       `json:"comparing"`
	MatchedPairs int        `json:"matched_pairs"`
	TotalPairs   int        `json:"total_pairs"`
	SettingsOpen bool       `json:"settings_open"`
	Message      string     `json:"message,omitempty"`
}

// Redacted returns a copy of the state with the faces of face-down cards hidden
func (s *GameState) Redacted() *GameState {
	if s == nil {
		return nil
	}
	out := *s
	out.Cards = make([]Card, len(s.Cards))
	for i, card := range s.Cards {
		if !card.IsFlipped {
			card.Number = 0
			card.FaceAsset = ""
		}
		out.Cards[i] = card
	}
	return &out
}

// EventType names a state transition reported by a Controller
type EventType string

const (
	EventRestart           EventType = "restart"
	EventDifficultyChanged EventType = "difficulty_changed"
	EventFlip              EventType = "flip"
	EventComparisonStarted EventType = "comparison_started"
	EventMatch             EventType = "match"
	EventMismatch          EventType = "mismatch"
	EventTick              EventType = "tick"
	EventWon               EventType = "won"
	EventLost              EventType = "lost"
	EventSettingsToggled   EventType = "settings_toggled"
)

// Event is emitted by a Controller after every state transition
type Event struct {
	Type       EventType  `json:"type"`
	GameID     string     `json:"game_id"`
	Generation uint64     `json:"generation"`
	CardIDs    []string   `json:"card_ids,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
	State      *GameState `json:"game_state,omitempty"`
}
