package session

import (
	"math"

	"github.com/wricardo/mcp-training/rockpaperscissors/game/engine"
)

const (
	// WinScore is added to the score when the player wins a turn.
	WinScore uint32 = 3
	// LoseScore is subtracted from the score when the player loses a turn.
	LoseScore uint32 = 1
)

// Session holds the score of one connection's game. It is owned by a single
// connection handler and is not safe for concurrent use.
type Session struct {
	score    uint32
	opponent engine.ChoiceSource
}

// Snapshot is a read-only copy of a session's state.
type Snapshot struct {
	Score uint32 `json:"score"`
}

// New creates a session with a score of zero that draws opponent choices
// from opponent.
func New(opponent engine.ChoiceSource) *Session {
	if opponent == nil {
		panic("session: nil choice source")
	}
	return &Session{opponent: opponent}
}

// PlayTurn resolves the player's choice against a fresh opponent choice and
// applies the score change for the outcome.
func (s *Session) PlayTurn(player engine.Choice) engine.Outcome {
	outcome := engine.Resolve(player, s.opponent.NextChoice())

	switch outcome {
	case engine.Win:
		s.score = saturatingAdd(s.score, WinScore)
	case engine.Lose:
		s.score = saturatingSub(s.score, LoseScore)
	}

	return outcome
}

// Score returns the current score.
func (s *Session) Score() uint32 {
	return s.score
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{Score: s.score}
}

func saturatingAdd(a, b uint32) uint32 {
	if a > math.MaxUint32-b {
		return math.MaxUint32
	}
	return a + b
}

func saturatingSub(a, b uint32) uint32 {
	if a < b {
		return 0
	}
	return a - b
}
