package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidChoice  = errors.New("invalid choice")
	ErrInvalidOutcome = errors.New("invalid outcome")
)

// Choice is a move played by the player or the opponent for one turn.
type Choice string

const (
	Rock     Choice = "Rock"
	Paper    Choice = "Paper"
	Scissors Choice = "Scissors"
)

// Choices lists every valid Choice in a stable order.
var Choices = []Choice{Rock, Paper, Scissors}

// Outcome is the result of resolving a turn from the player's point of view.
type Outcome string

const (
	Win  Outcome = "Win"
	Lose Outcome = "Lose"
	Draw Outcome = "Draw"
)

// Outcomes lists every valid Outcome in a stable order.
var Outcomes = []Outcome{Win, Lose, Draw}

// Valid reports whether c is one of Rock, Paper or Scissors.
func (c Choice) Valid() bool {
	switch c {
	case Rock, Paper, Scissors:
		return true
	}
	return false
}

func (c Choice) String() string {
	return string(c)
}

// MarshalText implements encoding.TextMarshaler.
func (c Choice) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidChoice, string(c))
	}
	return []byte(c), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Only the canonical
// names are accepted.
func (c *Choice) UnmarshalText(text []byte) error {
	parsed, err := ParseChoice(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseChoice parses the canonical, case-sensitive name of a choice.
func ParseChoice(s string) (Choice, error) {
	c := Choice(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidChoice, s)
	}
	return c, nil
}

// ParseChoiceLoose parses human input: names in any case plus the
// shorthands r, p and s.
func ParseChoiceLoose(s string) (Choice, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rock", "r":
		return Rock, nil
	case "paper", "p":
		return Paper, nil
	case "scissors", "s":
		return Scissors, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidChoice, s)
}

// Valid reports whether o is one of Win, Lose or Draw.
func (o Outcome) Valid() bool {
	switch o {
	case Win, Lose, Draw:
		return true
	}
	return false
}

func (o Outcome) String() string {
	return string(o)
}

// Message returns the text shown to a player for this outcome.
func (o Outcome) Message() string {
	switch o {
	case Win:
		return "You win!"
	case Lose:
		return "You lose!"
	case Draw:
		return "It's a draw!"
	}
	return ""
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOutcome, string(o))
	}
	return []byte(o), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Outcome) UnmarshalText(text []byte) error {
	parsed := Outcome(text)
	if !parsed.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidOutcome, string(text))
	}
	*o = parsed
	return nil
}
