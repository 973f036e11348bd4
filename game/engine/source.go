package engine

import (
	"math/rand/v2"
	"sync"
)

// ChoiceSource supplies the opponent's choice for each turn.
type ChoiceSource interface {
	NextChoice() Choice
}

// ChoiceSourceFunc adapts a function to ChoiceSource.
type ChoiceSourceFunc func() Choice

// NextChoice calls f.
func (f ChoiceSourceFunc) NextChoice() Choice {
	return f()
}

// RandomSource picks uniformly among the three choices. It is meant for
// gameplay only and is not cryptographically secure.
type RandomSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSource returns a source backed by the runtime's random generator.
func NewRandomSource() *RandomSource {
	return &RandomSource{}
}

// NewSeededRandomSource returns a reproducible source for simulations.
func NewSeededRandomSource(seed uint64) *RandomSource {
	return &RandomSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NextChoice returns the next random choice.
func (s *RandomSource) NextChoice() Choice {
	if s.rng == nil {
		return Choices[rand.IntN(len(Choices))]
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return Choices[s.rng.IntN(len(Choices))]
}

// SequenceSource replays a fixed list of choices, wrapping around at the end.
type SequenceSource struct {
	mu      sync.Mutex
	choices []Choice
	next    int
}

// NewSequenceSource returns a source cycling through choices. It panics if
// no choices are given.
func NewSequenceSource(choices ...Choice) *SequenceSource {
	if len(choices) == 0 {
		panic("engine: NewSequenceSource needs at least one choice")
	}
	return &SequenceSource{choices: append([]Choice(nil), choices...)}
}

// NextChoice returns the next choice in the sequence.
func (s *SequenceSource) NextChoice() Choice {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.choices[s.next]
	s.next = (s.next + 1) % len(s.choices)
	return c
}
