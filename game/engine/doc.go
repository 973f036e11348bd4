// Package engine provides the core rules for Rock Paper Scissors.
//
// The engine package implements:
//   - The Choice and Outcome value types and their text encodings
//   - Turn resolution between a player choice and an opponent choice
//   - Opponent choice sources (random and deterministic)
//
// Core Types:
//
// Choice is one of Rock, Paper or Scissors. Outcome is one of Win, Lose or
// Draw and is only ever produced by Resolve. ChoiceSource is the capability a
// game session consumes to pick the opponent's move, which lets tests swap
// the random generator for a fixed sequence.
//
// Usage:
//
//	outcome := engine.Resolve(engine.Rock, engine.Scissors) // engine.Win
//
//	source := engine.NewRandomSource()
//	opponent := source.NextChoice()
//
// Game Rules:
//
// Rock beats Scissors, Paper beats Rock and Scissors beats Paper. The
// mirrored pairs lose and every remaining pair, which is exactly the three
// equal pairs, is a draw.
package engine
