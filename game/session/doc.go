// Package session provides the per-connection game state for Rock Paper
// Scissors.
//
// A Session is created when a connection is accepted, starts with a score of
// zero and is discarded when the connection closes. There is no session
// registry: each connection handler owns exactly one Session and nothing
// else holds a reference to it.
//
// Scoring:
//
//   - Win adds WinScore (3), saturating at the maximum uint32
//   - Lose subtracts LoseScore (1), never going below zero
//   - Draw leaves the score unchanged
//
// Concurrency:
//
// A Session is not safe for concurrent use. Turns are applied one at a time
// by the goroutine that owns the connection, so no locking is needed.
//
// Usage:
//
//	sess := session.New(engine.NewRandomSource())
//	outcome := sess.PlayTurn(engine.Rock)
//	snapshot := sess.Snapshot()
package session
