package websocket

import "sync/atomic"

// Stats counts connection and turn activity across all handlers. It holds
// counters only; no game state is shared between connections.
type Stats struct {
	active   atomic.Int64
	total    atomic.Int64
	turns    atomic.Int64
	rejected atomic.Int64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	ActiveConnections int64 `json:"active_connections"`
	TotalConnections  int64 `json:"total_connections"`
	TurnsPlayed       int64 `json:"turns_played"`
	RejectedRequests  int64 `json:"rejected_requests"`
}

// NewStats creates an empty set of counters.
func NewStats() *Stats {
	return &Stats{}
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() StatsSnapshot {
	if s == nil {
		return StatsSnapshot{}
	}
	return StatsSnapshot{
		ActiveConnections: s.active.Load(),
		TotalConnections:  s.total.Load(),
		TurnsPlayed:       s.turns.Load(),
		RejectedRequests:  s.rejected.Load(),
	}
}

func (s *Stats) connectionOpened() {
	if s == nil {
		return
	}
	s.active.Add(1)
	s.total.Add(1)
}

func (s *Stats) connectionClosed() {
	if s == nil {
		return
	}
	s.active.Add(-1)
}

func (s *Stats) turnPlayed() {
	if s == nil {
		return
	}
	s.turns.Add(1)
}

func (s *Stats) requestRejected() {
	if s == nil {
		return
	}
	s.rejected.Add(1)
}
