// Package api provides the HTTP surface of the Rock Paper Scissors server.
//
// The api package implements:
//   - Routing of WebSocket upgrades to the game server
//   - Read-only diagnostics endpoints
//
// Endpoints:
//
// Game:
//   - GET / (with Upgrade: websocket) - Play over a WebSocket
//   - GET /ws - Play over a WebSocket
//
// Diagnostics:
//   - GET /api - Describe the service
//   - GET /api/health - Liveness check
//   - GET /api/stats - Connection and turn counters
//   - GET /api/rules - Rule table and scoring
//
// Responses from /api are JSON. None of the endpoints can read or change
// the state of a game; each game belongs to its WebSocket connection.
package api
