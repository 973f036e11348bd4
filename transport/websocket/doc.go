// Package websocket provides the WebSocket transport for the Rock Paper
// Scissors server.
//
// The websocket package implements:
//   - The wire protocol (externally tagged JSON frames)
//   - A per-connection Handler driving one game session
//   - The acceptor that upgrades HTTP requests and serves each connection
//   - A Client used by the CLI and the MCP bridge
//
// Message Protocol:
//
// Every frame is a text frame holding a JSON object with a single tag:
//   - Greeting:  Hi!  (plain text, sent once on connect)
//   - Incoming:  {"Payload":"Rock"}
//   - Outgoing:  {"Result":{"turn_result":"Win","game":{"score":3}}}
//   - Rejected:  {"Error":"InvalidRequest"}
//
// A rejected frame does not close the connection. Binary frames are ignored.
//
// Session Isolation:
//
// Each connection owns its own session. Nothing about a game is shared
// between connections; Stats only counts activity.
//
// Usage:
//
//	ws := websocket.NewServer(websocket.WithLogger(logger))
//	ln, err := websocket.Listen("127.0.0.1:6767")
//	if err != nil {
//		return err
//	}
//	return websocket.Serve(ctx, ln, ws, logger)
//
// Connection Lifecycle:
//
// 1. Client completes the upgrade handshake
// 2. Server sends the greeting and a fresh session starts at score 0
// 3. Each text frame is answered before the next one is read
// 4. A transport error or close frame ends the session
package websocket
