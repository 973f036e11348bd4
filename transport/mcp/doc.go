// Package mcp provides a Model Context Protocol server that lets an AI agent
// play Rock Paper Scissors.
//
// The mcp package implements:
//   - MCP server for AI agent integration
//   - Tool definitions for playing turns and reading the rules
//   - A single game connection per agent, opened on the first turn
//
// MCP Tools:
//
// The package exposes the following tools for AI agents:
//   - play_turn: Play one turn with Rock, Paper or Scissors
//   - current_score: Score and turn count of the current game
//   - game_rules: Rule table and scoring, read from /api/rules
//   - new_game: Close the connection and start again at score 0
//
// Sessions:
//
// The game server keeps one session per WebSocket connection, so the score
// lives exactly as long as the connection the Client holds. new_game and a
// failed connection both start a fresh session.
//
// Usage:
//
//	client, err := mcp.NewClient("ws://127.0.0.1:6767/", logger)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//	return server.ServeStdio(client.GetMCPServer())
package mcp
