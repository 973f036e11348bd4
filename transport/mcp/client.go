package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/rockpaperscissors/game/engine"
	"github.com/wricardo/mcp-training/rockpaperscissors/transport/websocket"
)

// Time allowed to open the game connection.
const dialTimeout = 10 * time.Second

// Client is a thin MCP server that plays on behalf of an AI agent. It holds
// one game connection, so the agent plays a single session until it asks
// for a new game.
type Client struct {
	gameURL    string
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
	log        *zap.Logger

	mu    sync.Mutex
	game  *websocket.Client
	turns int
	last  *websocket.ResultResponse
}

// NewClient creates a new MCP client that plays against the game server at
// gameURL (ws:// or wss://).
func NewClient(gameURL string, logger *zap.Logger) (*Client, error) {
	baseURL, err := httpBaseURL(gameURL)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		gameURL: gameURL,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: logger,
	}

	c.initMCPServer()
	return c, nil
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Rock Paper Scissors",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Rock Paper Scissors - MCP Interface

This is a thin client that plays over one WebSocket game connection.

GAME OBJECTIVE:
Pick Rock, Paper or Scissors each turn. The server picks at random.
A win adds 3 points, a loss removes 1, a draw changes nothing. The score never goes below 0.

AVAILABLE TOOLS:
- play_turn: Play one turn with your choice - requires intent explanation
- current_score: Score and turn count of the current game
- game_rules: Rule table and scoring
- new_game: Drop the current game and start again at score 0

NOTE: The 'intent' parameter on play_turn serves as rubber duck debugging - explain your reasoning!`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.NewTool("play_turn",
		mcp.WithDescription("Play one turn against the server"),
		mcp.WithString("choice",
			mcp.Required(),
			mcp.Description("Your choice for this turn"),
			mcp.Enum(string(engine.Rock), string(engine.Paper), string(engine.Scissors)),
		),
		mcp.WithString("intent",
			mcp.Description("Brief explanation of why you picked this choice"),
		),
	), c.handlePlayTurn)

	c.mcpServer.AddTool(mcp.NewTool("current_score",
		mcp.WithDescription("Get the score and number of turns played in the current game"),
	), c.handleCurrentScore)

	c.mcpServer.AddTool(mcp.NewTool("game_rules",
		mcp.WithDescription("Get the rule table and scoring from the server"),
	), c.handleGameRules)

	c.mcpServer.AddTool(mcp.NewTool("new_game",
		mcp.WithDescription("Close the current game connection and start a fresh game at score 0"),
	), c.handleNewGame)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Close releases the game connection, if one is open.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resetLocked()
}

func (c *Client) resetLocked() error {
	c.turns = 0
	c.last = nil
	if c.game == nil {
		return nil
	}
	err := c.game.Close()
	c.game = nil
	return err
}

// connectLocked opens the game connection on first use.
func (c *Client) connectLocked(ctx context.Context) (*websocket.Client, error) {
	if c.game != nil {
		return c.game, nil
	}

	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	game, err := websocket.Dial(ctx, c.gameURL)
	if err != nil {
		return nil, err
	}
	c.log.Info("game connection opened", zap.String("url", c.gameURL), zap.String("greeting", game.Greeting()))
	c.game = game
	return game, nil
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

// Tool handlers

func (c *Client) handlePlayTurn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("choice")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	choice, err := engine.ParseChoiceLoose(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Intent parameter serves as rubber duck debugging - we don't need to process it further
	intent := request.GetString("intent", "")

	c.mu.Lock()
	defer c.mu.Unlock()

	game, err := c.connectLocked(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := game.Play(choice)
	if err != nil {
		var serverErr *websocket.ServerError
		if !errors.As(err, &serverErr) {
			// The connection is unusable; the next turn starts a new game.
			if closeErr := c.resetLocked(); closeErr != nil {
				c.log.Debug("close game connection", zap.Error(closeErr))
			}
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	c.turns++
	c.last = &result
	c.log.Debug("turn played",
		zap.Stringer("choice", choice),
		zap.Stringer("outcome", result.TurnResult),
		zap.String("intent", intent),
	)

	return mcp.NewToolResultText(formatTurn(choice, result, c.turns)), nil
}

func (c *Client) handleCurrentScore(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.last == nil {
		return mcp.NewToolResultText("No turns played yet.\nScore: 0"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Turns played: %d\nScore: %d", c.turns, c.last.Game.Score)), nil
}

func (c *Client) handleGameRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var rules struct {
		Rules   []engine.Rule    `json:"rules"`
		Scoring map[string]int64 `json:"scoring"`
	}
	if err := c.apiCall(ctx, "/api/rules", &rules); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatRules(rules.Rules, rules.Scoring)), nil
}

func (c *Client) handleNewGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.resetLocked(); err != nil {
		c.log.Debug("close game connection", zap.Error(err))
	}
	if _, err := c.connectLocked(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("New game started.\nScore: 0"), nil
}

func formatTurn(choice engine.Choice, result websocket.ResultResponse, turn int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Turn %d: you played %s\n", turn, choice)
	fmt.Fprintf(&b, "Result: %s - %s\n", result.TurnResult, result.TurnResult.Message())
	fmt.Fprintf(&b, "Score: %d", result.Game.Score)
	return b.String()
}

func formatRules(rules []engine.Rule, scoring map[string]int64) string {
	var b strings.Builder
	b.WriteString("RULES (player vs server):\n")
	for _, rule := range rules {
		fmt.Fprintf(&b, "- %s vs %s: %s\n", rule.Player, rule.Opponent, rule.Outcome)
	}
	b.WriteString("\nSCORING:\n")
	fmt.Fprintf(&b, "- Win: %+d\n", scoring["win"])
	fmt.Fprintf(&b, "- Lose: %+d\n", scoring["lose"])
	fmt.Fprintf(&b, "- Draw: %+d\n", scoring["draw"])
	fmt.Fprintf(&b, "- Score never drops below %d", scoring["floor"])
	return b.String()
}

// httpBaseURL maps a game URL onto the HTTP origin serving /api.
func httpBaseURL(gameURL string) (string, error) {
	u, err := url.Parse(gameURL)
	if err != nil {
		return "", fmt.Errorf("parse game url: %w", err)
	}

	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	default:
		return "", fmt.Errorf("game url %q: scheme must be ws or wss", gameURL)
	}
	if u.Host == "" {
		return "", fmt.Errorf("game url %q: missing host", gameURL)
	}

	return u.Scheme + "://" + u.Host, nil
}
