// Command rps runs the Rock Paper Scissors WebSocket server.
//
// It supports four commands:
//  1. "serve" (default) – runs the WebSocket game server and the /api diagnostics
//  2. "play" – plays from the terminal against a running server
//  3. "mcp" – runs an MCP stdio server and spins up an internal game server if none is available
//  4. "simulate" – plays random turns locally and prints the tally
//
// Settings come from RPS_* environment variables (optionally via a .env
// file); flags given on the command line take precedence. "serve --ngrok"
// additionally exposes the server through an ngrok tunnel.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/rockpaperscissors/api"
	"github.com/wricardo/mcp-training/rockpaperscissors/config"
	"github.com/wricardo/mcp-training/rockpaperscissors/game/engine"
	"github.com/wricardo/mcp-training/rockpaperscissors/game/session"
	"github.com/wricardo/mcp-training/rockpaperscissors/logging"
	"github.com/wricardo/mcp-training/rockpaperscissors/transport/mcp"
	"github.com/wricardo/mcp-training/rockpaperscissors/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Rock Paper Scissors Server"
)

const defaultGameURL = "ws://127.0.0.1:6767/"

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdin, os.Stdout).Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(in io.Reader, out io.Writer) *cli.Command {
	return &cli.Command{
		Name:           "rps",
		Usage:          AppName,
		Version:        Version,
		DefaultCommand: "serve",
		Reader:         in,
		Writer:         out,
		Commands: []*cli.Command{
			serveCommand(),
			playCommand(),
			mcpCommand(),
			simulateCommand(),
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the WebSocket game server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "IP address to bind (RPS_HOST, default 127.0.0.1)"},
			&cli.IntFlag{Name: "port", Usage: "TCP port (RPS_PORT, default 6767)"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error (RPS_LOG_LEVEL)"},
			&cli.BoolFlag{Name: "debug", Usage: "Human-readable logs (RPS_DEBUG)"},
			&cli.StringSliceFlag{Name: "allowed-origin", Usage: "Browser origin allowed to connect; repeatable (RPS_ALLOWED_ORIGINS)"},
			&cli.BoolFlag{Name: "ngrok", Usage: "Also serve through an ngrok tunnel (NGROK_ENABLED)"},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token (NGROK_AUTHTOKEN or NGROK_AUTH_TOKEN)"},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (NGROK_DOMAIN)"},
		},
		Action: runServe,
	}
}

// loadConfig reads the environment and applies flags set on the command line.
func loadConfig(cmd *cli.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = cmd.Int("port")
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}
	if cmd.IsSet("debug") {
		cfg.Debug = cmd.Bool("debug")
	}
	if cmd.IsSet("allowed-origin") {
		cfg.AllowedOrigins = cmd.StringSlice("allowed-origin")
	}
	if cmd.IsSet("ngrok") {
		cfg.Ngrok.Enabled = cmd.Bool("ngrok")
	}
	if cmd.IsSet("ngrok-auth") {
		cfg.Ngrok.AuthToken = cmd.String("ngrok-auth")
	}
	if cmd.IsSet("ngrok-domain") {
		cfg.Ngrok.Domain = cmd.String("ngrok-domain")
	}
	return cfg, nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Debug: cfg.Debug})
	if err != nil {
		return err
	}
	defer logger.Sync()

	addr, err := cfg.Address()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ln, err := websocket.Listen(addr.String())
	if err != nil {
		return err
	}

	return serve(ctx, ln, cfg, logger)
}

// serve runs the game server on ln, and through an ngrok tunnel when
// enabled, until ctx is cancelled.
func serve(ctx context.Context, ln net.Listener, cfg config.Config, logger *zap.Logger) error {
	ws := websocket.NewServer(
		websocket.WithLogger(logger),
		websocket.WithAllowedOrigins(cfg.AllowedOrigins),
	)
	handler := api.NewServer(ws, logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if cfg.Ngrok.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveTunnel(ctx, cfg.Ngrok, handler, logger.Named("ngrok"))
		}()
	}

	addr := ln.Addr().String()
	logger.Info("server listening",
		zap.String("app", AppName),
		zap.String("version", Version),
		zap.String("websocket", "ws://"+addr+"/"),
		zap.String("api", "http://"+addr+"/api"),
	)

	err := websocket.Serve(ctx, ln, handler, logger)
	cancel()
	wg.Wait()
	logger.Info("server stopped")
	return err
}

func playCommand() *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "Play against a running server from the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: defaultGameURL, Usage: "Game server WebSocket URL"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, err := websocket.Dial(ctx, cmd.String("url"))
			if err != nil {
				return err
			}
			defer client.Close()

			root := cmd.Root()
			return play(client, root.Reader, root.Writer)
		},
	}
}

// play reads one choice per line from in until EOF or "quit".
func play(client *websocket.Client, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, client.Greeting())
	fmt.Fprintln(out, "Enter rock, paper or scissors (r/p/s). Type quit to leave.")

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "q", "quit", "exit":
			return nil
		}

		choice, err := engine.ParseChoiceLoose(line)
		if err != nil {
			fmt.Fprintf(out, "%v\n", err)
			continue
		}

		result, err := client.Play(choice)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %s Score: %d\n", result.TurnResult, result.TurnResult.Message(), result.Game.Score)
	}
	return scanner.Err()
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run an MCP stdio server that plays on a game server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: defaultGameURL, Usage: "Game server WebSocket URL"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error (RPS_LOG_LEVEL)"},
		},
		Action: runMCP,
	}
}

// runMCP reuses the server at --url if it answers; otherwise it starts an
// internal game server on a random loopback port and targets that.
func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Stdout carries the MCP protocol, so logs always go to stderr.
	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Debug: cfg.Debug})
	if err != nil {
		return err
	}
	defer logger.Sync()

	gameURL := cmd.String("url")
	if !serverAvailable(ctx, gameURL) {
		logger.Info("no game server found, starting internal server", zap.String("url", gameURL))

		ln, err := websocket.Listen("127.0.0.1:0")
		if err != nil {
			return err
		}

		internalCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := serve(internalCtx, ln, config.Config{}, logger.Named("internal")); err != nil {
				logger.Error("internal server", zap.Error(err))
			}
		}()

		gameURL = "ws://" + ln.Addr().String() + "/"
	}

	client, err := mcp.NewClient(gameURL, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	logger.Info("MCP stdio server ready", zap.String("url", gameURL))
	return server.ServeStdio(client.GetMCPServer())
}

// serverAvailable reports whether the game server behind gameURL answers
// its health check.
func serverAvailable(ctx context.Context, gameURL string) bool {
	u, err := url.Parse(gameURL)
	if err != nil || u.Host == "" {
		return false
	}
	scheme := "http"
	if u.Scheme == "wss" {
		scheme = "https"
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, scheme+"://"+u.Host+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func simulateCommand() *cli.Command {
	return &cli.Command{
		Name:  "simulate",
		Usage: "Play random turns locally and print the tally",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "turns", Value: 100, Usage: "Number of turns to play"},
			&cli.Int64Flag{Name: "seed", Usage: "Seed for reproducible runs (random when unset)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			turns := cmd.Int("turns")
			if turns < 1 {
				return errors.New("turns must be at least 1")
			}

			var player, opponent engine.ChoiceSource
			if cmd.IsSet("seed") {
				seed := uint64(cmd.Int64("seed"))
				player = engine.NewSeededRandomSource(seed)
				opponent = engine.NewSeededRandomSource(seed + 1)
			} else {
				player = engine.NewRandomSource()
				opponent = engine.NewRandomSource()
			}

			result := simulate(turns, player, opponent)
			printSimulation(cmd.Root().Writer, result)
			return nil
		},
	}
}

type simulation struct {
	Turns    int
	Outcomes map[engine.Outcome]int
	Score    uint32
}

// simulate plays turns in a fresh session with the player's choices drawn
// from player.
func simulate(turns int, player, opponent engine.ChoiceSource) simulation {
	s := session.New(opponent)
	result := simulation{Turns: turns, Outcomes: make(map[engine.Outcome]int, len(engine.Outcomes))}
	for i := 0; i < turns; i++ {
		result.Outcomes[s.PlayTurn(player.NextChoice())]++
	}
	result.Score = s.Score()
	return result
}

func printSimulation(out io.Writer, result simulation) {
	fmt.Fprintf(out, "Turns: %d\n", result.Turns)
	for _, outcome := range engine.Outcomes {
		fmt.Fprintf(out, "%-5s %d\n", outcome.String()+":", result.Outcomes[outcome])
	}
	fmt.Fprintf(out, "Score: %d\n", result.Score)
}
