// Command bruteforcer plays games against a running server until one of
// them reaches a target score. Every attempt opens its own connection and
// therefore its own session; attempts run in parallel.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/rockpaperscissors/logging"
	"github.com/wricardo/mcp-training/rockpaperscissors/transport/websocket"
)

var errTargetNotReached = errors.New("target score not reached")

type options struct {
	URL         string
	Strategy    string
	Target      uint32
	MaxTurns    int
	MaxAttempts int
	Parallel    int
	Delay       time.Duration
	Seed        uint64
}

type attemptResult struct {
	Attempt int
	Turns   int
	Score   uint32
	Reached bool
	Err     error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:  "bruteforcer",
		Usage: "Play games until one reaches the target score",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "ws://127.0.0.1:6767/", Usage: "Game server WebSocket URL"},
			&cli.StringFlag{Name: "strategy", Value: "random", Usage: fmt.Sprintf("Choice strategy %v", strategyNames())},
			&cli.IntFlag{Name: "target", Value: 30, Usage: "Score that ends the run"},
			&cli.IntFlag{Name: "max-turns", Value: 100, Usage: "Maximum turns per attempt"},
			&cli.IntFlag{Name: "max-attempts", Value: 20, Usage: "Maximum attempts before giving up"},
			&cli.IntFlag{Name: "parallel", Value: 4, Usage: "Attempts played at the same time"},
			&cli.DurationFlag{Name: "delay", Usage: "Delay between turns"},
			&cli.Int64Flag{Name: "seed", Value: time.Now().UnixNano(), Usage: "Seed for the random strategy"},
			&cli.BoolFlag{Name: "v", Usage: "Verbose output"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			level := "info"
			if cmd.Bool("v") {
				level = "debug"
			}
			logger, err := logging.New(logging.Options{Level: level, Debug: true})
			if err != nil {
				return err
			}
			defer logger.Sync()

			opts := options{
				URL:         cmd.String("url"),
				Strategy:    cmd.String("strategy"),
				Target:      uint32(max(cmd.Int("target"), 0)),
				MaxTurns:    cmd.Int("max-turns"),
				MaxAttempts: cmd.Int("max-attempts"),
				Parallel:    cmd.Int("parallel"),
				Delay:       cmd.Duration("delay"),
				Seed:        uint64(cmd.Int64("seed")),
			}

			results, err := run(ctx, opts, logger)
			if err != nil {
				return err
			}
			return summarize(cmd.Root().Writer, results)
		},
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (o options) validate() error {
	if _, err := newStrategy(o.Strategy, 0); err != nil {
		return err
	}
	if o.MaxTurns < 1 || o.MaxAttempts < 1 || o.Parallel < 1 {
		return errors.New("max-turns, max-attempts and parallel must be at least 1")
	}
	return nil
}

// run plays attempts on a pool of workers and stops handing out new ones as
// soon as an attempt reaches the target.
func run(ctx context.Context, opts options, logger *zap.Logger) ([]attemptResult, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	results := make(chan attemptResult)

	var wg sync.WaitGroup
	for i := 0; i < min(opts.Parallel, opts.MaxAttempts); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for attempt := range jobs {
				results <- playAttempt(ctx, opts, attempt, logger)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
			select {
			case jobs <- attempt:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var out []attemptResult
	for result := range results {
		if result.Err != nil && ctx.Err() != nil {
			// Interrupted after another attempt reached the target.
			continue
		}
		out = append(out, result)
		if result.Reached {
			cancel()
		}
	}
	return out, nil
}

func playAttempt(ctx context.Context, opts options, attempt int, logger *zap.Logger) attemptResult {
	result := attemptResult{Attempt: attempt}
	log := logger.With(zap.Int("attempt", attempt))

	client, err := websocket.Dial(ctx, opts.URL)
	if err != nil {
		result.Err = err
		return result
	}
	defer client.Close()

	source, err := newStrategy(opts.Strategy, opts.Seed+uint64(attempt))
	if err != nil {
		result.Err = err
		return result
	}

	for result.Turns < opts.MaxTurns {
		if ctx.Err() != nil {
			break
		}

		turn, err := client.Play(source.NextChoice())
		if err != nil {
			result.Err = err
			return result
		}
		result.Turns++
		result.Score = turn.Game.Score

		if result.Turns%25 == 0 {
			log.Debug("progress", zap.Int("turns", result.Turns), zap.Uint32("score", result.Score))
		}
		if result.Score >= opts.Target {
			result.Reached = true
			break
		}

		if opts.Delay > 0 {
			time.Sleep(opts.Delay)
		}
	}

	log.Info("attempt finished",
		zap.Int("turns", result.Turns),
		zap.Uint32("score", result.Score),
		zap.Bool("reached", result.Reached),
	)
	return result
}

// summarize prints one line per attempt and returns errTargetNotReached
// when no attempt got there.
func summarize(out io.Writer, results []attemptResult) error {
	var best *attemptResult
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			fmt.Fprintf(out, "Attempt %d: error: %v\n", r.Attempt, r.Err)
			continue
		}
		fmt.Fprintf(out, "Attempt %d: Turns=%d, Score=%d\n", r.Attempt, r.Turns, r.Score)
		if r.Reached && (best == nil || r.Turns < best.Turns) {
			best = r
		}
	}

	if best == nil {
		fmt.Fprintf(out, "Failed to reach the target after %d attempts\n", len(results))
		return errTargetNotReached
	}
	fmt.Fprintf(out, "Target reached in attempt %d with %d turns\n", best.Attempt, best.Turns)
	return nil
}
