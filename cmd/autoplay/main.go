// Command autoplay plays memory games against a running server through the
// REST API, using a perfect-recall strategy. It is handy for smoke testing a
// deployment and for checking that a difficulty is winnable in practice.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/memorygame/game/engine"
	"github.com/wricardo/mcp-training/memorygame/game/service"
	"github.com/wricardo/mcp-training/memorygame/logging"
)

// gameAPI is the subset of the REST client the play loop needs
type gameAPI interface {
	GetState(ctx context.Context) (*engine.GameState, error)
	Flip(ctx context.Context, cardID string) (*service.FlipResult, error)
	Restart(ctx context.Context) (*engine.GameState, error)
}

// GameReport summarizes one finished game
type GameReport struct {
	Outcome    engine.Outcome
	LossReason engine.LossReason
	Flips      int
	Ignored    int
	TurnsLeft  int
	TimeLeft   int
	Pairs      int
}

// play restarts the session and flips cards until the game ends or maxFlips
// is reached. While a comparison is showing it polls the state every poll.
func play(ctx context.Context, api gameAPI, strategy *MemoryStrategy, maxFlips int, poll time.Duration, logger *zap.Logger) (GameReport, error) {
	var report GameReport

	state, err := api.Restart(ctx)
	if err != nil {
		return report, err
	}
	strategy.Reset()

	for !state.Outcome.Terminal() && report.Flips < maxFlips {
		strategy.Observe(state)

		cardID := strategy.Next(state)
		if cardID == "" {
			if !state.Comparing {
				return report, errors.New("no card available to flip")
			}
			select {
			case <-ctx.Done():
				return report, ctx.Err()
			case <-time.After(poll):
			}
			if state, err = api.GetState(ctx); err != nil {
				return report, err
			}
			continue
		}

		result, err := api.Flip(ctx, cardID)
		if err != nil {
			return report, err
		}
		report.Flips++
		if !result.Accepted {
			report.Ignored++
			logger.Debug("flip ignored", zap.String("card_id", cardID), zap.String("reason", result.Reason))
		}
		state = result.GameState
	}

	report.Outcome = state.Outcome
	report.LossReason = state.LossReason
	report.TurnsLeft = state.TurnsLeft
	report.TimeLeft = state.TimeLeft
	report.Pairs = state.MatchedPairs
	if !state.Outcome.Terminal() {
		return report, fmt.Errorf("gave up after %d flips", report.Flips)
	}
	return report, nil
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "autoplay",
		Usage: "Play memory games against a running server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Value:   "http://localhost:8080",
				Usage:   "Game server URL",
				Sources: cli.EnvVars("MEMORY_SERVER_URL"),
			},
			&cli.StringFlag{
				Name:  "difficulty",
				Usage: "Difficulty for a new session (server default when empty)",
			},
			&cli.StringFlag{
				Name:  "continue",
				Usage: "Resume playing an existing session by ID",
			},
			&cli.StringFlag{
				Name:  "session-file",
				Value: ".session",
				Usage: "File remembering the session between runs (empty disables it)",
			},
			&cli.IntFlag{
				Name:  "games",
				Value: 10,
				Usage: "Maximum games to play before giving up",
			},
			&cli.IntFlag{
				Name:  "max-flips",
				Value: 500,
				Usage: "Maximum flips per game",
			},
			&cli.DurationFlag{
				Name:  "poll",
				Value: 100 * time.Millisecond,
				Usage: "Delay between state polls while a comparison is showing",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	logger, err := logging.New(cmd.Bool("debug"))
	if err != nil {
		return err
	}
	defer logger.Sync()

	client := NewClient(cmd.String("url"))
	logger.Info("connecting to game server", zap.String("url", cmd.String("url")))

	state, err := openSession(ctx, client, cmd, logger)
	if err != nil {
		return err
	}
	logger.Info("playing",
		zap.String("session_id", client.SessionID()),
		zap.String("difficulty", state.Difficulty),
		zap.Int("pairs", state.TotalPairs),
		zap.Int("turn_budget", state.TurnBudget),
		zap.Int("time_budget", state.TimeBudget))

	strategy := NewMemoryStrategy()
	games := int(cmd.Int("games"))
	for game := 1; game <= games; game++ {
		report, err := play(ctx, client, strategy, int(cmd.Int("max-flips")), cmd.Duration("poll"), logger)
		if err != nil {
			return fmt.Errorf("game %d: %w", game, err)
		}

		logger.Info("game finished",
			zap.Int("game", game),
			zap.String("outcome", string(report.Outcome)),
			zap.String("loss_reason", string(report.LossReason)),
			zap.Int("flips", report.Flips),
			zap.Int("ignored", report.Ignored),
			zap.Int("pairs", report.Pairs),
			zap.Int("turns_left", report.TurnsLeft),
			zap.Int("time_left", report.TimeLeft))

		if report.Outcome == engine.Won {
			fmt.Printf("🎉 Won game %d in %d flips (session %s)\n", game, report.Flips, client.SessionID())
			return nil
		}
	}

	fmt.Printf("❌ Failed to win after %d games (session %s)\n", games, client.SessionID())
	return cli.Exit("", 1)
}

// openSession resumes the requested or remembered session, creating a new one
// when there is none or it has expired
func openSession(ctx context.Context, client *Client, cmd *cli.Command, logger *zap.Logger) (*engine.GameState, error) {
	sessionFile := cmd.String("session-file")

	sessionID := cmd.String("continue")
	if sessionID == "" && sessionFile != "" {
		if data, err := os.ReadFile(sessionFile); err == nil {
			sessionID = string(bytes.TrimSpace(data))
		}
	}

	if sessionID != "" {
		state, err := client.UseSession(ctx, sessionID)
		if err == nil {
			logger.Info("resumed session", zap.String("session_id", client.SessionID()))
			return state, nil
		}
		logger.Warn("failed to resume session, creating a new one", zap.String("session_id", sessionID), zap.Error(err))
	}

	state, err := client.CreateSession(ctx, cmd.String("difficulty"))
	if err != nil {
		return nil, err
	}
	logger.Info("session created", zap.String("session_id", client.SessionID()))

	if sessionFile != "" {
		if err := os.WriteFile(sessionFile, []byte(client.SessionID()), 0644); err != nil {
			logger.Warn("failed to save session id", zap.String("file", sessionFile), zap.Error(err))
		}
	}
	return state, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		if msg := err.Error(); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(1)
	}
}
