package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"slices"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/lox/setgame/internal/cards"
	"github.com/lox/setgame/internal/config"
	"github.com/lox/setgame/internal/game"
	"github.com/lox/setgame/internal/gameid"
	"github.com/lox/setgame/internal/randutil"
	"github.com/lox/setgame/internal/spectate"
	"github.com/lox/setgame/internal/tui"
	"github.com/lox/setgame/internal/ui"
)

const defaultLogFile = "setgame.log"

type PlayCmd struct {
	Spectate string `help:"Serve read-only spectators over WebSocket on this address, e.g. :8080"`
}

func (c *PlayCmd) Run(g *Globals) error {
	cfg, settings, err := g.load()
	if err != nil {
		return err
	}

	// The terminal belongs to the board, so logs go to a file.
	logPath := cfg.LogFile
	if logPath == "" {
		logPath = defaultLogFile
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() {
		_ = logFile.Close()
	}()

	logger, err := newLogger(logFile, cfg.LogLevel)
	if err != nil {
		return err
	}

	seed := resolveSeed(cfg)
	id := gameid.New(time.Now(), randutil.New(seed))
	logger = logger.With("game_id", id)

	ctx, cancel := signalContext(logger)
	defer cancel()

	names := cfg.Names()
	var dealer *game.Dealer
	model := tui.NewModel(tui.Config{
		Layout:      cards.Layout{FeatureSize: settings.FeatureSize, FeatureCount: settings.FeatureCount},
		Rows:        settings.Rows,
		Columns:     settings.Columns,
		Names:       names,
		Keys:        humanKeys(cfg.Players),
		TurnTimeout: settings.TurnTimeout,
		Press: func(player, slot int) {
			dealer.KeyPressed(player, slot)
		},
		Quit: cancel,
	}, logger)
	program := tea.NewProgram(model, tea.WithAltScreen())
	board := tui.NewBoard(program)

	sinks := []ui.Sink{board, ui.NewLogSink(logger, names)}

	var hub *spectate.Hub
	var ln net.Listener
	if c.Spectate != "" {
		ln, err = net.Listen("tcp", c.Spectate)
		if err != nil {
			return fmt.Errorf("failed to listen for spectators: %w", err)
		}
		hub = spectate.NewHub(id, names, settings.TableSize, logger)
		sinks = append(sinks, hub)
	}

	dealer = game.NewDealer(settings, cfg.Players,
		game.WithSeed(seed),
		game.WithLogger(logger),
		game.WithSink(ui.NewMulti(sinks...)),
	)

	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		defer board.Quit()
		return dealer.Run(gctx)
	})
	eg.Go(func() error {
		defer cancel()
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("terminal UI: %w", err)
		}
		return nil
	})
	if hub != nil {
		eg.Go(func() error {
			return hub.Serve(gctx, ln)
		})
	}

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	printResult(os.Stdout, names, dealer.Scores())
	return nil
}

func printResult(w io.Writer, names []string, scores []int) {
	winners := game.Winners(scores)
	for i, name := range names {
		marker := " "
		if slices.Contains(winners, i) {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %-12s %d\n", marker, name, scores[i])
	}
}

// humanKeys returns each player's key row, empty for bots.
func humanKeys(players []config.PlayerConfig) []string {
	keys := make([]string, len(players))
	for i, p := range players {
		if p.Human {
			keys[i] = p.Keys
		}
	}
	return keys
}
