package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/setgame/internal/config"
)

// Globals are the flags shared by every command. They override the
// configuration file.
type Globals struct {
	Config    string        `short:"c" default:"setgame.hcl" help:"Configuration file (defaults apply if missing)"`
	Seed      *int64        `help:"Deterministic RNG seed (optional)"`
	LogLevel  string        `help:"Log level: debug, info, warn, error"`
	Bots      *int          `help:"Replace the configured bots with this many"`
	Timeout   time.Duration `help:"Turn timeout, e.g. 30s"`
	ShowHints bool          `name:"hints" help:"Log the sets on the table after every deal"`
}

// load reads the configuration file and applies the flag overrides.
func (g *Globals) load() (*config.Config, config.Game, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, config.Game{}, err
	}

	if g.LogLevel != "" {
		cfg.LogLevel = g.LogLevel
	}
	if g.Seed != nil {
		cfg.Seed = g.Seed
	}
	if g.Bots != nil {
		cfg.Players = withBots(cfg.Players, *g.Bots)
	}
	if g.Timeout > 0 {
		cfg.Game.TurnTimeout = g.Timeout.String()
		// Keep the warning inside the shorter round.
		if warning, err := time.ParseDuration(cfg.Game.TurnTimeoutWarning); err == nil && warning > g.Timeout {
			cfg.Game.TurnTimeoutWarning = g.Timeout.String()
		}
	}
	if g.ShowHints {
		cfg.Game.Hints = true
	}

	settings, err := cfg.ResolveGame()
	if err != nil {
		return nil, config.Game{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, settings, nil
}

// withBots keeps the human players and appends n bots.
func withBots(players []config.PlayerConfig, n int) []config.PlayerConfig {
	out := make([]config.PlayerConfig, 0, len(players)+n)
	for _, p := range players {
		if p.Human {
			out = append(out, p)
		}
	}
	for i := 1; i <= n; i++ {
		out = append(out, config.PlayerConfig{Name: fmt.Sprintf("Bot %d", i)})
	}
	return out
}

// resolveSeed returns the configured seed or a fresh one.
func resolveSeed(cfg *config.Config) int64 {
	if cfg.Seed != nil {
		return *cfg.Seed
	}
	return time.Now().UnixNano()
}

// newLogger builds the process logger writing to w.
func newLogger(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           lvl,
	}), nil
}

// signalContext returns a context that is cancelled on interrupt signals.
func signalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Received signal, shutting down gracefully", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
