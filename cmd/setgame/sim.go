package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lox/setgame/internal/config"
	"github.com/lox/setgame/internal/fileutil"
	"github.com/lox/setgame/internal/game"
	"github.com/lox/setgame/internal/gameid"
	"github.com/lox/setgame/internal/randutil"
	"github.com/lox/setgame/internal/statistics"
	"github.com/lox/setgame/internal/ui"
)

type SimCmd struct {
	Games    int    `short:"n" default:"1" help:"Number of games to play"`
	Parallel int    `short:"p" default:"4" help:"Games to run at once"`
	Out      string `short:"o" help:"Write a JSON report to this file"`
}

type simResult struct {
	id       string
	seed     int64
	scores   []int
	duration time.Duration
}

type simReport struct {
	Games []gameReport `json:"games"`
	Seats []seatReport `json:"seats"`
}

type gameReport struct {
	ID             string `json:"id"`
	Seed           int64  `json:"seed"`
	Scores         []int  `json:"scores"`
	Winners        []int  `json:"winners"`
	DurationMillis int64  `json:"duration_ms"`
}

type seatReport struct {
	Name      string  `json:"name"`
	Games     int     `json:"games"`
	Wins      int     `json:"wins"`
	Ties      int     `json:"ties"`
	MeanScore float64 `json:"mean_score"`
	StdDev    float64 `json:"std_dev"`
	CI95Low   float64 `json:"ci95_low"`
	CI95High  float64 `json:"ci95_high"`
	MaxScore  int     `json:"max_score"`
}

func (c *SimCmd) Run(g *Globals) error {
	if c.Games < 1 {
		return fmt.Errorf("games must be at least 1")
	}
	if c.Parallel < 1 {
		return fmt.Errorf("parallel must be at least 1")
	}

	cfg, settings, err := g.load()
	if err != nil {
		return err
	}
	logger, err := newLogger(os.Stderr, cfg.LogLevel)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	players := allBots(cfg.Players)
	names := make([]string, len(players))
	for i, p := range players {
		names[i] = p.Name
	}
	settings.EndGamePause = 0

	base := resolveSeed(cfg)
	results := make([]simResult, c.Games)

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(c.Parallel)
	for i := range results {
		seed := base + int64(i)
		eg.Go(func() error {
			id := gameid.New(time.Now(), randutil.New(seed))
			gameLogger := logger.With("game_id", id)

			start := time.Now()
			dealer := game.NewDealer(settings, players,
				game.WithSeed(seed),
				game.WithLogger(gameLogger),
				game.WithSink(ui.NewLogSink(gameLogger, names)),
			)
			if err := dealer.Run(gctx); err != nil {
				return fmt.Errorf("game %s: %w", id, err)
			}
			results[i] = simResult{id: id, seed: seed, scores: dealer.Scores(), duration: time.Since(start)}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	report := buildReport(names, results)
	printSummary(os.Stdout, report)
	if c.Out != "" {
		if err := fileutil.WriteJSON(c.Out, report); err != nil {
			return err
		}
		logger.Info("Wrote report", "path", c.Out)
	}
	return nil
}

// allBots turns every configured player into a bot, keeping the names.
func allBots(players []config.PlayerConfig) []config.PlayerConfig {
	out := make([]config.PlayerConfig, len(players))
	for i, p := range players {
		out[i] = config.PlayerConfig{Name: p.Name}
	}
	return out
}

// buildReport collects finished games and per-seat statistics. Games that
// never ran, because the run was interrupted, are left out.
func buildReport(names []string, results []simResult) simReport {
	table := statistics.NewTable(len(names))
	report := simReport{Games: []gameReport{}}
	for _, r := range results {
		if r.scores == nil {
			continue
		}
		winners := game.Winners(r.scores)
		table.AddGame(r.scores, winners)
		report.Games = append(report.Games, gameReport{
			ID:             r.id,
			Seed:           r.seed,
			Scores:         r.scores,
			Winners:        winners,
			DurationMillis: r.duration.Milliseconds(),
		})
	}

	for i, name := range names {
		s := table.Seats[i]
		low, high := s.ConfidenceInterval95()
		report.Seats = append(report.Seats, seatReport{
			Name:      name,
			Games:     s.Games,
			Wins:      s.Wins,
			Ties:      s.Ties,
			MeanScore: s.Mean(),
			StdDev:    s.StdDev(),
			CI95Low:   low,
			CI95High:  high,
			MaxScore:  s.MaxScore,
		})
	}
	return report
}

func printSummary(w io.Writer, report simReport) {
	for _, g := range report.Games {
		label := make([]string, len(g.Winners))
		for i, id := range g.Winners {
			label[i] = report.Seats[id].Name
		}
		fmt.Fprintf(w, "%s seed=%d scores=%v winners=%s (%dms)\n",
			g.ID, g.Seed, g.Scores, strings.Join(label, ", "), g.DurationMillis)
	}

	fmt.Fprintln(w)
	for _, s := range report.Seats {
		fmt.Fprintf(w, "%-12s %d wins (%d shared)  mean %.2f [%.2f, %.2f]\n",
			s.Name, s.Wins, s.Ties, s.MeanScore, s.CI95Low, s.CI95High)
	}
}
