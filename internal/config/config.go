// Package config loads game settings from an HCL file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// DefaultFile is the configuration file looked up when none is given.
const DefaultFile = "setgame.hcl"

// Default key rows for the first two human players, one key per slot of the
// standard 3x4 board, read left to right and top to bottom.
var defaultKeys = []string{"qwerasdfzxcv", "uiopjkl;m,./"}

// Config represents the complete configuration file
type Config struct {
	LogLevel string         `hcl:"log_level,optional"`
	LogFile  string         `hcl:"log_file,optional"`
	Seed     *int64         `hcl:"seed,optional"`
	Game     *GameSettings  `hcl:"game,block"`
	Players  []PlayerConfig `hcl:"player,block"`
}

// GameSettings holds the board shape and timings. Durations are Go duration
// strings such as "60s" or "250ms".
type GameSettings struct {
	TableSize          int    `hcl:"table_size,optional"`
	Rows               int    `hcl:"rows,optional"`
	Columns            int    `hcl:"columns,optional"`
	FeatureSize        int    `hcl:"feature_size,optional"`
	FeatureCount       int    `hcl:"feature_count,optional"`
	DeckSize           int    `hcl:"deck_size,optional"`
	TurnTimeout        string `hcl:"turn_timeout,optional"`
	TurnTimeoutWarning string `hcl:"turn_timeout_warning,optional"`
	PointFreeze        string `hcl:"point_freeze,optional"`
	PenaltyFreeze      string `hcl:"penalty_freeze,optional"`
	TableDelay         string `hcl:"table_delay,optional"`
	EndGamePause       string `hcl:"end_game_pause,optional"`
	BotInterval        string `hcl:"bot_interval,optional"`
	Hints              bool   `hcl:"hints,optional"`
}

// PlayerConfig defines one seat. Players without human = true are driven by a bot.
type PlayerConfig struct {
	Name  string `hcl:"name,label"`
	Human bool   `hcl:"human,optional"`
	Keys  string `hcl:"keys,optional"`
}

// Game is the resolved, immutable form of GameSettings the engine runs on.
type Game struct {
	TableSize          int
	Rows               int
	Columns            int
	FeatureSize        int
	FeatureCount       int
	DeckSize           int
	TurnTimeout        time.Duration
	TurnTimeoutWarning time.Duration
	PointFreeze        time.Duration
	PenaltyFreeze      time.Duration
	TableDelay         time.Duration
	EndGamePause       time.Duration
	BotInterval        time.Duration
	Hints              bool
}

// GroupSize is the number of cards in a candidate group.
func (g Game) GroupSize() int {
	return g.FeatureSize
}

// DefaultGameSettings returns the settings of the classic game.
func DefaultGameSettings() *GameSettings {
	return &GameSettings{
		TableSize:          12,
		Rows:               3,
		Columns:            4,
		FeatureSize:        3,
		FeatureCount:       4,
		DeckSize:           81,
		TurnTimeout:        "60s",
		TurnTimeoutWarning: "5s",
		PointFreeze:        "1s",
		PenaltyFreeze:      "3s",
		TableDelay:         "100ms",
		EndGamePause:       "5s",
		BotInterval:        "100ms",
	}
}

// Default returns the configuration used when no file exists: one human and
// one bot.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Game:     DefaultGameSettings(),
		Players: []PlayerConfig{
			{Name: "You", Human: true, Keys: defaultKeys[0]},
			{Name: "Bot 1"},
		},
	}
}

// Load reads configuration from an HCL file. A missing file yields Default.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	defaults := DefaultGameSettings()
	if c.Game == nil {
		c.Game = defaults
	} else {
		g := c.Game
		setInt(&g.TableSize, defaults.TableSize)
		setInt(&g.Rows, defaults.Rows)
		setInt(&g.Columns, defaults.Columns)
		setInt(&g.FeatureSize, defaults.FeatureSize)
		setInt(&g.FeatureCount, defaults.FeatureCount)
		setInt(&g.DeckSize, defaults.DeckSize)
		setString(&g.TurnTimeout, defaults.TurnTimeout)
		setString(&g.TurnTimeoutWarning, defaults.TurnTimeoutWarning)
		setString(&g.PointFreeze, defaults.PointFreeze)
		setString(&g.PenaltyFreeze, defaults.PenaltyFreeze)
		setString(&g.TableDelay, defaults.TableDelay)
		setString(&g.EndGamePause, defaults.EndGamePause)
		setString(&g.BotInterval, defaults.BotInterval)
	}

	if len(c.Players) == 0 {
		c.Players = Default().Players
	}

	// Hand out the default key rows to humans that did not pick their own.
	next := 0
	for i := range c.Players {
		if !c.Players[i].Human || c.Players[i].Keys != "" {
			continue
		}
		if next < len(defaultKeys) {
			c.Players[i].Keys = defaultKeys[next]
			next++
		}
	}
}

func setInt(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}

func setString(v *string, def string) {
	if *v == "" {
		*v = def
	}
}

// Resolve parses the duration strings into a Game.
func (s *GameSettings) Resolve() (Game, error) {
	g := Game{
		TableSize:    s.TableSize,
		Rows:         s.Rows,
		Columns:      s.Columns,
		FeatureSize:  s.FeatureSize,
		FeatureCount: s.FeatureCount,
		DeckSize:     s.DeckSize,
		Hints:        s.Hints,
	}

	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"turn_timeout", s.TurnTimeout, &g.TurnTimeout},
		{"turn_timeout_warning", s.TurnTimeoutWarning, &g.TurnTimeoutWarning},
		{"point_freeze", s.PointFreeze, &g.PointFreeze},
		{"penalty_freeze", s.PenaltyFreeze, &g.PenaltyFreeze},
		{"table_delay", s.TableDelay, &g.TableDelay},
		{"end_game_pause", s.EndGamePause, &g.EndGamePause},
		{"bot_interval", s.BotInterval, &g.BotInterval},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(d.value)
		if err != nil {
			return Game{}, fmt.Errorf("game.%s: %w", d.name, err)
		}
		if v < 0 {
			return Game{}, fmt.Errorf("game.%s must not be negative", d.name)
		}
		*d.dst = v
	}
	return g, nil
}

// ResolveGame returns the resolved game settings. It fails on the same
// conditions as Validate.
func (c *Config) ResolveGame() (Game, error) {
	if err := c.Validate(); err != nil {
		return Game{}, err
	}
	return c.Game.Resolve()
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Game == nil {
		return fmt.Errorf("missing game block")
	}
	g, err := c.Game.Resolve()
	if err != nil {
		return err
	}

	if g.FeatureSize < 2 {
		return fmt.Errorf("feature size must be at least 2, got %d", g.FeatureSize)
	}
	if g.FeatureCount < 1 {
		return fmt.Errorf("feature count must be at least 1, got %d", g.FeatureCount)
	}
	maxCards := 1
	for i := 0; i < g.FeatureCount; i++ {
		maxCards *= g.FeatureSize
	}
	if g.DeckSize < 1 || g.DeckSize > maxCards {
		return fmt.Errorf("deck size must be between 1 and %d, got %d", maxCards, g.DeckSize)
	}
	if g.TableSize < g.GroupSize() {
		return fmt.Errorf("table size must hold at least one group of %d, got %d", g.GroupSize(), g.TableSize)
	}
	if g.Rows*g.Columns != g.TableSize {
		return fmt.Errorf("rows (%d) x columns (%d) must equal table size %d", g.Rows, g.Columns, g.TableSize)
	}
	if g.TurnTimeout <= 0 {
		return fmt.Errorf("turn timeout must be positive")
	}
	if g.TurnTimeoutWarning > g.TurnTimeout {
		return fmt.Errorf("turn timeout warning (%s) exceeds turn timeout (%s)", g.TurnTimeoutWarning, g.TurnTimeout)
	}
	if g.BotInterval <= 0 {
		return fmt.Errorf("bot interval must be positive")
	}

	if len(c.Players) == 0 {
		return fmt.Errorf("at least one player must be configured")
	}
	usedKeys := make(map[rune]string)
	for _, p := range c.Players {
		if p.Name == "" {
			return fmt.Errorf("player name must not be empty")
		}
		if !p.Human {
			continue
		}
		keys := []rune(p.Keys)
		if len(keys) != g.TableSize {
			return fmt.Errorf("player %s: needs %d keys, got %d", p.Name, g.TableSize, len(keys))
		}
		for _, k := range keys {
			if other, ok := usedKeys[k]; ok {
				return fmt.Errorf("player %s: key %q already used by %s", p.Name, k, other)
			}
			usedKeys[k] = p.Name
		}
	}

	return nil
}

// Names returns the player names in seat order.
func (c *Config) Names() []string {
	names := make([]string, len(c.Players))
	for i, p := range c.Players {
		names[i] = p.Name
	}
	return names
}
