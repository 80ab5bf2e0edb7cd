package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "setgame.hcl")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.hcl"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	require.NoError(t, cfg.Validate())
}

func TestLoadFullFile(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"
log_file  = "game.log"
seed      = 42

game {
  table_size           = 6
  rows                 = 2
  columns              = 3
  feature_size         = 3
  feature_count        = 3
  deck_size            = 27
  turn_timeout         = "30s"
  turn_timeout_warning = "2s"
  point_freeze         = "500ms"
  penalty_freeze       = "2s"
  table_delay          = "0s"
  end_game_pause       = "1s"
  bot_interval         = "250ms"
  hints                = true
}

player "Ann" {
  human = true
  keys  = "qweasd"
}

player "Robo" {}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "game.log", cfg.LogFile)
	require.NotNil(t, cfg.Seed)
	assert.Equal(t, int64(42), *cfg.Seed)
	assert.Equal(t, []string{"Ann", "Robo"}, cfg.Names())
	assert.False(t, cfg.Players[1].Human)

	g, err := cfg.ResolveGame()
	require.NoError(t, err)
	assert.Equal(t, Game{
		TableSize:          6,
		Rows:               2,
		Columns:            3,
		FeatureSize:        3,
		FeatureCount:       3,
		DeckSize:           27,
		TurnTimeout:        30 * time.Second,
		TurnTimeoutWarning: 2 * time.Second,
		PointFreeze:        500 * time.Millisecond,
		PenaltyFreeze:      2 * time.Second,
		TableDelay:         0,
		EndGamePause:       time.Second,
		BotInterval:        250 * time.Millisecond,
		Hints:              true,
	}, g)
	assert.Equal(t, 3, g.GroupSize())
}

func TestLoadPartialFileFillsDefaults(t *testing.T) {
	path := writeConfig(t, `
game {
  turn_timeout = "10s"
}

player "One" {
  human = true
}

player "Two" {
  human = true
}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Nil(t, cfg.Seed)

	g, err := cfg.ResolveGame()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, g.TurnTimeout)
	assert.Equal(t, 5*time.Second, g.TurnTimeoutWarning)
	assert.Equal(t, 12, g.TableSize)
	assert.Equal(t, 81, g.DeckSize)

	assert.Equal(t, defaultKeys[0], cfg.Players[0].Keys)
	assert.Equal(t, defaultKeys[1], cfg.Players[1].Keys)
}

func TestLoadWithoutGameBlock(t *testing.T) {
	cfg, err := Load(writeConfig(t, `log_level = "warn"`))
	require.NoError(t, err)
	assert.Equal(t, DefaultGameSettings(), cfg.Game)
	assert.Len(t, cfg.Players, 2)
}

func TestLoadRejectsBadHCL(t *testing.T) {
	_, err := Load(writeConfig(t, `game {`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse HCL file")

	_, err = Load(writeConfig(t, `unknown_field = 1`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode HCL")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad duration", func(c *Config) { c.Game.TurnTimeout = "soon" }, "game.turn_timeout"},
		{"negative duration", func(c *Config) { c.Game.PointFreeze = "-1s" }, "must not be negative"},
		{"deck too large", func(c *Config) { c.Game.DeckSize = 82 }, "deck size"},
		{"grid mismatch", func(c *Config) { c.Game.Rows = 4 }, "must equal table size"},
		{"warning above timeout", func(c *Config) { c.Game.TurnTimeoutWarning = "2m" }, "exceeds turn timeout"},
		{"no players", func(c *Config) { c.Players = nil }, "at least one player"},
		{"short key row", func(c *Config) { c.Players[0].Keys = "qwe" }, "needs 12 keys"},
		{"shared keys", func(c *Config) {
			c.Players[1] = PlayerConfig{Name: "Two", Human: true, Keys: "qwerasdfzxcv"}
		}, "already used by You"},
		{"tiny table", func(c *Config) {
			c.Game.TableSize, c.Game.Rows, c.Game.Columns = 2, 1, 2
			c.Players[0].Keys = "qw"
		}, "at least one group"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
