package game

import (
	"context"
	"io"
	"slices"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"github.com/lox/setgame/internal/cards"
	"github.com/lox/setgame/internal/config"
)

func testSettings() config.Game {
	return config.Game{
		TableSize:          12,
		Rows:               3,
		Columns:            4,
		FeatureSize:        3,
		FeatureCount:       4,
		DeckSize:           81,
		TurnTimeout:        time.Minute,
		TurnTimeoutWarning: 5 * time.Second,
		BotInterval:        time.Millisecond,
	}
}

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func humans(names ...string) []config.PlayerConfig {
	players := make([]config.PlayerConfig, len(names))
	for i, name := range names {
		players[i] = config.PlayerConfig{Name: name, Human: true}
	}
	return players
}

// dealSequential puts cards 0..11 in slots 0..11. Cards 0, 1 and 2 form a set.
func dealSequential(t *testing.T, d *Dealer) {
	t.Helper()
	for slot := range 12 {
		require.NoError(t, d.Table().PlaceCard(slot, slot))
	}
}

// oneSetBoard returns a 12 card board whose only set is {0, 1, 2}, placed at
// slots 0, 4 and 9, and the rest of the deck in ascending order.
func oneSetBoard(t *testing.T) (board, deck []int) {
	t.Helper()
	eval := cards.NewEvaluator(cards.Standard)

	chosen := []int{0, 1, 2}
	for c := 3; c < 81 && len(chosen) < 12; c++ {
		if len(eval.FindSets(append(slices.Clone(chosen), c), 0)) == 1 {
			chosen = append(chosen, c)
		}
	}
	require.Len(t, chosen, 12)

	board = make([]int, 12)
	rest := chosen[3:]
	for slot := range board {
		switch slot {
		case 0:
			board[slot] = 0
		case 4:
			board[slot] = 1
		case 9:
			board[slot] = 2
		default:
			board[slot], rest = rest[0], rest[1:]
		}
	}

	for c := range 81 {
		if !slices.Contains(chosen, c) {
			deck = append(deck, c)
		}
	}
	return board, deck
}

// runDealer starts d and returns a function that cancels it and waits for Run.
func runDealer(t *testing.T, d *Dealer) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() {
		errs <- d.Run(ctx)
	}()

	return func() {
		cancel()
		select {
		case err := <-errs:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("dealer did not stop")
		}
	}
}
