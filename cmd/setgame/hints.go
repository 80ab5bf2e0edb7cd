package main

import (
	"fmt"
	"io"
	"os"

	"github.com/lox/setgame/internal/cards"
	"github.com/lox/setgame/internal/config"
	"github.com/lox/setgame/internal/randutil"
)

type HintsCmd struct{}

func (c *HintsCmd) Run(g *Globals) error {
	cfg, settings, err := g.load()
	if err != nil {
		return err
	}
	if cfg.Seed == nil {
		return fmt.Errorf("hints needs a seed: pass --seed or set seed in %s", g.Config)
	}
	printHints(os.Stdout, settings, *cfg.Seed)
	return nil
}

// printHints deals the opening board the dealer would deal for seed and
// lists every legal group on it.
func printHints(w io.Writer, settings config.Game, seed int64) {
	layout := cards.Layout{FeatureSize: settings.FeatureSize, FeatureCount: settings.FeatureCount}
	eval := cards.NewEvaluator(layout)

	deck := cards.NewDeck(settings.DeckSize)
	cards.Shuffle(deck, randutil.New(seed))
	board, _ := cards.Draw(deck, settings.TableSize)

	fmt.Fprintf(w, "Seed %d, %d cards on the table\n", seed, len(board))
	for slot, card := range board {
		fmt.Fprintf(w, "  %2d  %-3d %s\n", slot, card, layout.Describe(card))
	}

	slotOf := make(map[int]int, len(board))
	for slot, card := range board {
		slotOf[card] = slot
	}

	sets := eval.FindSets(board, 0)
	fmt.Fprintf(w, "%d sets\n", len(sets))
	for _, set := range sets {
		slots := make([]int, len(set))
		for i, card := range set {
			slots[i] = slotOf[card]
		}
		fmt.Fprintf(w, "  slots %v\n", slots)
	}
}
