package cards

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

var errLimitReached = errors.New("set limit reached")

// Evaluator decides group legality. It holds no mutable state and is safe for
// concurrent use.
type Evaluator struct {
	layout  Layout
	workers int
}

// NewEvaluator creates an evaluator for the given layout.
func NewEvaluator(layout Layout) *Evaluator {
	return &Evaluator{
		layout:  layout,
		workers: runtime.GOMAXPROCS(0),
	}
}

// Layout returns the deck layout the evaluator was built for.
func (e *Evaluator) Layout() Layout {
	return e.layout
}

// TestSet reports whether cards form a legal group: exactly GroupSize distinct
// cards where every feature is either the same on all of them or different on
// all of them.
func (e *Evaluator) TestSet(cards []int) bool {
	if len(cards) != e.layout.GroupSize() {
		return false
	}
	features := make([][]int, len(cards))
	for i, card := range cards {
		if card < 0 || card >= e.layout.MaxCards() {
			return false
		}
		for j := 0; j < i; j++ {
			if cards[j] == card {
				return false
			}
		}
		features[i] = e.layout.Features(card)
	}
	return e.consistent(features)
}

// consistent reports whether every feature column is all-equal or all-distinct.
// It also holds for any prefix of a legal group, which lets FindSets prune.
func (e *Evaluator) consistent(features [][]int) bool {
	for f := 0; f < e.layout.FeatureCount; f++ {
		seen := make(map[int]struct{}, len(features))
		for _, card := range features {
			seen[card[f]] = struct{}{}
		}
		if len(seen) != 1 && len(seen) != len(features) {
			return false
		}
	}
	return true
}

// FindSets returns legal groups among cards, at most limit of them (limit <= 0
// means all). Groups keep the input order of their cards and are ordered by the
// position of their first card. With a limit, which groups are returned is not
// specified, only how many.
func (e *Evaluator) FindSets(cards []int, limit int) [][]int {
	size := e.layout.GroupSize()
	if len(cards) < size {
		return nil
	}

	features := make([][]int, len(cards))
	for i, card := range cards {
		features[i] = e.layout.Features(card)
	}

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(e.workers)

	var found atomic.Int64
	results := make([][][]int, len(cards))

	for first := 0; first <= len(cards)-size; first++ {
		g.Go(func() error {
			var local [][]int
			picked := []int{first}
			var search func(next int) error
			search = func(next int) error {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if len(picked) == size {
					group := make([]int, size)
					for i, idx := range picked {
						group[i] = cards[idx]
					}
					local = append(local, group)
					if n := found.Add(1); limit > 0 && n >= int64(limit) {
						return errLimitReached
					}
					return nil
				}
				for i := next; i <= len(cards)-(size-len(picked)); i++ {
					picked = append(picked, i)
					prefix := make([][]int, len(picked))
					for k, idx := range picked {
						prefix[k] = features[idx]
					}
					ok := e.consistent(prefix) && distinct(cards, picked)
					if ok {
						if err := search(i + 1); err != nil {
							return err
						}
					}
					picked = picked[:len(picked)-1]
				}
				return nil
			}
			err := search(first + 1)
			results[first] = local
			return err
		})
	}

	// errLimitReached and the cancellations it causes are the normal way out.
	_ = g.Wait()

	var sets [][]int
	for _, local := range results {
		sets = append(sets, local...)
	}
	if limit > 0 && len(sets) > limit {
		sets = sets[:limit]
	}
	return sets
}

func distinct(cards []int, picked []int) bool {
	last := cards[picked[len(picked)-1]]
	for _, idx := range picked[:len(picked)-1] {
		if cards[idx] == last {
			return false
		}
	}
	return true
}
