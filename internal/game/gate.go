package game

import (
	"context"
	"sync"
)

// RoundGate tracks whether a round is open. Waiters block until the dealer
// opens the next round; every opening bumps the round number so actions
// queued during an earlier round can be told apart.
type RoundGate struct {
	mu     sync.Mutex
	open   bool
	round  uint64
	opened chan struct{}
}

// NewRoundGate returns a closed gate at round 0.
func NewRoundGate() *RoundGate {
	return &RoundGate{opened: make(chan struct{})}
}

// Open starts a new round and wakes every waiter. Opening an open gate is a
// no-op. It returns the current round number.
func (g *RoundGate) Open() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.open {
		return g.round
	}
	g.open = true
	g.round++
	close(g.opened)
	return g.round
}

// Close ends the current round.
func (g *RoundGate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.open {
		return
	}
	g.open = false
	g.opened = make(chan struct{})
}

// State returns whether the gate is open and the latest round number.
func (g *RoundGate) State() (bool, uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.open, g.round
}

// IsOpen reports whether a round is in progress.
func (g *RoundGate) IsOpen() bool {
	open, _ := g.State()
	return open
}

// Wait blocks until a round is open and returns its number. It returns
// immediately while the gate is open.
func (g *RoundGate) Wait(ctx context.Context) (uint64, error) {
	for {
		g.mu.Lock()
		if g.open {
			round := g.round
			g.mu.Unlock()
			return round, nil
		}
		opened := g.opened
		g.mu.Unlock()

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-opened:
		}
	}
}
