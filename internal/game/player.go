package game

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/setgame/internal/table"
	"github.com/lox/setgame/internal/ui"
)

// action is one queued key press, stamped with the round it was accepted in.
type action struct {
	slot  int
	round uint64
}

// lifecycle is the stop handle shared by players and bots. The context is
// detached from the dealer's caller so the dealer decides the stop order.
type lifecycle struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func newLifecycle() lifecycle {
	ctx, cancel := context.WithCancel(context.Background())
	return lifecycle{ctx: ctx, cancel: cancel, done: make(chan struct{})}
}

// stop cancels the actor and waits for its goroutine to return.
func (l *lifecycle) stop() {
	l.cancel()
	<-l.done
}

// Player is one seat at the table. Its goroutine consumes key presses, moves
// markers and waits for the dealer's verdict when it holds a full group.
type Player struct {
	lifecycle

	id    int
	name  string
	human bool

	score  atomic.Int64
	frozen atomic.Bool

	inbox    chan action
	verdicts chan Verdict

	table         *table.Table
	gate          *RoundGate
	checks        *checkQueue
	sink          ui.Sink
	clock         quartz.Clock
	logger        *log.Logger
	pointFreeze   time.Duration
	penaltyFreeze time.Duration
}

// ID returns the player's seat number.
func (p *Player) ID() int { return p.id }

// Name returns the display name.
func (p *Player) Name() string { return p.name }

// Human reports whether the player is driven by keyboard input.
func (p *Player) Human() bool { return p.human }

// Score returns the number of sets found so far.
func (p *Player) Score() int { return int(p.score.Load()) }

// Frozen reports whether the player is serving a freeze.
func (p *Player) Frozen() bool { return p.frozen.Load() }

// KeyPressed queues a press on slot. The press is ignored unless a round is
// open, the slot holds a card and the player is not frozen. It blocks while
// the player's queue is full and reports whether the press was queued.
func (p *Player) KeyPressed(slot int) bool {
	return p.press(p.ctx, slot)
}

// press is KeyPressed for callers that have their own stop signal.
func (p *Player) press(ctx context.Context, slot int) bool {
	open, round := p.gate.State()
	if !open || p.Frozen() {
		return false
	}
	if _, ok := p.table.CardAt(slot); !ok {
		return false
	}

	select {
	case p.inbox <- action{slot: slot, round: round}:
		return true
	case <-ctx.Done():
		return false
	case <-p.ctx.Done():
		return false
	}
}

func (p *Player) run() {
	defer close(p.done)
	p.logger.Debug("Player started")
	defer p.logger.Debug("Player stopped")

	for {
		if _, err := p.gate.Wait(p.ctx); err != nil {
			return
		}

		select {
		case <-p.ctx.Done():
			return
		case a := <-p.inbox:
			p.act(p.ctx, a)
		}
	}
}

// act applies one queued press: toggle a marker and, once the player holds a
// full group, ask the dealer for a verdict.
func (p *Player) act(ctx context.Context, a action) {
	open, round := p.gate.State()
	if !open || a.round != round {
		p.logger.Debug("Dropping stale press", "slot", a.slot, "round", a.round)
		return
	}

	if p.table.HasToken(p.id, a.slot) {
		p.table.RemoveToken(p.id, a.slot)
		return
	}

	groupSize := p.table.GroupSize()
	if p.table.TokenCount(p.id) >= groupSize {
		return
	}
	if !p.table.PlaceToken(p.id, a.slot) {
		p.logger.Debug("Slot emptied before marker placed", "slot", a.slot)
		return
	}
	if p.table.TokenCount(p.id) != groupSize {
		return
	}

	p.checks.Submit(p.id)
	select {
	case <-ctx.Done():
	case v := <-p.verdicts:
		p.apply(ctx, v)
	}
}

func (p *Player) apply(ctx context.Context, v Verdict) {
	p.logger.Debug("Verdict", "verdict", v)
	switch v {
	case VerdictLegal:
		score := p.score.Add(1)
		p.sink.SetScore(p.id, int(score))
		p.freeze(ctx, p.pointFreeze)
	case VerdictIllegal:
		p.freeze(ctx, p.penaltyFreeze)
	}
}

// deliver hands a verdict to the player. The channel holds one value and a
// player has at most one request outstanding, so this never blocks.
func (p *Player) deliver(v Verdict) {
	select {
	case p.verdicts <- v:
	default:
		p.logger.Warn("Verdict dropped, previous one not consumed", "verdict", v)
	}
}

// freeze blocks input for d, reporting the remaining time once a second.
func (p *Player) freeze(ctx context.Context, d time.Duration) {
	if d <= 0 {
		p.sink.SetFreeze(p.id, 0)
		return
	}

	p.frozen.Store(true)
	defer p.frozen.Store(false)

	remaining := d
	for {
		p.sink.SetFreeze(p.id, remaining)
		if remaining <= 0 {
			return
		}

		step := min(time.Second, remaining)
		timer := p.clock.NewTimer(step, "player", "freeze")
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		remaining -= step
	}
}
