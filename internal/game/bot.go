package game

import (
	rand "math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

// Bot presses random slots on behalf of a non-human player. It shares
// nothing with its player except the round gate and the player's intake.
type Bot struct {
	lifecycle

	player   *Player
	gate     *RoundGate
	rng      *rand.Rand
	slots    int
	interval time.Duration
	clock    quartz.Clock
	logger   *log.Logger
}

func (b *Bot) run() {
	defer close(b.done)
	b.logger.Debug("Bot started")
	defer b.logger.Debug("Bot stopped")

	for {
		if _, err := b.gate.Wait(b.ctx); err != nil {
			return
		}

		if !b.player.Frozen() {
			b.player.press(b.ctx, b.rng.IntN(b.slots))
		}

		timer := b.clock.NewTimer(b.interval, "bot", "interval")
		select {
		case <-b.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
