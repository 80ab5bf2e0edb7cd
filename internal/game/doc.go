// Package game implements the real-time engine of the Set card game.
//
// The main type is Dealer, which owns the deck, times rounds, validates the
// groups players submit and reshuffles the board when a round runs out.
// Players and bots run on their own goroutines and meet the dealer only
// through the shared table, the round gate and the check queue.
//
// # Basic Usage
//
//	d := game.NewDealer(settings, players,
//		game.WithLogger(logger),
//		game.WithSink(sink),
//		game.WithSeed(42),
//	)
//	err := d.Run(ctx)
//
// Human input is routed with d.KeyPressed(player, slot). Run returns once the
// deck holds no more legal groups or ctx is cancelled.
//
// # Deterministic Testing
//
// Every timer goes through a quartz.Clock. Pass a quartz.Mock with WithClock
// to drive the countdown by hand, and WithDeck to control the card order:
//
//	clock := quartz.NewMock(t)
//	d := game.NewDealer(settings, nil, game.WithClock(clock), game.WithDeck(deck))
//
// # Architecture
//
//   - RoundGate: open/closed round phase every actor waits on
//   - checkQueue: FIFO of players waiting for a verdict
//   - Player: input intake, marker toggling and freezes
//   - Bot: synthetic input for non-human players
package game
