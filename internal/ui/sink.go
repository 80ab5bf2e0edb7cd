// Package ui defines the write-only display contract the game engine reports
// to, plus a few implementations that do not need a terminal.
package ui

import "time"

// Sink receives notifications after each committed state change. The engine
// never reads anything back through it. Implementations must be safe for use
// from several goroutines and must not call back into the engine.
type Sink interface {
	PlaceCard(card, slot int)
	RemoveCard(slot int)
	PlaceToken(player, slot int)
	RemoveToken(player, slot int)
	RemoveTokens(slot int)
	SetScore(player, score int)
	SetFreeze(player int, remaining time.Duration)
	SetCountdown(remaining time.Duration, warn bool)
	AnnounceWinner(players []int)
}

// Null discards every notification.
type Null struct{}

func (Null) PlaceCard(int, int)               {}
func (Null) RemoveCard(int)                   {}
func (Null) PlaceToken(int, int)              {}
func (Null) RemoveToken(int, int)             {}
func (Null) RemoveTokens(int)                 {}
func (Null) SetScore(int, int)                {}
func (Null) SetFreeze(int, time.Duration)     {}
func (Null) SetCountdown(time.Duration, bool) {}
func (Null) AnnounceWinner([]int)             {}

// Multi fans notifications out to several sinks in order.
type Multi struct {
	sinks []Sink
}

// NewMulti builds a composite sink, pruning nil entries. It returns Null when
// nothing is left and the single sink when only one remains.
func NewMulti(sinks ...Sink) Sink {
	filtered := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			filtered = append(filtered, s)
		}
	}

	switch len(filtered) {
	case 0:
		return Null{}
	case 1:
		return filtered[0]
	default:
		return &Multi{sinks: filtered}
	}
}

func (m *Multi) PlaceCard(card, slot int) {
	for _, s := range m.sinks {
		s.PlaceCard(card, slot)
	}
}

func (m *Multi) RemoveCard(slot int) {
	for _, s := range m.sinks {
		s.RemoveCard(slot)
	}
}

func (m *Multi) PlaceToken(player, slot int) {
	for _, s := range m.sinks {
		s.PlaceToken(player, slot)
	}
}

func (m *Multi) RemoveToken(player, slot int) {
	for _, s := range m.sinks {
		s.RemoveToken(player, slot)
	}
}

func (m *Multi) RemoveTokens(slot int) {
	for _, s := range m.sinks {
		s.RemoveTokens(slot)
	}
}

func (m *Multi) SetScore(player, score int) {
	for _, s := range m.sinks {
		s.SetScore(player, score)
	}
}

func (m *Multi) SetFreeze(player int, remaining time.Duration) {
	for _, s := range m.sinks {
		s.SetFreeze(player, remaining)
	}
}

func (m *Multi) SetCountdown(remaining time.Duration, warn bool) {
	for _, s := range m.sinks {
		s.SetCountdown(remaining, warn)
	}
}

func (m *Multi) AnnounceWinner(players []int) {
	for _, s := range m.sinks {
		s.AnnounceWinner(players)
	}
}
