package ui

import (
	"sync"
	"time"
)

// Kind names a sink notification.
type Kind string

const (
	KindPlaceCard      Kind = "place_card"
	KindRemoveCard     Kind = "remove_card"
	KindPlaceToken     Kind = "place_token"
	KindRemoveToken    Kind = "remove_token"
	KindRemoveTokens   Kind = "remove_tokens"
	KindScore          Kind = "score"
	KindFreeze         Kind = "freeze"
	KindCountdown      Kind = "countdown"
	KindAnnounceWinner Kind = "winner"
)

// String returns the string representation of the kind
func (k Kind) String() string {
	return string(k)
}

// Event is one sink notification as a value. Fields that do not apply to the
// kind are left zero.
type Event struct {
	Kind    Kind  `json:"kind"`
	Player  int   `json:"player,omitempty"`
	Slot    int   `json:"slot,omitempty"`
	Card    int   `json:"card,omitempty"`
	Score   int   `json:"score,omitempty"`
	Millis  int64 `json:"millis,omitempty"`
	Warn    bool  `json:"warn,omitempty"`
	Winners []int `json:"winners,omitempty"`
}

// Remaining returns Millis as a duration.
func (e Event) Remaining() time.Duration {
	return time.Duration(e.Millis) * time.Millisecond
}

// Funnel adapts a function taking Events into a Sink.
type Funnel func(Event)

func (f Funnel) PlaceCard(card, slot int) {
	f(Event{Kind: KindPlaceCard, Card: card, Slot: slot})
}

func (f Funnel) RemoveCard(slot int) {
	f(Event{Kind: KindRemoveCard, Slot: slot})
}

func (f Funnel) PlaceToken(player, slot int) {
	f(Event{Kind: KindPlaceToken, Player: player, Slot: slot})
}

func (f Funnel) RemoveToken(player, slot int) {
	f(Event{Kind: KindRemoveToken, Player: player, Slot: slot})
}

func (f Funnel) RemoveTokens(slot int) {
	f(Event{Kind: KindRemoveTokens, Slot: slot})
}

func (f Funnel) SetScore(player, score int) {
	f(Event{Kind: KindScore, Player: player, Score: score})
}

func (f Funnel) SetFreeze(player int, remaining time.Duration) {
	f(Event{Kind: KindFreeze, Player: player, Millis: remaining.Milliseconds()})
}

func (f Funnel) SetCountdown(remaining time.Duration, warn bool) {
	f(Event{Kind: KindCountdown, Millis: remaining.Milliseconds(), Warn: warn})
}

func (f Funnel) AnnounceWinner(players []int) {
	f(Event{Kind: KindAnnounceWinner, Winners: append([]int(nil), players...)})
}

// Recorder is a Sink that keeps every notification in order.
type Recorder struct {
	Funnel
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	r := &Recorder{}
	r.Funnel = func(e Event) {
		r.mu.Lock()
		r.events = append(r.events, e)
		r.mu.Unlock()
	}
	return r
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Filter returns the recorded events of the given kind.
func (r *Recorder) Filter(kind Kind) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Reset drops everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
