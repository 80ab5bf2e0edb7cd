// Package table implements the shared board: which card sits in which slot
// and which players hold a marker on it.
//
// A Table is shared by the dealer and every player goroutine. All slot state
// sits behind one lock, so each mutator is atomic with respect to every other
// one, and display notifications are sent while the lock is held so the sink
// sees changes in commit order.
package table

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/coder/quartz"

	"github.com/lox/setgame/internal/ui"
)

// NotFound marks a missing entry in PlayerCards and an empty slot or an
// off-table card in the internal mappings.
const NotFound = -1

var (
	ErrInvalidSlot  = errors.New("slot out of range")
	ErrInvalidCard  = errors.New("card out of range")
	ErrSlotOccupied = errors.New("slot already holds a card")
	ErrCardOnTable  = errors.New("card is already on the table")
	ErrTableFull    = errors.New("no empty slot")
)

// Table is the board. The zero value is not usable; use New.
type Table struct {
	mu         sync.RWMutex
	slotToCard []int
	cardToSlot []int
	tokens     []map[int]struct{}
	groupSize  int

	sink  ui.Sink
	clock quartz.Clock
	delay time.Duration
}

// Option configures a Table.
type Option func(*Table)

// WithClock sets the clock used for the simulated placement latency.
func WithClock(clock quartz.Clock) Option {
	return func(t *Table) {
		t.clock = clock
	}
}

// WithDelay makes every card placement and removal wait d before it becomes
// visible. It widens race windows so they can be exercised.
func WithDelay(d time.Duration) Option {
	return func(t *Table) {
		t.delay = d
	}
}

// WithSink sets the display notified of every change.
func WithSink(sink ui.Sink) Option {
	return func(t *Table) {
		t.sink = sink
	}
}

// New creates an empty table with the given number of slots for a deck of
// deckSize cards. groupSize bounds how many markers one player may hold.
func New(slots, deckSize, groupSize int, opts ...Option) *Table {
	t := &Table{
		slotToCard: make([]int, slots),
		cardToSlot: make([]int, deckSize),
		tokens:     make([]map[int]struct{}, slots),
		groupSize:  groupSize,
		sink:       ui.Null{},
		clock:      quartz.NewReal(),
	}
	for i := range t.slotToCard {
		t.slotToCard[i] = NotFound
		t.tokens[i] = make(map[int]struct{})
	}
	for i := range t.cardToSlot {
		t.cardToSlot[i] = NotFound
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Size returns the number of slots.
func (t *Table) Size() int {
	return len(t.slotToCard)
}

// GroupSize returns the number of markers that make a candidate group.
func (t *Table) GroupSize() int {
	return t.groupSize
}

func (t *Table) pause() {
	if t.delay <= 0 {
		return
	}
	timer := t.clock.NewTimer(t.delay, "table", "delay")
	<-timer.C
}

func (t *Table) validSlot(slot int) bool {
	return slot >= 0 && slot < len(t.slotToCard)
}

// PlaceCard puts card into an empty slot.
func (t *Table) PlaceCard(card, slot int) error {
	if !t.validSlot(slot) {
		return fmt.Errorf("place card %d: %w", card, ErrInvalidSlot)
	}
	if card < 0 || card >= len(t.cardToSlot) {
		return fmt.Errorf("place card %d: %w", card, ErrInvalidCard)
	}

	t.pause()

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.placeCardLocked(card, slot)
}

func (t *Table) placeCardLocked(card, slot int) error {
	if t.slotToCard[slot] != NotFound {
		return fmt.Errorf("place card %d in slot %d: %w", card, slot, ErrSlotOccupied)
	}
	if t.cardToSlot[card] != NotFound {
		return fmt.Errorf("place card %d: %w", card, ErrCardOnTable)
	}
	t.cardToSlot[card] = slot
	t.slotToCard[slot] = card
	t.sink.PlaceCard(card, slot)
	return nil
}

// FillEmptySlot places card in the lowest-numbered empty slot and returns it.
func (t *Table) FillEmptySlot(card int) (int, error) {
	if card < 0 || card >= len(t.cardToSlot) {
		return NotFound, fmt.Errorf("place card %d: %w", card, ErrInvalidCard)
	}

	t.pause()

	t.mu.Lock()
	defer t.mu.Unlock()
	for slot, c := range t.slotToCard {
		if c == NotFound {
			return slot, t.placeCardLocked(card, slot)
		}
	}
	return NotFound, ErrTableFull
}

// RemoveCard clears every marker on slot and then takes its card away. It
// reports false if the slot was already empty.
func (t *Table) RemoveCard(slot int) bool {
	if !t.validSlot(slot) {
		return false
	}

	t.pause()

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.removeCardLocked(slot)
}

func (t *Table) removeCardLocked(slot int) bool {
	card := t.slotToCard[slot]
	if card == NotFound {
		return false
	}
	t.removeAllTokensLocked(slot)
	t.slotToCard[slot] = NotFound
	t.cardToSlot[card] = NotFound
	t.sink.RemoveCard(slot)
	return true
}

// RemoveAllCards empties the board and returns the removed cards in slot order.
func (t *Table) RemoveAllCards() []int {
	var removed []int
	for slot := range t.slotToCard {
		card, ok := t.CardAt(slot)
		if !ok {
			continue
		}
		if t.RemoveCard(slot) {
			removed = append(removed, card)
		}
	}
	return removed
}

// PlaceToken puts player's marker on slot. It reports false if the slot holds
// no card or the marker is already there.
func (t *Table) PlaceToken(player, slot int) bool {
	if !t.validSlot(slot) {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.slotToCard[slot] == NotFound {
		return false
	}
	if _, ok := t.tokens[slot][player]; ok {
		return false
	}
	t.tokens[slot][player] = struct{}{}
	t.sink.PlaceToken(player, slot)
	return true
}

// RemoveToken takes player's marker off slot. It reports false if the slot
// holds no card (a stale action) or the player had no marker there.
func (t *Table) RemoveToken(player, slot int) bool {
	if !t.validSlot(slot) {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.slotToCard[slot] == NotFound {
		return false
	}
	if _, ok := t.tokens[slot][player]; !ok {
		return false
	}
	delete(t.tokens[slot], player)
	t.sink.RemoveToken(player, slot)
	return true
}

// RemoveAllTokens clears every marker on slot. It reports false if the slot
// holds no card.
func (t *Table) RemoveAllTokens(slot int) bool {
	if !t.validSlot(slot) {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.removeAllTokensLocked(slot)
}

func (t *Table) removeAllTokensLocked(slot int) bool {
	if t.slotToCard[slot] == NotFound {
		return false
	}
	clear(t.tokens[slot])
	t.sink.RemoveTokens(slot)
	return true
}

// HasToken reports whether player has a marker on slot.
func (t *Table) HasToken(player, slot int) bool {
	if !t.validSlot(slot) {
		return false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.tokens[slot][player]
	return ok
}

// TokenCount returns how many markers player has on the board.
func (t *Table) TokenCount(player int) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, holders := range t.tokens {
		if _, ok := holders[player]; ok {
			n++
		}
	}
	return n
}

// PlayerCards returns the cards under player's markers in slot order. The
// result always has GroupSize entries; missing ones are NotFound.
func (t *Table) PlayerCards(player int) []int {
	cards := make([]int, t.groupSize)
	for i := range cards {
		cards[i] = NotFound
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for slot, holders := range t.tokens {
		if n == len(cards) {
			break
		}
		if _, ok := holders[player]; ok {
			cards[n] = t.slotToCard[slot]
			n++
		}
	}
	return cards
}

// CardAt returns the card in slot, if any.
func (t *Table) CardAt(slot int) (int, bool) {
	if !t.validSlot(slot) {
		return NotFound, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	card := t.slotToCard[slot]
	return card, card != NotFound
}

// SlotOf returns the slot holding card, if it is on the table.
func (t *Table) SlotOf(card int) (int, bool) {
	if card < 0 || card >= len(t.cardToSlot) {
		return NotFound, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	slot := t.cardToSlot[card]
	return slot, slot != NotFound
}

// CountCards returns the number of cards on the table.
func (t *Table) CountCards() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, card := range t.slotToCard {
		if card != NotFound {
			n++
		}
	}
	return n
}

// Cards returns the cards on the table in slot order.
func (t *Table) Cards() []int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	cards := make([]int, 0, len(t.slotToCard))
	for _, card := range t.slotToCard {
		if card != NotFound {
			cards = append(cards, card)
		}
	}
	return cards
}

// EmptySlots returns the slots without a card in ascending order.
func (t *Table) EmptySlots() []int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var slots []int
	for slot, card := range t.slotToCard {
		if card == NotFound {
			slots = append(slots, slot)
		}
	}
	return slots
}

// holders returns the players with a marker on slot in ascending order.
func (t *Table) holders(slot int) []int {
	if !t.validSlot(slot) {
		return nil
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	players := make([]int, 0, len(t.tokens[slot]))
	for p := range t.tokens[slot] {
		players = append(players, p)
	}
	sort.Ints(players)
	return players
}

// CheckInvariants verifies that the two card mappings are inverses of each
// other, that no marker sits on an empty slot and that nobody holds more than
// GroupSize markers.
func (t *Table) CheckInvariants() error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	perPlayer := make(map[int]int)
	for slot, card := range t.slotToCard {
		if card != NotFound && t.cardToSlot[card] != slot {
			return fmt.Errorf("slot %d holds card %d but the card maps to slot %d", slot, card, t.cardToSlot[card])
		}
		if card == NotFound && len(t.tokens[slot]) > 0 {
			return fmt.Errorf("slot %d is empty but has %d markers", slot, len(t.tokens[slot]))
		}
		for p := range t.tokens[slot] {
			perPlayer[p]++
		}
	}
	for card, slot := range t.cardToSlot {
		if slot != NotFound && t.slotToCard[slot] != card {
			return fmt.Errorf("card %d maps to slot %d which holds %d", card, slot, t.slotToCard[slot])
		}
	}
	for p, n := range perPlayer {
		if n > t.groupSize {
			return fmt.Errorf("player %d holds %d markers, more than %d", p, n, t.groupSize)
		}
	}
	return nil
}
