package cards

import (
	rand "math/rand/v2"

	"github.com/lox/setgame/internal/randutil"
)

// NewDeck returns the ids 0..size-1 in order.
func NewDeck(size int) []int {
	deck := make([]int, size)
	for i := range deck {
		deck[i] = i
	}
	return deck
}

// Shuffle randomizes the order of the deck in place.
func Shuffle(deck []int, rng *rand.Rand) {
	randutil.Shuffle(rng, deck)
}

// Draw removes up to n cards from the front of the deck.
func Draw(deck []int, n int) (drawn, rest []int) {
	if n > len(deck) {
		n = len(deck)
	}
	drawn = append([]int(nil), deck[:n]...)
	return drawn, deck[n:]
}
