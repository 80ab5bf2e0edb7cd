// Package gameid produces short sortable identifiers for games. The id tags
// every log line of a run and is sent to spectators on connect.
package gameid

import (
	"fmt"
	rand "math/rand/v2"
	"strings"
	"time"
)

// Crockford's base32
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Length of every id: 10 characters of millisecond timestamp, 6 of randomness.
const Length = 16

// New builds an id from a wall-clock instant and a random source. Passing the
// game's seeded generator makes the suffix reproducible; the timestamp prefix
// keeps ids ordered by start time.
func New(now time.Time, rng *rand.Rand) string {
	var b strings.Builder
	b.Grow(Length)

	ms := uint64(now.UnixMilli())
	for shift := 45; shift >= 0; shift -= 5 {
		b.WriteByte(alphabet[(ms>>uint(shift))&0x1f])
	}
	for i := 0; i < Length-10; i++ {
		b.WriteByte(alphabet[rng.IntN(len(alphabet))])
	}
	return b.String()
}

// Validate checks that id has the right length and alphabet.
func Validate(id string) error {
	if len(id) != Length {
		return fmt.Errorf("game ID must be exactly %d characters, got %d", Length, len(id))
	}
	for i, char := range id {
		if !strings.ContainsRune(alphabet, char) {
			return fmt.Errorf("invalid character %c at position %d", char, i)
		}
	}
	return nil
}
