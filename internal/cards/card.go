// Package cards models the feature-vector cards of the matching game and
// decides which groups of them are legal.
//
// A card is a plain integer id in 0..DeckSize-1. Its features are the digits
// of the id written in base FeatureSize, least significant first, so the
// standard 81 card deck (4 features of 3 values) needs no lookup tables.
package cards

import (
	"fmt"
	"strings"
)

// Layout describes the shape of a deck.
type Layout struct {
	FeatureSize  int // values per feature; also the size of a legal group
	FeatureCount int
}

// Standard is the classic deck: number, colour, shape and shading.
var Standard = Layout{FeatureSize: 3, FeatureCount: 4}

// GroupSize is the number of cards in a candidate group.
func (l Layout) GroupSize() int {
	return l.FeatureSize
}

// MaxCards is the number of distinct cards the layout can express.
func (l Layout) MaxCards() int {
	n := 1
	for i := 0; i < l.FeatureCount; i++ {
		n *= l.FeatureSize
	}
	return n
}

// Features returns the feature values of card.
func (l Layout) Features(card int) []int {
	features := make([]int, l.FeatureCount)
	for i := range features {
		features[i] = card % l.FeatureSize
		card /= l.FeatureSize
	}
	return features
}

// cardOf returns the id of the card with the given features.
func (l Layout) cardOf(features ...int) (int, error) {
	if len(features) != l.FeatureCount {
		return 0, fmt.Errorf("expected %d features, got %d", l.FeatureCount, len(features))
	}
	card := 0
	for i := len(features) - 1; i >= 0; i-- {
		if features[i] < 0 || features[i] >= l.FeatureSize {
			return 0, fmt.Errorf("feature %d out of range: %d", i, features[i])
		}
		card = card*l.FeatureSize + features[i]
	}
	return card, nil
}

var (
	colourNames  = [...]string{"red", "green", "purple"}
	shapeNames   = [...]string{"diamond", "oval", "squiggle"}
	shadingNames = [...]string{"solid", "striped", "open"}
	shapeGlyphs  = [...]string{"◆", "●", "≈"}
)

// Describe renders a card for people, e.g. "2 green striped ovals".
// Non-standard layouts fall back to the raw feature digits.
func (l Layout) Describe(card int) string {
	f := l.Features(card)
	if l != Standard {
		parts := make([]string, len(f))
		for i, v := range f {
			parts[i] = fmt.Sprint(v)
		}
		return "[" + strings.Join(parts, " ") + "]"
	}
	count := f[0] + 1
	shape := shapeNames[f[2]]
	if count > 1 {
		shape += "s"
	}
	return fmt.Sprintf("%d %s %s %s", count, colourNames[f[1]], shadingNames[f[3]], shape)
}

// Glyph is a compact rendering used on the board: the shape symbol repeated
// once per count, followed by the shading initial.
func (l Layout) Glyph(card int) string {
	f := l.Features(card)
	if l != Standard {
		return l.Describe(card)
	}
	return strings.Repeat(shapeGlyphs[f[2]], f[0]+1) + " " + shadingNames[f[3]][:1]
}

// Colour returns the colour feature of a standard card, or -1 for other layouts.
func (l Layout) Colour(card int) int {
	if l != Standard {
		return -1
	}
	return l.Features(card)[1]
}
