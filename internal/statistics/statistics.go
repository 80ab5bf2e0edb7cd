// Package statistics summarises seat results over many simulated games.
package statistics

import (
	"fmt"
	"math"
	"slices"
	"sort"
)

// GameResult is one seat's outcome in a single game.
type GameResult struct {
	Score  int
	Won    bool // had the highest score
	Shared bool // had the highest score together with another seat
}

// Statistics tracks one seat across games
type Statistics struct {
	Games     int
	Wins      int // includes shared wins
	Ties      int
	SumScore  float64
	SumScore2 float64   // Sum of squares for variance calculation
	Values    []float64 // Store all scores for median/percentile calculation
	MaxScore  int
}

// Add incorporates one game's result.
func (s *Statistics) Add(result GameResult) {
	score := float64(result.Score)
	s.Games++
	s.SumScore += score
	s.SumScore2 += score * score
	s.Values = append(s.Values, score)

	if result.Won {
		s.Wins++
		if result.Shared {
			s.Ties++
		}
	}
	if result.Score > s.MaxScore {
		s.MaxScore = result.Score
	}
}

// Mean returns the average score per game
func (s *Statistics) Mean() float64 {
	if s.Games == 0 {
		return 0
	}
	return s.SumScore / float64(s.Games)
}

// Variance returns the sample variance of the scores
func (s *Statistics) Variance() float64 {
	if s.Games < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumScore2 - float64(s.Games)*mean*mean) / float64(s.Games-1)
}

// StdDev returns the sample standard deviation of the scores
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(max(s.Variance(), 0))
}

// StdError returns the standard error of the mean
func (s *Statistics) StdError() float64 {
	if s.Games == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Games))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// WinRate is the fraction of games won outright or shared.
func (s *Statistics) WinRate() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Games)
}

// Median returns the median score
func (s *Statistics) Median() float64 {
	return s.Percentile(0.5)
}

// Percentile returns the score at the given percentile (0.0 to 1.0),
// interpolating between neighbours.
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := slices.Clone(s.Values)
	sort.Float64s(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Validate checks the counters agree with each other.
func (s *Statistics) Validate() error {
	if s.Games <= 0 {
		return fmt.Errorf("invalid games count: %d", s.Games)
	}
	if len(s.Values) != s.Games {
		return fmt.Errorf("values array length (%d) does not match games count (%d)",
			len(s.Values), s.Games)
	}
	if s.Wins > s.Games {
		return fmt.Errorf("wins (%d) exceed games (%d)", s.Wins, s.Games)
	}
	if s.Ties > s.Wins {
		return fmt.Errorf("ties (%d) exceed wins (%d)", s.Ties, s.Wins)
	}
	return nil
}

// Table tracks every seat of a simulation.
type Table struct {
	Seats []Statistics
}

// NewTable creates statistics for the given number of seats.
func NewTable(seats int) *Table {
	return &Table{Seats: make([]Statistics, seats)}
}

// AddGame records one finished game. scores is indexed by seat and winners
// lists the seats with the highest score.
func (t *Table) AddGame(scores []int, winners []int) {
	shared := len(winners) > 1
	for seat := range t.Seats {
		result := GameResult{Won: slices.Contains(winners, seat)}
		result.Shared = result.Won && shared
		if seat < len(scores) {
			result.Score = scores[seat]
		}
		t.Seats[seat].Add(result)
	}
}
