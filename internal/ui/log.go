package ui

import (
	"time"

	"github.com/charmbracelet/log"
)

// LogSink writes notifications to a logger. Board traffic goes to debug so a
// headless run at info level only shows scores, freezes over a second and
// the final result.
type LogSink struct {
	logger *log.Logger
	names  []string
}

// NewLogSink creates a sink that logs through logger. names maps player ids to
// display names; unknown ids are logged by number.
func NewLogSink(logger *log.Logger, names []string) *LogSink {
	return &LogSink{
		logger: logger.WithPrefix("ui"),
		names:  names,
	}
}

func (s *LogSink) name(player int) any {
	if player >= 0 && player < len(s.names) {
		return s.names[player]
	}
	return player
}

func (s *LogSink) PlaceCard(card, slot int) {
	s.logger.Debug("Card placed", "card", card, "slot", slot)
}

func (s *LogSink) RemoveCard(slot int) {
	s.logger.Debug("Card removed", "slot", slot)
}

func (s *LogSink) PlaceToken(player, slot int) {
	s.logger.Debug("Token placed", "player", s.name(player), "slot", slot)
}

func (s *LogSink) RemoveToken(player, slot int) {
	s.logger.Debug("Token removed", "player", s.name(player), "slot", slot)
}

func (s *LogSink) RemoveTokens(slot int) {
	s.logger.Debug("Tokens cleared", "slot", slot)
}

func (s *LogSink) SetScore(player, score int) {
	s.logger.Info("Score", "player", s.name(player), "score", score)
}

func (s *LogSink) SetFreeze(player int, remaining time.Duration) {
	if remaining >= time.Second {
		s.logger.Info("Frozen", "player", s.name(player), "remaining", remaining)
		return
	}
	s.logger.Debug("Frozen", "player", s.name(player), "remaining", remaining)
}

func (s *LogSink) SetCountdown(remaining time.Duration, warn bool) {
	s.logger.Debug("Countdown", "remaining", remaining, "warn", warn)
}

func (s *LogSink) AnnounceWinner(players []int) {
	names := make([]any, len(players))
	for i, p := range players {
		names[i] = s.name(p)
	}
	s.logger.Info("Game over", "winners", names)
}
