package tui

import (
	"io"
	"os"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/setgame/internal/cards"
	"github.com/lox/setgame/internal/ui"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

type pressed struct {
	player int
	slot   int
}

func newTestModel(t *testing.T) (*Model, *[]pressed, *bool) {
	t.Helper()
	var presses []pressed
	quit := false
	m := NewModel(Config{
		Layout:      cards.Standard,
		Rows:        3,
		Columns:     4,
		Names:       []string{"Alice", "Bot 1"},
		Keys:        []string{"qwerasdfzxcv", ""},
		TurnTimeout: 60 * time.Second,
		Press: func(player, slot int) {
			presses = append(presses, pressed{player, slot})
		},
		Quit: func() { quit = true },
	}, log.NewWithOptions(io.Discard, log.Options{}))
	return m, &presses, &quit
}

func send(m *Model, sink func(ui.Sink)) {
	sink(ui.Funnel(func(e ui.Event) {
		m.Update(EventMsg(e))
	}))
}

func TestModelMirrorsEvents(t *testing.T) {
	m, _, _ := newTestModel(t)

	send(m, func(s ui.Sink) {
		s.PlaceCard(0, 0)
		s.PlaceCard(40, 5)
		s.PlaceToken(1, 5)
		s.PlaceToken(0, 5)
		s.SetScore(1, 2)
		s.SetCountdown(42*time.Second, false)
	})

	assert.Equal(t, 0, m.cards[0])
	assert.Equal(t, 40, m.cards[5])
	assert.Equal(t, -1, m.cards[1])
	assert.Len(t, m.holders[5], 2)
	assert.Equal(t, []int{0, 2}, m.scores)

	view := m.View()
	assert.Contains(t, view, "Alice")
	assert.Contains(t, view, "42s")
	assert.Contains(t, view, "1 2", "both markers shown on slot 5")
	assert.Contains(t, m.Log(), "Bot 1 found a set (2)")

	send(m, func(s ui.Sink) {
		s.RemoveToken(1, 5)
		s.RemoveTokens(5)
		s.RemoveCard(5)
	})
	assert.Empty(t, m.holders[5])
	assert.Equal(t, -1, m.cards[5])
}

func TestModelIgnoresOutOfRange(t *testing.T) {
	m, _, _ := newTestModel(t)

	send(m, func(s ui.Sink) {
		s.PlaceCard(3, 99)
		s.PlaceToken(0, -1)
		s.SetScore(7, 1)
		s.SetFreeze(-2, time.Second)
	})

	assert.Equal(t, []int{0, 0}, m.scores)
	assert.Empty(t, m.Log())
}

func TestCountdownWarning(t *testing.T) {
	m, _, _ := newTestModel(t)

	send(m, func(s ui.Sink) { s.SetCountdown(1500*time.Millisecond, true) })

	assert.True(t, m.warn)
	assert.Contains(t, m.View(), "1.50s")
}

func TestFreezeLoggedOnce(t *testing.T) {
	m, _, _ := newTestModel(t)

	send(m, func(s ui.Sink) {
		s.SetFreeze(0, 3*time.Second)
		s.SetFreeze(0, 2*time.Second)
		s.SetFreeze(0, time.Second)
	})
	assert.Equal(t, []string{"Alice frozen for 3s"}, m.Log())
	assert.Contains(t, m.View(), "frozen 1s")

	send(m, func(s ui.Sink) { s.SetFreeze(0, 0) })
	assert.NotContains(t, m.renderScores(), "frozen")
	assert.Equal(t, []string{"Alice frozen for 3s"}, m.Log(), "thaw is not logged")
}

func TestSlotKeysPressSlots(t *testing.T) {
	m, presses, _ := newTestModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'w'}})
	require.NotNil(t, cmd)
	assert.Nil(t, cmd())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'v'}})
	require.NotNil(t, cmd)
	cmd()

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'y'}})
	assert.Nil(t, cmd, "unmapped key")

	assert.Equal(t, []pressed{{0, 1}, {0, 11}}, *presses)
}

func TestNoPressesAfterGameOver(t *testing.T) {
	m, _, _ := newTestModel(t)
	send(m, func(s ui.Sink) { s.AnnounceWinner([]int{0, 1}) })

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "Tie: Alice, Bot 1")
}

func TestQuitKey(t *testing.T) {
	m, _, quit := newTestModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.True(t, *quit)
	assert.Empty(t, m.View())
}

func TestWindowResize(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	assert.Equal(t, 98, m.logViewport.Width)
	assert.Equal(t, 19, m.logViewport.Height)
	assert.Equal(t, 60, m.bar.Width)
}

func TestSlotKeys(t *testing.T) {
	keys := slotKeys([]string{"ab", "", "cd"})
	assert.Equal(t, map[string]slotKey{
		"a": {0, 0},
		"b": {0, 1},
		"c": {2, 0},
		"d": {2, 1},
	}, keys)
}

type fakeProgram struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (f *fakeProgram) Send(msg tea.Msg) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
}

func TestBoardForwardsEvents(t *testing.T) {
	program := &fakeProgram{}
	board := NewBoard(program)

	board.PlaceCard(3, 1)
	board.SetCountdown(2*time.Second, true)
	board.Quit()

	assert.Equal(t, []tea.Msg{
		EventMsg{Kind: ui.KindPlaceCard, Card: 3, Slot: 1},
		EventMsg{Kind: ui.KindCountdown, Millis: 2000, Warn: true},
		QuitMsg{},
	}, program.msgs)
}
