// Package tui renders the game in the terminal with Bubble Tea and turns key
// presses into player input.
package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/setgame/internal/cards"
	"github.com/lox/setgame/internal/ui"
)

const (
	cellWidth  = 12
	maxLogSize = 500
)

// Config describes the board being shown and where input goes.
type Config struct {
	Layout      cards.Layout
	Rows        int
	Columns     int
	Names       []string
	Keys        []string // key row per player, empty for bots
	TurnTimeout time.Duration

	// Press receives slot presses. It is called from a command goroutine and
	// may block.
	Press func(player, slot int)
	// Quit is called when the user asks to leave.
	Quit func()
}

// Model is the Bubble Tea model for the game screen. It only changes state in
// response to EventMsg values, so it always shows what the engine committed.
type Model struct {
	cfg    Config
	logger *log.Logger
	keys   keyMap
	slots  map[string]slotKey

	cards     []int
	holders   []map[int]struct{}
	scores    []int
	freezes   []time.Duration
	remaining time.Duration
	warn      bool
	winners   []int
	gameOver  bool

	logViewport viewport.Model
	bar         progress.Model
	warnBar     progress.Model
	gameLog     []string

	width    int
	height   int
	quitting bool
}

// NewModel creates the game screen.
func NewModel(cfg Config, logger *log.Logger) *Model {
	size := cfg.Rows * cfg.Columns
	m := &Model{
		cfg:         cfg,
		logger:      logger.WithPrefix("tui"),
		keys:        defaultKeyMap(),
		slots:       slotKeys(cfg.Keys),
		cards:       make([]int, size),
		holders:     make([]map[int]struct{}, size),
		scores:      make([]int, len(cfg.Names)),
		freezes:     make([]time.Duration, len(cfg.Names)),
		remaining:   cfg.TurnTimeout,
		logViewport: viewport.New(60, 6),
		bar:         progress.New(progress.WithSolidFill(normalColour), progress.WithoutPercentage(), progress.WithWidth(40)),
		warnBar:     progress.New(progress.WithSolidFill(warningColour), progress.WithoutPercentage(), progress.WithWidth(40)),
	}
	for i := range m.cards {
		m.cards[i] = -1
		m.holders[i] = make(map[int]struct{})
	}
	return m
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EventMsg:
		m.apply(ui.Event(msg))

	case QuitMsg:
		m.quitting = true
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			if m.cfg.Quit != nil {
				m.cfg.Quit()
			}
			return m, tea.Quit
		case key.Matches(msg, m.keys.ScrollUp):
			m.logViewport.HalfPageUp()
		case key.Matches(msg, m.keys.ScrollDown):
			m.logViewport.HalfPageDown()
		default:
			if sk, ok := m.slots[msg.String()]; ok && !m.gameOver {
				return m, m.pressCmd(sk)
			}
		}
	}
	return m, nil
}

func (m *Model) pressCmd(sk slotKey) tea.Cmd {
	press := m.cfg.Press
	if press == nil {
		return nil
	}
	return func() tea.Msg {
		press(sk.player, sk.slot)
		return nil
	}
}

func (m *Model) validSlot(slot int) bool {
	return slot >= 0 && slot < len(m.cards)
}

func (m *Model) validPlayer(player int) bool {
	return player >= 0 && player < len(m.scores)
}

func (m *Model) apply(e ui.Event) {
	switch e.Kind {
	case ui.KindPlaceCard:
		if m.validSlot(e.Slot) {
			m.cards[e.Slot] = e.Card
		}
	case ui.KindRemoveCard:
		if m.validSlot(e.Slot) {
			m.cards[e.Slot] = -1
		}
	case ui.KindPlaceToken:
		if m.validSlot(e.Slot) {
			m.holders[e.Slot][e.Player] = struct{}{}
		}
	case ui.KindRemoveToken:
		if m.validSlot(e.Slot) {
			delete(m.holders[e.Slot], e.Player)
		}
	case ui.KindRemoveTokens:
		if m.validSlot(e.Slot) {
			clear(m.holders[e.Slot])
		}
	case ui.KindScore:
		if m.validPlayer(e.Player) {
			m.scores[e.Player] = e.Score
			m.addLog(SuccessStyle.Render(fmt.Sprintf("%s found a set (%d)", m.name(e.Player), e.Score)))
		}
	case ui.KindFreeze:
		if m.validPlayer(e.Player) {
			if m.freezes[e.Player] == 0 && e.Millis > 0 {
				m.addLog(WarningStyle.Render(fmt.Sprintf("%s frozen for %s", m.name(e.Player), e.Remaining())))
			}
			m.freezes[e.Player] = e.Remaining()
		}
	case ui.KindCountdown:
		m.remaining = e.Remaining()
		m.warn = e.Warn
	case ui.KindAnnounceWinner:
		m.gameOver = true
		m.winners = e.Winners
		m.addLog(SuccessStyle.Render("Game over: " + m.winnerText()))
	default:
		m.logger.Debug("Ignoring event", "kind", e.Kind)
	}
}

func (m *Model) name(player int) string {
	if player >= 0 && player < len(m.cfg.Names) {
		return m.cfg.Names[player]
	}
	return fmt.Sprintf("Player %d", player+1)
}

func (m *Model) winnerText() string {
	if len(m.winners) == 0 {
		return "no winner"
	}
	names := make([]string, len(m.winners))
	for i, p := range m.winners {
		names[i] = m.name(p)
	}
	if len(names) == 1 {
		return "Winner: " + names[0]
	}
	return "Tie: " + strings.Join(names, ", ")
}

// addLog appends an entry to the event log and scrolls to it.
func (m *Model) addLog(entry string) {
	m.gameLog = append(m.gameLog, entry)
	if len(m.gameLog) > maxLogSize {
		m.gameLog = m.gameLog[len(m.gameLog)-maxLogSize:]
	}
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// Log returns the event log entries.
func (m *Model) Log() []string {
	out := make([]string, len(m.gameLog))
	copy(out, m.gameLog)
	return out
}

func (m *Model) resize() {
	gridHeight := m.cfg.Rows * 5
	m.logViewport.Width = max(m.width-2, 10)
	m.logViewport.Height = max(m.height-gridHeight-6, 3)
	barWidth := max(min(m.width-20, 60), 10)
	m.bar.Width = barWidth
	m.warnBar.Width = barWidth
}

// View renders the screen
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	header := HeaderStyle.Render(" SET ") + "  " + m.renderCountdown()
	board := lipgloss.JoinHorizontal(lipgloss.Top, m.renderGrid(), " ", paneStyle.Render(m.renderScores()))
	logPane := paneStyle.Render(m.logViewport.View())

	return lipgloss.JoinVertical(lipgloss.Left, header, board, logPane, m.renderHelp())
}

func (m *Model) renderCountdown() string {
	if m.gameOver {
		return SuccessStyle.Render(m.winnerText())
	}

	fraction := 0.0
	if m.cfg.TurnTimeout > 0 {
		fraction = min(max(float64(m.remaining)/float64(m.cfg.TurnTimeout), 0), 1)
	}
	if m.warn {
		return m.warnBar.ViewAs(fraction) + " " + ErrorStyle.Render(fmt.Sprintf("%.2fs", m.remaining.Seconds()))
	}
	return m.bar.ViewAs(fraction) + " " + PlayerInfoStyle.Render(fmt.Sprintf("%ds", int(m.remaining/time.Second)))
}

func (m *Model) renderGrid() string {
	rows := make([]string, 0, m.cfg.Rows)
	for r := 0; r < m.cfg.Rows; r++ {
		cells := make([]string, 0, m.cfg.Columns)
		for c := 0; c < m.cfg.Columns; c++ {
			cells = append(cells, m.renderSlot(r*m.cfg.Columns+c))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *Model) renderSlot(slot int) string {
	var hints []string
	for _, row := range m.cfg.Keys {
		if runes := []rune(row); slot < len(runes) {
			hints = append(hints, string(runes[slot]))
		}
	}

	card := InfoStyle.Render("·")
	if c := m.cards[slot]; c >= 0 {
		card = m.cfg.Layout.Glyph(c)
		if colour := m.cfg.Layout.Colour(c); colour >= 0 && colour < len(cardStyles) {
			card = cardStyles[colour].Render(card)
		}
	}

	holders := make([]int, 0, len(m.holders[slot]))
	for p := range m.holders[slot] {
		holders = append(holders, p)
	}
	sort.Ints(holders)
	marks := make([]string, len(holders))
	for i, p := range holders {
		marks[i] = fmt.Sprint(p + 1)
	}

	style := slotStyle
	if len(holders) > 0 {
		style = markedSlotStyle
	}
	return style.Render(strings.Join([]string{
		KeyHintStyle.Render(strings.Join(hints, " ")),
		card,
		TokenStyle.Render(strings.Join(marks, " ")),
	}, "\n"))
}

func (m *Model) renderScores() string {
	var content strings.Builder
	content.WriteString(InfoStyle.Render("Players"))
	content.WriteString("\n")
	for i, name := range m.cfg.Names {
		line := fmt.Sprintf("%d %-10s %3d", i+1, name, m.scores[i])
		if f := m.freezes[i]; f > 0 {
			line += " " + WarningStyle.Render(fmt.Sprintf("frozen %ds", int((f+time.Second-1)/time.Second)))
		}
		content.WriteString(PlayerInfoStyle.Render(line))
		content.WriteString("\n")
	}
	return strings.TrimSuffix(content.String(), "\n")
}

func (m *Model) renderHelp() string {
	var parts []string
	for _, b := range m.keys.help() {
		parts = append(parts, b.Help().Key+" "+b.Help().Desc)
	}
	return InfoStyle.Render(strings.Join(parts, " • "))
}
