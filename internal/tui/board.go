package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lox/setgame/internal/ui"
)

// Sender delivers messages into a running program. *tea.Program is one.
type Sender interface {
	Send(msg tea.Msg)
}

// EventMsg carries one engine notification into the program.
type EventMsg ui.Event

// QuitMsg asks the program to exit.
type QuitMsg struct{}

// Board is a ui.Sink that forwards every notification to a Bubble Tea
// program. Send blocks until the program takes the message, or returns at
// once after the program has exited.
type Board struct {
	ui.Funnel
	program Sender
}

// NewBoard creates a sink that feeds program.
func NewBoard(program Sender) *Board {
	b := &Board{program: program}
	b.Funnel = func(e ui.Event) {
		b.program.Send(EventMsg(e))
	}
	return b
}

// Quit asks the program to exit.
func (b *Board) Quit() {
	b.program.Send(QuitMsg{})
}
