package tui

import "github.com/charmbracelet/lipgloss"

// Static styles for content elements
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Bold(true)

	GameLogStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))

	KeyHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	TokenStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true)

	PlayerInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFEAA7")).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

// Card colours for the standard deck, indexed by the colour feature.
var cardStyles = []lipgloss.Style{
	lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
	lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true),
	lipgloss.NewStyle().Foreground(lipgloss.Color("#B57EDC")).Bold(true),
}

var (
	slotStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#626262")).
			Width(cellWidth).
			Align(lipgloss.Center)

	markedSlotStyle = slotStyle.
			BorderForeground(lipgloss.Color("#FFD700"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#626262"))
)

const (
	warningColour = "#FF6B6B"
	normalColour  = "#04B575"
)
