package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit       key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("ctrl+c", "quit"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll log up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "scroll log down"),
		),
	}
}

func (k keyMap) help() []key.Binding {
	return []key.Binding{k.ScrollUp, k.ScrollDown, k.Quit}
}

// slotKey is the seat and slot a key press stands for.
type slotKey struct {
	player int
	slot   int
}

// slotKeys maps each rune of a player's key row to the slot at the same
// position. Players with an empty row are skipped.
func slotKeys(rows []string) map[string]slotKey {
	keys := make(map[string]slotKey)
	for player, row := range rows {
		for slot, r := range []rune(row) {
			keys[string(r)] = slotKey{player: player, slot: slot}
		}
	}
	return keys
}
