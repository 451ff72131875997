package ui

import tea "github.com/charmbracelet/bubbletea"

const (
	seekStep      = 5 // seconds
	volumeKeyStep = 0.05
	volumeWheel   = 0.01
)

func isQuit(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return true
	}
	return false
}

func helpText(hasQueue bool) string {
	s := "space play/pause  s stop  ←/→ seek  +/- volume"
	if hasQueue {
		s += "  n/p track  z shuffle"
	}
	s += "  drag cursor to seek  q quit"
	return s
}
