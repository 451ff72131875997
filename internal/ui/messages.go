package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/olivier-w/wavedeck/internal/track"
)

// trackDecodedMsg carries a track decoded off the Update loop. seq ties it
// to the load that requested it; stale results are dropped.
type trackDecodedMsg struct {
	seq      int
	index    int
	track    *track.Track
	autoplay bool
	err      error
}

func decodeCmd(seq, index int, path string, autoplay bool) tea.Cmd {
	return func() tea.Msg {
		tr, err := track.Open(path)
		if err == nil {
			_, err = tr.Decode()
		}
		return trackDecodedMsg{seq: seq, index: index, track: tr, autoplay: autoplay, err: err}
	}
}
