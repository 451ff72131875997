package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/olivier-w/wavedeck/internal/media"
)

// BrowserResult holds the outcome of the file browser. Args can be passed
// straight to media.Collect.
type BrowserResult struct {
	Args      []string
	Cancelled bool
}

type fileItem struct {
	name string
	ext  string
}

func (i fileItem) Title() string { return strings.TrimSuffix(i.name, i.ext) }
func (i fileItem) Description() string {
	if media.IsPlaylistExt(i.ext) {
		return i.ext + " playlist"
	}
	return i.ext
}
func (i fileItem) FilterValue() string { return i.name }

type playAllItem struct{ count int }

func (i playAllItem) Title() string       { return "Play all" }
func (i playAllItem) Description() string { return fmt.Sprintf("%d tracks in this directory", i.count) }
func (i playAllItem) FilterValue() string { return "all" }

// BrowserModel is the Bubbletea model for the file picker shown when no
// arguments are given.
type BrowserModel struct {
	dir    string
	list   list.Model
	result *BrowserResult
	err    error
}

// NewBrowser lists the audio files and playlists in dir.
func NewBrowser(dir string) BrowserModel {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return BrowserModel{dir: dir, err: fmt.Errorf("cannot read directory: %w", err)}
	}

	var items []list.Item
	tracks := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		switch {
		case media.IsSupportedExt(ext):
			tracks++
		case media.IsPlaylistExt(ext):
		default:
			continue
		}
		items = append(items, fileItem{name: e.Name(), ext: ext})
	}
	if len(items) == 0 {
		return BrowserModel{dir: dir, err: fmt.Errorf("%w in %s (supported: %s)", media.ErrNoTracks, dir, media.SupportedExtsList())}
	}
	if tracks > 1 {
		items = append([]list.Item{playAllItem{count: tracks}}, items...)
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#FFFFFF"}).
		BorderLeftForeground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}).
		BorderLeftForeground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})

	l := list.New(items, delegate, defaultWidth, defaultHeight-4)
	l.Title = "wavedeck"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = headerStyle

	return BrowserModel{dir: dir, list: l}
}

// HasError returns true if the browser could not be initialized.
func (m BrowserModel) HasError() bool {
	return m.err != nil
}

// Error returns the initialization error, if any.
func (m BrowserModel) Error() error {
	return m.err
}

// Result returns the browser result after the program finishes.
func (m BrowserModel) Result() BrowserResult {
	if m.result != nil {
		return *m.result
	}
	return BrowserResult{Cancelled: true}
}

func (m BrowserModel) Init() tea.Cmd {
	return tea.SetWindowTitle("wavedeck")
}

func (m BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "enter":
			switch item := m.list.SelectedItem().(type) {
			case playAllItem:
				m.result = &BrowserResult{Args: []string{m.dir}}
				return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
			case fileItem:
				m.result = &BrowserResult{Args: []string{filepath.Join(m.dir, item.name)}}
				return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
			}
		case "q", "esc", "ctrl+c":
			m.result = &BrowserResult{Cancelled: true}
			return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
		}

	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height)
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m BrowserModel) View() string {
	if m.err != nil {
		return "\n" + indent(errorStyle.Render(m.err.Error())) + "\n"
	}
	return m.list.View()
}
