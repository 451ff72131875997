package ui

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/olivier-w/wavedeck/internal/canvas"
	"github.com/olivier-w/wavedeck/internal/queue"
	"github.com/olivier-w/wavedeck/internal/session"
	"github.com/olivier-w/wavedeck/internal/waveform"
)

// Model is the Bubbletea model for the wavedeck TUI. It owns the track list
// and forwards transport commands to the playback session.
type Model struct {
	session *session.Session
	queue   *queue.Queue

	spinner   spinner.Model
	volumeBar progress.Model

	loading  bool
	loadSeq  int
	status   string
	width    int
	height   int
	quitting bool
}

// New creates a Model playing the queue through s.
func New(s *session.Session, q *queue.Queue) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})

	m := Model{
		session:   s,
		queue:     q,
		spinner:   sp,
		volumeBar: newVolumeBar(),
	}
	if q.Current() != nil {
		m.loadSeq = 1
		m.loading = true
		q.SetState(q.CurrentIndex(), queue.Loading)
	}
	return m
}

// Init decodes the first track. It waits for the user to press play.
func (m Model) Init() tea.Cmd {
	e := m.queue.Current()
	if e == nil {
		return tea.SetWindowTitle("wavedeck")
	}
	return tea.Batch(
		decodeCmd(m.loadSeq, m.queue.CurrentIndex(), e.Path, false),
		m.spinner.Tick,
		tea.SetWindowTitle("wavedeck"),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.handleMsg(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.session.ChangeVolume(m.session.Volume() + volumeWheel)
			return nil
		case tea.MouseButtonWheelDown:
			m.session.ChangeVolume(m.session.Volume() - volumeWheel)
			return nil
		}
		return m.session.HandleMouse(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.volumeBar.Width = max(min(msg.Width/5, 24), 8)
		surface, err := canvas.New(chartRect(m.width, m.height))
		if err != nil {
			return nil
		}
		if err := m.session.AttachSurface(surface); err != nil {
			log.Printf("ui: attach surface: %v", err)
		}
		return nil

	case trackDecodedMsg:
		return m.handleDecoded(msg)

	case session.TrackEndedMsg:
		if m.queue.Len() == 0 {
			return nil
		}
		m.queue.Next()
		return m.loadCurrent(true)

	case spinner.TickMsg:
		if !m.loading {
			return nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd
	}

	return m.session.Update(msg)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if isQuit(msg) {
		m.quitting = true
		m.session.Teardown()
		return tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
	}

	switch msg.String() {
	case " ":
		return m.togglePlay()
	case "s":
		m.report(m.session.Stop())
		return m.windowTitle()
	case "n":
		if m.queue.Len() > 1 {
			m.queue.Next()
			return m.loadCurrent(true)
		}
	case "p":
		if m.queue.Len() > 1 {
			m.queue.Prev()
			return m.loadCurrent(true)
		}
	case "left", "h":
		return m.seekBy(-seekStep * time.Second)
	case "right", "l":
		return m.seekBy(seekStep * time.Second)
	case "+", "=", "up", "k":
		m.session.ChangeVolume(m.session.Volume() + volumeKeyStep)
	case "-", "down", "j":
		m.session.ChangeVolume(m.session.Volume() - volumeKeyStep)
	case "z":
		if m.queue.IsShuffled() {
			m.queue.DisableShuffle()
		} else {
			m.queue.EnableShuffle()
		}
	}
	return nil
}

func (m *Model) togglePlay() tea.Cmd {
	switch m.session.State().Phase {
	case session.Playing:
		m.report(m.session.Pause(false))
		return m.windowTitle()
	case session.Idle:
		if m.loading {
			return nil
		}
		return m.loadCurrent(true)
	case session.Ended:
		if _, err := m.session.Seek(0); err != nil {
			m.report(err)
			return nil
		}
	}

	cmd, err := m.session.Play()
	m.report(err)
	return tea.Batch(cmd, m.windowTitle())
}

func (m *Model) seekBy(delta time.Duration) tea.Cmd {
	if m.session.State().Phase == session.Idle {
		return nil
	}
	cmd, err := m.session.Seek(m.session.Position() + delta)
	m.report(err)
	return cmd
}

// loadCurrent tears down the session and decodes the queue's current entry
// off the Update loop.
func (m *Model) loadCurrent(autoplay bool) tea.Cmd {
	e := m.queue.Current()
	if e == nil {
		return nil
	}
	m.session.Teardown()
	m.loadSeq++
	m.loading = true
	m.status = ""
	idx := m.queue.CurrentIndex()
	m.queue.SetState(idx, queue.Loading)
	return tea.Batch(decodeCmd(m.loadSeq, idx, e.Path, autoplay), m.spinner.Tick)
}

func (m *Model) handleDecoded(msg trackDecodedMsg) tea.Cmd {
	if msg.seq != m.loadSeq {
		return nil
	}
	m.loading = false

	if msg.err != nil {
		m.queue.SetState(msg.index, queue.Failed)
		title := ""
		if e := m.queue.Entry(msg.index); e != nil {
			title = e.Title
		}
		log.Printf("ui: decode %q: %v", title, msg.err)
		m.status = fmt.Sprintf("cannot play %s: %v", title, msg.err)
		return nil
	}

	m.queue.SetState(msg.index, queue.Ready)
	m.queue.SetTitle(msg.index, msg.track.String())

	surface, err := canvas.New(chartRect(m.width, m.height))
	if err == nil {
		err = m.session.Load(msg.track, surface)
	}
	if err != nil {
		m.queue.SetState(msg.index, queue.Failed)
		m.report(err)
		return nil
	}
	if !msg.autoplay {
		return m.windowTitle()
	}
	cmd, err := m.session.Play()
	m.report(err)
	return tea.Batch(cmd, m.windowTitle())
}

func (m *Model) report(err error) {
	if err == nil {
		return
	}
	log.Printf("ui: %v", err)
	m.status = err.Error()
}

func (m *Model) windowTitle() tea.Cmd {
	tr := m.session.Track()
	if tr == nil {
		return tea.SetWindowTitle("wavedeck")
	}
	icon := "▶ "
	if m.session.State().Phase != session.Playing {
		icon = "⏸ "
	}
	return tea.SetWindowTitle(icon + tr.Title + " — wavedeck")
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(indent(headerStyle.Render("wavedeck")) + "\n")
	b.WriteString(indent(m.titleLine()) + "\n")
	b.WriteString("\n")

	rect := chartRect(m.width, m.height)
	chart := m.session.View()
	if chart == "" || m.loading {
		chart = m.placeholder(rect)
	}
	b.WriteString(indent(chart) + "\n")

	state := m.session.State()
	clock := fmt.Sprintf("%s / %s",
		waveform.FormatClock(m.session.Position()),
		waveform.FormatClock(m.session.Duration()))
	b.WriteString("\n")
	b.WriteString(indent(timeStyle.Render(clock)+"  "+statusStyle.Render(phaseLabel(state.Phase))+"  "+statusStyle.Render(renderVolume(m.volumeBar, state.Volume))) + "\n")
	b.WriteString(indent(renderQueueLine(m.queue)) + "\n")
	if m.status != "" {
		b.WriteString(indent(errorStyle.Render(m.status)) + "\n")
	} else {
		b.WriteString("\n")
	}
	b.WriteString(indent(helpStyle.Render(helpText(m.queue.Len() > 1))) + "\n")
	return b.String()
}

func (m Model) titleLine() string {
	if tr := m.session.Track(); tr != nil && !m.loading {
		if tr.Artist != "" {
			return titleStyle.Render(tr.Title) + "  " + artistStyle.Render(tr.Artist)
		}
		return titleStyle.Render(tr.Title)
	}
	if e := m.queue.Current(); e != nil {
		return titleStyle.Render(e.Title)
	}
	return ""
}

func (m Model) placeholder(rect canvas.Rect) string {
	lines := make([]string, rect.Height)
	if m.loading {
		lines[rect.Height/2] = m.spinner.View() + " decoding..."
	}
	return strings.Join(lines, "\n")
}
