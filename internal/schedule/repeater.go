// Package schedule provides cancellable repeating tasks driven by the
// bubbletea event loop.
package schedule

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Kind names what a repeater drives.
type Kind string

const (
	KindFrame  Kind = "frame"
	KindCursor Kind = "cursor"
)

var nextID atomic.Uint64

// FireMsg is delivered to the program each time a repeater's interval
// elapses. It must be passed back to Accept to keep the chain alive.
type FireMsg struct {
	Kind Kind
	ID   uint64
	Seq  uint64
	At   time.Time
}

// Repeater is a tea.Tick chain with an explicit start and cancel handle.
// Every Start or Cancel bumps the sequence so at most one chain per
// repeater is ever live; ticks from older chains are dropped by Accept.
//
// A Repeater is not safe for concurrent use. It is meant to be owned by a
// bubbletea model and touched only from Update.
type Repeater struct {
	kind     Kind
	id       uint64
	interval time.Duration
	seq      uint64
	running  bool
}

// New returns a stopped repeater.
func New(kind Kind, interval time.Duration) *Repeater {
	if interval <= 0 {
		interval = time.Second
	}
	return &Repeater{kind: kind, id: nextID.Add(1), interval: interval}
}

// Kind returns what the repeater drives.
func (r *Repeater) Kind() Kind { return r.kind }

// Interval returns the tick period.
func (r *Repeater) Interval() time.Duration { return r.interval }

// Running reports whether a chain is live.
func (r *Repeater) Running() bool { return r.running }

// Start cancels any live chain and schedules the first tick of a new one.
func (r *Repeater) Start() tea.Cmd {
	r.seq++
	r.running = true
	return r.tick()
}

// Cancel stops the live chain. Calling it when nothing runs is a no-op
// apart from invalidating any tick already in flight.
func (r *Repeater) Cancel() {
	r.seq++
	r.running = false
}

// Accept reports whether msg belongs to the live chain. When it does the
// returned command schedules the next tick.
func (r *Repeater) Accept(msg FireMsg) (tea.Cmd, bool) {
	if !r.Owns(msg) {
		return nil, false
	}
	return r.tick(), true
}

// Owns reports whether msg was produced by the live chain.
func (r *Repeater) Owns(msg FireMsg) bool {
	return r.running && msg.ID == r.id && msg.Seq == r.seq
}

func (r *Repeater) tick() tea.Cmd {
	kind, id, seq := r.kind, r.id, r.seq
	return tea.Tick(r.interval, func(t time.Time) tea.Msg {
		return FireMsg{Kind: kind, ID: id, Seq: seq, At: t}
	})
}
