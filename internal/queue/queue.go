package queue

import "math/rand"

// TrackState represents the load state of a track.
type TrackState int

const (
	Pending TrackState = iota
	Loading
	Ready
	Failed
)

// Entry is a single item in the track list.
type Entry struct {
	Path  string
	Title string
	State TrackState
}

// Queue manages the ordered track list. Next and Prev wrap around at both
// ends. It is only mutated from Bubbletea's single-threaded Update loop.
type Queue struct {
	entries      []Entry
	current      int
	shuffleOrder []int // maps shuffle position to entry index
	shufflePos   int
	shuffled     bool
}

// New creates a Queue positioned on the first entry.
func New(entries []Entry) *Queue {
	return &Queue{entries: entries}
}

// Len returns the total number of entries.
func (q *Queue) Len() int {
	return len(q.entries)
}

// CurrentIndex returns the zero-based index of the current entry.
func (q *Queue) CurrentIndex() int {
	return q.current
}

// Current returns a pointer to the current entry, or nil if empty.
func (q *Queue) Current() *Entry {
	return q.Entry(q.current)
}

// Entry returns a pointer to the entry at i, or nil if out of range.
func (q *Queue) Entry(i int) *Entry {
	if i < 0 || i >= len(q.entries) {
		return nil
	}
	return &q.entries[i]
}

// Next moves to the following entry, wrapping from the last to the first.
func (q *Queue) Next() *Entry {
	n := len(q.entries)
	if n == 0 {
		return nil
	}
	if q.shuffled {
		q.shufflePos = (q.shufflePos + 1) % n
		q.current = q.shuffleOrder[q.shufflePos]
	} else {
		q.current = (q.current + 1) % n
	}
	return q.Current()
}

// Prev moves to the preceding entry, wrapping from the first to the last.
func (q *Queue) Prev() *Entry {
	n := len(q.entries)
	if n == 0 {
		return nil
	}
	if q.shuffled {
		q.shufflePos = (q.shufflePos - 1 + n) % n
		q.current = q.shuffleOrder[q.shufflePos]
	} else {
		q.current = (q.current - 1 + n) % n
	}
	return q.Current()
}

// Choose jumps to entry i. It returns nil when i is out of range.
func (q *Queue) Choose(i int) *Entry {
	if i < 0 || i >= len(q.entries) {
		return nil
	}
	q.current = i
	if q.shuffled {
		for pos, idx := range q.shuffleOrder {
			if idx == i {
				q.shufflePos = pos
				break
			}
		}
	}
	return q.Current()
}

// SetState sets the state of the entry at i.
func (q *Queue) SetState(i int, state TrackState) {
	if e := q.Entry(i); e != nil {
		e.State = state
	}
}

// SetTitle replaces the display title of the entry at i.
func (q *Queue) SetTitle(i int, title string) {
	if e := q.Entry(i); e != nil && title != "" {
		e.Title = title
	}
}

// Window returns up to n entries around the current one, for display,
// along with the index of the first returned entry.
func (q *Queue) Window(n int) ([]Entry, int) {
	if n <= 0 || len(q.entries) == 0 {
		return nil, 0
	}
	start := max(q.current-n/2, 0)
	end := min(start+n, len(q.entries))
	start = max(end-n, 0)
	return q.entries[start:end], start
}

// IsShuffled returns whether shuffle mode is active.
func (q *Queue) IsShuffled() bool {
	return q.shuffled
}

// EnableShuffle activates shuffle mode. The current entry stays at position
// 0 in the shuffle order; all other indices are randomized via Fisher-Yates.
func (q *Queue) EnableShuffle() {
	n := len(q.entries)
	if n <= 1 {
		return
	}
	q.shuffled = true
	q.shuffleOrder = make([]int, 0, n)
	q.shuffleOrder = append(q.shuffleOrder, q.current)
	for i := range n {
		if i != q.current {
			q.shuffleOrder = append(q.shuffleOrder, i)
		}
	}
	rest := q.shuffleOrder[1:]
	for i := len(rest) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		rest[i], rest[j] = rest[j], rest[i]
	}
	q.shufflePos = 0
}

// DisableShuffle deactivates shuffle mode, keeping the current entry.
func (q *Queue) DisableShuffle() {
	q.shuffled = false
	q.shuffleOrder = nil
	q.shufflePos = 0
}
