package schedule

import (
	"testing"
	"time"
)

func fire(r *Repeater) FireMsg {
	return FireMsg{Kind: r.kind, ID: r.id, Seq: r.seq, At: time.Now()}
}

func TestStartAcceptsOnlyLiveChain(t *testing.T) {
	r := New(KindCursor, time.Second)
	if r.Running() {
		t.Fatal("new repeater should be stopped")
	}

	if cmd := r.Start(); cmd == nil {
		t.Fatal("Start returned nil command")
	}
	first := fire(r)

	r.Start()
	second := fire(r)

	if _, ok := r.Accept(first); ok {
		t.Fatal("tick from replaced chain was accepted")
	}
	cmd, ok := r.Accept(second)
	if !ok || cmd == nil {
		t.Fatal("tick from live chain was rejected")
	}
}

func TestCancelIsIdempotentAndDropsInFlightTicks(t *testing.T) {
	r := New(KindFrame, 10*time.Millisecond)
	r.Cancel()
	r.Cancel()
	if r.Running() {
		t.Fatal("cancelled repeater reports running")
	}

	r.Start()
	inFlight := fire(r)
	r.Cancel()
	if _, ok := r.Accept(inFlight); ok {
		t.Fatal("tick accepted after Cancel")
	}
}

func TestRepeatersDoNotShareTicks(t *testing.T) {
	a := New(KindFrame, time.Second)
	b := New(KindFrame, time.Second)
	a.Start()
	b.Start()
	if b.Owns(fire(a)) {
		t.Fatal("repeater accepted another repeater's tick")
	}
}

func TestNonPositiveIntervalDefaults(t *testing.T) {
	if got := New(KindCursor, 0).Interval(); got != time.Second {
		t.Fatalf("Interval = %v, want 1s", got)
	}
}
