package havelock

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestGraphClockMonotonic(t *testing.T) {
	g := NewGraph()
	a := AtomIn(g, 0)

	before := g.Clock()
	a.Set(1)
	mid := g.Clock()
	if mid <= before {
		t.Fatalf("clock did not advance on write: %d -> %d", before, mid)
	}

	// An equal write is skipped and does not tick.
	a.Set(1)
	if g.Clock() != mid {
		t.Errorf("equal write ticked the clock: %d -> %d", mid, g.Clock())
	}

	// An aborted transaction ticks, so caches staged against it go stale.
	TransactIn(g, func(tx *Txn) error {
		a.Set(2)
		tx.Abort()
		return nil
	})
	if g.Clock() <= mid {
		t.Errorf("abort did not advance the clock: %d -> %d", mid, g.Clock())
	}
}

func TestGraphWriteFromReactionRejected(t *testing.T) {
	g := NewGraph()
	a := AtomIn(g, 1)
	b := AtomIn(g, 1)

	var writeErr error
	r := NewReaction(func(int) { writeErr = b.Set(99) })
	if err := r.Attach(a); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	if err := r.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	a.Set(2)
	if writeErr == nil {
		t.Fatal("expected the write from inside propagation to be rejected")
	}
	var rerr *ReentrantWriteError
	if !errors.As(writeErr, &rerr) {
		t.Fatalf("expected *ReentrantWriteError, got %T", writeErr)
	}
	if rerr.During != "propagation" {
		t.Errorf("During = %q, want %q", rerr.During, "propagation")
	}
	if got := b.Get(); got != 1 {
		t.Errorf("rejected write took effect: got %d", got)
	}
}

func TestGraphIsolation(t *testing.T) {
	g1 := NewGraph()
	g2 := NewGraph()
	a := AtomIn(g1, 1)
	AtomIn(g2, 10).Set(20)

	if got := g1.Clock(); got != 0 {
		t.Errorf("g1 clock moved on a g2 write: %d", got)
	}
	if got := a.Get(); got != 1 {
		t.Errorf("a = %d, want 1", got)
	}
}

func TestGraphDebugLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	g := NewGraph(WithLogger(logger))
	a := AtomIn(g, 1)
	a.Set(2)

	out := buf.String()
	if !strings.Contains(out, "atom write") {
		t.Errorf("expected a write log line, got:\n%s", out)
	}
	if !strings.Contains(out, "propagation settled") {
		t.Errorf("expected a propagation log line, got:\n%s", out)
	}
}

func TestUntrackedIn(t *testing.T) {
	g := NewGraph()
	a := AtomIn(g, 1)
	b := AtomIn(g, 10)

	d := DeriveIn(g, func() int {
		v := a.Get()
		UntrackedIn(g, func() {
			v += b.Get()
		})
		return v
	})

	if got := d.Get(); got != 11 {
		t.Fatalf("got %d, want 11", got)
	}

	b.Set(20)
	if got := d.Get(); got != 11 {
		t.Errorf("untracked read became a dependency: got %d, want 11", got)
	}
	a.Set(2)
	if got := d.Get(); got != 22 {
		t.Errorf("got %d, want 22", got)
	}
}
