package devtools

import (
	"testing"

	"github.com/gitter-badger/havelock/pkg/havelock"
)

func TestRecorderCollectsEvents(t *testing.T) {
	rec := NewRecorder(16)
	g := havelock.NewGraph(havelock.WithObserver(rec.Observer()))

	a := havelock.AtomIn(g, 1)
	d := havelock.DeriveIn(g, func() int { return a.Get() * 2 })

	r := havelock.NewReaction(func(int) {})
	if err := r.Attach(d); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	if err := r.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	a.Set(2)

	snap := rec.Snapshot()
	if snap.Stats.Writes != 1 {
		t.Errorf("writes = %d, want 1", snap.Stats.Writes)
	}
	if snap.Stats.Recomputes < 1 {
		t.Errorf("recomputes = %d, want >= 1", snap.Stats.Recomputes)
	}
	if snap.Stats.Reactions != 1 {
		t.Errorf("reactions = %d, want 1", snap.Stats.Reactions)
	}
	if snap.Stats.Propagations != 1 {
		t.Errorf("propagations = %d, want 1", snap.Stats.Propagations)
	}
	if snap.Stats.Clock == 0 {
		t.Error("clock never advanced")
	}

	if len(snap.Events) == 0 {
		t.Fatal("no events buffered")
	}
	for i := 1; i < len(snap.Events); i++ {
		if snap.Events[i].Seq <= snap.Events[i-1].Seq {
			t.Fatalf("events out of order at %d: %d then %d", i, snap.Events[i-1].Seq, snap.Events[i].Seq)
		}
	}
}

func TestRecorderTransactionStats(t *testing.T) {
	rec := NewRecorder(16)
	g := havelock.NewGraph(havelock.WithObserver(rec.Observer()))
	a := havelock.AtomIn(g, 1)

	havelock.TransactIn(g, func(tx *havelock.Txn) error {
		a.Set(2)
		return nil
	})
	havelock.TransactIn(g, func(tx *havelock.Txn) error {
		a.Set(3)
		tx.Abort()
		return nil
	})

	stats := rec.Snapshot().Stats
	if stats.StagedWrites != 2 {
		t.Errorf("staged writes = %d, want 2", stats.StagedWrites)
	}
	if stats.Commits != 1 {
		t.Errorf("commits = %d, want 1", stats.Commits)
	}
	if stats.Aborts != 1 {
		t.Errorf("aborts = %d, want 1", stats.Aborts)
	}
}

func TestRecorderRingOverflow(t *testing.T) {
	rec := NewRecorder(4)
	g := havelock.NewGraph(havelock.WithObserver(rec.Observer()))
	a := havelock.AtomIn(g, 0)

	for i := 1; i <= 10; i++ {
		a.Set(i)
	}

	snap := rec.Snapshot()
	if len(snap.Events) != 4 {
		t.Fatalf("buffered %d events, want capacity 4", len(snap.Events))
	}
	// Oldest first: the ring keeps the most recent window, contiguous.
	for i := 1; i < len(snap.Events); i++ {
		if snap.Events[i].Seq != snap.Events[i-1].Seq+1 {
			t.Fatalf("ring not contiguous: %+v", snap.Events)
		}
	}
	if snap.Stats.Writes != 10 {
		t.Errorf("stats must count beyond the ring: writes = %d", snap.Stats.Writes)
	}
}

func TestRecorderSubscribe(t *testing.T) {
	rec := NewRecorder(16)
	g := havelock.NewGraph(havelock.WithObserver(rec.Observer()))
	a := havelock.AtomIn(g, 0)

	ch, cancel := rec.Subscribe(8)
	a.Set(1)

	ev := <-ch
	if ev.Kind != KindWrite || ev.NodeID != a.ID() {
		t.Errorf("unexpected first event %+v", ev)
	}

	cancel()
	// Buffered events drain, then the channel closes.
	for range ch {
	}

	// Events after cancel are dropped, not a panic.
	a.Set(2)
}

func TestRecorderSlowSubscriberDoesNotBlock(t *testing.T) {
	rec := NewRecorder(16)
	g := havelock.NewGraph(havelock.WithObserver(rec.Observer()))
	a := havelock.AtomIn(g, 0)

	_, cancel := rec.Subscribe(1)
	defer cancel()

	// Far more events than the subscriber buffer holds; record must not
	// stall the writing goroutine.
	for i := 1; i <= 50; i++ {
		a.Set(i)
	}
	if got := rec.Snapshot().Stats.Writes; got != 50 {
		t.Errorf("writes = %d, want 50", got)
	}
}
