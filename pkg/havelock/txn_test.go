package havelock

import (
	"errors"
	"fmt"
	"testing"
)

func TestTransactBatchesWrites(t *testing.T) {
	g := NewGraph()
	x := AtomIn(g, 1)
	y := AtomIn(g, 2)
	sum := DeriveIn(g, func() int { return x.Get() + y.Get() })

	var seen []int
	r := NewReaction(func(v int) { seen = append(seen, v) })
	if err := r.Attach(sum); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	if err := r.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	err := TransactIn(g, func(tx *Txn) error {
		x.Set(10)
		y.Set(20)
		if len(seen) != 0 {
			t.Fatal("reaction fired before commit")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("TransactIn failed: %v", err)
	}
	if len(seen) != 1 || seen[0] != 30 {
		t.Fatalf("expected one fire with 30, got %v", seen)
	}
}

func TestTransactReadsSeeStagedValues(t *testing.T) {
	g := NewGraph()
	a := AtomIn(g, 1)
	doubled := DeriveIn(g, func() int { return a.Get() * 2 })

	err := TransactIn(g, func(tx *Txn) error {
		a.Set(5)
		if got := a.Get(); got != 5 {
			t.Errorf("atom read inside transaction: got %d, want 5", got)
		}
		if got := doubled.Get(); got != 10 {
			t.Errorf("derivation read inside transaction: got %d, want 10", got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("TransactIn failed: %v", err)
	}
}

func TestTransactAbortRevertsWrites(t *testing.T) {
	g := NewGraph()
	a := AtomIn(g, "a")

	err := TransactIn(g, func(tx *Txn) error {
		a.Set("b")
		if got := a.Get(); got != "b" {
			t.Errorf("staged read: got %q, want %q", got, "b")
		}
		tx.Abort()
		t.Fatal("unreachable after Abort")
		return nil
	})
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	if got := a.Get(); got != "a" {
		t.Errorf("after abort: got %q, want %q", got, "a")
	}
}

func TestTransactErrorDiscards(t *testing.T) {
	g := NewGraph()
	a := AtomIn(g, 1)
	boom := fmt.Errorf("boom")

	err := TransactIn(g, func(tx *Txn) error {
		a.Set(2)
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped fn error, got %v", err)
	}
	if got := a.Get(); got != 1 {
		t.Errorf("after error: got %d, want 1", got)
	}
}

func TestTransactAbortedDerivationRevalidates(t *testing.T) {
	g := NewGraph()
	a := AtomIn(g, 1)
	d := DeriveIn(g, func() int { return a.Get() * 10 })

	if got := d.Get(); got != 10 {
		t.Fatalf("got %d, want 10", got)
	}

	// Evaluate against a staged value, then abort. The cache computed
	// against the staged world must not survive.
	TransactIn(g, func(tx *Txn) error {
		a.Set(2)
		if got := d.Get(); got != 20 {
			t.Errorf("staged derivation: got %d, want 20", got)
		}
		tx.Abort()
		return nil
	})

	if got := d.Get(); got != 10 {
		t.Errorf("after abort: got %d, want 10", got)
	}
}

func TestTransactNestedCommit(t *testing.T) {
	g := NewGraph()
	a := AtomIn(g, 1)
	b := AtomIn(g, 1)

	fired := 0
	r := NewReaction(func(int) { fired++ })
	if err := r.Attach(a); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	if err := r.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	err := TransactIn(g, func(outer *Txn) error {
		a.Set(2)
		return TransactIn(g, func(inner *Txn) error {
			a.Set(3)
			b.Set(9)
			return nil
		})
	})
	if err != nil {
		t.Fatalf("TransactIn failed: %v", err)
	}
	if got := a.Get(); got != 3 {
		t.Errorf("a: got %d, want 3", got)
	}
	if got := b.Get(); got != 9 {
		t.Errorf("b: got %d, want 9", got)
	}
	if fired != 1 {
		t.Errorf("expected a single coalesced fire, got %d", fired)
	}
}

func TestTransactInnerAbortSparesOuter(t *testing.T) {
	g := NewGraph()
	a := AtomIn(g, 1)
	b := AtomIn(g, 1)

	err := TransactIn(g, func(outer *Txn) error {
		a.Set(2)
		inner := TransactIn(g, func(inner *Txn) error {
			b.Set(9)
			inner.Abort()
			return nil
		})
		if !errors.Is(inner, ErrAborted) {
			t.Errorf("inner: expected ErrAborted, got %v", inner)
		}
		// The inner abort rolled back only its own frame.
		if got := a.Get(); got != 2 {
			t.Errorf("a inside outer: got %d, want 2", got)
		}
		if got := b.Get(); got != 1 {
			t.Errorf("b inside outer: got %d, want 1", got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("outer TransactIn failed: %v", err)
	}
	if got := a.Get(); got != 2 {
		t.Errorf("a: got %d, want 2", got)
	}
	if got := b.Get(); got != 1 {
		t.Errorf("b: got %d, want 1", got)
	}
}

func TestTransactOuterAbortDropsCommittedInner(t *testing.T) {
	g := NewGraph()
	a := AtomIn(g, 1)

	err := TransactIn(g, func(outer *Txn) error {
		if err := TransactIn(g, func(inner *Txn) error {
			a.Set(5)
			return nil
		}); err != nil {
			t.Fatalf("inner TransactIn failed: %v", err)
		}
		// The inner frame committed into this frame, not to the graph.
		if got := a.Get(); got != 5 {
			t.Errorf("absorbed read: got %d, want 5", got)
		}
		outer.Abort()
		return nil
	})
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	if got := a.Get(); got != 1 {
		t.Errorf("after outer abort: got %d, want 1", got)
	}
}

func TestTransactAbortFromInnerFrameUnwindsBoth(t *testing.T) {
	g := NewGraph()
	a := AtomIn(g, 1)
	b := AtomIn(g, 1)

	err := TransactIn(g, func(outer *Txn) error {
		a.Set(2)
		inner := TransactIn(g, func(inner *Txn) error {
			b.Set(9)
			outer.Abort() // aborts the enclosing frame from inside
			return nil
		})
		t.Fatalf("inner TransactIn returned %v; outer abort should unwind", inner)
		return nil
	})
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	if got := a.Get(); got != 1 {
		t.Errorf("a: got %d, want 1", got)
	}
	if got := b.Get(); got != 1 {
		t.Errorf("b: got %d, want 1", got)
	}
}

func TestTransactAbortOnFinishedFrame(t *testing.T) {
	g := NewGraph()
	var stale *Txn
	if err := TransactIn(g, func(tx *Txn) error {
		stale = tx
		return nil
	}); err != nil {
		t.Fatalf("TransactIn failed: %v", err)
	}

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on stale Abort")
		}
		if _, ok := r.(*InvalidTransactionStateError); !ok {
			t.Errorf("expected *InvalidTransactionStateError, got %T", r)
		}
	}()
	stale.Abort()
}

func TestTransactRepeatedWriteKeepsLast(t *testing.T) {
	g := NewGraph()
	a := AtomIn(g, 0)

	fired := 0
	r := NewReaction(func(int) { fired++ })
	if err := r.Attach(a); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	if err := r.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	err := TransactIn(g, func(tx *Txn) error {
		for i := 1; i <= 5; i++ {
			a.Set(i)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("TransactIn failed: %v", err)
	}
	if got := a.Get(); got != 5 {
		t.Errorf("got %d, want 5", got)
	}
	if fired != 1 {
		t.Errorf("expected 1 fire for 5 writes, got %d", fired)
	}
}

func TestTransactNoNetChangeNoFire(t *testing.T) {
	g := NewGraph()
	a := AtomIn(g, 1)

	fired := 0
	r := NewReaction(func(int) { fired++ })
	if err := r.Attach(a); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	if err := r.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	err := TransactIn(g, func(tx *Txn) error {
		a.Set(2)
		a.Set(1) // back to the committed value
		return nil
	})
	if err != nil {
		t.Fatalf("TransactIn failed: %v", err)
	}
	if fired != 0 {
		t.Errorf("no net change should not fire, got %d", fired)
	}
	if g.InTransaction() {
		t.Error("graph still reports an active transaction")
	}
}

func TestTransactForeignPanicPropagates(t *testing.T) {
	g := NewGraph()
	a := AtomIn(g, 1)

	defer func() {
		r := recover()
		if r != "boom" {
			t.Fatalf("expected panic %q, got %v", "boom", r)
		}
		if got := a.Get(); got != 1 {
			t.Errorf("after panic: got %d, want 1", got)
		}
		if g.InTransaction() {
			t.Error("graph still reports an active transaction")
		}
	}()
	TransactIn(g, func(tx *Txn) error {
		a.Set(2)
		panic("boom")
	})
}
