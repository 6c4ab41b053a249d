package havelock

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Txn is one transaction frame. Frames nest by call-stack recursion:
// each Transact pushes a frame as child of the currently active one, and
// reads inside the transaction observe the innermost pending write,
// falling back frame by frame to committed state.
type Txn struct {
	g       *Graph
	parent  *Txn
	pending map[*dnode]*pendingWrite

	// order remembers first-staged order so commits apply and propagate
	// deterministically.
	order []*dnode

	done bool
}

// pendingWrite is one staged atom write: the candidate value, the clock
// stamp it was staged with, and the type-recovering commit hook bound to
// the atom cell.
type pendingWrite struct {
	value   any
	version uint64
	commit  func(value any, version uint64) bool
}

// abortSignal is the panic payload Abort unwinds with. Each Transact
// recovers it: the owning frame converts it to ErrAborted, enclosing inner
// frames discard themselves and keep unwinding.
type abortSignal struct {
	frame *Txn
}

// Abort discards this frame's pending writes and unwinds out of the
// owning Transact immediately; that Transact returns ErrAborted. Writes
// already merged into this frame by committed nested sub-transactions are
// discarded with it; writes committed to this frame's parent are not.
//
// Abort never returns. Calling it on a frame whose Transact has already
// committed or aborted panics with *InvalidTransactionStateError.
func (t *Txn) Abort() {
	if t.done || !t.active() {
		panic(&InvalidTransactionStateError{Op: "Abort on inactive frame"})
	}
	panic(abortSignal{frame: t})
}

// active reports whether t is on the graph's current frame stack.
func (t *Txn) active() bool {
	for f := t.g.txn; f != nil; f = f.parent {
		if f == t {
			return true
		}
	}
	return false
}

// stageable is the cell-side contract staging needs: the node identity and
// a type-recovering commit hook.
type stageable interface {
	sourceNode() *dnode
	stagedCommit() func(any, uint64) bool
}

// stage records a pending write for cell, stamping it with a fresh clock
// tick. A second write to the same atom in the same frame replaces the
// first.
func (t *Txn) stage(cell stageable, value any) {
	n := cell.sourceNode()
	g := t.g
	version := g.tick()

	if pw, ok := t.pending[n]; ok {
		pw.value = value
		pw.version = version
	} else {
		t.pending[n] = &pendingWrite{
			value:   value,
			version: version,
			commit:  cell.stagedCommit(),
		}
		t.order = append(t.order, n)
	}

	g.debugf("atom write staged", "atom", n.id, "clock", version)
	if g.metrics != nil {
		g.metrics.stagedWrites.Inc()
	}
	g.emitWrite(WriteEvent{AtomID: n.id, Clock: version, Staged: true})
}

// absorb merges a committed child frame's writes into this frame,
// preserving the child's staged stamps.
func (t *Txn) absorb(child *Txn) {
	for _, n := range child.order {
		pw := child.pending[n]
		if existing, ok := t.pending[n]; ok {
			existing.value = pw.value
			existing.version = pw.version
		} else {
			t.pending[n] = pw
			t.order = append(t.order, n)
		}
	}
}

// staged looks up the innermost pending write for n on the active frame
// stack.
func (g *Graph) staged(n *dnode) (*pendingWrite, bool) {
	for f := g.txn; f != nil; f = f.parent {
		if pw, ok := f.pending[n]; ok {
			return pw, true
		}
	}
	return nil, false
}

// Transact runs fn inside a new transaction frame on the default graph.
// See TransactIn.
func Transact(fn func(tx *Txn) error) error {
	return TransactIn(DefaultGraph, fn)
}

// TransactIn runs fn inside a new transaction frame on g.
//
// Atom writes made while the frame is active are staged, not propagated;
// reads observe them. When fn returns nil the frame commits: nested frames
// merge into their parent, and the outermost frame applies the final value
// of every distinct atom touched anywhere in the transaction and runs one
// coalesced propagation pass. When fn returns a non-nil error, or calls
// Abort on the frame, the frame's pending writes are discarded and
// TransactIn returns that error (ErrAborted for Abort). Aborting an inner
// frame never rolls back sibling frames that already committed into the
// shared parent.
func TransactIn(g *Graph, fn func(tx *Txn) error) error {
	frame := &Txn{
		g:       g,
		parent:  g.txn,
		pending: make(map[*dnode]*pendingWrite),
	}
	g.txn = frame

	var ferr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				g.txn = frame.parent
				frame.discard()
				if sig, ok := r.(abortSignal); ok && sig.frame == frame {
					ferr = ErrAborted
					return
				}
				// An outer frame's abort, or an unrelated panic: this
				// frame is gone either way, keep unwinding.
				panic(r)
			}
		}()
		ferr = fn(frame)
	}()

	if ferr != nil {
		if !frame.done {
			g.txn = frame.parent
			frame.discard()
		}
		return ferr
	}

	g.txn = frame.parent
	frame.done = true

	if frame.parent != nil {
		frame.parent.absorb(frame)
		return nil
	}
	g.commitRoot(frame)
	return nil
}

// discard drops the frame's pending writes. The clock ticks so that
// derivations computed against the staged values revalidate instead of
// trusting their same-clock cache.
func (t *Txn) discard() {
	if t.done {
		return
	}
	t.done = true
	g := t.g
	g.tick()

	g.debugf("transaction aborted", "atoms", len(t.pending), "clock", g.clock)
	if g.metrics != nil {
		g.metrics.transactions.WithLabelValues("aborted").Inc()
	}
	g.emitAbort(AbortEvent{Clock: g.clock, Atoms: len(t.pending)})
}

// commitRoot applies a root frame to committed state and runs one
// propagation pass over every atom whose value moved.
func (g *Graph) commitRoot(frame *Txn) {
	var span traceSpan
	if g.tracer != nil {
		_, span = g.tracer.Start(context.Background(), "havelock.commit")
		defer span.End()
	}

	changed := make([]*dnode, 0, len(frame.order))
	for _, n := range frame.order {
		pw := frame.pending[n]
		if pw.commit(pw.value, pw.version) {
			changed = append(changed, n)
		}
	}

	g.debugf("transaction committed",
		"atoms", len(frame.order), "changed", len(changed), "clock", g.clock)
	if g.metrics != nil {
		g.metrics.transactions.WithLabelValues("committed").Inc()
	}
	g.emitCommit(CommitEvent{Clock: g.clock, Atoms: len(frame.order), Changed: len(changed)})

	if span != nil {
		span.SetAttributes(
			attribute.Int("havelock.atoms_staged", len(frame.order)),
			attribute.Int("havelock.atoms_changed", len(changed)),
		)
		if len(changed) == 0 {
			span.SetStatus(codes.Ok, "no visible change")
		}
	}

	if len(changed) == 0 {
		return
	}
	g.propagate(changed)
}

// stagedCommit returns the commit hook stage stores with a pending write.
func (c *atomCell[T]) stagedCommit() func(any, uint64) bool {
	return c.commitStaged
}
