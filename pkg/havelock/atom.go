package havelock

// atomCell is the shared underlying cell of an Atom: the node bookkeeping,
// the committed value and the equality function. Handles produced by
// WithValidator share one cell.
type atomCell[T any] struct {
	node  dnode
	value T
	equal func(T, T) bool
}

func (c *atomCell[T]) sourceNode() *dnode {
	return &c.node
}

// currentVersion returns the staged versionstamp when a transaction frame
// holds a pending write for this cell, the committed stamp otherwise.
func (c *atomCell[T]) currentVersion() uint64 {
	if pw, ok := c.node.g.staged(&c.node); ok {
		return pw.version
	}
	return c.node.version
}

func (c *atomCell[T]) equals(a, b T) bool {
	if c.equal != nil {
		return c.equal(a, b)
	}
	return defaultEquals(a, b)
}

// effective returns the value visible right now: the innermost pending
// transactional write if one exists, the committed value otherwise.
func (c *atomCell[T]) effective() T {
	if pw, ok := c.node.g.staged(&c.node); ok {
		return pw.value.(T)
	}
	return c.value
}

// commitStaged applies a staged write to committed state. Returns true when
// the committed value actually moved under the cell's equality; only then
// does the committed versionstamp advance to the staged stamp.
func (c *atomCell[T]) commitStaged(value any, version uint64) bool {
	v := value.(T)
	if c.equals(c.value, v) {
		return false
	}
	c.value = v
	c.node.version = version
	return true
}

// Atom is a mutable leaf cell: the only node type directly settable by
// callers. Reading an Atom during a derivation compute records it as a
// dependency; writing one bumps the graph's logical clock and triggers a
// synchronous propagation pass (or stages into the active transaction).
//
// An Atom value is a handle: WithValidator returns a new handle sharing the
// same underlying cell, so validation policy can differ per call site while
// all handles observe the same state.
type Atom[T any] struct {
	cell      *atomCell[T]
	validator func(T) bool
}

// NewAtom creates an atom on the default graph holding initial.
func NewAtom[T any](initial T) *Atom[T] {
	return AtomIn(DefaultGraph, initial)
}

// AtomIn creates an atom on g holding initial.
func AtomIn[T any](g *Graph, initial T) *Atom[T] {
	return &Atom[T]{
		cell: &atomCell[T]{
			node:  dnode{g: g, id: nextID()},
			value: initial,
		},
	}
}

// Get returns the atom's current value and records the read as a dependency
// of the derivation currently computing, if any. Inside a transaction, Get
// observes the innermost pending write to this atom.
func (a *Atom[T]) Get() T {
	v := a.cell.effective()
	a.cell.node.g.record(a.cell)
	return v
}

// Peek returns the current value without recording a dependency.
func (a *Atom[T]) Peek() T {
	return a.cell.effective()
}

// ID returns the unique identifier of the underlying cell.
func (a *Atom[T]) ID() uint64 {
	return a.cell.node.id
}

// Set writes a new value.
//
// Outside a transaction, a value that differs from the current one (under
// the atom's equality) is committed, stamped with a fresh clock tick and
// propagated synchronously before Set returns. Inside a transaction the
// write is staged into the active frame and propagates on commit of the
// outermost frame.
//
// Set fails with *ValidationError when the handle's validator rejects v,
// and with *ReentrantWriteError when called from inside a derivation
// compute or a propagation pass. In both cases nothing changed.
func (a *Atom[T]) Set(v T) error {
	c := a.cell
	g := c.node.g

	if err := g.checkWrite(); err != nil {
		return err
	}
	if a.validator != nil && !a.validator(v) {
		return &ValidationError{AtomID: c.node.id, Value: v}
	}

	if tx := g.txn; tx != nil {
		tx.stage(c, v)
		return nil
	}

	if c.equals(c.value, v) {
		return nil
	}
	c.value = v
	c.node.version = g.tick()

	g.debugf("atom write", "atom", c.node.id, "clock", g.clock)
	if g.metrics != nil {
		g.metrics.atomWrites.Inc()
	}
	g.emitWrite(WriteEvent{AtomID: c.node.id, Clock: g.clock})

	g.propagate([]*dnode{&c.node})
	return nil
}

// Swap applies fn to the current value and writes the result. It returns
// the candidate value alongside any error from Set: the candidate was not
// written when the error is non-nil.
func (a *Atom[T]) Swap(fn func(T) T) (T, error) {
	v := fn(a.cell.effective())
	return v, a.Set(v)
}

// WithEquals configures the cell's equality function, used to decide
// whether a write or recomputation changed the value. It applies to every
// handle sharing the cell and returns the receiver for chaining.
func (a *Atom[T]) WithEquals(fn func(T, T) bool) *Atom[T] {
	a.cell.equal = fn
	return a
}

// WithValidator returns a new handle on the same cell whose validator is
// pred AND-composed with any validator already on this handle. The current
// value is not re-checked; call Validate to do that explicitly.
func (a *Atom[T]) WithValidator(pred func(T) bool) *Atom[T] {
	prev := a.validator
	composed := pred
	if prev != nil {
		composed = func(v T) bool { return prev(v) && pred(v) }
	}
	return &Atom[T]{cell: a.cell, validator: composed}
}

// Validate re-checks this handle's validator against the atom's current
// value, returning *ValidationError on failure. Useful after attaching a
// stricter validator to existing state.
func (a *Atom[T]) Validate() error {
	if a.validator == nil {
		return nil
	}
	v := a.cell.effective()
	if !a.validator(v) {
		return &ValidationError{AtomID: a.cell.node.id, Value: v}
	}
	return nil
}

// GetAny returns the current value as an any, recording the read. It is
// what Unpack and the container combinators use on type-erased derivables.
func (a *Atom[T]) GetAny() any {
	return a.Get()
}

func (a *Atom[T]) asSource() source { return a.cell }
func (a *Atom[T]) derivableMarker() {}
func (a *Atom[T]) atomMarker()      {}
