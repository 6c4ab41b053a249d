package havelock

const (
	derivationUnset uint8 = iota
	derivationCached
)

// Derivation is a lazily evaluated, cached computation over other nodes.
// Its dependency set is discovered dynamically: each evaluation replaces
// the previous dependency record with exactly the nodes read during that
// evaluation, so a derivation that branches only depends on the branch
// taken.
//
// A derivation's cache is valid while every recorded dependency's
// versionstamp is unchanged, transitively. Recomputation advances the
// derivation's own stamp only when the new value differs under the
// configured equality, which is what stops downstream work when an
// upstream change cancels out.
type Derivation[T any] struct {
	node dnode

	compute func() T
	value   T
	state   uint8

	// epoch is the clock value at the last freshness check. A matching
	// clock proves nothing committed since, skipping dependency walks.
	epoch uint64

	deps  []depRecord
	equal func(T, T) bool

	// computing guards against a compute reading its own derivation.
	computing bool
}

// Derive creates a derivation on the default graph computed by f.
// Dependencies are tracked dynamically: every atom, derivation or lens read
// via Get inside f becomes a dependency of this derivation.
//
// f must be pure with respect to the graph: writing an atom inside f fails
// that write with *ReentrantWriteError.
func Derive[T any](f func() T) *Derivation[T] {
	return DeriveIn(DefaultGraph, f)
}

// DeriveIn creates a derivation on g computed by f. The computation does
// not run until the first read.
func DeriveIn[T any](g *Graph, f func() T) *Derivation[T] {
	return &Derivation[T]{
		node:    dnode{g: g, id: nextID()},
		compute: f,
	}
}

// Map derives a value from a single source: Map(d, f).Get() == f(d.Get()).
func Map[A, T any](d Derivable[A], f func(A) T) *Derivation[T] {
	return DeriveIn(graphOf(d), func() T { return f(d.Get()) })
}

// Map2 derives a value from two sources.
func Map2[A, B, T any](a Derivable[A], b Derivable[B], f func(A, B) T) *Derivation[T] {
	return DeriveIn(graphOf(a), func() T { return f(a.Get(), b.Get()) })
}

// Map3 derives a value from three sources.
func Map3[A, B, C, T any](a Derivable[A], b Derivable[B], c Derivable[C], f func(A, B, C) T) *Derivation[T] {
	return DeriveIn(graphOf(a), func() T { return f(a.Get(), b.Get(), c.Get()) })
}

// graphOf returns the graph a derivable lives on.
func graphOf[T any](d Derivable[T]) *Graph {
	return d.asSource().sourceNode().g
}

// Get returns the derivation's value, recomputing at most when a recorded
// dependency's versionstamp moved, and records the read as a dependency of
// the derivation currently computing, if any.
func (d *Derivation[T]) Get() T {
	d.refresh()
	d.node.g.record(d)
	return d.value
}

// Peek returns the value without recording a dependency. Recomputation
// still happens if the cache is stale.
func (d *Derivation[T]) Peek() T {
	d.refresh()
	return d.value
}

// ID returns the derivation's unique identifier.
func (d *Derivation[T]) ID() uint64 {
	return d.node.id
}

// WithEquals configures the equality used to decide whether a
// recomputation changed the value. Returns the receiver for chaining.
func (d *Derivation[T]) WithEquals(fn func(T, T) bool) *Derivation[T] {
	d.equal = fn
	return d
}

// GetAny returns the current value as an any, recording the read.
func (d *Derivation[T]) GetAny() any {
	return d.Get()
}

func (d *Derivation[T]) equals(a, b T) bool {
	if d.equal != nil {
		return d.equal(a, b)
	}
	return defaultEquals(a, b)
}

// refresh brings the cache up to date: trusted as-is when nothing has
// committed since the last check, revalidated against dependency
// versionstamps otherwise, recomputed only when a stamp moved.
func (d *Derivation[T]) refresh() {
	g := d.node.g
	if d.state == derivationCached {
		if d.epoch == g.clock {
			return
		}
		if d.depsFresh() {
			d.epoch = g.clock
			return
		}
	}
	d.recompute()
}

// depsFresh reports whether every recorded dependency still carries the
// versionstamp it had when read. Derivation dependencies settle themselves
// before reporting, making the check transitive.
func (d *Derivation[T]) depsFresh() bool {
	for i := range d.deps {
		if d.deps[i].src.currentVersion() != d.deps[i].version {
			return false
		}
	}
	return true
}

// recompute re-runs the compute function inside a fresh tracking scope,
// swaps the dependency record and edges for the nodes actually read, and
// advances the derivation's versionstamp if the value changed.
func (d *Derivation[T]) recompute() {
	g := d.node.g
	if d.computing {
		panic(&CycleError{DerivationID: d.node.id})
	}
	d.computing = true
	defer func() { d.computing = false }()

	for i := range d.deps {
		d.deps[i].src.sourceNode().unsubscribe(d)
	}

	scope := g.pushScope()
	var v T
	func() {
		defer g.popScope()
		v = d.compute()
	}()

	d.deps = scope.reads
	for i := range d.deps {
		d.deps[i].src.sourceNode().subscribe(d)
	}

	changed := d.state == derivationUnset || !d.equals(d.value, v)
	d.value = v
	d.state = derivationCached
	if changed {
		d.node.version = g.tick()
	}
	d.epoch = g.clock

	if g.metrics != nil {
		g.metrics.derivationRecomputes.Inc()
	}
	g.emitRecompute(RecomputeEvent{
		DerivationID: d.node.id,
		Clock:        g.clock,
		Changed:      changed,
		Deps:         len(d.deps),
	})
}

// currentVersion settles the derivation and returns its versionstamp.
func (d *Derivation[T]) currentVersion() uint64 {
	d.refresh()
	return d.node.version
}

func (d *Derivation[T]) sourceNode() *dnode    { return &d.node }
func (d *Derivation[T]) asSource() source      { return d }
func (d *Derivation[T]) dependentID() uint64   { return d.node.id }
func (d *Derivation[T]) dependentNode() *dnode { return &d.node }
func (d *Derivation[T]) derivableMarker()      {}
func (d *Derivation[T]) derivationMarker()     {}
