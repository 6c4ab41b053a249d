package havelock

// Lens describes a bidirectional view of a parent value: Get projects a
// child value out of the parent, Set produces an updated parent from the
// old parent and a new child value.
//
// For reads to round-trip writes, the pair should satisfy the usual lens
// laws: Get(Set(p, c)) == c and Set(p, Get(p)) == p.
type Lens[P, C any] struct {
	Get func(P) C
	Set func(P, C) P
}

// Lensed is a settable derived view over a parent atom or lens. Reads go
// through an ordinary derivation of Get over the parent, so a Lensed is
// cached, tracked and propagated like any other node. Writes run Set
// against the parent's current value and delegate to the parent's own Set,
// inheriting its validators, transaction staging and propagation.
//
// A Lensed is itself a valid parent for NewLens, so lenses compose to any
// depth.
type Lensed[C any] struct {
	view  *Derivation[C]
	write func(C) error
}

// NewLens focuses a lens on parent, returning the settable child view.
func NewLens[P, C any](parent Settable[P], l Lens[P, C]) *Lensed[C] {
	g := parent.asSource().sourceNode().g
	return &Lensed[C]{
		view: DeriveIn(g, func() C {
			return l.Get(parent.Get())
		}),
		write: func(v C) error {
			return parent.Set(l.Set(parent.Peek(), v))
		},
	}
}

// Get returns the focused value, recording the read as a dependency of the
// derivation currently computing, if any.
func (ld *Lensed[C]) Get() C {
	return ld.view.Get()
}

// Peek returns the focused value without recording a dependency.
func (ld *Lensed[C]) Peek() C {
	return ld.view.Peek()
}

// ID returns the unique identifier of the view node.
func (ld *Lensed[C]) ID() uint64 {
	return ld.view.ID()
}

// Set writes v through the lens into the parent. The parent's validators
// and transaction semantics apply; a staged or committed parent write
// invalidates this view like any other dependency change.
func (ld *Lensed[C]) Set(v C) error {
	return ld.write(v)
}

// Swap applies fn to the focused value and writes the result through the
// lens. Returns the candidate value alongside any error from Set.
func (ld *Lensed[C]) Swap(fn func(C) C) (C, error) {
	v := fn(ld.view.Peek())
	return v, ld.write(v)
}

// GetAny returns the focused value as an any, recording the read.
func (ld *Lensed[C]) GetAny() any {
	return ld.view.GetAny()
}

func (ld *Lensed[C]) asSource() source { return ld.view }
func (ld *Lensed[C]) derivableMarker() {}
func (ld *Lensed[C]) lensedMarker()    {}
