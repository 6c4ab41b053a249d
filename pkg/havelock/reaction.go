package havelock

// ReactionStatus is a reaction's lifecycle state.
type ReactionStatus uint8

const (
	// ReactionCreated is the state before the first Start.
	ReactionCreated ReactionStatus = iota

	// ReactionStarted means the reaction is armed: committed writes
	// upstream of its source schedule it for evaluation.
	ReactionStarted

	// ReactionStopped means the reaction is disarmed. It can be restarted.
	ReactionStopped
)

// String returns a human-readable name for the status.
func (s ReactionStatus) String() string {
	switch s {
	case ReactionCreated:
		return "Created"
	case ReactionStarted:
		return "Started"
	case ReactionStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// Reaction converts graph invalidation into externally visible side
// effects. It observes one source derivable; after each settled
// propagation pass that may have changed the source, the reaction
// pull-evaluates it and invokes the callback exactly when the value
// differs from the last one seen.
//
// Lifecycle: Created -> Started -> Stopped, with restart allowed
// (Stopped -> Started). Start arms change notification without invoking
// the callback; Force seeds or re-syncs explicitly; Stop deregisters so
// later writes no longer reach the reaction.
type Reaction[T any] struct {
	id     uint64
	source Derivable[T]
	status ReactionStatus

	fn       func(T)
	onStart  func()
	onStop   func()
	equal    func(T, T) bool
	lastSeen T
	seen     bool
}

// NewReaction creates an unattached reaction with the given callback.
// Attach it to a source (or use React, which does all of it) before
// starting.
func NewReaction[T any](fn func(T)) *Reaction[T] {
	return &Reaction[T]{id: nextID(), fn: fn}
}

// React attaches a fresh reaction to source, starts it and forces one
// evaluation, so the callback immediately observes the current value.
func React[T any](source Derivable[T], fn func(T)) (*Reaction[T], error) {
	r := NewReaction(fn)
	if err := r.Attach(source); err != nil {
		return nil, err
	}
	if err := r.Start(); err != nil {
		return nil, err
	}
	if err := r.Force(); err != nil {
		return nil, err
	}
	return r, nil
}

// Attach binds the reaction to source. A reaction binds exactly once:
// attaching an already-attached reaction fails with
// *DuplicateAttachmentError.
func (r *Reaction[T]) Attach(source Derivable[T]) error {
	if r.source != nil {
		return &DuplicateAttachmentError{ReactionID: r.id}
	}
	r.source = source
	return nil
}

// OnStart registers a hook invoked by Start after the reaction is armed,
// for resource acquisition. Returns the receiver for chaining.
func (r *Reaction[T]) OnStart(fn func()) *Reaction[T] {
	r.onStart = fn
	return r
}

// OnStop registers a hook invoked by Stop after the reaction is disarmed,
// for resource release. Returns the receiver for chaining.
func (r *Reaction[T]) OnStop(fn func()) *Reaction[T] {
	r.onStop = fn
	return r
}

// WithEquals configures the equality used to decide whether the observed
// value changed. Returns the receiver for chaining.
func (r *Reaction[T]) WithEquals(fn func(T, T) bool) *Reaction[T] {
	r.equal = fn
	return r
}

// ID returns the reaction's unique identifier.
func (r *Reaction[T]) ID() uint64 {
	return r.id
}

// Status returns the reaction's lifecycle state.
func (r *Reaction[T]) Status() ReactionStatus {
	return r.status
}

// Start arms the reaction: it registers as a dependent of its source chain
// and invokes the OnStart hook. Start does not invoke the callback; it
// only arms future change notification (use Force to seed). Starting a
// started reaction is a no-op.
func (r *Reaction[T]) Start() error {
	if r.source == nil {
		return ErrNotAttached
	}
	if r.status == ReactionStarted {
		return nil
	}

	src := r.source.asSource()
	src.sourceNode().subscribe(r)
	r.status = ReactionStarted

	// Settle the source once so a derivation chain that has never been
	// evaluated materializes its edges; without this a write could not
	// find the reaction. The callback is not invoked and lastSeen is
	// untouched.
	r.source.Peek()

	g := src.sourceNode().g
	if g.metrics != nil {
		g.metrics.activeReactions.Inc()
	}
	g.debugf("reaction started", "reaction", r.id, "source", r.source.ID())

	if r.onStart != nil {
		r.onStart()
	}
	return nil
}

// Stop disarms the reaction: it deregisters from the dependency graph and
// invokes the OnStop hook. Until restarted, no atom write causes the
// reaction to fire. Stopping a reaction that is not started is a no-op.
func (r *Reaction[T]) Stop() {
	if r.status != ReactionStarted {
		return
	}
	src := r.source.asSource()
	src.sourceNode().unsubscribe(r)
	r.status = ReactionStopped

	g := src.sourceNode().g
	if g.metrics != nil {
		g.metrics.activeReactions.Dec()
	}
	g.debugf("reaction stopped", "reaction", r.id)

	if r.onStop != nil {
		r.onStop()
	}
}

// Force performs one pull-evaluation of the source immediately and invokes
// the callback if the value differs from the last one seen. Usable while
// stopped, to seed or re-sync.
func (r *Reaction[T]) Force() error {
	if r.source == nil {
		return ErrNotAttached
	}
	r.evaluate()
	return nil
}

// runPass evaluates the reaction during a propagation pass.
func (r *Reaction[T]) runPass() {
	if r.status != ReactionStarted {
		return
	}
	r.evaluate()
}

// evaluate pulls the source, which recomputes any stale derivation along
// the chain, and fires the callback on inequality with lastSeen.
func (r *Reaction[T]) evaluate() {
	v := r.source.Peek()
	if r.seen && r.equals(r.lastSeen, v) {
		return
	}
	r.lastSeen = v
	r.seen = true

	g := r.source.asSource().sourceNode().g
	if g.metrics != nil {
		g.metrics.reactionsFired.Inc()
	}
	g.emitReaction(ReactionEvent{ReactionID: r.id, Clock: g.clock})

	r.fn(v)
}

func (r *Reaction[T]) equals(a, b T) bool {
	if r.equal != nil {
		return r.equal(a, b)
	}
	return defaultEquals(a, b)
}

func (r *Reaction[T]) dependentID() uint64   { return r.id }
func (r *Reaction[T]) dependentNode() *dnode { return nil }
func (r *Reaction[T]) reactionMarker()       {}
