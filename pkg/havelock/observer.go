package havelock

// Observer receives graph events. All fields are optional callbacks; nil
// fields are skipped. Observers are how external tooling (the devtools
// inspector, tests) watches a graph without the core knowing about any
// transport.
//
// Callbacks run synchronously on the graph's goroutine, inside the
// operation that caused them. They must not write atoms and should return
// quickly.
type Observer struct {
	// AtomSet fires after an atom write is accepted: committed directly or
	// staged into a transaction frame.
	AtomSet func(WriteEvent)

	// Commit fires after a root transaction frame has been applied, before
	// the propagation pass it triggers.
	Commit func(CommitEvent)

	// Abort fires when a transaction frame discards its pending writes.
	Abort func(AbortEvent)

	// Recompute fires after a derivation re-ran its compute function.
	Recompute func(RecomputeEvent)

	// ReactionFired fires after a reaction's callback was invoked.
	ReactionFired func(ReactionEvent)

	// Propagated fires after a propagation pass has settled.
	Propagated func(PropagationEvent)
}

// WriteEvent describes one accepted atom write.
type WriteEvent struct {
	AtomID uint64
	Clock  uint64

	// Staged is true when the write went into a transaction frame rather
	// than committed state.
	Staged bool
}

// CommitEvent describes a root transaction commit.
type CommitEvent struct {
	Clock uint64

	// Atoms is the number of distinct atoms touched by the transaction.
	Atoms int

	// Changed is the number of atoms whose committed value actually moved.
	Changed int
}

// AbortEvent describes a discarded transaction frame.
type AbortEvent struct {
	Clock uint64

	// Atoms is the number of pending writes discarded with the frame.
	Atoms int
}

// RecomputeEvent describes one derivation recomputation.
type RecomputeEvent struct {
	DerivationID uint64
	Clock        uint64

	// Changed is true when the recomputed value differed from the cache
	// under the derivation's equality.
	Changed bool

	// Deps is the size of the fresh dependency record.
	Deps int
}

// ReactionEvent describes one reaction callback invocation.
type ReactionEvent struct {
	ReactionID uint64
	Clock      uint64
}

// PropagationEvent describes one settled propagation pass.
type PropagationEvent struct {
	Clock uint64

	// Roots is the number of changed atoms the pass started from.
	Roots int

	// Reactions is the number of reactions scheduled by the pass.
	Reactions int
}

func (g *Graph) emitWrite(ev WriteEvent) {
	if g.observer != nil && g.observer.AtomSet != nil {
		g.observer.AtomSet(ev)
	}
}

func (g *Graph) emitCommit(ev CommitEvent) {
	if g.observer != nil && g.observer.Commit != nil {
		g.observer.Commit(ev)
	}
}

func (g *Graph) emitAbort(ev AbortEvent) {
	if g.observer != nil && g.observer.Abort != nil {
		g.observer.Abort(ev)
	}
}

func (g *Graph) emitRecompute(ev RecomputeEvent) {
	if g.observer != nil && g.observer.Recompute != nil {
		g.observer.Recompute(ev)
	}
}

func (g *Graph) emitReaction(ev ReactionEvent) {
	if g.observer != nil && g.observer.ReactionFired != nil {
		g.observer.ReactionFired(ev)
	}
}

func (g *Graph) emitPropagated(ev PropagationEvent) {
	if g.observer != nil && g.observer.Propagated != nil {
		g.observer.Propagated(ev)
	}
}
