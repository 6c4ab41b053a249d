package havelock

import "sync/atomic"

// idCounter is the source of unique IDs for all nodes and reactions.
// Atomic so that independent graphs on different goroutines never collide.
var idCounter uint64

func nextID() uint64 {
	return atomic.AddUint64(&idCounter, 1)
}

// dnode is the bookkeeping shared by every graph node: identity, the
// versionstamp of the last visible change, and the forward edges to
// dependents. It is embedded in atom cells and derivations.
type dnode struct {
	g       *Graph
	id      uint64
	version uint64

	// dependents are the derivations and started reactions downstream of
	// this node, in subscription order.
	dependents []dependent
}

// dependent is anything registered on a node's forward edges: derivations
// (which fan out further) and started reactions (which terminate the walk).
type dependent interface {
	// dependentID returns a unique identifier, used for edge deduplication.
	dependentID() uint64

	// dependentNode returns the dependent's own node for derivations, so a
	// propagation walk can continue downstream, or nil for reactions.
	dependentNode() *dnode
}

// runnable is implemented by reactions: the terminal dependents a
// propagation pass evaluates once the graph has settled.
type runnable interface {
	dependent
	runPass()
}

// source is the read-side view a dependency record keeps of the node it
// read: enough to re-check freshness without knowing the value type.
type source interface {
	sourceNode() *dnode

	// currentVersion returns the node's versionstamp, refreshing a stale
	// derivation first so the stamp reflects its settled value.
	currentVersion() uint64
}

// subscribe adds d to the node's dependents, deduplicating by ID.
func (n *dnode) subscribe(d dependent) {
	id := d.dependentID()
	for _, existing := range n.dependents {
		if existing.dependentID() == id {
			return
		}
	}
	n.dependents = append(n.dependents, d)
}

// unsubscribe removes d from the node's dependents, preserving order so
// propagation discovery stays deterministic.
func (n *dnode) unsubscribe(d dependent) {
	id := d.dependentID()
	for i, existing := range n.dependents {
		if existing.dependentID() == id {
			n.dependents = append(n.dependents[:i], n.dependents[i+1:]...)
			return
		}
	}
}

// Derivable is the read-side capability shared by atoms, derivations and
// lenses: anything that can be read, tracked as a dependency and observed
// by a reaction.
//
// Derivable is a sealed interface; the engine's propagation bookkeeping
// only works for node types defined by this package.
type Derivable[T any] interface {
	// Get returns the current value. When called during a derivation
	// compute, the read is recorded as a dependency of that derivation.
	Get() T

	// Peek returns the current value without recording a dependency.
	Peek() T

	// ID returns the node's unique identifier.
	ID() uint64

	// asSource exposes the node for graph bookkeeping. Unexported: seals
	// the interface.
	asSource() source
}

// Settable is a Derivable that can also be written: atoms and lenses.
// A Settable is a valid parent for NewLens, so lenses compose.
type Settable[T any] interface {
	Derivable[T]

	// Set writes a new value. See Atom.Set for the error contract.
	Set(v T) error

	// Swap applies fn to the current value and writes the result.
	Swap(fn func(T) T) (T, error)
}
