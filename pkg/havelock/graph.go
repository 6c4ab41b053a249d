package havelock

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Graph is the root context owning a dependency graph: the logical clock,
// the tracking-scope stack, the transaction stack and the propagation state.
// Every atom, derivation and reaction belongs to exactly one Graph, and all
// nodes wired together must share one.
//
// A Graph and the nodes on it are confined to a single goroutine. All
// operations are synchronous and run to completion before returning;
// propagation triggered by a write or a transaction commit runs inside the
// call that caused it. Independent Graphs may live on different goroutines.
type Graph struct {
	// clock is the monotonic logical clock. Every committed or staged write
	// and every derivation recomputation that changes a value advances it.
	clock uint64

	// scope is the innermost active tracking scope, or nil when no
	// derivation compute is running. Scopes form a stack via parent links.
	scope *trackingScope

	// txn is the innermost active transaction frame, or nil.
	txn *Txn

	// propagating is true while a propagation pass is running.
	propagating bool

	logger   *slog.Logger
	metrics  *Metrics
	tracer   trace.Tracer
	observer *Observer
}

// GraphOption configures a Graph at construction time.
type GraphOption func(*Graph)

// WithLogger attaches a structured logger. The graph logs writes, commits,
// aborts and propagation passes at debug level. A nil logger is silent.
func WithLogger(l *slog.Logger) GraphOption {
	return func(g *Graph) {
		g.logger = l
	}
}

// WithMetrics attaches a Metrics collector to the graph. See NewMetrics.
func WithMetrics(m *Metrics) GraphOption {
	return func(g *Graph) {
		g.metrics = m
	}
}

// WithTracer attaches an OpenTelemetry tracer. When set, root transaction
// commits and propagation passes are recorded as spans.
func WithTracer(t trace.Tracer) GraphOption {
	return func(g *Graph) {
		g.tracer = t
	}
}

// WithObserver attaches an Observer whose callbacks receive graph events.
// See Observer for the available hooks.
func WithObserver(o *Observer) GraphOption {
	return func(g *Graph) {
		g.observer = o
	}
}

// NewGraph creates an empty dependency graph.
func NewGraph(opts ...GraphOption) *Graph {
	g := &Graph{}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// DefaultGraph is the graph used by the package-level constructors
// (NewAtom, Derive, Transact, ...). Programs that need isolated graphs or
// per-graph observability create their own with NewGraph and the *In
// constructor variants.
var DefaultGraph = NewGraph()

// Clock returns the current value of the graph's logical clock.
func (g *Graph) Clock() uint64 {
	return g.clock
}

// InTransaction reports whether a transaction frame is currently active.
func (g *Graph) InTransaction() bool {
	return g.txn != nil
}

// tick advances the logical clock and returns the new stamp.
func (g *Graph) tick() uint64 {
	g.clock++
	return g.clock
}

// checkWrite rejects atom writes attempted from inside a derivation compute
// or an active propagation pass. Both would break single-pass consistency.
func (g *Graph) checkWrite() error {
	if g.scope != nil {
		return &ReentrantWriteError{During: "derivation compute"}
	}
	if g.propagating {
		return &ReentrantWriteError{During: "propagation"}
	}
	return nil
}

// debugf logs at debug level when a logger is configured.
func (g *Graph) debugf(msg string, args ...any) {
	if g.logger != nil {
		g.logger.Debug(msg, args...)
	}
}

// =============================================================================
// Tracking scopes
// =============================================================================

// trackingScope records the nodes read during one derivation compute.
// It is the explicit reification of the "currently evaluating node"
// bookkeeping: one scope is pushed around each compute and the reads it
// captured become the derivation's new dependency record.
type trackingScope struct {
	parent *trackingScope
	reads  []depRecord
	seen   map[uint64]struct{}
}

// depRecord pairs a read source with its versionstamp at read time.
type depRecord struct {
	src     source
	version uint64
}

func (g *Graph) pushScope() *trackingScope {
	s := &trackingScope{
		parent: g.scope,
		seen:   make(map[uint64]struct{}),
	}
	g.scope = s
	return s
}

func (g *Graph) popScope() {
	if g.scope != nil {
		g.scope = g.scope.parent
	}
}

// record notes a read of src in the innermost tracking scope, if any.
// Repeated reads of the same node keep the first recorded stamp; versions
// cannot move mid-compute because writes are rejected during computes.
func (g *Graph) record(s source) {
	sc := g.scope
	if sc == nil {
		return
	}
	n := s.sourceNode()
	if _, ok := sc.seen[n.id]; ok {
		return
	}
	sc.seen[n.id] = struct{}{}
	sc.reads = append(sc.reads, depRecord{src: s, version: s.currentVersion()})
}

// Untracked runs fn with dependency tracking suspended on the default graph.
// Reads performed inside fn do not become dependencies of any derivation
// currently computing.
//
// For a single read, prefer the Peek method on the value being read.
func Untracked(fn func()) {
	UntrackedIn(DefaultGraph, fn)
}

// UntrackedIn runs fn with dependency tracking suspended on g.
func UntrackedIn(g *Graph, fn func()) {
	saved := g.scope
	g.scope = nil
	defer func() { g.scope = saved }()
	fn()
}
