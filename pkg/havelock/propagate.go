package havelock

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// scheduled is one reaction picked up by a propagation walk, with the
// longest dependency distance from a changed atom and its discovery order.
type scheduled struct {
	r         runnable
	depth     int
	discovery int
}

// propagate runs one propagation pass for the given changed atoms: walk
// the dependents graph forward to find every affected reaction, order them
// by dependency depth, and pull-evaluate each exactly once against fully
// settled state.
//
// Derivations along the way are not recomputed by the walk itself; they
// stay lazy and recompute at most once when a reaction's pull reaches
// them, memoized by versionstamp. Because every write that led here has
// already committed, each reaction observes the final value of every
// dependency: there is no intermediate state left to glitch on.
//
// A panic from one reaction's callback must not starve independent
// reactions in the same pass: panics are caught per reaction, the pass
// completes, and the first panic is rethrown afterwards.
func (g *Graph) propagate(roots []*dnode) {
	start := time.Now()

	var span traceSpan
	if g.tracer != nil {
		_, span = g.tracer.Start(context.Background(), "havelock.propagate")
		defer span.End()
	}

	affected := g.collectReactions(roots)

	g.propagating = true
	var firstPanic any
	skipped := 0
	for _, s := range affected {
		func() {
			defer func() {
				if r := recover(); r != nil {
					if firstPanic == nil {
						firstPanic = r
					} else {
						skipped++
					}
					g.debugf("reaction panicked during propagation", "panic", r)
				}
			}()
			s.r.runPass()
		}()
	}
	g.propagating = false

	if g.metrics != nil {
		g.metrics.propagationDuration.Observe(time.Since(start).Seconds())
	}
	if span != nil {
		span.SetAttributes(
			attribute.Int("havelock.roots", len(roots)),
			attribute.Int("havelock.reactions", len(affected)),
		)
	}
	g.debugf("propagation settled",
		"roots", len(roots), "reactions", len(affected), "clock", g.clock)
	g.emitPropagated(PropagationEvent{Clock: g.clock, Roots: len(roots), Reactions: len(affected)})

	if firstPanic != nil {
		if skipped > 0 {
			g.debugf("suppressed additional reaction panics", "count", skipped)
		}
		panic(firstPanic)
	}
}

// collectReactions walks the dependents graph forward from the changed
// atoms and returns every reachable reaction ordered by dependency depth
// (distance-from-root non-decreasing), ties broken by discovery order.
//
// Depth is the longest path: a reaction reachable both directly and
// through a chain of derivations sorts after everything on the chain, so
// the pass never revisits a node closer to the roots after one further
// downstream.
func (g *Graph) collectReactions(roots []*dnode) []scheduled {
	nodeDepth := make(map[*dnode]int)
	found := make(map[uint64]int) // reaction ID -> index into out
	var out []scheduled

	var walk func(n *dnode, depth int)
	walk = func(n *dnode, depth int) {
		if prev, ok := nodeDepth[n]; ok && prev >= depth {
			return
		}
		nodeDepth[n] = depth
		for _, dep := range n.dependents {
			if child := dep.dependentNode(); child != nil {
				walk(child, depth+1)
				continue
			}
			r, ok := dep.(runnable)
			if !ok {
				continue
			}
			id := r.dependentID()
			if i, seen := found[id]; seen {
				if depth+1 > out[i].depth {
					out[i].depth = depth + 1
				}
				continue
			}
			found[id] = len(out)
			out = append(out, scheduled{r: r, depth: depth + 1, discovery: len(out)})
		}
	}
	for _, root := range roots {
		walk(root, 0)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].depth != out[j].depth {
			return out[i].depth < out[j].depth
		}
		return out[i].discovery < out[j].discovery
	})
	return out
}
