// Package havelock is a reactive dependency-graph engine: mutable state
// cells (atoms), lazily cached pure computations over them (derivations)
// and side-effecting observers (reactions), with consistent reads,
// minimal recomputation and glitch-free change propagation.
//
// # Core Types
//
// Atom[T] is a mutable leaf cell:
//
//	count := havelock.NewAtom(0)
//	value := count.Get()   // read (tracked during derivation computes)
//	err := count.Set(5)    // write (propagates synchronously)
//	count.Swap(func(n int) int { return n + 1 })
//
// Derivation[T] is a cached derived computation with dynamic dependency
// tracking:
//
//	doubled := havelock.Derive(func() int { return count.Get() * 2 })
//	value := doubled.Get() // recomputes only if a dependency changed
//
// Reaction[T] turns changes into side effects, with an explicit lifecycle:
//
//	r, err := havelock.React(doubled, func(v int) {
//	    fmt.Println("doubled is now", v)
//	})
//	r.Stop() // disarm; r.Start() re-arms
//
// # Transactions
//
// Transact batches atom writes atomically: readers and reactions observe
// either none or all of them, and reactions run once per transaction.
// Frames nest, and a frame can abort without touching writes its siblings
// already committed:
//
//	havelock.Transact(func(tx *havelock.Txn) error {
//	    x.Set(10)
//	    y.Set(20)
//	    return nil // commit; return an error or call tx.Abort() to discard
//	})
//
// # Lenses
//
// NewLens focuses a get/set pair on an atom (or another lens), producing
// an independently settable derived view:
//
//	first := havelock.NewLens(pair, havelock.Lens[Pair, string]{
//	    Get: func(p Pair) string { return p.First },
//	    Set: func(p Pair, v string) Pair { p.First = v; return p },
//	})
//	first.Set("changed") // writes through to pair
//
// # Consistency Model
//
// Reads are always consistent: a derivation's cache is served only while
// every recorded dependency's versionstamp is unchanged, transitively.
// Propagation is glitch-free: reactions are evaluated only after all
// writes of the triggering commit are applied, in dependency order, so a
// reaction joining two derivations of the same atom never observes a
// half-updated pair.
//
// # Scheduling
//
// The engine is single-threaded and synchronous. A Graph and every node on
// it are confined to one goroutine; all calls run to completion before
// returning, and propagation runs inside the call that committed the
// write. Independent graphs may live on different goroutines. Writing an
// atom from inside a derivation compute or a running propagation pass is
// rejected with *ReentrantWriteError.
package havelock
