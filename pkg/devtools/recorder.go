package devtools

import (
	"sync"
	"time"

	"github.com/gitter-badger/havelock/pkg/havelock"
)

// EventKind names a recorded graph event.
type EventKind string

const (
	KindWrite      EventKind = "write"
	KindCommit     EventKind = "commit"
	KindAbort      EventKind = "abort"
	KindRecompute  EventKind = "recompute"
	KindReaction   EventKind = "reaction"
	KindPropagated EventKind = "propagated"
)

// Event is one recorded graph event, shaped for JSON transport.
type Event struct {
	Seq   uint64    `json:"seq"`
	Kind  EventKind `json:"kind"`
	Time  time.Time `json:"time"`
	Clock uint64    `json:"clock"`

	NodeID  uint64 `json:"nodeId,omitempty"`
	Staged  bool   `json:"staged,omitempty"`
	Changed bool   `json:"changed,omitempty"`
	Atoms   int    `json:"atoms,omitempty"`
	Moved   int    `json:"moved,omitempty"`
	Deps    int    `json:"deps,omitempty"`
	Roots   int    `json:"roots,omitempty"`

	// Reactions is the number of reactions a propagation pass scheduled.
	Reactions int `json:"reactions,omitempty"`
}

// Stats aggregates event counts since the recorder was created.
type Stats struct {
	Writes       uint64 `json:"writes"`
	StagedWrites uint64 `json:"stagedWrites"`
	Commits      uint64 `json:"commits"`
	Aborts       uint64 `json:"aborts"`
	Recomputes   uint64 `json:"recomputes"`
	Reactions    uint64 `json:"reactions"`
	Propagations uint64 `json:"propagations"`
	Clock        uint64 `json:"clock"`
}

// Snapshot is what the inspector's /graph endpoint serves: aggregate
// stats plus the most recent events, oldest first.
type Snapshot struct {
	Stats  Stats   `json:"stats"`
	Events []Event `json:"events"`
}

const defaultCapacity = 1024

// Recorder accumulates graph events into a bounded ring and fans them out
// to live subscribers. It bridges a havelock.Observer (whose callbacks run
// on the graph's goroutine) to HTTP handlers reading from other
// goroutines, so it is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	head   int
	filled bool
	seq    uint64
	stats  Stats

	subscribers map[chan Event]struct{}
}

// NewRecorder creates a recorder keeping the given number of recent
// events; capacity <= 0 uses a default of 1024.
func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Recorder{
		events:      make([]Event, capacity),
		subscribers: make(map[chan Event]struct{}),
	}
}

// Observer returns the havelock.Observer that feeds this recorder.
// Attach it to a graph with havelock.WithObserver.
func (rec *Recorder) Observer() *havelock.Observer {
	return &havelock.Observer{
		AtomSet: func(ev havelock.WriteEvent) {
			rec.record(Event{Kind: KindWrite, Clock: ev.Clock, NodeID: ev.AtomID, Staged: ev.Staged}, func(s *Stats) {
				if ev.Staged {
					s.StagedWrites++
				} else {
					s.Writes++
				}
			})
		},
		Commit: func(ev havelock.CommitEvent) {
			rec.record(Event{Kind: KindCommit, Clock: ev.Clock, Atoms: ev.Atoms, Moved: ev.Changed}, func(s *Stats) {
				s.Commits++
			})
		},
		Abort: func(ev havelock.AbortEvent) {
			rec.record(Event{Kind: KindAbort, Clock: ev.Clock, Atoms: ev.Atoms}, func(s *Stats) {
				s.Aborts++
			})
		},
		Recompute: func(ev havelock.RecomputeEvent) {
			rec.record(Event{Kind: KindRecompute, Clock: ev.Clock, NodeID: ev.DerivationID, Changed: ev.Changed, Deps: ev.Deps}, func(s *Stats) {
				s.Recomputes++
			})
		},
		ReactionFired: func(ev havelock.ReactionEvent) {
			rec.record(Event{Kind: KindReaction, Clock: ev.Clock, NodeID: ev.ReactionID}, func(s *Stats) {
				s.Reactions++
			})
		},
		Propagated: func(ev havelock.PropagationEvent) {
			rec.record(Event{Kind: KindPropagated, Clock: ev.Clock, Roots: ev.Roots, Reactions: ev.Reactions}, func(s *Stats) {
				s.Propagations++
			})
		},
	}
}

func (rec *Recorder) record(ev Event, update func(*Stats)) {
	rec.mu.Lock()
	rec.seq++
	ev.Seq = rec.seq
	ev.Time = time.Now()
	update(&rec.stats)
	if ev.Clock > rec.stats.Clock {
		rec.stats.Clock = ev.Clock
	}

	rec.events[rec.head] = ev
	rec.head++
	if rec.head == len(rec.events) {
		rec.head = 0
		rec.filled = true
	}

	// Fan out without blocking the graph's goroutine: slow subscribers
	// miss events rather than stalling propagation.
	for ch := range rec.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
	rec.mu.Unlock()
}

// Snapshot returns the aggregate stats and the buffered events, oldest
// first.
func (rec *Recorder) Snapshot() Snapshot {
	rec.mu.Lock()
	defer rec.mu.Unlock()

	var out []Event
	if rec.filled {
		out = make([]Event, 0, len(rec.events))
		out = append(out, rec.events[rec.head:]...)
		out = append(out, rec.events[:rec.head]...)
	} else {
		out = append(out, rec.events[:rec.head]...)
	}
	return Snapshot{Stats: rec.stats, Events: out}
}

// Subscribe registers a live event channel. The returned cancel function
// unregisters and closes it.
func (rec *Recorder) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Event, buffer)

	rec.mu.Lock()
	rec.subscribers[ch] = struct{}{}
	rec.mu.Unlock()

	cancel := func() {
		rec.mu.Lock()
		if _, ok := rec.subscribers[ch]; ok {
			delete(rec.subscribers, ch)
			close(ch)
		}
		rec.mu.Unlock()
	}
	return ch, cancel
}
