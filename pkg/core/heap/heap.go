// Package heap implements the tracing garbage collector described in
// spec.md section 4.1: a non-incremental mark-and-sweep collector that
// traces from an explicit root set via each object's VisitGraph, rather
// than reference counting. Object identity survives a collection cycle;
// only unreached objects are reclaimed.
package heap

import "github.com/agenthands/pyvm/pkg/core/value"

// Stats reports the outcome of one collection cycle, mirroring the kind of
// sweep accounting a long-running interpreter needs to reason about memory
// behavior (allocated/reclaimed counts, not wall-clock detail — a single
// mark-and-sweep pass is not amortized like a generational collector's).
type Stats struct {
	Live      int
	Reclaimed int
	Cycles    int
}

// Root is anything that can enumerate the value.Objecter pointers it holds
// live: the VM's current frame chain, its register file, its value stack,
// and any globals dict. spec.md section 2: "GC occasionally traces from VM
// roots (current frame chain, register file, stack)".
type Root interface {
	VisitGraph(visit func(value.Objecter))
}

// Heap owns every allocation and the marking bit that VisitGraph flips.
// It is not an arena in the allocation sense — Go's own allocator backs
// every object — but it is the single place that knows the full live set,
// which is what letting the collector reclaim requires.
type Heap struct {
	objects   []value.Objecter
	threshold int // MaybeCollect triggers a cycle once len(objects) passes this
	stats     Stats
}

// New constructs a Heap that triggers automatically once its live-object
// count passes threshold. A threshold of 0 disables the automatic trigger;
// callers must invoke Collect explicitly (SPEC_FULL.md's Open Question
// decision: GC trigger policy is explicit-only plus an optional
// threshold-based safety net).
func New(threshold int) *Heap {
	return &Heap{threshold: threshold}
}

// Track registers a freshly allocated object with the heap so a future
// Collect can find it if unreachable. Every object.New call that produces
// a heap-owned value should be tracked; the object model itself does not
// call Track so that pkg/core/object stays free of a heap dependency
// (object.New is used for both tracked and short-lived wrapper objects,
// e.g. bound-method shims that never outlive a single call).
func (h *Heap) Track(o value.Objecter) {
	h.objects = append(h.objects, o)
}

// Len reports the number of objects currently tracked, live or not.
func (h *Heap) Len() int { return len(h.objects) }

// Stats returns the accounting from the most recent Collect cycle.
func (h *Heap) Stats() Stats { return h.stats }

// MaybeCollect runs Collect only once Len() has passed the configured
// threshold, and is a no-op when the heap was constructed with threshold
// 0. Callers invoke it at safe points between instructions (spec.md
// section 4.1: "GC occasionally traces from VM roots"), never mid-instruction.
func (h *Heap) MaybeCollect(roots ...Root) Stats {
	if h.threshold <= 0 || len(h.objects) < h.threshold {
		return h.stats
	}
	return h.Collect(roots...)
}

// Collect runs one full mark-and-sweep cycle: mark every object reachable
// from roots, then drop everything unmarked. Each object's own VisitGraph
// guards against re-entry (spec.md section 4.1: "every reachable object is
// visited exactly once per GC cycle; cyclic graphs are permitted"), so
// Collect does not need its own visited-set bookkeeping beyond that guard.
func (h *Heap) Collect(roots ...Root) Stats {
	unmark(h.objects)

	// mark cascades through the graph: each object's own VisitGraph both
	// flips its Mark bit and re-invokes mark on the objects it owns, so a
	// cycle (frame -> parent frame -> ... -> frame) terminates the moment
	// the re-entry guard in object.Object.VisitGraph sees Mark already set.
	var mark func(value.Objecter)
	mark = func(o value.Objecter) { o.VisitGraph(mark) }

	for _, r := range roots {
		r.VisitGraph(mark)
	}

	live := h.objects[:0]
	reclaimed := 0
	for _, o := range h.objects {
		if isMarked(o) {
			live = append(live, o)
		} else {
			reclaimed++
		}
	}
	h.objects = live

	h.stats = Stats{Live: len(h.objects), Reclaimed: reclaimed, Cycles: h.stats.Cycles + 1}
	return h.stats
}

// Marker is implemented by every concrete heap payload wrapper (currently
// only *object.Object) that exposes its collector mark bit. Kept as a
// narrow interface here, rather than importing pkg/core/object directly,
// to avoid a heap<->object import cycle: object depends on value only,
// heap depends on value only, and pkg/vm wires the two together.
type Marker interface {
	Marked() bool
	SetMarked(bool)
	ClearMark()
}

func unmark(objs []value.Objecter) {
	for _, o := range objs {
		if m, ok := o.(Marker); ok {
			m.ClearMark()
		}
	}
}

func isMarked(o value.Objecter) bool {
	m, ok := o.(Marker)
	return ok && m.Marked()
}
