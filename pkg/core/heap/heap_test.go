package heap_test

import (
	"testing"

	"github.com/agenthands/pyvm/pkg/core/heap"
	"github.com/agenthands/pyvm/pkg/core/object"
	"github.com/agenthands/pyvm/pkg/core/value"
)

// fakeRoot implements heap.Root by exposing a fixed set of Objecters.
type fakeRoot struct {
	held []value.Objecter
}

func (f *fakeRoot) VisitGraph(visit func(value.Objecter)) {
	for _, o := range f.held {
		visit(o)
	}
}

func TestCollectReclaimsUnreachable(t *testing.T) {
	h := heap.New(0)

	kept := object.New(object.ListType, &object.List{})
	garbage := object.New(object.ListType, &object.List{})
	h.Track(kept)
	h.Track(garbage)

	root := &fakeRoot{held: []value.Objecter{kept}}
	stats := h.Collect(root)

	if stats.Live != 1 {
		t.Fatalf("Live = %d, want 1", stats.Live)
	}
	if stats.Reclaimed != 1 {
		t.Fatalf("Reclaimed = %d, want 1", stats.Reclaimed)
	}
	if h.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", h.Len())
	}
}

func TestCollectHandlesCycles(t *testing.T) {
	h := heap.New(0)

	a := object.New(object.ListType, &object.List{})
	b := object.New(object.ListType, &object.List{})
	la := a.Payload.(*object.List)
	lb := b.Payload.(*object.List)
	la.Items = append(la.Items, value.FromObject(b))
	lb.Items = append(lb.Items, value.FromObject(a)) // a <-> b cycle

	h.Track(a)
	h.Track(b)

	root := &fakeRoot{held: []value.Objecter{a}}
	stats := h.Collect(root)

	if stats.Live != 2 {
		t.Fatalf("Live = %d, want 2 (cycle should stay live via root a)", stats.Live)
	}
	if stats.Reclaimed != 0 {
		t.Fatalf("Reclaimed = %d, want 0", stats.Reclaimed)
	}
}

func TestMaybeCollectRespectsThreshold(t *testing.T) {
	h := heap.New(5)
	for i := 0; i < 3; i++ {
		h.Track(object.New(object.ListType, &object.List{}))
	}
	stats := h.MaybeCollect(&fakeRoot{})
	if stats.Cycles != 0 {
		t.Fatalf("expected no collection below threshold, got %d cycles", stats.Cycles)
	}

	for i := 0; i < 3; i++ {
		h.Track(object.New(object.ListType, &object.List{}))
	}
	stats = h.MaybeCollect(&fakeRoot{})
	if stats.Cycles != 1 {
		t.Fatalf("expected one collection once past threshold, got %d cycles", stats.Cycles)
	}
	if stats.Live != 0 {
		t.Fatalf("Live = %d, want 0 (no roots held anything)", stats.Live)
	}
}
