package fifo

import (
	"testing"

	"threadq/pkg/queue"
)

func TestFIFOOrdersByArrival(t *testing.T) {
	q := queue.NewQueue("cv", Discipline{}, NewHeads())
	a := queue.NewThread("A", 10)
	b := queue.NewThread("B", 5)
	path := &queue.Path{}

	Discipline{}.Enqueue(q, a, path)
	Discipline{}.Enqueue(q, b, path)

	first, ok := Discipline{}.First(q)
	if !ok || first != a {
		t.Fatalf("expected A first despite higher-priority B arriving second, got %v", first)
	}

	Discipline{}.Extract(q, a)
	first, ok = Discipline{}.First(q)
	if !ok || first != b {
		t.Fatalf("expected B after A extracted, got %v", first)
	}
}

func TestFIFOSurrenderPopsOldest(t *testing.T) {
	q := queue.NewQueue("cv", Discipline{}, NewHeads())
	a := queue.NewThread("A", 10)
	b := queue.NewThread("B", 10)
	path := &queue.Path{}

	Discipline{}.Enqueue(q, a, path)
	Discipline{}.Enqueue(q, b, path)

	successor, ok := Discipline{}.Surrender(q, nil)
	if !ok || successor != a {
		t.Fatalf("expected A as successor, got %v", successor)
	}

	successor, ok = Discipline{}.Surrender(q, nil)
	if !ok || successor != b {
		t.Fatalf("expected B as successor, got %v", successor)
	}

	if _, ok := (Discipline{}).Surrender(q, nil); ok {
		t.Fatalf("expected empty heads to report no successor")
	}
}
