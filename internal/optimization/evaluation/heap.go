package evaluation

import "container/heap"

// Heap is a max-heap of evaluations keyed on their image. Equal images come
// out in insertion order.
type Heap struct {
	items evalHeap
	seq   uint64
}

// NewHeap creates an empty heap with room for capacity evaluations.
func NewHeap(capacity int) *Heap {
	return &Heap{items: make(evalHeap, 0, capacity)}
}

// Push adds e to the heap.
func (h *Heap) Push(e PointEval) {
	heap.Push(&h.items, heapItem{eval: e, seq: h.seq})
	h.seq++
}

// Peek returns the maximum evaluation without removing it.
func (h *Heap) Peek() (PointEval, bool) {
	if len(h.items) == 0 {
		return PointEval{}, false
	}
	return h.items[0].eval, true
}

// Pop removes and returns the maximum evaluation.
func (h *Heap) Pop() (PointEval, bool) {
	if len(h.items) == 0 {
		return PointEval{}, false
	}
	item := heap.Pop(&h.items).(heapItem)
	return item.eval, true
}

// Len returns the number of evaluations held.
func (h *Heap) Len() int { return len(h.items) }

// Clear empties the heap, keeping its storage.
func (h *Heap) Clear() {
	clear(h.items)
	h.items = h.items[:0]
	h.seq = 0
}

type heapItem struct {
	eval PointEval
	seq  uint64
}

type evalHeap []heapItem

func (h evalHeap) Len() int { return len(h) }

func (h evalHeap) Less(i, j int) bool {
	if h[i].eval.image != h[j].eval.image {
		return h[i].eval.image > h[j].eval.image
	}
	return h[i].seq < h[j].seq
}

func (h evalHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *evalHeap) Push(x any) { *h = append(*h, x.(heapItem)) }

func (h *evalHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = heapItem{}
	*h = old[:n-1]
	return item
}
