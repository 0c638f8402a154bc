package sim

import "container/heap"

// EventHeap is the simulator's future-event list. Events leave in
// (timestamp, EventKindPriority, scheduling order) order, so a departure
// frees its charger before a car arriving at the same minute is seen, and
// two runs with the same seed dispatch identically.
// Scheduling order is counted per heap.
type EventHeap struct {
	pending eventQueue
	nextSeq uint64
}

// NewEventHeap returns an empty heap.
func NewEventHeap() *EventHeap {
	return &EventHeap{}
}

// Len returns the number of scheduled events.
func (h *EventHeap) Len() int { return len(h.pending) }

// Schedule stamps e with the heap's next scheduling number and queues it.
func (h *EventHeap) Schedule(e Event) {
	e.setSeq(h.nextSeq)
	h.nextSeq++
	heap.Push(&h.pending, e)
}

// PopNext removes and returns the earliest event, or nil when none remain.
func (h *EventHeap) PopNext() Event {
	if len(h.pending) == 0 {
		return nil
	}
	return heap.Pop(&h.pending).(Event)
}

// eventQueue is the heap.Interface view of the pending events.
type eventQueue []Event

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool { return dispatchesBefore(q[i], q[j]) }

func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x any) { *q = append(*q, x.(Event)) }

func (q *eventQueue) Pop() any {
	old := *q
	last := old[len(old)-1]
	old[len(old)-1] = nil
	*q = old[:len(old)-1]
	return last
}

// dispatchesBefore reports whether a must run before b.
func dispatchesBefore(a, b Event) bool {
	if ta, tb := a.Timestamp(), b.Timestamp(); ta != tb {
		return ta < tb
	}
	if pa, pb := EventKindPriority[a.Kind()], EventKindPriority[b.Kind()]; pa != pb {
		return pa < pb
	}
	return a.Seq() < b.Seq()
}
