// Implements the WaitQueue, which holds the cars waiting for a charger.
// Cars are enqueued on arrival when every charger at the station is busy.

package sim

import (
	"fmt"
	"strings"
)

// WaitQueue represents a FIFO queue of cars waiting at a station.
// The head is always the car with the earliest QueueEntryTime.
type WaitQueue struct {
	queue []*Car
}

// Enqueue adds a car to the back of the wait queue.
func (wq *WaitQueue) Enqueue(c *Car) {
	if c == nil {
		panic("Enqueue: car must not be nil")
	}
	wq.queue = append(wq.queue, c)
}

// String lists the queued car IDs head first, e.g. "[4 7 9]".
func (wq *WaitQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, c := range wq.queue {
		sb.WriteString(fmt.Sprint(c.ID))
		if i < len(wq.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}

// Len returns the number of cars in the queue.
func (wq *WaitQueue) Len() int {
	return len(wq.queue)
}

// Items returns the queue contents for iteration.
// The returned slice is the queue's internal storage; callers MUST NOT
// append to or reslice it.
func (wq *WaitQueue) Items() []*Car {
	return wq.queue
}

// Dequeue removes the car at the front of the queue.
// Returns nil if the queue is empty.
func (wq *WaitQueue) Dequeue() *Car {
	if len(wq.queue) == 0 {
		return nil
	}
	head := wq.queue[0]
	wq.queue[0] = nil
	wq.queue = wq.queue[1:]
	return head
}
