package sim

import "testing"

func TestWaitQueue_Dequeue_IsFIFO(t *testing.T) {
	// GIVEN three cars enqueued in order
	wq := &WaitQueue{}
	for i := 1; i <= 3; i++ {
		wq.Enqueue(&Car{ID: CarID(i)})
	}

	// WHEN dequeued until empty
	var order []CarID
	for c := wq.Dequeue(); c != nil; c = wq.Dequeue() {
		order = append(order, c.ID)
	}

	// THEN cars leave in arrival order
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("dequeue order = %v, want [1 2 3]", order)
	}
	if wq.Len() != 0 {
		t.Errorf("Len after drain = %d", wq.Len())
	}
}

func TestWaitQueue_String(t *testing.T) {
	wq := &WaitQueue{}
	wq.Enqueue(&Car{ID: 5})
	wq.Enqueue(&Car{ID: 9})
	if got := wq.String(); got != "[5 9]" {
		t.Errorf("String() = %q, want [5 9]", got)
	}
}

func TestWaitQueue_Enqueue_NilPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic enqueuing nil")
		}
	}()
	(&WaitQueue{}).Enqueue(nil)
}
