package stcp

import "testing"

func TestSendQueuePushPop(t *testing.T) {
	var q sendQueue
	if !q.empty() {
		t.Fatal("new queue should be empty")
	}

	q.push(0, []byte("abc"))
	q.push(3, []byte("de"))

	if q.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", q.Len())
	}

	head := q.front()
	if head == nil || string(head.data) != "abc" || head.seq != 0 {
		t.Fatalf("front() = %+v, want seq 0 data abc", head)
	}

	q.pop()
	if q.Len() != 2 {
		t.Fatalf("Len() after pop = %d, want 2", q.Len())
	}
	head = q.front()
	if head == nil || string(head.data) != "de" || head.seq != 3 {
		t.Fatalf("front() after pop = %+v, want seq 3 data de", head)
	}

	q.pop()
	if !q.empty() {
		t.Fatal("queue should be empty after draining both chunks")
	}
	q.pop() // popping an empty queue must not panic
}
