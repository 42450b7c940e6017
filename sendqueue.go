package stcp

// chunk is one application write awaiting transmission, already assigned a
// sequence range by the time it is pushed (spec §4.4).
type chunk struct {
	seq  Value
	data []byte
	next *chunk
}

// sendQueue is the FIFO of outbound byte chunks awaiting transmission named
// in spec §3/§9 design note 3: required to implement the window-stall
// behaviour of scenario S5. Grounded on the queueElement/queue_t linked
// lists in the retrieval pack (see DESIGN.md) rather than the teacher's own
// ring-buffer txqueue, since retransmission (what the ring buffer exists
// to support) is a Non-goal here.
type sendQueue struct {
	head, tail *chunk
	length     Size
}

// push appends a chunk of data already assigned sequence range [seq, seq+len(data)).
func (q *sendQueue) push(seq Value, data []byte) {
	c := &chunk{seq: seq, data: data}
	if q.tail == nil {
		q.head, q.tail = c, c
	} else {
		q.tail.next = c
		q.tail = c
	}
	q.length += Size(len(data))
}

// front returns the head chunk without removing it, or nil if empty.
func (q *sendQueue) front() *chunk {
	return q.head
}

// pop removes and discards the head chunk.
func (q *sendQueue) pop() {
	c := q.head
	if c == nil {
		return
	}
	q.length -= Size(len(c.data))
	q.head = c.next
	if q.head == nil {
		q.tail = nil
	}
}

// empty reports whether the queue has no pending chunks.
func (q *sendQueue) empty() bool { return q.head == nil }

// Len returns the cumulative byte count of all chunks still queued.
func (q *sendQueue) Len() Size { return q.length }
