package axi

import (
	"errors"

	"github.com/scarv/xcsim/sim/queueing"
)

var (
	// ErrIncompleteTail is returned when a write address arrives while the
	// previous write still waits for its data.
	ErrIncompleteTail = errors.New("write queue tail is still waiting for data")

	// ErrNoPendingAddress is returned when write data arrives without an
	// accepted write address to attach to.
	ErrNoPendingAddress = errors.New("write data without a pending write address")
)

// A ReadQueue holds the addresses of accepted reads until they are answered.
type ReadQueue struct {
	buf *queueing.Buffer[uint32]
}

// NewReadQueue creates an unbounded read queue.
func NewReadQueue(name string) *ReadQueue {
	return &ReadQueue{buf: queueing.NewBuffer[uint32](name)}
}

// Push appends an accepted read address.
func (q *ReadQueue) Push(addr uint32) {
	q.buf.Push(addr)
}

// Pop removes the oldest read address.
func (q *ReadQueue) Pop() (uint32, bool) {
	return q.buf.Pop()
}

// Len returns the number of reads waiting for a response.
func (q *ReadQueue) Len() int {
	return q.buf.Size()
}

// Addresses lists the pending read addresses, oldest first.
func (q *ReadQueue) Addresses() []uint32 {
	return q.buf.Elements()
}

// Clear drops all pending reads.
func (q *ReadQueue) Clear() {
	q.buf.Clear()
}

// Buffer exposes the underlying buffer so that hooks can be attached.
func (q *ReadQueue) Buffer() *queueing.Buffer[uint32] {
	return q.buf
}

// A WriteReq is a write that has at least passed its address handshake.
type WriteReq struct {
	Seq      uint64
	Addr     uint32
	Data     uint32
	Strb     uint8
	Complete bool
}

// A WriteQueue holds accepted writes until they are acknowledged. Only the
// tail entry may be incomplete.
type WriteQueue struct {
	buf     *queueing.Buffer[WriteReq]
	nextSeq uint64
}

// NewWriteQueue creates an unbounded write queue.
func NewWriteQueue(name string) *WriteQueue {
	return &WriteQueue{
		buf:     queueing.NewBuffer[WriteReq](name),
		nextSeq: 1,
	}
}

// TailIncomplete tells if the newest write still waits for its data.
func (q *WriteQueue) TailIncomplete() bool {
	tail := q.buf.Back()

	return tail != nil && !tail.Complete
}

// PushAddress records a new write whose data has not arrived yet.
func (q *WriteQueue) PushAddress(addr uint32) error {
	if q.TailIncomplete() {
		return ErrIncompleteTail
	}

	q.buf.Push(WriteReq{Seq: q.nextSeq, Addr: addr})
	q.nextSeq++

	return nil
}

// FillData completes the tail write with its data and byte strobe.
func (q *WriteQueue) FillData(data uint32, strb uint8) (WriteReq, error) {
	if !q.TailIncomplete() {
		return WriteReq{}, ErrNoPendingAddress
	}

	tail := q.buf.Back()
	tail.Data = data
	tail.Strb = strb & 0xF
	tail.Complete = true

	return *tail, nil
}

// Front returns the oldest write without removing it.
func (q *WriteQueue) Front() (WriteReq, bool) {
	return q.buf.Peek()
}

// Pop removes the oldest write.
func (q *WriteQueue) Pop() (WriteReq, bool) {
	return q.buf.Pop()
}

// Len returns the number of writes held.
func (q *WriteQueue) Len() int {
	return q.buf.Size()
}

// Requests lists the held writes, oldest first.
func (q *WriteQueue) Requests() []WriteReq {
	return q.buf.Elements()
}

// Clear drops all held writes. Sequence numbers keep increasing.
func (q *WriteQueue) Clear() {
	q.buf.Clear()
}

// Buffer exposes the underlying buffer so that hooks can be attached.
func (q *WriteQueue) Buffer() *queueing.Buffer[WriteReq] {
	return q.buf
}
