package axi

import (
	"io"
	"log"
	"sync"
)

// DefaultTrapAddress is the word address of the byte-output device.
const DefaultTrapAddress uint32 = 0x0000_1000

// trapStrobe selects the most significant byte of the data word.
const trapStrobe uint8 = 0b1000

// A ByteOutputTrap emulates a write-only character device. It watches the
// oldest write of every port and prints the top byte of each complete write
// to the trap address whose strobe selects only that byte. It never changes
// the write; the write is still committed to memory as usual.
type ByteOutputTrap struct {
	addr uint32
	out  io.Writer

	lock     sync.Mutex
	captured []byte
	lastSeq  map[string]uint64
}

// NewByteOutputTrap creates a trap for addr that prints to out. A nil writer
// only captures.
func NewByteOutputTrap(addr uint32, out io.Writer) *ByteOutputTrap {
	return &ByteOutputTrap{
		addr:    addr,
		out:     out,
		lastSeq: make(map[string]uint64),
	}
}

// Address returns the trapped word address.
func (t *ByteOutputTrap) Address() uint32 {
	return t.addr
}

// Matches tells if a write request targets the device.
func (t *ByteOutputTrap) Matches(req WriteReq) bool {
	return req.Complete && req.Addr == t.addr && req.Strb&0xF == trapStrobe
}

// observe checks the front of a port's write queue. Every request is printed
// at most once, even when its response is held for several cycles.
func (t *ByteOutputTrap) observe(port string, q *WriteQueue) (byte, bool) {
	front, ok := q.Front()
	if !ok || !t.Matches(front) {
		return 0, false
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	if t.lastSeq[port] >= front.Seq {
		return 0, false
	}

	t.lastSeq[port] = front.Seq

	c := byte(front.Data >> 24)
	t.captured = append(t.captured, c)

	if t.out != nil {
		_, err := t.out.Write([]byte{c})
		if err != nil {
			log.Printf("byte output: %v", err)
		}
	}

	return c, true
}

// Output returns a copy of every byte printed so far.
func (t *ByteOutputTrap) Output() []byte {
	t.lock.Lock()
	defer t.lock.Unlock()

	out := make([]byte, len(t.captured))
	copy(out, t.captured)

	return out
}

// Reset forgets the captured output and the printed requests.
func (t *ByteOutputTrap) Reset() {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.captured = nil
	t.lastSeq = make(map[string]uint64)
}
