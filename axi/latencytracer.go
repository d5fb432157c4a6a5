package axi

import (
	"sync"

	"github.com/scarv/xcsim/sim"
)

// Latency summarizes how many steps a kind of request spent in the
// transactor, from address acceptance to response.
type Latency struct {
	Count uint64
	Total uint64
	Max   uint64
}

// Average returns the mean latency in steps, or 0 if nothing was measured.
func (l Latency) Average() float64 {
	if l.Count == 0 {
		return 0
	}

	return float64(l.Total) / float64(l.Count)
}

func (l *Latency) add(v uint64) {
	l.Count++
	l.Total += v

	if v > l.Max {
		l.Max = v
	}
}

// LatencyTracer is a hook that measures read and write latency. Responses
// leave each port in acceptance order, so the oldest start time of the port
// belongs to the response being reported.
type LatencyTracer struct {
	timeTeller sim.TimeTeller

	lock           sync.Mutex
	inflightReads  map[string][]uint64
	inflightWrites map[string][]uint64
	reads          Latency
	writes         Latency
}

// NewLatencyTracer creates a LatencyTracer.
func NewLatencyTracer(timeTeller sim.TimeTeller) *LatencyTracer {
	return &LatencyTracer{
		timeTeller:     timeTeller,
		inflightReads:  make(map[string][]uint64),
		inflightWrites: make(map[string][]uint64),
	}
}

// Func records the start and the end of requests. A transactor reset drops
// the requests in flight; latencies measured before it are kept.
func (t *LatencyTracer) Func(ctx sim.HookCtx) {
	txn, ok := ctx.Item.(Transaction)
	if !ok {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	now := t.timeTeller.CurrentStep()

	switch ctx.Pos {
	case HookPosReadAccepted:
		t.inflightReads[txn.Port] = append(t.inflightReads[txn.Port], now)
	case HookPosReadResponded:
		t.finish(t.inflightReads, txn.Port, now, &t.reads)
	case HookPosWriteAddrAccepted:
		t.inflightWrites[txn.Port] = append(t.inflightWrites[txn.Port], now)
	case HookPosWriteCommitted:
		t.finish(t.inflightWrites, txn.Port, now, &t.writes)
	case HookPosReset:
		clear(t.inflightReads)
		clear(t.inflightWrites)
	}
}

func (t *LatencyTracer) finish(
	inflight map[string][]uint64,
	port string,
	now uint64,
	l *Latency,
) {
	starts := inflight[port]
	if len(starts) == 0 {
		return
	}

	l.add(now - starts[0])
	inflight[port] = starts[1:]
}

// ReadLatency returns the read latency measured so far.
func (t *LatencyTracer) ReadLatency() Latency {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.reads
}

// WriteLatency returns the write latency measured so far.
func (t *LatencyTracer) WriteLatency() Latency {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.writes
}
