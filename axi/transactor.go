package axi

import (
	"io"
	"log"
	"sync"

	"github.com/scarv/xcsim/mem"
	"github.com/scarv/xcsim/sim"
)

// Hook positions of the transactor. The hook item is always a Transaction.
var (
	HookPosReadAccepted      = &sim.HookPos{Name: "AXI Read Accepted"}
	HookPosReadResponded     = &sim.HookPos{Name: "AXI Read Responded"}
	HookPosWriteAddrAccepted = &sim.HookPos{Name: "AXI Write Addr Accepted"}
	HookPosWriteDataAccepted = &sim.HookPos{Name: "AXI Write Data Accepted"}
	HookPosWriteCommitted    = &sim.HookPos{Name: "AXI Write Committed"}
	HookPosByteOut           = &sim.HookPos{Name: "AXI Byte Out"}
	HookPosReset             = &sim.HookPos{Name: "AXI Reset"}
)

// A Transaction describes a bus event reported to hooks.
type Transaction struct {
	Port string
	Addr uint32
	Data uint32
	Strb uint8
}

// PortStats counts the activity of a port.
type PortStats struct {
	ReadsAccepted   uint64
	ReadsResponded  uint64
	ReadRspStalls   uint64
	WritesAccepted  uint64
	WriteAddrStalls uint64
	WritesCommitted uint64
	WriteRspStalls  uint64
	BytesOut        uint64
}

// A Port is a master port served by the transactor. It owns the queues of
// its in-flight requests; ports never share queues.
type Port struct {
	name    string
	signals *PortSignals
	reads   *ReadQueue
	writes  *WriteQueue
	stats   PortStats
}

// Name returns the name of the port.
func (p *Port) Name() string {
	return p.name
}

// Signals returns the signal set the port is bound to.
func (p *Port) Signals() *PortSignals {
	return p.signals
}

// Reads returns the queue of pending reads.
func (p *Port) Reads() *ReadQueue {
	return p.reads
}

// Writes returns the queue of pending writes.
func (p *Port) Writes() *WriteQueue {
	return p.writes
}

// PortState is a copy of the state of a port at one point in time.
type PortState struct {
	Name          string
	Signals       PortSignals
	PendingReads  []uint32
	PendingWrites []WriteReq
	Stats         PortStats
}

// A Transactor serves the memory bus of the design under test. On every
// rising clock edge it samples the master signals of each port, updates the
// port queues and drives the slave signals.
type Transactor struct {
	sim.HookableBase

	name    string
	storage *mem.Storage
	trap    *ByteOutputTrap

	lock      sync.Mutex
	ports     []*Port
	portIndex map[string]int
}

// Builder can build transactors.
type Builder struct {
	storage     *mem.Storage
	trapAddress uint32
	output      io.Writer
}

// MakeBuilder returns a Builder with a fresh storage, the default trap
// address and no byte output writer.
func MakeBuilder() Builder {
	return Builder{
		trapAddress: DefaultTrapAddress,
	}
}

// WithStorage sets the memory image the transactor serves.
func (b Builder) WithStorage(storage *mem.Storage) Builder {
	b.storage = storage
	return b
}

// WithTrapAddress sets the word address of the byte-output device.
func (b Builder) WithTrapAddress(addr uint32) Builder {
	b.trapAddress = addr
	return b
}

// WithOutput sets where the byte-output device prints.
func (b Builder) WithOutput(w io.Writer) Builder {
	b.output = w
	return b
}

// Build creates a transactor without ports.
func (b Builder) Build(name string) *Transactor {
	storage := b.storage
	if storage == nil {
		storage = mem.NewStorage()
	}

	return &Transactor{
		name:      name,
		storage:   storage,
		trap:      NewByteOutputTrap(b.trapAddress, b.output),
		portIndex: make(map[string]int),
	}
}

// Name returns the name of the transactor.
func (t *Transactor) Name() string {
	return t.name
}

// Storage returns the memory image served by the transactor.
func (t *Transactor) Storage() *mem.Storage {
	return t.storage
}

// Trap returns the byte-output device.
func (t *Transactor) Trap() *ByteOutputTrap {
	return t.trap
}

// AttachPort binds a master port to the signals that the design exposes.
func (t *Transactor) AttachPort(name string, signals *PortSignals) *Port {
	t.lock.Lock()
	defer t.lock.Unlock()

	if _, ok := t.portIndex[name]; ok {
		log.Panicf("port %s already attached to %s", name, t.name)
	}

	p := &Port{
		name:    name,
		signals: signals,
		reads:   NewReadQueue(t.name + "." + name + ".ReadQueue"),
		writes:  NewWriteQueue(t.name + "." + name + ".WriteQueue"),
	}

	t.portIndex[name] = len(t.ports)
	t.ports = append(t.ports, p)

	return p
}

// Ports returns the attached ports in attachment order.
func (t *Transactor) Ports() []*Port {
	t.lock.Lock()
	defer t.lock.Unlock()

	ports := make([]*Port, len(t.ports))
	copy(ports, t.ports)

	return ports
}

// Port returns the port with the given name, or nil.
func (t *Transactor) Port(name string) *Port {
	t.lock.Lock()
	defer t.lock.Unlock()

	i, ok := t.portIndex[name]
	if !ok {
		return nil
	}

	return t.ports[i]
}

// Tick serves every port for one rising clock edge, in attachment order. It
// stops at the first protocol error.
func (t *Transactor) Tick() error {
	t.lock.Lock()
	defer t.lock.Unlock()

	for _, p := range t.ports {
		err := t.tickPort(p)
		if err != nil {
			return err
		}
	}

	return nil
}

// The handler order lets an address captured on this edge be answered on the
// same edge.
func (t *Transactor) tickPort(p *Port) error {
	sig := p.signals

	if handleReadAddr(&sig.AR, p.reads) {
		p.stats.ReadsAccepted++
		t.report(HookPosReadAccepted, Transaction{Port: p.name, Addr: sig.AR.Addr})
	}

	accepted, err := handleWriteAddr(&sig.AW, p.writes)
	if err != nil {
		return &ProtocolError{Port: p.name, Channel: ChannelWriteAddr, Err: err}
	}

	if accepted {
		p.stats.WritesAccepted++
		t.report(HookPosWriteAddrAccepted,
			Transaction{Port: p.name, Addr: sig.AW.Addr})
	} else if sig.AW.Valid {
		p.stats.WriteAddrStalls++
	}

	req, accepted, err := handleWriteData(&sig.W, p.writes)
	if err != nil {
		return &ProtocolError{Port: p.name, Channel: ChannelWriteData, Err: err}
	}

	if accepted {
		t.report(HookPosWriteDataAccepted, transactionOf(p.name, req))
	}

	if c, ok := t.trap.observe(p.name, p.writes); ok {
		p.stats.BytesOut++
		t.report(HookPosByteOut, Transaction{
			Port: p.name, Addr: t.trap.Address(), Data: uint32(c),
		})
	}

	addr, responded, stalled := handleReadResp(&sig.R, p.reads, t.storage)
	switch {
	case responded:
		p.stats.ReadsResponded++
		t.report(HookPosReadResponded,
			Transaction{Port: p.name, Addr: addr, Data: sig.R.Data})
	case stalled:
		p.stats.ReadRspStalls++
	}

	req, responded, stalled = handleWriteResp(&sig.B, p.writes, t.storage)
	switch {
	case responded:
		p.stats.WritesCommitted++
		t.report(HookPosWriteCommitted, transactionOf(p.name, req))
	case stalled:
		p.stats.WriteRspStalls++
	}

	return nil
}

func transactionOf(port string, req WriteReq) Transaction {
	return Transaction{Port: port, Addr: req.Addr, Data: req.Data, Strb: req.Strb}
}

func (t *Transactor) report(pos *sim.HookPos, item Transaction) {
	if t.NumHooks() == 0 {
		return
	}

	t.InvokeHook(sim.HookCtx{
		Domain: t,
		Pos:    pos,
		Item:   item,
	})
}

// Reset drops all in-flight requests, deasserts the slave side of every port
// and clears the counters and the captured output. The memory image is kept.
func (t *Transactor) Reset() {
	t.lock.Lock()
	defer t.lock.Unlock()

	for _, p := range t.ports {
		p.reads.Clear()
		p.writes.Clear()
		p.signals.ResetSlaveSide()
		p.stats = PortStats{}
	}

	t.trap.Reset()
	t.report(HookPosReset, Transaction{})
}

// PortStates returns a copy of the state of every port.
func (t *Transactor) PortStates() []PortState {
	t.lock.Lock()
	defer t.lock.Unlock()

	states := make([]PortState, 0, len(t.ports))
	for _, p := range t.ports {
		states = append(states, PortState{
			Name:          p.name,
			Signals:       *p.signals,
			PendingReads:  p.reads.Addresses(),
			PendingWrites: p.writes.Requests(),
			Stats:         p.stats,
		})
	}

	return states
}

// Stats returns the counters of the named port.
func (t *Transactor) Stats(port string) (PortStats, bool) {
	p := t.Port(port)
	if p == nil {
		return PortStats{}, false
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	return p.stats, true
}
