// Package agent provides a software bus master that stands in for a design
// under test. It fetches instructions on one port, drives random checked
// memory traffic on another, prints a report through the byte-output device
// and finally fetches the pass or the fail address.
package agent

import (
	"fmt"
	"log"
	"math/rand"

	"github.com/scarv/xcsim/axi"
	"github.com/scarv/xcsim/dut"
	"github.com/scarv/xcsim/mem"
)

const (
	instrPort = 0
	dataPort  = 1
)

var portNames = [...]string{"instr", "data"}

type phase int

const (
	phaseTraffic phase = iota
	phaseReport
	phaseFinish
)

type writeStage int

const (
	writeIdle writeStage = iota
	writeAddrData
	writeAddrOnly
	writeDataOnly
)

type write struct {
	addr uint32
	data uint32
	strb uint8
}

// Stats counts the completed requests of an agent. Writes to the byte-output
// device are not counted.
type Stats struct {
	Fetches    int
	Reads      int
	Writes     int
	Mismatches int
}

// An Agent is a bus master model. It acts on rising clock edges only and
// keeps every response ready line high.
type Agent struct {
	name  string
	seed  int64
	image *mem.Storage

	numFetches  int
	numReads    int
	numWrites   int
	fetchBase   uint32
	windowBase  uint32
	windowSize  uint32
	passAddress uint32
	failAddress uint32
	uartAddress uint32

	clock     bool
	lastClock bool
	resetN    bool
	ports     [2]axi.PortSignals

	rng        *rand.Rand
	phase      phase
	fetchLeft  int
	readLeft   int
	writeLeft  int
	nextFetch  uint32
	report     []byte
	stage      writeStage
	current    write
	known      map[uint32]byte
	knownWords []uint32

	pendingFetches []uint32
	pendingReads   []uint32
	pendingWrites  []write

	stats Stats
}

var _ dut.Model = (*Agent)(nil)

// Name returns the name of the agent.
func (a *Agent) Name() string {
	return a.name
}

// SetClock sets the clock input.
func (a *Agent) SetClock(high bool) {
	a.clock = high
}

// SetResetN sets the active-low reset input.
func (a *Agent) SetResetN(high bool) {
	a.resetN = high
}

// NumPorts returns 2.
func (a *Agent) NumPorts() int {
	return len(a.ports)
}

// Port returns the signals of the i-th master port.
func (a *Agent) Port(i int) *axi.PortSignals {
	return &a.ports[i]
}

// PortName returns the name of the i-th master port.
func (a *Agent) PortName(i int) string {
	return portNames[i]
}

// Stats returns the counters of the agent.
func (a *Agent) Stats() Stats {
	return a.stats
}

// Done tells if the agent has printed its report and is fetching the final
// address.
func (a *Agent) Done() bool {
	return a.phase == phaseFinish
}

// Eval updates the master side of both ports on a rising clock edge. The
// slave side seen here is what the transactor drove on the previous edge.
func (a *Agent) Eval() {
	rising := a.clock && !a.lastClock
	a.lastClock = a.clock

	if !rising {
		return
	}

	if !a.resetN {
		a.reset()
		return
	}

	a.collectResponses()
	a.driveInstrPort()
	a.driveDataPort()
}

func (a *Agent) reset() {
	for i := range a.ports {
		a.ports[i].ResetMasterSide()
	}

	a.rng = rand.New(rand.NewSource(a.seed))
	a.phase = phaseTraffic
	a.fetchLeft = a.numFetches
	a.readLeft = a.numReads
	if a.numWrites == 0 {
		a.readLeft = 0
	}
	a.writeLeft = a.numWrites
	a.nextFetch = a.fetchBase
	a.report = nil
	a.stage = writeIdle
	a.known = make(map[uint32]byte)
	a.knownWords = nil
	a.pendingFetches = nil
	a.pendingReads = nil
	a.pendingWrites = nil
	a.stats = Stats{}

	for i := range a.ports {
		a.ports[i].R.Ready = true
		a.ports[i].B.Ready = true
	}
}

func (a *Agent) collectResponses() {
	instr := &a.ports[instrPort]
	if instr.R.Valid && len(a.pendingFetches) > 0 {
		addr := a.pendingFetches[0]
		a.pendingFetches = a.pendingFetches[1:]
		a.stats.Fetches++
		a.checkFetch(addr, instr.R.Data)
	}

	data := &a.ports[dataPort]
	if data.R.Valid && len(a.pendingReads) > 0 {
		addr := a.pendingReads[0]
		a.pendingReads = a.pendingReads[1:]
		a.stats.Reads++
		a.checkRead(addr, data.R.Data)
	}

	if data.B.Valid && len(a.pendingWrites) > 0 {
		w := a.pendingWrites[0]
		a.pendingWrites = a.pendingWrites[1:]
		a.learn(w)
	}
}

func (a *Agent) driveInstrPort() {
	ar := &a.ports[instrPort].AR
	if ar.Valid && !ar.Ready {
		return
	}

	ar.Valid = false

	switch {
	case a.phase == phaseFinish:
		ar.Valid = true
		ar.Addr = a.finalAddress()
	case a.fetchLeft > 0:
		ar.Valid = true
		ar.Addr = a.nextFetch
		a.pendingFetches = append(a.pendingFetches, a.nextFetch)
		a.nextFetch += 4
		a.fetchLeft--
	}
}

func (a *Agent) finalAddress() uint32 {
	if a.stats.Mismatches > 0 {
		return a.failAddress
	}

	return a.passAddress
}

func (a *Agent) driveDataPort() {
	sig := &a.ports[dataPort]

	if sig.AR.Valid && sig.AR.Ready {
		sig.AR.Valid = false
	}

	a.advanceWrite(sig)
	a.advancePhase()

	switch a.phase {
	case phaseTraffic:
		a.issueTraffic(sig)
	case phaseReport:
		a.issueReport(sig)
	}
}

func (a *Agent) advanceWrite(sig *axi.PortSignals) {
	switch a.stage {
	case writeAddrData:
		if sig.AW.Ready && sig.W.Ready {
			sig.AW.Valid = false
			sig.W.Valid = false
			a.stage = writeIdle
		}
	case writeAddrOnly:
		if sig.AW.Ready {
			sig.AW.Valid = false
			sig.W.Valid = true
			sig.W.Data = a.current.data
			sig.W.Strb = a.current.strb
			a.stage = writeDataOnly
		}
	case writeDataOnly:
		if sig.W.Ready {
			sig.W.Valid = false
			a.stage = writeIdle
		}
	}
}

func (a *Agent) advancePhase() {
	switch a.phase {
	case phaseTraffic:
		if a.readLeft == 0 && a.writeLeft == 0 && a.fetchLeft == 0 && a.idle() {
			a.phase = phaseReport
			a.report = []byte(fmt.Sprintf(
				"%s: %d fetches, %d reads, %d writes, %d mismatches\n",
				a.name, a.stats.Fetches, a.stats.Reads, a.stats.Writes,
				a.stats.Mismatches))
		}
	case phaseReport:
		if len(a.report) == 0 && a.idle() {
			a.phase = phaseFinish
		}
	}
}

func (a *Agent) idle() bool {
	return a.stage == writeIdle &&
		!a.ports[dataPort].AR.Valid &&
		len(a.pendingFetches) == 0 &&
		len(a.pendingReads) == 0 &&
		len(a.pendingWrites) == 0
}

func (a *Agent) issueTraffic(sig *axi.PortSignals) {
	if a.readLeft == 0 && a.writeLeft == 0 {
		return
	}

	if a.shouldRead() {
		if !sig.AR.Valid {
			a.doRead(sig)
		}

		return
	}

	if a.stage == writeIdle && a.writeLeft > 0 {
		a.doWrite(sig)
	}
}

func (a *Agent) shouldRead() bool {
	if len(a.knownWords) == 0 {
		return false
	}

	if a.readLeft == 0 {
		return false
	}

	if a.writeLeft == 0 {
		return true
	}

	return a.rng.Float64() > 0.5
}

// doRead skips the edge when the chosen word has a write in flight.
func (a *Agent) doRead(sig *axi.PortSignals) {
	addr := a.knownWords[a.rng.Intn(len(a.knownWords))]
	if a.isAddressInPendingWrite(addr) {
		return
	}

	sig.AR.Valid = true
	sig.AR.Addr = addr
	a.pendingReads = append(a.pendingReads, addr)
	a.readLeft--
}

func (a *Agent) doWrite(sig *axi.PortSignals) {
	addr := a.windowBase + uint32(a.rng.Intn(int(a.windowSize/4)))*4
	if a.isAddressInPendingRead(addr) {
		return
	}

	w := write{
		addr: addr,
		data: a.rng.Uint32(),
		strb: uint8(a.rng.Intn(15) + 1),
	}
	a.startWrite(sig, w, a.rng.Intn(2) == 0)
	a.writeLeft--
}

func (a *Agent) issueReport(sig *axi.PortSignals) {
	if a.stage != writeIdle || len(a.report) == 0 {
		return
	}

	c := a.report[0]
	a.report = a.report[1:]

	a.startWrite(sig, write{
		addr: a.uartAddress,
		data: uint32(c) << 24,
		strb: 0b1000,
	}, false)
}

// startWrite presents a write address. The data follows on the same edge or,
// if delayData is set, on the edge after the address is accepted.
func (a *Agent) startWrite(sig *axi.PortSignals, w write, delayData bool) {
	sig.AW.Valid = true
	sig.AW.Addr = w.addr
	a.current = w
	a.pendingWrites = append(a.pendingWrites, w)

	if delayData {
		a.stage = writeAddrOnly
		return
	}

	sig.W.Valid = true
	sig.W.Data = w.data
	sig.W.Strb = w.strb
	a.stage = writeAddrData
}

func (a *Agent) isAddressInPendingWrite(addr uint32) bool {
	for _, w := range a.pendingWrites {
		if w.addr == addr {
			return true
		}
	}

	return false
}

func (a *Agent) isAddressInPendingRead(addr uint32) bool {
	for _, r := range a.pendingReads {
		if r == addr {
			return true
		}
	}

	return false
}

func (a *Agent) inWindow(addr uint32) bool {
	return addr >= a.windowBase && addr-a.windowBase < a.windowSize
}

// learn records the bytes of an acknowledged write.
func (a *Agent) learn(w write) {
	if !a.inWindow(w.addr) {
		return
	}

	a.stats.Writes++

	seen := false
	for b := uint32(0); b < 4; b++ {
		if _, ok := a.known[w.addr+b]; ok {
			seen = true
		}
	}

	for b := uint32(0); b < 4; b++ {
		if w.strb&(1<<b) != 0 {
			a.known[w.addr+b] = byte(w.data >> (8 * b))
		}
	}

	if !seen {
		a.knownWords = append(a.knownWords, w.addr)
	}
}

// checkRead compares the bytes of a read that the agent has written before.
func (a *Agent) checkRead(addr, got uint32) {
	var want, mask uint32

	for b := uint32(0); b < 4; b++ {
		v, ok := a.known[addr+b]
		if !ok {
			continue
		}

		want |= uint32(v) << (8 * b)
		mask |= 0xFF << (8 * b)
	}

	if got&mask != want {
		a.stats.Mismatches++
		log.Printf("%s: read 0x%08X returned 0x%08X, want 0x%08X under mask 0x%08X",
			a.name, addr, got, want, mask)
	}
}

func (a *Agent) checkFetch(addr, got uint32) {
	if a.image == nil {
		return
	}

	want := a.image.ReadWord(addr)
	if got != want {
		a.stats.Mismatches++
		log.Printf("%s: fetch 0x%08X returned 0x%08X, want 0x%08X",
			a.name, addr, got, want)
	}
}
