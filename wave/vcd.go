package wave

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/scarv/xcsim/axi"
)

type portVar struct {
	name  string
	width int
	value func(p *axi.PortSignals) uint64
}

var portVars = []portVar{
	{"ar_valid", 1, func(p *axi.PortSignals) uint64 { return bit(p.AR.Valid) }},
	{"ar_ready", 1, func(p *axi.PortSignals) uint64 { return bit(p.AR.Ready) }},
	{"ar_addr", 32, func(p *axi.PortSignals) uint64 { return uint64(p.AR.Addr) }},
	{"r_valid", 1, func(p *axi.PortSignals) uint64 { return bit(p.R.Valid) }},
	{"r_ready", 1, func(p *axi.PortSignals) uint64 { return bit(p.R.Ready) }},
	{"r_data", 32, func(p *axi.PortSignals) uint64 { return uint64(p.R.Data) }},
	{"aw_valid", 1, func(p *axi.PortSignals) uint64 { return bit(p.AW.Valid) }},
	{"aw_ready", 1, func(p *axi.PortSignals) uint64 { return bit(p.AW.Ready) }},
	{"aw_addr", 32, func(p *axi.PortSignals) uint64 { return uint64(p.AW.Addr) }},
	{"w_valid", 1, func(p *axi.PortSignals) uint64 { return bit(p.W.Valid) }},
	{"w_ready", 1, func(p *axi.PortSignals) uint64 { return bit(p.W.Ready) }},
	{"w_data", 32, func(p *axi.PortSignals) uint64 { return uint64(p.W.Data) }},
	{"w_strb", 4, func(p *axi.PortSignals) uint64 { return uint64(p.W.Strb & 0xF) }},
	{"b_valid", 1, func(p *axi.PortSignals) uint64 { return bit(p.B.Valid) }},
	{"b_ready", 1, func(p *axi.PortSignals) uint64 { return bit(p.B.Ready) }},
}

func bit(b bool) uint64 {
	if b {
		return 1
	}

	return 0
}

type vcdVar struct {
	id    string
	width int
}

// VCDWriter writes snapshots as a Value Change Dump. One step is one
// nanosecond. The header is written with the first snapshot, since it names
// the ports.
type VCDWriter struct {
	w      *bufio.Writer
	closer io.Closer

	vars   []vcdVar
	last   []uint64
	values []uint64

	// err is the first write error. Once set, every Record returns it.
	err error
}

func (v *VCDWriter) printf(format string, args ...any) {
	if v.err != nil {
		return
	}

	_, v.err = fmt.Fprintf(v.w, format, args...)
}

func (v *VCDWriter) println(line string) {
	v.printf("%s\n", line)
}

// NewVCDWriter creates a VCDWriter on w. Close flushes it and closes w if w
// is an io.Closer.
func NewVCDWriter(w io.Writer) *VCDWriter {
	v := &VCDWriter{w: bufio.NewWriter(w)}

	if c, ok := w.(io.Closer); ok {
		v.closer = c
	}

	return v
}

// CreateVCD creates the file at path and returns a VCDWriter on it.
func CreateVCD(path string) (*VCDWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create waveform: %w", err)
	}

	return NewVCDWriter(f), nil
}

// vcdID returns the n-th short identifier made of printable characters.
func vcdID(n int) string {
	const first, count = '!', '~' - '!' + 1

	id := []byte{byte(first + n%count)}
	for n /= count; n > 0; n /= count {
		n--
		id = append(id, byte(first+n%count))
	}

	return string(id)
}

// Record writes the signals that changed since the previous snapshot. Output
// is buffered, so a failing writer is reported by a later Record once the
// buffer fills up, or by Close.
func (v *VCDWriter) Record(s Snapshot) error {
	if v.err != nil {
		return v.err
	}

	v.sample(s)

	if v.vars == nil {
		v.writeHeader(s)
		return v.writeDump(s.Step)
	}

	changed := false

	for i, value := range v.values {
		if value == v.last[i] {
			continue
		}

		if !changed {
			v.printf("#%d\n", s.Step)
			changed = true
		}

		v.writeValue(i, value)
	}

	copy(v.last, v.values)

	return v.err
}

func (v *VCDWriter) sample(s Snapshot) {
	v.values = v.values[:0]
	v.values = append(v.values, bit(s.Clock), bit(s.ResetN))

	for i := range s.Ports {
		for _, pv := range portVars {
			v.values = append(v.values, pv.value(&s.Ports[i].Signals))
		}
	}
}

func (v *VCDWriter) writeHeader(s Snapshot) {
	v.println("$version xcsim $end")
	v.println("$timescale 1ns $end")
	v.println("$scope module top $end")

	v.declare("clk", 1)
	v.declare("resetn", 1)

	for _, p := range s.Ports {
		v.printf("$scope module %s $end\n", p.Name)

		for _, pv := range portVars {
			v.declare(pv.name, pv.width)
		}

		v.println("$upscope $end")
	}

	v.println("$upscope $end")
	v.println("$enddefinitions $end")
}

func (v *VCDWriter) declare(name string, width int) {
	id := vcdID(len(v.vars))
	v.vars = append(v.vars, vcdVar{id: id, width: width})

	v.printf("$var wire %d %s %s $end\n", width, id, name)
}

func (v *VCDWriter) writeDump(step uint64) error {
	v.printf("#%d\n", step)
	v.println("$dumpvars")

	for i, value := range v.values {
		v.writeValue(i, value)
	}

	v.println("$end")

	v.last = make([]uint64, len(v.values))
	copy(v.last, v.values)

	return v.err
}

func (v *VCDWriter) writeValue(i int, value uint64) {
	vv := v.vars[i]

	if vv.width == 1 {
		v.printf("%d%s\n", value, vv.id)
		return
	}

	v.printf("b%s %s\n", strconv.FormatUint(value, 2), vv.id)
}

// Close flushes the buffered output.
func (v *VCDWriter) Close() error {
	err := v.w.Flush()

	if v.closer != nil {
		cerr := v.closer.Close()
		if err == nil {
			err = cerr
		}
	}

	return err
}
