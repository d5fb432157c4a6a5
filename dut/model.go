// Package dut defines the surface of the design under test that the
// co-simulation driver evaluates.
package dut

import "github.com/scarv/xcsim/axi"

// A Model is a cycle-evaluated design with memory bus master ports. The
// driver sets the clock and the active-low reset, then calls Eval once per
// simulation step. Eval settles the master side of every port.
type Model interface {
	SetClock(high bool)
	SetResetN(high bool)
	Eval()

	// NumPorts returns the number of master ports. Port 0 is the port whose
	// read addresses the termination monitor watches.
	NumPorts() int
	Port(i int) *axi.PortSignals
	PortName(i int) string
}
