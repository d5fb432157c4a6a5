// Package wave captures the bus signals of a simulation, step by step.
package wave

import (
	"strings"

	"github.com/scarv/xcsim/axi"
)

// PortSample is the signal set of one port at one step.
type PortSample struct {
	Name    string
	Signals axi.PortSignals
}

// A Snapshot holds every recorded signal after a simulation step.
type Snapshot struct {
	Step   uint64
	Clock  bool
	ResetN bool
	Ports  []PortSample
}

// A Recorder stores snapshots. Snapshots arrive in step order and always
// carry the same ports in the same order.
type Recorder interface {
	Record(s Snapshot) error
	Close() error
}

// Create opens a recorder for path. Paths ending in ".vcd" get a VCD file;
// anything else becomes a SQLite database.
func Create(path string) (Recorder, error) {
	if strings.HasSuffix(strings.ToLower(path), ".vcd") {
		return CreateVCD(path)
	}

	return NewSQLiteRecorder(path)
}
