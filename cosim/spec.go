package cosim

import "fmt"

// Spec holds the timing and termination parameters of a simulation.
type Spec struct {
	// Clock. The clock rises at the step where step%ClockPeriod equals
	// ClockHighPhase and falls where it equals ClockLowPhase.
	ClockPeriod    uint64
	ClockHighPhase uint64
	ClockLowPhase  uint64

	// The design is held in reset while the step is at most ResetSteps.
	ResetSteps uint64

	// MaxSteps ends the run with a timeout. 0 means no limit.
	MaxSteps uint64

	// Termination. MonitorPort is the index of the port whose read address
	// channel is compared against the pass and the fail address.
	PassAddress uint32
	FailAddress uint32
	MonitorPort int
}

// DefaultMaxSteps is the default timeout.
const DefaultMaxSteps = 10_000_000

// Defaults returns a Spec with the default parameters.
func Defaults() Spec {
	return Spec{
		ClockPeriod:    10,
		ClockHighPhase: 1,
		ClockLowPhase:  6,
		ResetSteps:     80,
		MaxSteps:       DefaultMaxSteps,
		PassAddress:    0x0000_001C,
		FailAddress:    0x0000_0010,
		MonitorPort:    0,
	}
}

// Validate checks the parameters.
func (s Spec) Validate() error {
	if s.ClockPeriod < 2 {
		return fmt.Errorf("clock period must be at least 2 steps")
	}

	if s.ClockHighPhase >= s.ClockPeriod || s.ClockLowPhase >= s.ClockPeriod {
		return fmt.Errorf("clock phases must be less than the clock period")
	}

	if s.ClockHighPhase == s.ClockLowPhase {
		return fmt.Errorf("clock high and low phases must differ")
	}

	if s.PassAddress == s.FailAddress {
		return fmt.Errorf("pass and fail addresses must differ")
	}

	if s.MonitorPort < 0 {
		return fmt.Errorf("monitor port must be >= 0")
	}

	return nil
}
