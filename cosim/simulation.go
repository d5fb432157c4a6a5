// Package cosim drives a co-simulation: it advances time, toggles the clock
// and the reset of the design under test, lets the bus transactor serve the
// design on every rising edge and decides when the run ends.
package cosim

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/scarv/xcsim/axi"
	"github.com/scarv/xcsim/dut"
	"github.com/scarv/xcsim/sim"
	"github.com/scarv/xcsim/wave"
)

// Result tells how a run ended.
type Result int

// The results of a run.
const (
	ResultPass Result = iota
	ResultFail
	ResultTimeout
)

func (r Result) String() string {
	switch r {
	case ResultPass:
		return "pass"
	case ResultFail:
		return "fail"
	case ResultTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}

// An Outcome is the end of a run. Address is the read address that decided
// a pass or a fail.
type Outcome struct {
	Result  Result
	Step    uint64
	Address uint32
}

// Status is a copy of the driver state.
type Status struct {
	Step    uint64
	Clock   bool
	ResetN  bool
	Paused  bool
	Outcome *Outcome
}

// A Simulation advances a design under test step by step. Step and Run must
// be called from one goroutine; the other methods are safe to call from any
// goroutine. Hooks run inside a step and may only call CurrentStep.
type Simulation struct {
	sim.HookableBase

	name       string
	spec       Spec
	model      dut.Model
	transactor *axi.Transactor
	recorder   wave.Recorder

	step atomic.Uint64

	lock    sync.Mutex
	clock   bool
	resetN  bool
	outcome *Outcome
	err     error

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex
}

// Name returns the name of the simulation.
func (s *Simulation) Name() string {
	return s.name
}

// Spec returns the parameters of the simulation.
func (s *Simulation) Spec() Spec {
	return s.spec
}

// Model returns the design under test.
func (s *Simulation) Model() dut.Model {
	return s.model
}

// Transactor returns the transactor that serves the design.
func (s *Simulation) Transactor() *axi.Transactor {
	return s.transactor
}

// CurrentStep returns the number of steps taken so far. It does not lock,
// so hooks may call it.
func (s *Simulation) CurrentStep() uint64 {
	return s.step.Load()
}

// Now returns the current step.
func (s *Simulation) Now() uint64 {
	return s.CurrentStep()
}

// Step advances the simulation by one step. It returns the outcome once the
// run has ended; further calls keep returning it without advancing. A
// protocol violation of the design or a recording failure is returned as an
// error and ends the run: every later call returns the same error.
func (s *Simulation) Step() (*Outcome, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.err != nil {
		return nil, s.err
	}

	if s.outcome != nil {
		return s.outcome, nil
	}

	step := s.step.Load()

	s.InvokeHook(sim.HookCtx{Domain: s, Pos: sim.HookPosBeforeStep, Item: step})

	rising := s.driveInputs(step)
	s.model.Eval()

	var outcome *Outcome

	if rising && s.resetN {
		err := s.transactor.Tick()
		if err != nil {
			s.err = fmt.Errorf("step %d: %w", step, err)
			return nil, s.err
		}

		outcome = s.checkTermination(step)
	}

	if s.recorder != nil {
		err := s.recorder.Record(s.snapshot(step))
		if err != nil {
			s.err = fmt.Errorf("record step %d: %w", step, err)
			return nil, s.err
		}
	}

	s.InvokeHook(sim.HookCtx{Domain: s, Pos: sim.HookPosAfterStep, Item: step})

	s.step.Add(1)

	if outcome == nil && s.spec.MaxSteps > 0 && step+1 >= s.spec.MaxSteps {
		outcome = &Outcome{Result: ResultTimeout, Step: step}
	}

	s.outcome = outcome

	return outcome, nil
}

// driveInputs sets the clock and the reset for a step and tells if the clock
// rises at this step.
func (s *Simulation) driveInputs(step uint64) bool {
	rising := false

	switch step % s.spec.ClockPeriod {
	case s.spec.ClockHighPhase:
		rising = !s.clock
		s.clock = true
	case s.spec.ClockLowPhase:
		s.clock = false
	}

	s.resetN = step > s.spec.ResetSteps

	s.model.SetClock(s.clock)
	s.model.SetResetN(s.resetN)

	return rising
}

func (s *Simulation) checkTermination(step uint64) *Outcome {
	ar := s.model.Port(s.spec.MonitorPort).AR
	if !ar.Valid {
		return nil
	}

	switch ar.Addr {
	case s.spec.PassAddress:
		return &Outcome{Result: ResultPass, Step: step, Address: ar.Addr}
	case s.spec.FailAddress:
		return &Outcome{Result: ResultFail, Step: step, Address: ar.Addr}
	}

	return nil
}

func (s *Simulation) snapshot(step uint64) wave.Snapshot {
	snapshot := wave.Snapshot{
		Step:   step,
		Clock:  s.clock,
		ResetN: s.resetN,
		Ports:  make([]wave.PortSample, s.model.NumPorts()),
	}

	for i := range snapshot.Ports {
		snapshot.Ports[i] = wave.PortSample{
			Name:    s.model.PortName(i),
			Signals: *s.model.Port(i),
		}
	}

	return snapshot
}

// Run steps the simulation until it ends, fails or the context is done.
// While the simulation is paused, Run waits between two steps.
func (s *Simulation) Run(ctx context.Context) (Outcome, error) {
	for {
		err := ctx.Err()
		if err != nil {
			return Outcome{}, err
		}

		s.pauseLock.Lock()
		outcome, err := s.Step()
		s.pauseLock.Unlock()

		if err != nil {
			return Outcome{}, err
		}

		if outcome != nil {
			return *outcome, nil
		}
	}
}

// Pause stops Run before the next step.
func (s *Simulation) Pause() {
	s.isPausedLock.Lock()
	defer s.isPausedLock.Unlock()

	if s.isPaused {
		return
	}

	s.pauseLock.Lock()
	s.isPaused = true
}

// Continue lets a paused Run go on.
func (s *Simulation) Continue() {
	s.isPausedLock.Lock()
	defer s.isPausedLock.Unlock()

	if !s.isPaused {
		return
	}

	s.pauseLock.Unlock()
	s.isPaused = false
}

// IsPaused tells if the simulation is paused.
func (s *Simulation) IsPaused() bool {
	s.isPausedLock.Lock()
	defer s.isPausedLock.Unlock()

	return s.isPaused
}

// Status returns a copy of the driver state.
func (s *Simulation) Status() Status {
	paused := s.IsPaused()

	s.lock.Lock()
	defer s.lock.Unlock()

	st := Status{
		Step:   s.step.Load(),
		Clock:  s.clock,
		ResetN: s.resetN,
		Paused: paused,
	}

	if s.outcome != nil {
		o := *s.outcome
		st.Outcome = &o
	}

	return st
}

// PortStates returns the state of every port, taken between two steps.
func (s *Simulation) PortStates() []axi.PortState {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.transactor.PortStates()
}
