package cosim

import (
	"log"

	"github.com/scarv/xcsim/axi"
	"github.com/scarv/xcsim/dut"
	"github.com/scarv/xcsim/wave"
)

// Builder can build simulations.
type Builder struct {
	spec       Spec
	model      dut.Model
	transactor *axi.Transactor
	recorder   wave.Recorder
}

// MakeBuilder creates a builder with the default Spec.
func MakeBuilder() Builder {
	return Builder{
		spec: Defaults(),
	}
}

// WithSpec sets the timing and termination parameters.
func (b Builder) WithSpec(spec Spec) Builder {
	b.spec = spec
	return b
}

// WithModel sets the design under test.
func (b Builder) WithModel(model dut.Model) Builder {
	b.model = model
	return b
}

// WithTransactor sets the transactor that serves the memory bus. Without
// one, the simulation serves an empty memory.
func (b Builder) WithTransactor(t *axi.Transactor) Builder {
	b.transactor = t
	return b
}

// WithRecorder records a waveform snapshot after every step.
func (b Builder) WithRecorder(r wave.Recorder) Builder {
	b.recorder = r
	return b
}

func (b Builder) parametersMustBeValid() {
	err := b.spec.Validate()
	if err != nil {
		log.Panic(err)
	}

	if b.model == nil {
		log.Panic("a simulation needs a model")
	}

	if b.spec.MonitorPort >= b.model.NumPorts() {
		log.Panicf("monitor port %d does not exist, the model has %d ports",
			b.spec.MonitorPort, b.model.NumPorts())
	}
}

// Build creates the simulation and attaches every port of the model to the
// transactor.
func (b Builder) Build(name string) *Simulation {
	b.parametersMustBeValid()

	t := b.transactor
	if t == nil {
		t = axi.MakeBuilder().Build(name + ".Bus")
	}

	s := &Simulation{
		name:       name,
		spec:       b.spec,
		model:      b.model,
		transactor: t,
		recorder:   b.recorder,
	}

	for i := 0; i < b.model.NumPorts(); i++ {
		t.AttachPort(b.model.PortName(i), b.model.Port(i))
	}

	return s
}
