package sim

// A TimeTeller can tell the current simulation step.
type TimeTeller interface {
	CurrentStep() uint64
}
