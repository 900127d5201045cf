// Package environment outlines the interfaces and structs needed to
// implement concrete prediction environments. A prediction environment
// is a Markov reward process: it produces TimeSteps without taking
// actions.
package environment

import (
	"github.com/samuelfneumann/streamlearn/timestep"
)

// Starter implements a distribution of starting states and samples
// starting states for environments with a finite number of states
type Starter interface {
	Start() int
}

// Ender determines when episodes should end
type Ender interface {
	End(t timestep.TimeStep) bool
}

// Environment implements a simulated Markov reward process
type Environment interface {
	Reset() (timestep.TimeStep, error) // Resets between episodes
	Step() (timestep.TimeStep, bool, error)
	LastTimeStep() timestep.TimeStep
	ObservationSpec() Spec
	RewardSpec() Spec
	DiscountSpec() Spec
}

// ValueEnvironment is an Environment whose true state values are known
type ValueEnvironment interface {
	Environment

	// Values returns the true value of each state
	Values() []float64

	// State returns the index of the current state
	State() int
}
