// Package agent defines the interfaces of streaming prediction agents
package agent

import (
	"github.com/samuelfneumann/streamlearn/timestep"
)

// Learner implements a learning algorithm that defines how weights are
// updated. A streaming Learner updates once per transition.
type Learner interface {
	// Step performs a single update to the learner
	Step() error

	// Observe records the next timestep of an episode
	Observe(nextObs timestep.TimeStep) error

	// ObserveFirst records the first timestep in an episode
	ObserveFirst(timestep.TimeStep) error

	// EndEpisode performs cleanup at the end of an episode
	EndEpisode()
}

// TdErrorer is a Learner that can return the TD error of its last
// update
type TdErrorer interface {
	Learner

	// TdError returns the TD error of the last update
	TdError() float64
}

// Predictor predicts the value of a timestep
type Predictor interface {
	Predict(t timestep.TimeStep) (float64, error)
}

// Closer is a Learner that must be closed after it is done learning
type Closer interface {
	Learner
	Close() error
}
