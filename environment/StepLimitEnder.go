package environment

import "github.com/samuelfneumann/streamlearn/timestep"

// StepLimit implements the Ender interface to end episodes at specific
// timestep limits
type StepLimit struct {
	episodeSteps int
}

// NewStepLimit creates and returns a new step limit
func NewStepLimit(episodeSteps int) StepLimit {
	return StepLimit{episodeSteps}
}

// End determines whether or not the current episode should be ended
// because the step limit has been reached
func (s StepLimit) End(t timestep.TimeStep) bool {
	return t.Number >= s.episodeSteps
}
