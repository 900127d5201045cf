package tracker

import (
	"github.com/samuelfneumann/streamlearn/agent"
	"github.com/samuelfneumann/streamlearn/timestep"
)

// TdError tracks the mean squared TD error of a learner over each
// episode. Track must be called after the learner has been stepped on
// the tracked timestep.
type TdError struct {
	learner  agent.TdErrorer
	sum      float64
	steps    int
	errors   []float64
	filename string
}

// NewTdError returns a new TdError tracker for learner
func NewTdError(filename string, learner agent.TdErrorer) *TdError {
	return &TdError{learner: learner, filename: filename}
}

// Track accumulates the squared TD error of the learner's last update.
// First timesteps are ignored since no update is made on them.
func (t *TdError) Track(step timestep.TimeStep) {
	if step.First() {
		return
	}

	delta := t.learner.TdError()
	t.sum += delta * delta
	t.steps++

	if step.Last() {
		t.errors = append(t.errors, t.sum/float64(t.steps))
		t.sum = 0
		t.steps = 0
	}
}

// Data returns the mean squared TD error of each finished episode
func (t *TdError) Data() []float64 {
	return t.errors
}

// Save saves the data tracked by the TdError Tracker to disk.
func (t *TdError) Save() error {
	return save(t.filename, t.errors)
}
