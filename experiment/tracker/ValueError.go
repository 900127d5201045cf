package tracker

import (
	"fmt"
	"math"
	"os"

	"github.com/samuelfneumann/streamlearn/agent"
	"github.com/samuelfneumann/streamlearn/timestep"
	"gonum.org/v1/gonum/floats"
)

// ValueError tracks the root mean squared value error of a learner at
// the end of each episode, measured over a fixed set of states with
// known values
type ValueError struct {
	predictor agent.Predictor
	states    []timestep.TimeStep
	values    []float64
	errors    []float64
	filename  string
}

// NewValueError returns a new ValueError tracker. The true value of
// states[i] is values[i].
func NewValueError(filename string, p agent.Predictor,
	states []timestep.TimeStep, values []float64) (*ValueError, error) {
	if len(states) != len(values) {
		return nil, fmt.Errorf("newValueError: have %d states but %d "+
			"values", len(states), len(values))
	}
	if len(states) == 0 {
		return nil, fmt.Errorf("newValueError: no states given")
	}

	return &ValueError{
		predictor: p,
		states:    states,
		values:    values,
		filename:  filename,
	}, nil
}

// Track records the value error when step is the last in an episode
func (v *ValueError) Track(step timestep.TimeStep) {
	if !step.Last() {
		return
	}

	rmsve, err := v.RMSVE()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not compute value "+
			"error: %v\n", err)
		rmsve = math.NaN()
	}
	v.errors = append(v.errors, rmsve)
}

// RMSVE returns the current root mean squared value error
func (v *ValueError) RMSVE() (float64, error) {
	predictions := make([]float64, len(v.states))
	for i := range v.states {
		pred, err := v.predictor.Predict(v.states[i])
		if err != nil {
			return 0, err
		}
		predictions[i] = pred
	}

	dist := floats.Distance(predictions, v.values, 2)
	return dist / math.Sqrt(float64(len(v.values))), nil
}

// Data returns the value error at the end of each finished episode
func (v *ValueError) Data() []float64 {
	return v.errors
}

// Save saves the data tracked by the ValueError Tracker to disk.
func (v *ValueError) Save() error {
	return save(v.filename, v.errors)
}
