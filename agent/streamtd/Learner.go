// Package streamtd implements streaming temporal difference prediction
// with eligibility-trace optimizers. A Learner updates its value
// function once per transition, without replay buffers or batches.
package streamtd

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/samuelfneumann/streamlearn/agent"
	"github.com/samuelfneumann/streamlearn/timestep"
)

// Stepper updates parameters in place from a scalar TD error. Both
// solver.ObGD and solver.AdaptiveObGD are Steppers.
type Stepper interface {
	Step(delta float64, reset bool) error
}

var (
	_ agent.TdErrorer = &Learner{}
	_ agent.Predictor = &Learner{}
)

// Learner implements TD(λ) prediction. The trace decay and step size
// are determined by the Stepper; the discount of each transition is
// taken from the environment TimeStep.
type Learner struct {
	vf  ValueFunction
	opt Stepper

	step     timestep.TimeStep
	nextStep timestep.TimeStep
	started  bool
	ready    bool

	tdError float64
}

// New returns a new Learner which updates vf using opt. The Stepper
// should have been constructed over vf.Params().
func New(vf ValueFunction, opt Stepper) (*Learner, error) {
	if vf == nil {
		return nil, fmt.Errorf("new: value function cannot be nil")
	}
	if opt == nil {
		return nil, fmt.Errorf("new: optimizer cannot be nil")
	}
	return &Learner{vf: vf, opt: opt}, nil
}

// ObserveFirst observes and records the first timestep of an episode
func (l *Learner) ObserveFirst(t timestep.TimeStep) error {
	if t.Observation == nil {
		return fmt.Errorf("observeFirst: observation cannot be nil")
	}
	if !t.First() {
		fmt.Fprintf(os.Stderr, "Warning: ObserveFirst() should only be "+
			"called on the first timestep (current timestep = %d)\n", t.Number)
	}

	l.step = timestep.TimeStep{}
	l.nextStep = t
	l.started = true
	l.ready = false
	return nil
}

// Observe observes and records the next timestep of an episode
func (l *Learner) Observe(nextStep timestep.TimeStep) error {
	if !l.started {
		return fmt.Errorf("observe: ObserveFirst() must be called before " +
			"Observe()")
	}
	if nextStep.Observation == nil {
		return fmt.Errorf("observe: observation cannot be nil")
	}
	if l.nextStep.Last() {
		return fmt.Errorf("observe: episode ended, call ObserveFirst() " +
			"to start a new episode")
	}

	l.step = l.nextStep
	l.nextStep = nextStep
	l.ready = true
	return nil
}

// Step updates the value function using the last observed transition.
// The eligibility traces are reset when the transition ends the
// episode. Calling Step without a new transition does nothing.
func (l *Learner) Step() error {
	if !l.ready {
		return nil
	}
	l.ready = false

	target := l.nextStep.Reward
	if !l.nextStep.Last() {
		nextValue, err := l.vf.Predict(l.nextStep.Features())
		if err != nil {
			return errors.Wrap(err, "step: could not predict next state value")
		}
		target += l.nextStep.Discount * nextValue
	}

	value, err := l.vf.Backward(l.step.Features())
	if err != nil {
		return errors.Wrap(err, "step: could not compute state value "+
			"gradient")
	}

	// The traces accumulate ∇v(s) rather than the gradient of a loss,
	// so the optimizer descends along the negated TD error
	delta := target - value
	if err := l.opt.Step(-delta, l.nextStep.Last()); err != nil {
		return errors.Wrap(err, "step")
	}
	l.tdError = delta

	return nil
}

// EndEpisode discards any transition that has not been learned from.
// Eligibility traces are reset by the update on the last transition of
// an episode, so nothing else needs to be cleaned up.
func (l *Learner) EndEpisode() {
	l.ready = false
	l.started = false
}

// TdError returns the TD error of the last update
func (l *Learner) TdError() float64 {
	return l.tdError
}

// Predict returns the value of the observation of t
func (l *Learner) Predict(t timestep.TimeStep) (float64, error) {
	return l.vf.Predict(t.Features())
}
