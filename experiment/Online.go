// Package experiment implements functionality for running an experiment
package experiment

import (
	"github.com/pkg/errors"
	"github.com/samuelfneumann/streamlearn/agent"
	env "github.com/samuelfneumann/streamlearn/environment"
	"github.com/samuelfneumann/streamlearn/experiment/tracker"
	ts "github.com/samuelfneumann/streamlearn/timestep"
)

// Online is an experiment that runs a streaming learner online. The
// learner is updated once on every transition, and each TimeStep is
// sent to the Trackers after the learner has updated on it.
type Online struct {
	env.Environment
	agent.Learner
	maxSteps     uint
	currentSteps uint
	trackers     []tracker.Tracker
}

// NewOnline creates and returns a new online experiment on a given
// environment with a given learner. The steps parameter determines how
// many timesteps the experiment is run for, and t determines what data
// is tracked.
func NewOnline(e env.Environment, l agent.Learner, steps uint,
	t ...tracker.Tracker) *Online {
	return &Online{e, l, steps, 0, t}
}

// Register registers a tracker.Tracker with an Experiment so that data
// generated during the experiment can be tracked and saved
func (o *Online) Register(t tracker.Tracker) {
	o.trackers = append(o.trackers, t)
}

// Steps returns the number of timesteps run so far
func (o *Online) Steps() uint {
	return o.currentSteps
}

// RunEpisode runs a single episode of the experiment and returns
// whether the step limit of the experiment has been reached
func (o *Online) RunEpisode() (bool, error) {
	step, err := o.Environment.Reset()
	if err != nil {
		return false, errors.Wrap(err, "runEpisode: could not reset")
	}

	if err := o.Learner.ObserveFirst(step); err != nil {
		return false, errors.Wrap(err, "runEpisode")
	}
	o.track(step)

	for !step.Last() && o.currentSteps < o.maxSteps {
		o.currentSteps++

		if step, _, err = o.Environment.Step(); err != nil {
			return false, errors.Wrap(err, "runEpisode: could not step")
		}

		if err := o.Learner.Observe(step); err != nil {
			return false, errors.Wrap(err, "runEpisode")
		}
		if err := o.Learner.Step(); err != nil {
			return false, errors.Wrap(err, "runEpisode")
		}

		o.track(step)
	}
	o.Learner.EndEpisode()

	return o.currentSteps >= o.maxSteps, nil
}

// Run runs the entire experiment for all timesteps
func (o *Online) Run() error {
	for ended := false; !ended; {
		var err error
		if ended, err = o.RunEpisode(); err != nil {
			return errors.Wrap(err, "run")
		}
	}
	return nil
}

// Save saves all the data cached by the Trackers to disk
func (o *Online) Save() error {
	for _, t := range o.trackers {
		if err := t.Save(); err != nil {
			return errors.Wrap(err, "save")
		}
	}
	return nil
}

// track sends the current timestep to each Tracker
func (o *Online) track(t ts.TimeStep) {
	for _, tr := range o.trackers {
		tr.Track(t)
	}
}
