package tracker

import (
	"github.com/samuelfneumann/streamlearn/environment"
	"github.com/samuelfneumann/streamlearn/timestep"
)

// registeredTracker registers an Environment with some Tracker so
// that the Tracker tracks data from the registered Environment only.
//
// The Track() and Save() methods of a registeredTracker call those of
// the embedded Tracker, but Track() uses the most recent TimeStep of
// the registered Environment and ignores its argument. This is useful
// when an experiment runs on one Environment but the data of another,
// such as an Environment it wraps, should be tracked.
type registeredTracker struct {
	Tracker
	env environment.Environment
}

// Register registers a new Tracker with an Environment, to track data
// from the registered Environment only.
//
// Note: the underlying concrete type of the registered Tracker is
// lost when registering an Environment with a Tracker.
func Register(t Tracker, env environment.Environment) Tracker {
	return &registeredTracker{t, env}
}

// Track calls Track() on the embedded Tracker using the most recent
// TimeStep from the registered Environment.
func (r *registeredTracker) Track(timestep.TimeStep) {
	r.Tracker.Track(r.env.LastTimeStep())
}
