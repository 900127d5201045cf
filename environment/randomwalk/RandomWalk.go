// Package randomwalk implements the random walk Markov reward process.
//
// States are arranged in a chain with a terminal state at each end.
// On each step the walk moves left or right with equal probability.
// Leaving the chain on the left or right ends the episode with the
// left or right reward respectively, and all other rewards are zero.
// Observations are one-hot encodings of the current state.
package randomwalk

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/samuelfneumann/streamlearn/environment"
	"github.com/samuelfneumann/streamlearn/timestep"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

var _ environment.ValueEnvironment = &RandomWalk{}

// terminal denotes that the walk has left the chain
const terminal = -1

// Config describes a random walk
type Config struct {
	States      int
	LeftReward  float64
	RightReward float64
	Discount    float64

	// EpisodeSteps is the maximum number of steps in an episode, or 0
	// for no limit
	EpisodeSteps int
}

// Validate checks that a random walk can be created from c
func (c Config) Validate() error {
	if c.States <= 0 {
		return fmt.Errorf("states must be positive")
	}
	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("discount must be in [0, 1]")
	}
	if c.EpisodeSteps < 0 {
		return fmt.Errorf("episode steps must be non-negative")
	}
	return nil
}

// RandomWalk is a random walk Markov reward process
type RandomWalk struct {
	Config
	environment.Starter
	ender environment.Ender

	rng         *rand.Rand
	position    int
	currentStep timestep.TimeStep
}

// New returns a new RandomWalk which starts each episode in the state
// sampled by s. If s is nil, episodes start in the centre state.
func New(c Config, s environment.Starter, seed uint64) (*RandomWalk,
	timestep.TimeStep, error) {
	if err := c.Validate(); err != nil {
		return nil, timestep.TimeStep{}, errors.Wrap(err, "new")
	}

	if s == nil {
		var err error
		if s, err = environment.NewSingleStarter(c.States/2,
			c.States); err != nil {
			return nil, timestep.TimeStep{}, errors.Wrap(err, "new")
		}
	}

	var ender environment.Ender
	if c.EpisodeSteps > 0 {
		ender = environment.NewStepLimit(c.EpisodeSteps)
	}

	r := &RandomWalk{
		Config:  c,
		Starter: s,
		ender:   ender,
		rng:     rand.New(rand.NewSource(seed)),
	}

	step, err := r.Reset()
	if err != nil {
		return nil, timestep.TimeStep{}, errors.Wrap(err, "new")
	}
	return r, step, nil
}

// Reset resets the environment to a starting state and returns the
// first TimeStep of the episode
func (r *RandomWalk) Reset() (timestep.TimeStep, error) {
	start := r.Start()
	if start < 0 || start >= r.States {
		return timestep.TimeStep{}, fmt.Errorf("reset: start state %d "+
			"out of range [0, %d)", start, r.States)
	}

	r.position = start
	r.currentStep = timestep.New(timestep.First, 0, r.Discount,
		r.observation(), 0)
	return r.currentStep, nil
}

// Step moves the walk one state to the left or right and returns the
// resulting TimeStep along with whether the episode has ended
func (r *RandomWalk) Step() (timestep.TimeStep, bool, error) {
	if r.currentStep.Last() {
		return timestep.TimeStep{}, true, fmt.Errorf("step: episode " +
			"has ended, call Reset() to start a new episode")
	}

	if r.rng.Float64() < 0.5 {
		r.position--
	} else {
		r.position++
	}

	stepType := timestep.Mid
	reward := 0.0
	switch {
	case r.position < 0:
		reward = r.LeftReward
		stepType = timestep.Last
		r.position = terminal
	case r.position >= r.States:
		reward = r.RightReward
		stepType = timestep.Last
		r.position = terminal
	}

	step := timestep.New(stepType, reward, r.Discount, r.observation(),
		r.currentStep.Number+1)
	if stepType != timestep.Last && r.ender != nil && r.ender.End(step) {
		step = timestep.New(timestep.Last, reward, r.Discount,
			step.Observation, step.Number)
	}

	r.currentStep = step
	return step, step.Last(), nil
}

// observation returns the one-hot encoding of the current state. The
// terminal state is encoded as the zero vector.
func (r *RandomWalk) observation() *mat.VecDense {
	obs := mat.NewVecDense(r.States, nil)
	if r.position != terminal {
		obs.SetVec(r.position, 1.0)
	}
	return obs
}

// Observations returns a TimeStep observing each non-terminal state,
// in the order of the states
func (r *RandomWalk) Observations() []timestep.TimeStep {
	steps := make([]timestep.TimeStep, r.States)
	for i := range steps {
		obs := mat.NewVecDense(r.States, nil)
		obs.SetVec(i, 1.0)
		steps[i] = timestep.NewFirst(obs)
	}
	return steps
}

// State returns the index of the current state, or -1 if the walk has
// terminated
func (r *RandomWalk) State() int {
	return r.position
}

// LastTimeStep returns the last TimeStep that occurred in the
// environment
func (r *RandomWalk) LastTimeStep() timestep.TimeStep {
	return r.currentStep
}

// Values returns the true value of each non-terminal state, found by
// solving the Bellman equation v = r̄ + γPv. Episode step limits are
// ignored.
func (r *RandomWalk) Values() []float64 {
	n := r.States
	a := mat.NewDense(n, n, nil)
	b := mat.NewVecDense(n, nil)

	for i := 0; i < n; i++ {
		a.Set(i, i, 1.0)
		if i > 0 {
			a.Set(i, i-1, -0.5*r.Discount)
		} else {
			b.SetVec(i, b.AtVec(i)+0.5*r.LeftReward)
		}
		if i < n-1 {
			a.Set(i, i+1, -0.5*r.Discount)
		} else {
			b.SetVec(i, b.AtVec(i)+0.5*r.RightReward)
		}
	}

	var v mat.VecDense
	if err := v.SolveVec(a, b); err != nil {
		panic(fmt.Sprintf("values: could not solve Bellman equation: %v",
			err))
	}
	return mat.Col(nil, 0, &v)
}

// ObservationSpec returns the observation specification of the
// environment
func (r *RandomWalk) ObservationSpec() environment.Spec {
	shape := mat.NewVecDense(r.States, nil)
	low := mat.NewVecDense(r.States, nil)

	highData := make([]float64, r.States)
	for i := range highData {
		highData[i] = 1.0
	}
	high := mat.NewVecDense(r.States, highData)

	spec, err := environment.NewSpec(shape, environment.Observation, low,
		high, environment.Discrete)
	if err != nil {
		panic(fmt.Sprintf("observationSpec: %v", err))
	}
	return spec
}

// RewardSpec returns the reward specification of the environment
func (r *RandomWalk) RewardSpec() environment.Spec {
	low, high := r.LeftReward, r.RightReward
	if low > high {
		low, high = high, low
	}
	if low > 0 {
		low = 0
	}
	if high < 0 {
		high = 0
	}
	return environment.NewScalarSpec(environment.Reward, low, high,
		environment.Continuous)
}

// DiscountSpec returns the discount specification of the environment
func (r *RandomWalk) DiscountSpec() environment.Spec {
	return environment.NewScalarSpec(environment.Discount, r.Discount,
		r.Discount, environment.Continuous)
}

func (r *RandomWalk) String() string {
	return fmt.Sprintf("RandomWalk | States: %d  |  Position: %d",
		r.States, r.position)
}
