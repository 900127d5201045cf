package solver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// AdaptiveObGDConfig describes a configuration of the adaptive
// Overshooting-bounded Gradient Descent solver.
type AdaptiveObGDConfig struct {
	StepSize float64
	Gamma    float64
	Lambda   float64
	Kappa    float64
	Beta2    float64 // Decay of the second moment estimate
	Epsilon  float64 // Smoothing factor

	CheckFinite bool
}

// NewAdaptiveObGDConfig returns a new AdaptiveObGD Solver configuration
func NewAdaptiveObGDConfig(stepSize, gamma, lambda, kappa, beta2,
	epsilon float64) (*Solver, error) {
	adaptive := AdaptiveObGDConfig{
		StepSize: stepSize,
		Gamma:    gamma,
		Lambda:   lambda,
		Kappa:    kappa,
		Beta2:    beta2,
		Epsilon:  epsilon,
	}

	return newSolver(TypeAdaptiveObGD, adaptive)
}

// NewDefaultAdaptiveObGDConfig returns a new AdaptiveObGD Solver
// configuration with default hyperparameters
func NewDefaultAdaptiveObGDConfig() (*Solver, error) {
	return NewAdaptiveObGDConfig(DefaultStepSize, DefaultGamma,
		DefaultLambda, DefaultKappa, DefaultBeta2, DefaultEpsilon)
}

// Create returns a new AdaptiveObGD optimizing params as described by
// the AdaptiveObGDConfig
func (a AdaptiveObGDConfig) Create(params []Param) (Optimizer, error) {
	return newAdaptiveObGD(params, a)
}

// ValidType returns if the given Solver type is a valid type to be
// created with this config.
func (a AdaptiveObGDConfig) ValidType(t Type) bool {
	return t == TypeAdaptiveObGD
}

// Validate ensures the hyperparameters are in range
func (a AdaptiveObGDConfig) Validate() error {
	if err := validateTrace(a.StepSize, a.Gamma, a.Lambda, a.Kappa); err != nil {
		return err
	}
	if a.Beta2 < 0 || a.Beta2 >= 1 {
		return fmt.Errorf("beta2 must be in [0, 1)")
	}
	if a.Epsilon <= 0 {
		return fmt.Errorf("epsilon must be positive")
	}
	return nil
}

// AdaptiveObGD implements Overshooting-bounded Gradient Descent with
// per-parameter scaling by a bias-corrected second moment estimate of
// the update δe, in the style of Adam:
//
//	e ← γλe + ∇
//	v ← β₂v + (1 - β₂)(δe)²
//	v̂ = v / (1 - β₂ᵗ)
//	z = Σ ‖e / √(v̂ + ε)‖₁
//	θ ← θ - α'δe / √(v̂ + ε)
//
// where α' is the bounded step size of ObGD computed with the scaled
// trace mass z. Resetting the traces at the end of an episode leaves
// the second moment estimates and the step counter untouched.
type AdaptiveObGD struct {
	traceSet

	stepSize float64
	gamma    float64
	lambda   float64
	kappa    float64
	beta2    float64
	epsilon  float64

	counter      int
	lastStepSize float64
}

// NewAdaptiveObGD returns a new AdaptiveObGD solver optimizing params
func NewAdaptiveObGD(params []Param, stepSize, gamma, lambda, kappa, beta2,
	epsilon float64) (*AdaptiveObGD, error) {
	return newAdaptiveObGD(params, AdaptiveObGDConfig{
		StepSize: stepSize,
		Gamma:    gamma,
		Lambda:   lambda,
		Kappa:    kappa,
		Beta2:    beta2,
		Epsilon:  epsilon,
	})
}

// NewDefaultAdaptiveObGD returns a new AdaptiveObGD solver with default
// hyperparameters
func NewDefaultAdaptiveObGD(params []Param) (*AdaptiveObGD, error) {
	return NewAdaptiveObGD(params, DefaultStepSize, DefaultGamma,
		DefaultLambda, DefaultKappa, DefaultBeta2, DefaultEpsilon)
}

func newAdaptiveObGD(params []Param, c AdaptiveObGDConfig) (*AdaptiveObGD,
	error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newadaptiveobgd: %v", err)
	}

	return &AdaptiveObGD{
		traceSet: newTraceSet(params, c.CheckFinite, true),
		stepSize: c.StepSize,
		gamma:    c.Gamma,
		lambda:   c.Lambda,
		kappa:    c.Kappa,
		beta2:    c.Beta2,
		epsilon:  c.Epsilon,
	}, nil
}

// Step performs one update given the TD error delta. The gradients of
// all parameters must have been populated before calling Step. If
// reset is true, all eligibility traces are zeroed after the update.
//
// If an error is returned, no parameter, trace, moment estimate, or
// the step counter has been modified.
func (a *AdaptiveObGD) Step(delta float64, reset bool) error {
	if err := a.gather("step", delta); err != nil {
		return err
	}
	defer a.release()

	a.counter++
	biasCorrection := 1.0 - math.Pow(a.beta2, float64(a.counter))

	decay := a.gamma * a.lambda
	zSum := 0.0
	for i := range a.states {
		state := &a.states[i]
		e, v, scale := state.trace, state.moment, state.scale

		floats.Scale(decay, e)
		floats.Add(e, a.grads[i])

		for j := range v {
			u := delta * e[j]
			v[j] = v[j]*a.beta2 + (1.0-a.beta2)*u*u

			vHat := v[j] / biasCorrection
			scale[j] = 1.0 / math.Sqrt(vHat+a.epsilon)
			zSum += math.Abs(e[j] * scale[j])
		}
	}

	stepSize := boundedStepSize(delta, zSum, a.stepSize, a.kappa)
	a.lastStepSize = stepSize

	// The counter is unchanged since the first pass, so the scaling
	// computed there is reused.
	for i := range a.states {
		state := &a.states[i]
		value := a.values[i]
		for j := range value {
			value[j] -= stepSize * delta * state.trace[j] * state.scale[j]
		}
	}

	if reset {
		a.resetTraces()
	}
	return nil
}

// Trace returns a copy of the eligibility trace of the i-th parameter.
// Nil is returned if Step has not yet been called.
func (a *AdaptiveObGD) Trace(i int) []float64 {
	return a.trace(i)
}

// Moment returns a copy of the second moment estimate of the i-th
// parameter. Nil is returned if Step has not yet been called.
func (a *AdaptiveObGD) Moment(i int) []float64 {
	return clone(a.states[i].moment)
}

// Counter returns the number of completed calls to Step
func (a *AdaptiveObGD) Counter() int {
	return a.counter
}

// LastStepSize returns the step size used in the most recent call to
// Step
func (a *AdaptiveObGD) LastStepSize() float64 {
	return a.lastStepSize
}

// Len returns the number of parameters optimized
func (a *AdaptiveObGD) Len() int {
	return len(a.params)
}
