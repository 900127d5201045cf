package solver

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Default hyperparameters of the eligibility trace solvers
const (
	DefaultStepSize = 1.0
	DefaultGamma    = 0.99
	DefaultLambda   = 0.8
	DefaultKappa    = 2.0
	DefaultBeta2    = 0.999
	DefaultEpsilon  = 1e-8
)

// ObGDConfig describes a configuration of the Overshooting-bounded
// Gradient Descent solver.
type ObGDConfig struct {
	StepSize float64
	Gamma    float64 // Discount factor
	Lambda   float64 // Trace decay
	Kappa    float64 // Overshoot sensitivity

	// CheckFinite rejects NaN or infinite TD errors and gradients
	// before any state is changed. When false, non-finite inputs
	// propagate through the update.
	CheckFinite bool
}

// NewObGDConfig returns a new ObGD Solver configuration
func NewObGDConfig(stepSize, gamma, lambda, kappa float64) (*Solver, error) {
	obgd := ObGDConfig{
		StepSize: stepSize,
		Gamma:    gamma,
		Lambda:   lambda,
		Kappa:    kappa,
	}

	return newSolver(TypeObGD, obgd)
}

// NewDefaultObGDConfig returns a new ObGD Solver configuration with
// default hyperparameters
func NewDefaultObGDConfig() (*Solver, error) {
	return NewObGDConfig(DefaultStepSize, DefaultGamma, DefaultLambda,
		DefaultKappa)
}

// Create returns a new ObGD optimizing params as described by the
// ObGDConfig
func (o ObGDConfig) Create(params []Param) (Optimizer, error) {
	return newObGD(params, o)
}

// ValidType returns if the given Solver type is a valid type to be
// created with this config.
func (o ObGDConfig) ValidType(t Type) bool {
	return t == TypeObGD
}

// Validate ensures the hyperparameters are in range
func (o ObGDConfig) Validate() error {
	return validateTrace(o.StepSize, o.Gamma, o.Lambda, o.Kappa)
}

func validateTrace(stepSize, gamma, lambda, kappa float64) error {
	if stepSize <= 0 {
		return fmt.Errorf("step size must be positive")
	}
	if gamma < 0 || gamma >= 1 {
		return fmt.Errorf("gamma must be in [0, 1)")
	}
	if lambda < 0 || lambda > 1 {
		return fmt.Errorf("lambda must be in [0, 1]")
	}
	if kappa <= 0 {
		return fmt.Errorf("kappa must be positive")
	}
	return nil
}

// ObGD implements Overshooting-bounded Gradient Descent for streaming
// learning, https://arxiv.org/abs/2410.14606.
//
// Each parameter keeps an accumulating eligibility trace
//
//	e ← γλe + ∇
//
// and all parameters are moved along their traces with a single step
// size. The step size is bounded so that an update cannot overshoot
// the TD target:
//
//	δ̄ = max(|δ|, 1)
//	z = Σ ‖e‖₁
//	α' = α / (δ̄zακ) if δ̄zακ > 1, otherwise α
//	θ ← θ - α'δe
//
// ObGD is not safe for concurrent use. The backward pass which
// populates gradients must complete before Step is called.
type ObGD struct {
	traceSet

	stepSize float64
	gamma    float64
	lambda   float64
	kappa    float64

	lastStepSize float64
}

// NewObGD returns a new ObGD solver optimizing params
func NewObGD(params []Param, stepSize, gamma, lambda,
	kappa float64) (*ObGD, error) {
	return newObGD(params, ObGDConfig{
		StepSize: stepSize,
		Gamma:    gamma,
		Lambda:   lambda,
		Kappa:    kappa,
	})
}

// NewDefaultObGD returns a new ObGD solver with default hyperparameters
func NewDefaultObGD(params []Param) (*ObGD, error) {
	return NewObGD(params, DefaultStepSize, DefaultGamma, DefaultLambda,
		DefaultKappa)
}

func newObGD(params []Param, c ObGDConfig) (*ObGD, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newobgd: %v", err)
	}

	return &ObGD{
		traceSet: newTraceSet(params, c.CheckFinite, false),
		stepSize: c.StepSize,
		gamma:    c.Gamma,
		lambda:   c.Lambda,
		kappa:    c.Kappa,
	}, nil
}

// Step performs one update given the TD error delta. The gradients of
// all parameters must have been populated before calling Step. If
// reset is true, all eligibility traces are zeroed after the update,
// which should be done at the end of each episode.
//
// If an error is returned, no parameter or trace has been modified.
func (o *ObGD) Step(delta float64, reset bool) error {
	if err := o.gather("step", delta); err != nil {
		return err
	}
	defer o.release()

	// Decay the traces, accumulate gradients, and compute z = Σ‖e‖₁
	decay := o.gamma * o.lambda
	zSum := 0.0
	for i := range o.states {
		e := o.states[i].trace
		floats.Scale(decay, e)
		floats.Add(e, o.grads[i])
		zSum += floats.Norm(e, 1)
	}

	stepSize := boundedStepSize(delta, zSum, o.stepSize, o.kappa)
	o.lastStepSize = stepSize

	for i := range o.states {
		e := o.states[i].trace
		floats.AddScaled(o.values[i], -stepSize*delta, e)
	}

	if reset {
		o.resetTraces()
	}
	return nil
}

// Trace returns a copy of the eligibility trace of the i-th parameter.
// Nil is returned if Step has not yet been called.
func (o *ObGD) Trace(i int) []float64 {
	return o.trace(i)
}

// LastStepSize returns the step size used in the most recent call to
// Step
func (o *ObGD) LastStepSize() float64 {
	return o.lastStepSize
}

// Len returns the number of parameters optimized
func (o *ObGD) Len() int {
	return len(o.params)
}
