package solver

import (
	"fmt"
	"math"
)

// paramState is the optimizer state owned for a single Param. States
// are stored in a slice parallel to the Solver's parameters.
type paramState struct {
	shape  []int
	trace  []float64
	moment []float64 // only used by AdaptiveObGD
	scale  []float64 // 1 / sqrt(v̂ + ε), only used by AdaptiveObGD
}

// traceSet holds a list of parameters together with their eligibility
// traces and implements the validation shared by all eligibility trace
// solvers.
type traceSet struct {
	params      []Param
	states      []paramState
	checkFinite bool
	adaptive    bool

	// Scratch space reused between steps
	values [][]float64
	grads  [][]float64
}

func newTraceSet(params []Param, checkFinite, adaptive bool) traceSet {
	return traceSet{
		params:      params,
		states:      make([]paramState, len(params)),
		checkFinite: checkFinite,
		adaptive:    adaptive,
		values:      make([][]float64, len(params)),
		grads:       make([][]float64, len(params)),
	}
}

// gather reads the value and gradient of every parameter, validates
// them against the current optimizer state, and lazily creates any
// missing state. No state is changed unless every parameter is valid.
func (t *traceSet) gather(op string, delta float64) error {
	if t.checkFinite && !isFinite(delta) {
		return &NonFiniteError{Op: op, Index: -1, Value: delta}
	}

	for i, p := range t.params {
		grad, err := p.Grad()
		if err != nil || grad == nil {
			if err == nil {
				err = errNoGradient
			}
			return &MissingGradientError{Op: op, Index: i,
				Name: paramName(p), Err: err}
		}

		value, err := p.Value()
		if err != nil {
			return fmt.Errorf("%s: could not read parameter %d: %v", op, i,
				err)
		}

		shape := p.Shape()
		if s := t.states[i].shape; s != nil && !equalShape(s, shape) {
			return &ShapeMismatchError{Op: op, Index: i, Name: paramName(p),
				Want: s, Have: shape}
		}
		if len(grad) != len(value) {
			return &ShapeMismatchError{Op: op, Index: i, Name: paramName(p),
				Want: []int{len(value)}, Have: []int{len(grad)}}
		}
		if t.states[i].trace != nil && len(t.states[i].trace) != len(value) {
			return &ShapeMismatchError{Op: op, Index: i, Name: paramName(p),
				Want: []int{len(t.states[i].trace)}, Have: []int{len(value)}}
		}

		if t.checkFinite {
			for _, g := range grad {
				if !isFinite(g) {
					return &NonFiniteError{Op: op, Index: i, Value: g}
				}
			}
		}

		t.values[i] = value
		t.grads[i] = grad
	}

	for i := range t.states {
		if t.states[i].trace != nil {
			continue
		}
		n := len(t.values[i])
		t.states[i].shape = append([]int(nil), t.params[i].Shape()...)
		t.states[i].trace = make([]float64, n)
		if t.adaptive {
			t.states[i].moment = make([]float64, n)
			t.states[i].scale = make([]float64, n)
		}
	}
	return nil
}

// release drops the references to parameter data taken by gather
func (t *traceSet) release() {
	for i := range t.values {
		t.values[i] = nil
		t.grads[i] = nil
	}
}

// resetTraces zeroes every eligibility trace
func (t *traceSet) resetTraces() {
	for i := range t.states {
		zero(t.states[i].trace)
	}
}

// trace returns a copy of the eligibility trace of parameter i, or nil
// if the trace has not been created yet.
func (t *traceSet) trace(i int) []float64 {
	return clone(t.states[i].trace)
}

// boundedStepSize computes the overshoot-bounded step size shared by
// every parameter in a step. When δ̄ * z * α * κ exceeds 1 the step
// size is shrunk to α / (δ̄ * z * α * κ), otherwise α is used.
func boundedStepSize(delta, zSum, stepSize, kappa float64) float64 {
	deltaBar := math.Max(math.Abs(delta), 1.0)
	dotProduct := deltaBar * zSum * stepSize * kappa

	if dotProduct > 1 {
		return stepSize / dotProduct
	}
	return stepSize
}

func equalShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func zero(x []float64) {
	for i := range x {
		x[i] = 0
	}
}

func clone(x []float64) []float64 {
	if x == nil {
		return nil
	}
	return append([]float64(nil), x...)
}
