package solver

import (
	"fmt"

	"github.com/pkg/errors"
)

// MissingGradientError is returned when a tracked parameter has no
// gradient at the time a Solver is stepped.
type MissingGradientError struct {
	Op    string
	Index int    // Index of the parameter in the Solver's parameter list
	Name  string // Name of the parameter, if it has one
	Err   error
}

// Error satisfies the error interface
func (e *MissingGradientError) Error() string {
	msg := fmt.Sprintf("%s: missing gradient for parameter %d", e.Op, e.Index)
	if e.Name != "" {
		msg += fmt.Sprintf(" (%s)", e.Name)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the error reported by the parameter, if any
func (e *MissingGradientError) Unwrap() error {
	return e.Err
}

// ShapeMismatchError is returned when a parameter, or its gradient, no
// longer has the shape that its optimizer state was created with.
type ShapeMismatchError struct {
	Op    string
	Index int
	Name  string
	Want  []int
	Have  []int
}

// Error satisfies the error interface
func (e *ShapeMismatchError) Error() string {
	msg := "%s: shape mismatch for parameter %d%s\n\twant(%v)\n\thave(%v)"
	name := ""
	if e.Name != "" {
		name = " (" + e.Name + ")"
	}
	return fmt.Sprintf(msg, e.Op, e.Index, name, e.Want, e.Have)
}

// NonFiniteError is returned by a Solver configured to check its
// inputs when the TD error or a gradient is NaN or infinite.
type NonFiniteError struct {
	Op    string
	Index int // -1 if the TD error itself is not finite
	Value float64
}

// Error satisfies the error interface
func (e *NonFiniteError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: non-finite TD error %v", e.Op, e.Value)
	}
	return fmt.Sprintf("%s: non-finite gradient %v for parameter %d", e.Op,
		e.Value, e.Index)
}

var errNoGradient = errors.New("no gradient set")

// IsMissingGradient returns whether or not an error reports that a
// parameter had no gradient when the Solver was stepped.
func IsMissingGradient(err error) bool {
	var target *MissingGradientError
	return errors.As(err, &target)
}

// IsShapeMismatch returns whether or not an error reports that a
// parameter changed shape between steps.
func IsShapeMismatch(err error) bool {
	var target *ShapeMismatchError
	return errors.As(err, &target)
}

// IsNonFinite returns whether or not an error reports a NaN or infinite
// input to a Solver.
func IsNonFinite(err error) bool {
	var target *NonFiniteError
	return errors.As(err, &target)
}
