package environment

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// SpecType determines what kind of specification a Spec is. A Spec can
// specify the layout of an observation, a discount, or a reward
type SpecType int

const (
	Observation SpecType = iota
	Discount
	Reward
)

func (s SpecType) String() string {
	switch s {
	case Observation:
		return "Observation"
	case Discount:
		return "Discount"
	default:
		return "Reward"
	}
}

// Cardinality determines the cardinality of a number (discrete or continuous)
type Cardinality string

const (
	Continuous Cardinality = "Continuous"
	Discrete   Cardinality = "Discrete"
)

// Spec implements an environment specification, which tells the type,
// shape, and bounds of an observation, discount, or reward in an
// environment
type Spec struct {
	Shape      mat.Vector
	Type       SpecType
	LowerBound mat.Vector
	UpperBound mat.Vector
	Cardinality
}

// NewSpec constructs a new environment specification.
// The shape argument outlines the shape of the data described by the
// specification. The argument t outlines what the specification is
// describing. The cardinality argument describes whether the values
// that the spec describes are continuous or discrete.
func NewSpec(shape mat.Vector, t SpecType, lowerBound,
	upperBound mat.Vector, cardinality Cardinality) (Spec, error) {
	if shape.Len() != lowerBound.Len() {
		return Spec{}, fmt.Errorf("newSpec: shape length %v must match "+
			"lower bounds length %v", shape.Len(), lowerBound.Len())
	}
	if shape.Len() != upperBound.Len() {
		return Spec{}, fmt.Errorf("newSpec: shape length %v must match "+
			"upper bounds length %v", shape.Len(), upperBound.Len())
	}
	return Spec{shape, t, lowerBound, upperBound, cardinality}, nil
}

// NewScalarSpec returns a Spec of a single value in [low, high]
func NewScalarSpec(t SpecType, low, high float64,
	cardinality Cardinality) Spec {
	return Spec{
		Shape:       mat.NewVecDense(1, nil),
		Type:        t,
		LowerBound:  mat.NewVecDense(1, []float64{low}),
		UpperBound:  mat.NewVecDense(1, []float64{high}),
		Cardinality: cardinality,
	}
}

// Features returns the number of features described by the Spec
func (s Spec) Features() int {
	return s.Shape.Len()
}
