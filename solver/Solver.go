// Package solver implements eligibility trace solvers for streaming
// reinforcement learning, where parameters are updated after every
// transition instead of on mini-batches.
//
// Solvers are described by JSON serializable configurations so that
// they can be stored in experiment configuration files.
package solver

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Type describes different types of solvers that are available
type Type string

// Available solver types
const (
	TypeObGD         Type = "ObGD"
	TypeAdaptiveObGD Type = "AdaptiveObGD"
)

// Optimizer updates a fixed set of parameters once per transition
// given the TD error of that transition.
type Optimizer interface {
	// Step updates all parameters using their current gradients. If
	// reset is true, eligibility traces are cleared after the update.
	Step(delta float64, reset bool) error

	// LastStepSize returns the step size used in the most recent Step
	LastStepSize() float64

	// Trace returns a copy of the eligibility trace of parameter i
	Trace(i int) []float64

	// Len returns the number of parameters optimized
	Len() int
}

// Solver wraps solver configurations so that they can be JSON
// marshalled and unmarshalled.
type Solver struct {
	Type
	Config
}

// newSolver returns a new solver with the given type and configuration.
func newSolver(t Type, c Config) (*Solver, error) {
	if !c.ValidType(t) {
		return nil, fmt.Errorf("newSolver: invalid solver type %v for "+
			"configuration %T", t, c)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newSolver: %v", err)
	}
	return &Solver{Type: t, Config: c}, nil
}

// UnmarshalJSON implements the json.Unmarshaller interface
func (s *Solver) UnmarshalJSON(data []byte) error {
	config, typeName, err := unmarshalConfig(
		data,
		"Type",
		"Config",
		map[string]reflect.Type{
			string(TypeObGD):         reflect.TypeOf(ObGDConfig{}),
			string(TypeAdaptiveObGD): reflect.TypeOf(AdaptiveObGDConfig{}),
		})
	if err != nil {
		return err
	}

	if err := config.Validate(); err != nil {
		return fmt.Errorf("unmarshalJSON: %v", err)
	}

	s.Type = typeName
	s.Config = config

	return nil
}

// String implements the fmt.Stringer interface
func (s *Solver) String() string {
	return fmt.Sprintf("{%v Solver: %+v}", s.Type, s.Config)
}

// unmarshalConfig uses reflection to unmarshall a Config into its
// concrete type. Both the Config and its Type are returned.
func unmarshalConfig(data []byte, typeJsonField, valueJsonField string,
	customTypes map[string]reflect.Type) (Config, Type, error) {
	m := map[string]interface{}{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, "", err
	}

	typeName, ok := m[typeJsonField].(string)
	if !ok {
		return nil, "", fmt.Errorf("unmarshalConfig: missing field %v",
			typeJsonField)
	}

	ty, found := customTypes[typeName]
	if !found {
		return nil, "", fmt.Errorf("unmarshalConfig: unknown solver type %v",
			typeName)
	}
	value := reflect.New(ty).Interface().(Config)

	valueBytes, err := json.Marshal(m[valueJsonField])
	if err != nil {
		return nil, "", err
	}

	if err = json.Unmarshal(valueBytes, value); err != nil {
		return nil, "", err
	}
	concreteValue := reflect.ValueOf(value).Elem().Interface().(Config)

	return concreteValue, Type(typeName), nil
}

// Config implements a solver configuration and can be used to create
// the Optimizer it describes.
type Config interface {
	// Create returns a new Optimizer over the given parameters
	Create([]Param) (Optimizer, error)

	// ValidType returns whether a specific Solver type can be created
	// with the Config
	ValidType(Type) bool

	// Validate returns an error if any hyperparameter is out of range
	Validate() error
}
