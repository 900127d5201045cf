package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

type activationType string

const (
	relu      activationType = "relu"
	leakyReLU activationType = "leakyrelu"
	identity  activationType = "identity"
	tanh      activationType = "tanh"
)

// DefaultLeakiness is the slope of LeakyReLU for negative inputs
const DefaultLeakiness = 0.01

// Activation represents an activation function type
type Activation struct {
	activationType
	f func(x *G.Node) (*G.Node, error)
}

// fwd performs the forward pass of an Activation
func (a *Activation) fwd(x *G.Node) (*G.Node, error) {
	return a.f(x)
}

// String implements the Stringer interface
func (a *Activation) String() string {
	return string(a.activationType)
}

// IsIdentity returns whether or not the Activation is the identity
// function.
func (a *Activation) IsIdentity() bool {
	return a.activationType == identity
}

// ParseActivation returns the Activation with the given name, as
// returned by the Activation's String method.
func ParseActivation(name string) (*Activation, error) {
	switch activationType(name) {
	case relu:
		return ReLU(), nil
	case leakyReLU:
		return LeakyReLU(), nil
	case identity:
		return Identity(), nil
	case tanh:
		return TanH(), nil
	default:
		return nil, fmt.Errorf("parseActivation: unknown activation %q", name)
	}
}

// Identity returns an identity *Activation
func Identity() *Activation {
	return &Activation{
		activationType: identity,
		f: func(x *G.Node) (*G.Node, error) {
			return x, nil
		},
	}
}

// ReLU returns a ReLU *Activation
func ReLU() *Activation {
	return &Activation{
		activationType: relu,
		f:              G.Rectify,
	}
}

// LeakyReLU returns a leaky ReLU *Activation with slope
// DefaultLeakiness for negative inputs
func LeakyReLU() *Activation {
	return &Activation{
		activationType: leakyReLU,
		f: func(x *G.Node) (*G.Node, error) {
			return G.LeakyRelu(x, DefaultLeakiness)
		},
	}
}

// TanH returns a tanh *Activation
func TanH() *Activation {
	return &Activation{
		activationType: tanh,
		f:              G.Tanh,
	}
}
