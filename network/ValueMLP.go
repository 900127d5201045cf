package network

import (
	"fmt"

	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// valueMLP implements a multi-layered perceptron which predicts a
// single value from a single input vector. Since streaming learners
// update after every transition, the batch size is always 1.
type valueMLP struct {
	g         *G.ExprGraph
	layers    []*fcLayer
	input     *G.Node
	numInputs int

	// Needed for cloning
	hiddenSizes []int
	biases      []bool
	activations []*Activation

	learnables G.Nodes
	model      []G.ValueGrad

	prediction *G.Node
	predVal    G.Value
}

// NewValueMLP creates and returns a new multi-layered perceptron with
// a single output node, such as a state value function. The graph g is
// populated with the MLP.
//
// The MLP has number of layers equal to len(hiddenSizes) + 1. A final
// linear layer with a bias unit and no activation is always added so
// that the network outputs a single value. For index i, hiddenSizes[i]
// is the number of nodes in hidden layer i; biases[i] is true if the
// hidden layer will contain a bias unit; and activations[i] is the
// activation function of hidden layer i. The parameter init determines
// the weight initialization scheme. Bias units are initialized to zero.
func NewValueMLP(features int, g *G.ExprGraph, hiddenSizes []int,
	biases []bool, init G.InitWFn,
	activations []*Activation) (NeuralNet, error) {
	if features <= 0 {
		return nil, fmt.Errorf("newValueMLP: features must be positive")
	}

	// Ensure we have one activation per layer
	if len(hiddenSizes) != len(activations) {
		msg := "newValueMLP: invalid number of activations" +
			"\n\twant(%d)\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(activations))
	}

	// Ensure one bias bool per layer
	if len(hiddenSizes) != len(biases) {
		msg := "newValueMLP: invalid number of biases\n\twant(%d)" +
			"\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(biases))
	}

	input := G.NewMatrix(g, tensor.Float64, G.WithShape(1, features),
		G.WithName("input"), G.WithInit(G.Zeroes()))

	// Copy so that the final layer does not alias the caller's slices
	sizes := append(append([]int(nil), hiddenSizes...), 1)
	b := append(append([]bool(nil), biases...), true)
	acts := append(append([]*Activation(nil), activations...), Identity())

	network := valueMLP{
		g:           g,
		layers:      addfcLayers(g, sizes, b, acts, init, features),
		input:       input,
		numInputs:   features,
		hiddenSizes: hiddenSizes,
		biases:      biases,
		activations: activations,
	}

	if _, err := network.fwd(input); err != nil {
		return nil, errors.Wrap(err, "newValueMLP: could not compute "+
			"forward pass")
	}

	return &network, nil
}

// Graph returns the computational graph of the valueMLP.
func (v *valueMLP) Graph() *G.ExprGraph {
	return v.g
}

// Clone clones a valueMLP to a new computational graph. The weights of
// the clone are equal to, but do not alias, the weights of v.
func (v *valueMLP) Clone() (NeuralNet, error) {
	net, err := NewValueMLP(v.numInputs, G.NewGraph(), v.hiddenSizes,
		v.biases, G.Zeroes(), v.activations)
	if err != nil {
		return nil, errors.Wrap(err, "clone")
	}

	if err := net.Set(v); err != nil {
		return nil, errors.Wrap(err, "clone")
	}
	return net, nil
}

// Features returns the number of features in a single input vector
func (v *valueMLP) Features() int {
	return v.numInputs
}

// Outputs returns the number of outputs from the network
func (v *valueMLP) Outputs() int {
	return 1
}

// SetInput sets the value of the input node before running the forward
// pass.
func (v *valueMLP) SetInput(input []float64) error {
	if len(input) != v.numInputs {
		msg := "setInput: invalid number of inputs\n\twant(%v)\n\thave(%v)"
		return fmt.Errorf(msg, v.numInputs, len(input))
	}

	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(v.input.Shape()...),
	)
	return G.Let(v.input, inputTensor)
}

// Set sets the weights of a valueMLP to be equal to the weights of
// another network with the same architecture
func (v *valueMLP) Set(source NeuralNet) error {
	sourceNodes := source.Learnables()
	nodes := v.Learnables()
	if len(sourceNodes) != len(nodes) {
		return fmt.Errorf("set: source has %d learnables, want %d",
			len(sourceNodes), len(nodes))
	}

	for i := range nodes {
		if !sourceNodes[i].Shape().Eq(nodes[i].Shape()) {
			return fmt.Errorf("set: shape mismatch for %v: %v != %v",
				nodes[i].Name(), sourceNodes[i].Shape(), nodes[i].Shape())
		}

		sourceWeights, ok := sourceNodes[i].Value().(*tensor.Dense)
		if !ok {
			return fmt.Errorf("set: unsupported value type %T",
				sourceNodes[i].Value())
		}

		if err := G.Let(nodes[i], sourceWeights.Clone()); err != nil {
			return errors.Wrapf(err, "set: could not set %v",
				nodes[i].Name())
		}
	}
	return nil
}

// Learnables returns the learnable nodes in a valueMLP
func (v *valueMLP) Learnables() G.Nodes {
	// Lazy instantiation
	if v.learnables == nil {
		learnables := make(G.Nodes, 0, 2*len(v.layers))
		for _, layer := range v.layers {
			learnables = append(learnables, layer.learnables()...)
		}
		v.learnables = learnables
	}
	return v.learnables
}

// Model returns the learnables nodes with their gradients.
func (v *valueMLP) Model() []G.ValueGrad {
	// Lazy instantiation
	if v.model == nil {
		model := make([]G.ValueGrad, 0, len(v.Learnables()))
		for _, node := range v.Learnables() {
			model = append(model, node)
		}
		v.model = model
	}
	return v.model
}

// fwd performs the forward pass of the valueMLP on the input node
func (v *valueMLP) fwd(input *G.Node) (*G.Node, error) {
	pred := input
	var err error
	for i, l := range v.layers {
		if pred, err = l.fwd(pred); err != nil {
			return nil, errors.Wrapf(err, "fwd: could not compute forward "+
				"pass of layer %v", i)
		}
	}

	v.prediction = pred
	G.Read(v.prediction, &v.predVal)

	return pred, nil
}

// Output returns the output of the valueMLP.
func (v *valueMLP) Output() G.Value {
	return v.predVal
}

// Prediction returns the node of the computational graph the stores
// the output of the valueMLP
func (v *valueMLP) Prediction() *G.Node {
	return v.prediction
}
