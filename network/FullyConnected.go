package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// fcLayer implements a fully connected layer of a feed forward neural
// network
type fcLayer struct {
	weights *G.Node
	bias    *G.Node
	act     *Activation
}

// newfcLayer adds the weights and bias of a fully connected layer to
// a computational graph. Biases are always initialized to zero.
func newfcLayer(g *G.ExprGraph, index, inputs, outputs int, bias bool,
	init G.InitWFn, act *Activation) *fcLayer {
	weights := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(inputs, outputs),
		G.WithName(fmt.Sprintf("L%dW", index)),
		G.WithInit(init),
	)

	var b *G.Node
	if bias {
		b = G.NewMatrix(
			g,
			tensor.Float64,
			G.WithShape(1, outputs),
			G.WithName(fmt.Sprintf("L%dB", index)),
			G.WithInit(G.Zeroes()),
		)
	}

	return &fcLayer{weights: weights, bias: b, act: act}
}

// addfcLayers adds a fully connected layer to g for each hidden size
func addfcLayers(g *G.ExprGraph, hiddenSizes []int, biases []bool,
	activations []*Activation, init G.InitWFn, features int) []*fcLayer {
	layers := make([]*fcLayer, 0, len(hiddenSizes))

	inputs := features
	for i := range hiddenSizes {
		layer := newfcLayer(g, i, inputs, hiddenSizes[i], biases[i], init,
			activations[i])
		layers = append(layers, layer)
		inputs = hiddenSizes[i]
	}
	return layers
}

// fwd adds the forward pass of the fcLayer to the computational graph.
// The input must be a single row.
func (f *fcLayer) fwd(x *G.Node) (*G.Node, error) {
	x, err := G.Mul(x, f.weights)
	if err != nil {
		return nil, err
	}

	if f.bias != nil {
		if x, err = G.Add(x, f.bias); err != nil {
			return nil, err
		}
	}

	if f.act == nil || f.act.IsIdentity() {
		return x, nil
	}
	return f.act.fwd(x)
}

// learnables returns the learnable nodes of the layer
func (f *fcLayer) learnables() G.Nodes {
	if f.bias == nil {
		return G.Nodes{f.weights}
	}
	return G.Nodes{f.weights, f.bias}
}
