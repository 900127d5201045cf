// Package network implements neural networks built on Gorgonia
// computational graphs which can be trained online by the solvers in
// package solver.
package network

import (
	G "gorgonia.org/gorgonia"
)

// NeuralNet is a differentiable function of a single input vector.
// The network owns the nodes of its computational graph, but the VM
// which runs the graph is owned by the caller.
type NeuralNet interface {
	// Graph returns the computational graph of the network
	Graph() *G.ExprGraph

	// Clone returns a copy of the network on a new graph
	Clone() (NeuralNet, error)

	// Features returns the length of input vectors
	Features() int

	// Outputs returns the number of values predicted
	Outputs() int

	// SetInput sets the value of the input node before running the
	// forward pass
	SetInput([]float64) error

	// Set sets the weights of the network to those of another network
	// with the same architecture
	Set(NeuralNet) error

	// Learnables returns the learnable nodes of the network
	Learnables() G.Nodes

	// Model returns the learnable nodes with their gradients
	Model() []G.ValueGrad

	// Prediction returns the output node of the network
	Prediction() *G.Node

	// Output returns the value of the output node after the graph has
	// been run
	Output() G.Value
}
