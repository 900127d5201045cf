package streamtd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/samuelfneumann/streamlearn/network"
	"github.com/samuelfneumann/streamlearn/solver"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// ValueFunction is a differentiable state value function
type ValueFunction interface {
	// Predict returns the value of an observation. Predict does not
	// change the gradients computed by Backward.
	Predict(obs []float64) (float64, error)

	// Backward returns the value of an observation and sets the
	// gradient of each parameter to the gradient of that value,
	// discarding any gradient from earlier calls.
	Backward(obs []float64) (float64, error)

	// Params returns the parameters of the value function
	Params() []solver.Param
}

// Linear is a linear state value function v(s) = wᵀx(s)
type Linear struct {
	weights *mat.Dense
	grad    *mat.Dense
	param   *solver.DenseParam
}

// NewLinear returns a new Linear value function with weights
// initialized to zero.
func NewLinear(features int) (*Linear, error) {
	if features <= 0 {
		return nil, fmt.Errorf("newLinear: features must be positive")
	}

	weights := mat.NewDense(1, features, nil)
	return &Linear{
		weights: weights,
		grad:    mat.NewDense(1, features, nil),
		param:   solver.NewDenseParam("weights", weights),
	}, nil
}

// Weights returns the weights of the value function
func (l *Linear) Weights() *mat.Dense {
	return l.weights
}

// Predict returns the value of obs
func (l *Linear) Predict(obs []float64) (float64, error) {
	_, features := l.weights.Dims()
	if len(obs) != features {
		return 0, fmt.Errorf("predict: invalid number of features"+
			"\n\twant(%v)\n\thave(%v)", features, len(obs))
	}

	x := mat.NewVecDense(len(obs), obs)
	return mat.Dot(l.weights.RowView(0), x), nil
}

// Backward returns the value of obs and sets the gradient of the
// weights to obs
func (l *Linear) Backward(obs []float64) (float64, error) {
	value, err := l.Predict(obs)
	if err != nil {
		return 0, errors.Wrap(err, "backward")
	}

	l.grad.SetRow(0, obs)
	l.param.SetGrad(l.grad)
	return value, nil
}

// Params returns the weights as a solver.Param
func (l *Linear) Params() []solver.Param {
	return []solver.Param{l.param}
}

// Network is a state value function approximated by a neural network.
// Backward runs the forward and backward passes of the network, while
// Predict runs only a forward pass on a copy of the network, so that
// predictions never touch the gradients read by a solver.
type Network struct {
	net    network.NeuralNet
	vm     G.VM
	params []solver.Param

	predNet network.NeuralNet
	predVM  G.VM
}

// NewNetwork returns a new Network value function. The network must
// predict a single value, and its graph must not already contain a
// gradient computation.
func NewNetwork(net network.NeuralNet) (*Network, error) {
	if net == nil {
		return nil, fmt.Errorf("newNetwork: network cannot be nil")
	}
	if net.Outputs() != 1 {
		return nil, fmt.Errorf("newNetwork: network must have a single "+
			"output, have %d", net.Outputs())
	}

	predNet, err := net.Clone()
	if err != nil {
		return nil, errors.Wrap(err, "newNetwork: could not clone network")
	}

	value, err := G.Sum(net.Prediction())
	if err != nil {
		return nil, errors.Wrap(err, "newNetwork: could not compute value")
	}

	if _, err := G.Grad(value, net.Learnables()...); err != nil {
		return nil, errors.Wrap(err, "newNetwork: could not compute value "+
			"gradient")
	}

	vm := G.NewTapeMachine(net.Graph(), G.BindDualValues(net.Learnables()...))

	return &Network{
		net:     net,
		vm:      vm,
		params:  solver.NodeParams(net.Learnables()),
		predNet: predNet,
		predVM:  G.NewTapeMachine(predNet.Graph()),
	}, nil
}

// run runs the VM of net on obs and returns the network output
func run(net network.NeuralNet, vm G.VM, obs []float64) (float64, error) {
	if err := net.SetInput(obs); err != nil {
		return 0, err
	}

	defer vm.Reset()
	if err := vm.RunAll(); err != nil {
		return 0, errors.Wrap(err, "could not run network")
	}

	out, ok := net.Output().(*tensor.Dense)
	if !ok {
		return 0, fmt.Errorf("unsupported output type %T", net.Output())
	}
	return out.Float64s()[0], nil
}

// zeroGrad zeroes the gradients of the network learnables. The tape
// machine adds into bound gradients, so they must be cleared before
// each backward pass.
func (n *Network) zeroGrad() error {
	for _, node := range n.net.Learnables() {
		grad, err := node.Grad()
		if err != nil {
			// No gradient has been bound yet
			continue
		}

		dense, ok := grad.(*tensor.Dense)
		if !ok {
			return fmt.Errorf("zeroGrad: unsupported gradient type %T for %v",
				grad, node.Name())
		}
		dense.Zero()
	}
	return nil
}

// Predict returns the value of obs
func (n *Network) Predict(obs []float64) (float64, error) {
	if err := n.predNet.Set(n.net); err != nil {
		return 0, errors.Wrap(err, "predict: could not copy weights")
	}

	value, err := run(n.predNet, n.predVM, obs)
	if err != nil {
		return 0, errors.Wrap(err, "predict")
	}
	return value, nil
}

// Backward returns the value of obs and sets the gradient of each
// learnable to the gradient of that value
func (n *Network) Backward(obs []float64) (float64, error) {
	if err := n.zeroGrad(); err != nil {
		return 0, errors.Wrap(err, "backward")
	}

	value, err := run(n.net, n.vm, obs)
	if err != nil {
		return 0, errors.Wrap(err, "backward")
	}
	return value, nil
}

// Params returns the network learnables as solver Params
func (n *Network) Params() []solver.Param {
	return n.params
}

// Network returns the underlying neural network
func (n *Network) Network() network.NeuralNet {
	return n.net
}

// Close releases the resources of the VMs running the network
func (n *Network) Close() error {
	if err := n.predVM.Close(); err != nil {
		return err
	}
	return n.vm.Close()
}
