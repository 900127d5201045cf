package solver

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Param is a single learnable tensor that a Solver updates in place.
//
// Value returns the backing data of the parameter in row-major order.
// Solvers write to this slice directly, so it must alias the storage
// that the model reads from. Grad returns the gradient of the model
// output with respect to the parameter, which must be populated by a
// backward pass before the Solver is stepped.
type Param interface {
	Shape() []int
	Value() ([]float64, error)
	Grad() ([]float64, error)
}

// namer is a Param with a name, used to make errors more helpful
type namer interface {
	Name() string
}

// paramName returns the name of a Param if it has one
func paramName(p Param) string {
	if n, ok := p.(namer); ok {
		return n.Name()
	}
	return ""
}

// nodeParam adapts a Gorgonia learnable node to a Param. Gradients are
// read from the dual value bound to the node, so the VM running the
// graph must be created with G.BindDualValues.
type nodeParam struct {
	node *G.Node
}

// NodeParams returns the learnable nodes of a Gorgonia graph as Params.
// Only float64 nodes holding *tensor.Dense values are supported.
func NodeParams(nodes G.Nodes) []Param {
	params := make([]Param, len(nodes))
	for i := range nodes {
		params[i] = nodeParam{nodes[i]}
	}
	return params
}

// Name returns the name of the underlying node
func (n nodeParam) Name() string {
	return n.node.Name()
}

// Shape returns the shape of the underlying node
func (n nodeParam) Shape() []int {
	return []int(n.node.Shape().Clone())
}

// Value returns the backing data of the node's value
func (n nodeParam) Value() ([]float64, error) {
	return float64s(n.node.Value())
}

// Grad returns the backing data of the node's gradient
func (n nodeParam) Grad() ([]float64, error) {
	grad, err := n.node.Grad()
	if err != nil {
		return nil, err
	}
	if grad == nil {
		return nil, errNoGradient
	}
	return float64s(grad)
}

// float64s returns the backing data of a Gorgonia value
func float64s(v G.Value) ([]float64, error) {
	if v == nil {
		return nil, fmt.Errorf("float64s: nil value")
	}
	dense, ok := v.(*tensor.Dense)
	if !ok {
		return nil, fmt.Errorf("float64s: unsupported value type %T", v)
	}
	if dense.Dtype() != tensor.Float64 {
		return nil, fmt.Errorf("float64s: unsupported dtype %v", dense.Dtype())
	}
	return dense.Float64s(), nil
}

// DenseParam is a Param backed by a gonum matrix. It is used for linear
// function approximation, where the gradient is computed by hand and
// set with SetGrad before each step.
type DenseParam struct {
	name  string
	value *mat.Dense
	grad  *mat.Dense
}

// NewDenseParam returns a new DenseParam wrapping value. The matrix is
// updated in place by any Solver the DenseParam is given to.
func NewDenseParam(name string, value *mat.Dense) *DenseParam {
	return &DenseParam{name: name, value: value}
}

// Name returns the name of the DenseParam
func (d *DenseParam) Name() string {
	return d.name
}

// Matrix returns the wrapped matrix
func (d *DenseParam) Matrix() *mat.Dense {
	return d.value
}

// SetGrad sets the gradient of the DenseParam. A nil gradient clears
// the current gradient.
func (d *DenseParam) SetGrad(grad *mat.Dense) {
	d.grad = grad
}

// ZeroGrad sets the gradient of the DenseParam to zero
func (d *DenseParam) ZeroGrad() {
	r, c := d.value.Dims()
	d.grad = mat.NewDense(r, c, nil)
}

// Shape returns the dimensions of the wrapped matrix
func (d *DenseParam) Shape() []int {
	r, c := d.value.Dims()
	return []int{r, c}
}

// Value returns the backing data of the wrapped matrix
func (d *DenseParam) Value() ([]float64, error) {
	return contiguous(d.value)
}

// Grad returns the backing data of the gradient matrix
func (d *DenseParam) Grad() ([]float64, error) {
	if d.grad == nil {
		return nil, errNoGradient
	}
	return contiguous(d.grad)
}

// contiguous returns the backing data of a matrix that is not a view
func contiguous(m *mat.Dense) ([]float64, error) {
	raw := m.RawMatrix()
	if raw.Rows > 1 && raw.Stride != raw.Cols {
		return nil, fmt.Errorf("contiguous: matrix is a strided view")
	}
	return raw.Data[:raw.Rows*raw.Cols], nil
}
