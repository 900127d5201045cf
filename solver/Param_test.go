package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func TestNodeParamsObGD(t *testing.T) {
	g := G.NewGraph()
	x := G.NewMatrix(g, tensor.Float64, G.WithShape(1, 2), G.WithName("x"),
		G.WithValue(tensor.New(
			tensor.WithShape(1, 2),
			tensor.WithBacking([]float64{1, 2}),
		)))
	w := G.NewMatrix(g, tensor.Float64, G.WithShape(2, 1), G.WithName("w"),
		G.WithValue(tensor.New(
			tensor.WithShape(2, 1),
			tensor.WithBacking([]float64{0.5, -0.5}),
		)))

	pred := G.Must(G.Mul(x, w))
	value := G.Must(G.Sum(pred))

	_, err := G.Grad(value, w)
	require.NoError(t, err)

	vm := G.NewTapeMachine(g, G.BindDualValues(w))
	defer vm.Close()
	require.NoError(t, vm.RunAll())

	params := NodeParams(G.Nodes{w})
	require.Len(t, params, 1)
	assert.Equal(t, []int{2, 1}, params[0].Shape())

	grad, err := params[0].Grad()
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 2}, grad, 1e-12)

	obgd, err := NewDefaultObGD(params)
	require.NoError(t, err)

	// e = [1, 2], z = 3, δ̄zακ = 6, α' = 1/6
	require.NoError(t, obgd.Step(1.0, false))
	vm.Reset()

	got := w.Value().Data().([]float64)
	assert.InDeltaSlice(t, []float64{0.5 - 1.0/6.0, -0.5 - 2.0/6.0}, got, 1e-12)
}

func TestNodeParamsMissingGradient(t *testing.T) {
	g := G.NewGraph()
	w := G.NewVector(g, tensor.Float64, G.WithShape(3), G.WithName("w"),
		G.WithInit(G.Zeroes()))

	obgd, err := NewDefaultObGD(NodeParams(G.Nodes{w}))
	require.NoError(t, err)

	err = obgd.Step(1.0, false)
	require.True(t, IsMissingGradient(err))

	var missing *MissingGradientError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "w", missing.Name)
}

func TestDenseParam(t *testing.T) {
	w := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	p := NewDenseParam("weights", w)

	assert.Equal(t, []int{2, 2}, p.Shape())
	_, err := p.Grad()
	assert.Error(t, err)

	p.SetGrad(mat.NewDense(2, 2, []float64{1, 0, 0, 1}))

	obgd, err := NewObGD([]Param{p}, 0.1, 0.9, 0.9, 1.0)
	require.NoError(t, err)

	// z = 2, δ̄zακ = 0.2, so the step size is 0.1
	require.NoError(t, obgd.Step(1.0, false))
	assert.InDelta(t, 0.9, w.At(0, 0), 1e-12)
	assert.InDelta(t, 2.0, w.At(0, 1), 1e-12)
	assert.InDelta(t, 3.9, w.At(1, 1), 1e-12)

	p.ZeroGrad()
	grad, err := p.Grad()
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0}, grad)
}

func TestDenseParamView(t *testing.T) {
	w := mat.NewDense(3, 3, nil)
	view := w.Slice(0, 2, 0, 2).(*mat.Dense)
	p := NewDenseParam("view", view)

	_, err := p.Value()
	assert.Error(t, err)
}
