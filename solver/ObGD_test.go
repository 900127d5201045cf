package solver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

// sliceParam is a Param whose shape, value, and gradient can be set
// directly.
type sliceParam struct {
	name  string
	shape []int
	value []float64
	grad  []float64
}

func newSliceParam(value ...float64) *sliceParam {
	return &sliceParam{
		name:  "p",
		shape: []int{len(value)},
		value: value,
		grad:  make([]float64, len(value)),
	}
}

func (s *sliceParam) Name() string { return s.name }
func (s *sliceParam) Shape() []int { return s.shape }
func (s *sliceParam) Value() ([]float64, error) { return s.value, nil }

func (s *sliceParam) Grad() ([]float64, error) {
	if s.grad == nil {
		return nil, errNoGradient
	}
	return s.grad, nil
}

func TestObGDSingleStep(t *testing.T) {
	p := newSliceParam(1.0)
	p.grad[0] = 2.0

	obgd, err := NewObGD([]Param{p}, 1.0, 0.9, 0.9, 2.0)
	require.NoError(t, err)

	// e = 2, z = 2, δ̄ = 3, δ̄zακ = 12 > 1, α' = 1/12
	require.NoError(t, obgd.Step(3.0, false))

	assert.InDelta(t, 1.0/12.0, obgd.LastStepSize(), 1e-12)
	assert.InDelta(t, 0.5, p.value[0], 1e-6)
	assert.InDelta(t, 2.0, obgd.Trace(0)[0], 1e-12)
}

func TestObGDUnboundedStep(t *testing.T) {
	p := newSliceParam(1.0)
	p.grad[0] = 0.5

	obgd, err := NewObGD([]Param{p}, 0.1, 0.9, 0.9, 1.0)
	require.NoError(t, err)

	// δ̄zακ = 1 * 0.5 * 0.1 * 1 = 0.05, so the step size is unchanged
	require.NoError(t, obgd.Step(0.5, false))

	assert.Equal(t, 0.1, obgd.LastStepSize())
	assert.InDelta(t, 1.0-0.1*0.5*0.5, p.value[0], 1e-12)
}

func TestObGDTraceRecurrence(t *testing.T) {
	p := newSliceParam(0.0)

	// γλ = 0.5
	obgd, err := NewObGD([]Param{p}, 1.0, 0.5, 1.0, 2.0)
	require.NoError(t, err)

	grads := []float64{1, 2, 3, -1, 0.5}
	for n, g := range grads {
		p.grad[0] = g
		require.NoError(t, obgd.Step(0, false))

		want := 0.0
		for i := 0; i <= n; i++ {
			want += grads[i] * math.Pow(0.5, float64(n-i))
		}
		assert.InDelta(t, want, obgd.Trace(0)[0], 1e-12, "step %d", n+1)
	}

	// Literal values of the first three traces
	p2 := newSliceParam(0.0)
	obgd, err = NewObGD([]Param{p2}, 1.0, 0.5, 1.0, 2.0)
	require.NoError(t, err)
	for i, want := range []float64{1, 2.5, 4.25} {
		p2.grad[0] = float64(i + 1)
		require.NoError(t, obgd.Step(0, false))
		assert.InDelta(t, want, obgd.Trace(0)[0], 1e-12)
	}
}

func TestObGDSharedNormalizer(t *testing.T) {
	p1 := newSliceParam(0.0, 0.0)
	p2 := newSliceParam(0.0)
	p1.grad = []float64{1.0, -2.0}
	p2.grad = []float64{3.0}

	obgd, err := NewObGD([]Param{p1, p2}, 1.0, 0.9, 0.9, 2.0)
	require.NoError(t, err)
	require.NoError(t, obgd.Step(1.0, false))

	// z = 1 + 2 + 3 = 6, δ̄zακ = 12
	stepSize := 1.0 / 12.0
	assert.InDelta(t, stepSize, obgd.LastStepSize(), 1e-12)
	assert.InDeltaSlice(t, []float64{-stepSize, 2 * stepSize}, p1.value, 1e-12)
	assert.InDeltaSlice(t, []float64{-3 * stepSize}, p2.value, 1e-12)
}

func TestObGDReset(t *testing.T) {
	p1 := newSliceParam(1.0, 2.0)
	p2 := newSliceParam(3.0)
	p1.grad = []float64{0.5, -0.5}
	p2.grad = []float64{1.0}

	obgd, err := NewDefaultObGD([]Param{p1, p2})
	require.NoError(t, err)

	require.NoError(t, obgd.Step(1.5, false))
	assert.NotEqual(t, []float64{0, 0}, obgd.Trace(0))

	before := append([]float64(nil), p1.value...)
	require.NoError(t, obgd.Step(1.5, true))

	// The update is applied before the traces are cleared
	assert.NotEqual(t, before, p1.value)
	assert.Equal(t, []float64{0, 0}, obgd.Trace(0))
	assert.Equal(t, []float64{0}, obgd.Trace(1))
}

func TestObGDZeroGradient(t *testing.T) {
	p := newSliceParam(1.0, -1.0)
	p.grad = []float64{1.0, 2.0}

	obgd, err := NewObGD([]Param{p}, 1.0, 0.5, 1.0, 2.0)
	require.NoError(t, err)

	require.NoError(t, obgd.Step(0, false))
	assert.Equal(t, []float64{1.0, -1.0}, p.value)

	p.grad = []float64{0, 0}
	want := []float64{1.0, 2.0}
	for i := 0; i < 4; i++ {
		require.NoError(t, obgd.Step(0, false))
		want[0] *= 0.5
		want[1] *= 0.5
		assert.InDeltaSlice(t, want, obgd.Trace(0), 1e-12)
		assert.Equal(t, []float64{1.0, -1.0}, p.value)
	}

	// All traces are zero, so z = 0 and the step size is unchanged
	fresh := newSliceParam(1.0)
	obgd, err = NewDefaultObGD([]Param{fresh})
	require.NoError(t, err)
	require.NoError(t, obgd.Step(0, false))
	assert.Equal(t, DefaultStepSize, obgd.LastStepSize())
	assert.Equal(t, []float64{1.0}, fresh.value)
}

func TestObGDStepSizeBound(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for trial := 0; trial < 100; trial++ {
		stepSize := rng.Float64()*2 + 1e-3
		kappa := rng.Float64()*4 + 1e-3

		params := make([]Param, 1+rng.Intn(3))
		for i := range params {
			p := newSliceParam(make([]float64, 1+rng.Intn(5))...)
			for j := range p.grad {
				p.grad[j] = rng.NormFloat64() * 10
			}
			params[i] = p
		}

		obgd, err := NewObGD(params, stepSize, 0.99, 0.8, kappa)
		require.NoError(t, err)

		for step := 0; step < 5; step++ {
			delta := rng.NormFloat64() * 5
			before := make([][]float64, len(params))
			for i := range params {
				before[i] = append([]float64(nil), params[i].(*sliceParam).value...)
			}

			require.NoError(t, obgd.Step(delta, false))
			require.LessOrEqual(t, obgd.LastStepSize(), stepSize)

			for i := range params {
				e := obgd.Trace(i)
				after := params[i].(*sliceParam).value
				for j := range after {
					bound := stepSize * math.Abs(delta) * math.Abs(e[j])
					moved := math.Abs(after[j] - before[i][j])
					assert.LessOrEqual(t, moved, bound+1e-12)
				}
			}
		}
	}
}

func TestObGDMissingGradient(t *testing.T) {
	p1 := newSliceParam(1.0)
	p1.grad[0] = 1.0
	p2 := newSliceParam(2.0)
	p2.grad = nil

	obgd, err := NewDefaultObGD([]Param{p1, p2})
	require.NoError(t, err)

	err = obgd.Step(1.0, false)
	require.Error(t, err)
	assert.True(t, IsMissingGradient(err))

	var missing *MissingGradientError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, 1, missing.Index)

	// Nothing was changed
	assert.Equal(t, []float64{1.0}, p1.value)
	assert.Nil(t, obgd.Trace(0))
}

func TestObGDShapeMismatch(t *testing.T) {
	p := newSliceParam(1.0, 2.0)
	p.grad = []float64{1.0, 1.0}

	obgd, err := NewDefaultObGD([]Param{p})
	require.NoError(t, err)
	require.NoError(t, obgd.Step(1.0, false))

	trace := obgd.Trace(0)
	value := append([]float64(nil), p.value...)

	p.shape = []int{1, 2}
	err = obgd.Step(1.0, false)
	require.Error(t, err)
	assert.True(t, IsShapeMismatch(err))
	assert.Equal(t, trace, obgd.Trace(0))
	assert.Equal(t, value, p.value)

	// Gradient of the wrong size
	p.shape = []int{2}
	p.grad = []float64{1.0}
	err = obgd.Step(1.0, false)
	assert.True(t, IsShapeMismatch(err))
}

func TestObGDCheckFinite(t *testing.T) {
	p := newSliceParam(1.0)
	p.grad[0] = 1.0

	config := ObGDConfig{
		StepSize:    DefaultStepSize,
		Gamma:       DefaultGamma,
		Lambda:      DefaultLambda,
		Kappa:       DefaultKappa,
		CheckFinite: true,
	}
	opt, err := config.Create([]Param{p})
	require.NoError(t, err)

	err = opt.Step(math.NaN(), false)
	require.True(t, IsNonFinite(err))

	p.grad[0] = math.Inf(1)
	err = opt.Step(1.0, false)
	require.True(t, IsNonFinite(err))

	var nonFinite *NonFiniteError
	require.ErrorAs(t, err, &nonFinite)
	assert.Equal(t, 0, nonFinite.Index)
	assert.Equal(t, []float64{1.0}, p.value)
	assert.Nil(t, opt.Trace(0))
}

func TestObGDInvalidConfig(t *testing.T) {
	p := newSliceParam(1.0)

	_, err := NewObGD([]Param{p}, 0, 0.9, 0.9, 2.0)
	assert.Error(t, err)
	_, err = NewObGD([]Param{p}, 1.0, 1.0, 0.9, 2.0)
	assert.Error(t, err)
	_, err = NewObGD([]Param{p}, 1.0, 0.9, 1.5, 2.0)
	assert.Error(t, err)
	_, err = NewObGD([]Param{p}, 1.0, 0.9, 0.9, 0)
	assert.Error(t, err)
}

func BenchmarkObGDStep(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	params := make([]Param, 4)
	for i := range params {
		p := newSliceParam(make([]float64, 4096)...)
		for j := range p.grad {
			p.grad[j] = rng.NormFloat64()
		}
		params[i] = p
	}

	obgd, err := NewDefaultObGD(params)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := obgd.Step(0.1, i%100 == 0); err != nil {
			b.Fatal(err)
		}
	}
}
