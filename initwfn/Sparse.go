package initwfn

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// DefaultSparsity is the fraction of incoming weights zeroed for each
// unit by the sparse initializer
const DefaultSparsity = 0.9

// SparseConfig implements a configuration of the sparse initialization
// algorithm. Weights are drawn from U(-1/√fanIn, 1/√fanIn), after
// which a fraction Sparsity of the incoming weights of each output
// unit are set to zero.
type SparseConfig struct {
	Sparsity float64
	Seed     uint64
}

// NewSparse returns a new sparse weight initializer
func NewSparse(sparsity float64, seed uint64) (*InitWFn, error) {
	return newInitWFn(SparseConfig{Sparsity: sparsity, Seed: seed})
}

// Type returns the type of initialization algorithm described by the
// configuration.
func (s SparseConfig) Type() Type {
	return Sparse
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn
func (s SparseConfig) Create() G.InitWFn {
	return SparseInit(s.Sparsity, s.Seed)
}

// Validate ensures the sparsity is in [0, 1]
func (s SparseConfig) Validate() error {
	if s.Sparsity < 0 || s.Sparsity > 1 {
		return fmt.Errorf("sparsity must be in [0, 1]")
	}
	return nil
}

// SparseInit returns a Gorgonia InitWFn which performs sparse
// initialization. Weight matrices are assumed to have shape
// (inputs, outputs), as used by x·W. Each call to the returned function
// continues the same random stream, so that layers of a network are
// initialized differently.
func SparseInit(sparsity float64, seed uint64) G.InitWFn {
	rng := rand.New(rand.NewSource(seed))

	return func(dt tensor.Dtype, s ...int) interface{} {
		size := tensor.Shape(s).TotalSize()
		fanIn, fanOut := fans(s, size)

		bound := 1.0 / math.Sqrt(float64(fanIn))
		weights := make([]float64, size)
		for i := range weights {
			weights[i] = (2*rng.Float64() - 1) * bound
		}

		numZeroes := int(math.Ceil(sparsity * float64(fanIn)))
		if numZeroes > fanIn {
			numZeroes = fanIn
		}
		for col := 0; col < fanOut; col++ {
			for _, row := range rng.Perm(fanIn)[:numZeroes] {
				weights[row*fanOut+col] = 0
			}
		}

		switch dt {
		case tensor.Float64:
			return weights
		case tensor.Float32:
			weights32 := make([]float32, size)
			for i := range weights {
				weights32[i] = float32(weights[i])
			}
			return weights32
		default:
			panic(fmt.Sprintf("sparseInit: unsupported dtype %v", dt))
		}
	}
}

// fans returns the number of inputs and outputs of each unit for a
// weight tensor of shape s, laid out as (inputs, ...outputs)
func fans(s []int, size int) (fanIn, fanOut int) {
	if len(s) == 0 || s[0] == 0 {
		return 1, size
	}
	return s[0], size / s[0]
}
