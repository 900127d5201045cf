package environment

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// CategoricalStarter returns starting states sampled from a categorical
// distribution over state indices
type CategoricalStarter struct {
	seed uint64
	rand distuv.Categorical
}

// NewCategoricalStarter returns a new CategoricalStarter, sampling
// state i with probability proportional to weights[i]
func NewCategoricalStarter(weights []float64,
	seed uint64) (*CategoricalStarter, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("newCategoricalStarter: no weights given")
	}

	total := 0.0
	for _, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf("newCategoricalStarter: weights must " +
				"be non-negative")
		}
		total += w
	}
	if total == 0 {
		return nil, fmt.Errorf("newCategoricalStarter: weights must not " +
			"all be zero")
	}

	source := rand.NewSource(seed)
	return &CategoricalStarter{
		seed: seed,
		rand: distuv.NewCategorical(weights, source),
	}, nil
}

// NewSingleStarter returns a CategoricalStarter which always starts in
// state start of a total of states states
func NewSingleStarter(start, states int) (*CategoricalStarter, error) {
	if start < 0 || start >= states {
		return nil, fmt.Errorf("newSingleStarter: start state %d out of "+
			"range [0, %d)", start, states)
	}

	weights := make([]float64, states)
	weights[start] = 1.0
	return NewCategoricalStarter(weights, 0)
}

// Start returns a starting state index
func (c *CategoricalStarter) Start() int {
	return int(c.rand.Rand())
}
