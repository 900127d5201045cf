package randomwalk

import (
	"testing"

	"github.com/samuelfneumann/streamlearn/environment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func defaultConfig() Config {
	return Config{States: 5, LeftReward: 0, RightReward: 1, Discount: 1}
}

func TestValues(t *testing.T) {
	r, _, err := New(defaultConfig(), nil, 1)
	require.NoError(t, err)

	want := []float64{1.0 / 6, 2.0 / 6, 3.0 / 6, 4.0 / 6, 5.0 / 6}
	assert.InDeltaSlice(t, want, r.Values(), 1e-10)
}

func TestValuesDiscounted(t *testing.T) {
	c := Config{States: 1, LeftReward: -1, RightReward: 1, Discount: 0.5}
	r, _, err := New(c, nil, 1)
	require.NoError(t, err)

	// A single state always terminates on the next step
	assert.InDeltaSlice(t, []float64{0}, r.Values(), 1e-12)

	c = Config{States: 2, LeftReward: 0, RightReward: 1, Discount: 0.5}
	r, _, err = New(c, nil, 1)
	require.NoError(t, err)

	// v0 = 0.25·v1, v1 = 0.5 + 0.25·v0
	v1 := 0.5 / (1 - 0.25*0.25)
	assert.InDeltaSlice(t, []float64{0.25 * v1, v1}, r.Values(), 1e-12)
}

func TestEpisode(t *testing.T) {
	r, step, err := New(defaultConfig(), nil, 42)
	require.NoError(t, err)

	require.True(t, step.First())
	assert.Equal(t, 2, r.State())
	assert.Equal(t, 1.0, mat.Sum(step.Observation))
	assert.Equal(t, 1.0, step.Observation.AtVec(2))

	last := false
	for n := 1; !last; n++ {
		require.Less(t, n, 10_000, "episode did not terminate")

		prev := r.State()
		step, last, err = r.Step()
		require.NoError(t, err)
		assert.Equal(t, n, step.Number)
		assert.Equal(t, 1.0, step.Discount)

		if !last {
			assert.True(t, step.Mid())
			assert.Equal(t, 0.0, step.Reward)
			assert.Equal(t, 1.0, mat.Sum(step.Observation))
			assert.Equal(t, 1, abs(r.State()-prev))
			continue
		}

		assert.True(t, step.Last())
		assert.Equal(t, -1, r.State())
		assert.Equal(t, 0.0, mat.Sum(step.Observation))
		if prev == 0 {
			assert.Equal(t, 0.0, step.Reward)
		} else {
			assert.Equal(t, 4, prev)
			assert.Equal(t, 1.0, step.Reward)
		}
	}

	_, _, err = r.Step()
	assert.Error(t, err)

	step, err = r.Reset()
	require.NoError(t, err)
	assert.True(t, step.First())
	assert.Equal(t, 2, r.State())
}

func TestEpisodeStepLimit(t *testing.T) {
	c := defaultConfig()
	c.States = 11
	c.EpisodeSteps = 3

	r, _, err := New(c, nil, 7)
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		step, last, err := r.Step()
		require.NoError(t, err)
		assert.Equal(t, i == 3, last)
		assert.Equal(t, i == 3, step.Last())
	}

	// Truncated episodes keep the observation of the final state
	assert.Equal(t, 1.0, mat.Sum(r.LastTimeStep().Observation))
}

func TestStarter(t *testing.T) {
	s, err := environment.NewCategoricalStarter([]float64{0, 1, 0, 1, 0}, 3)
	require.NoError(t, err)

	r, _, err := New(defaultConfig(), s, 3)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		_, err := r.Reset()
		require.NoError(t, err)
		assert.Contains(t, []int{1, 3}, r.State())
	}

	s, err = environment.NewSingleStarter(9, 10)
	require.NoError(t, err)
	_, _, err = New(defaultConfig(), s, 3)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []Config{
		{States: 0, Discount: 1},
		{States: 3, Discount: 1.5},
		{States: 3, Discount: 1, EpisodeSteps: -1},
	}

	for _, c := range tests {
		_, _, err := New(c, nil, 0)
		assert.Error(t, err)
	}
}

func TestSpecs(t *testing.T) {
	r, _, err := New(Config{States: 4, LeftReward: -1, RightReward: 1,
		Discount: 0.9}, nil, 0)
	require.NoError(t, err)

	obs := r.ObservationSpec()
	assert.Equal(t, 4, obs.Features())
	assert.Equal(t, environment.Observation, obs.Type)
	assert.Equal(t, 4.0, floats.Sum(mat.Col(nil, 0, obs.UpperBound)))

	rew := r.RewardSpec()
	assert.Equal(t, -1.0, rew.LowerBound.AtVec(0))
	assert.Equal(t, 1.0, rew.UpperBound.AtVec(0))
	assert.Equal(t, 0.9, r.DiscountSpec().LowerBound.AtVec(0))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
