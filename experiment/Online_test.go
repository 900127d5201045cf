package experiment

import (
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/streamlearn/agent/streamtd"
	"github.com/samuelfneumann/streamlearn/environment/randomwalk"
	"github.com/samuelfneumann/streamlearn/experiment/tracker"
	"github.com/samuelfneumann/streamlearn/solver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnlineRandomWalk(t *testing.T) {
	c := randomwalk.Config{States: 5, LeftReward: 0, RightReward: 1,
		Discount: 1}
	env, _, err := randomwalk.New(c, nil, 12)
	require.NoError(t, err)

	vf, err := streamtd.NewLinear(c.States)
	require.NoError(t, err)

	opt, err := solver.NewObGD(vf.Params(), 0.1, 0.9, 0.8, 2.0)
	require.NoError(t, err)

	learner, err := streamtd.New(vf, opt)
	require.NoError(t, err)

	dir := t.TempDir()
	returns := tracker.NewReturn(filepath.Join(dir, "return.bin"))
	lengths := tracker.NewEpisodeLength(filepath.Join(dir, "length.bin"))
	tdErrors := tracker.NewTdError(filepath.Join(dir, "tderror.bin"),
		learner)
	valueErrors, err := tracker.NewValueError(
		filepath.Join(dir, "valueerror.bin"), learner, env.Observations(),
		env.Values())
	require.NoError(t, err)

	initial, err := valueErrors.RMSVE()
	require.NoError(t, err)

	exp := NewOnline(env, learner, 5000, returns, lengths, tdErrors)
	exp.Register(valueErrors)
	require.NoError(t, exp.Run())
	assert.Equal(t, uint(5000), exp.Steps())

	episodes := len(returns.Data())
	require.Greater(t, episodes, 0)
	assert.Len(t, lengths.Data(), episodes)
	assert.Len(t, tdErrors.Data(), episodes)
	assert.Len(t, valueErrors.Data(), episodes)

	for i := range returns.Data() {
		assert.Contains(t, []float64{0, 1}, returns.Data()[i])
		assert.GreaterOrEqual(t, lengths.Data()[i], 3.0)
	}

	final, err := valueErrors.RMSVE()
	require.NoError(t, err)
	assert.Less(t, final, initial)
	assert.Less(t, final, 0.25)

	require.NoError(t, exp.Save())
	data, err := tracker.LoadData(filepath.Join(dir, "return.bin"))
	require.NoError(t, err)
	assert.Equal(t, returns.Data(), data)
}

func TestOnlineStepLimit(t *testing.T) {
	c := randomwalk.Config{States: 101, RightReward: 1, Discount: 1}
	env, _, err := randomwalk.New(c, nil, 3)
	require.NoError(t, err)

	vf, err := streamtd.NewLinear(c.States)
	require.NoError(t, err)

	opt, err := solver.NewDefaultAdaptiveObGD(vf.Params())
	require.NoError(t, err)

	learner, err := streamtd.New(vf, opt)
	require.NoError(t, err)

	// Episodes take at least 51 steps, so the limit is reached first
	exp := NewOnline(env, learner, 10)
	ended, err := exp.RunEpisode()
	require.NoError(t, err)
	assert.True(t, ended)
	assert.Equal(t, 10, opt.Counter())
}
