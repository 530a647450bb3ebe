package rs

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"harvestSched/internal/harvest"
	"harvestSched/internal/opt"
)

func solve(t *testing.T, cfg Config, inst *harvest.Instance, seed int64) opt.Result {
	t.Helper()
	s, err := New(cfg, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	res, err := s.Solve(context.Background(), inst)
	require.NoError(t, err)
	return res
}

func TestSolveKeepsBestNonIncreasing(t *testing.T) {
	inst := harvest.RandomInstance(20, 5, 3, 2, rand.New(rand.NewSource(1)))
	cfg := Config{Iterations: 60, Trace: true}

	res := solve(t, cfg, inst, 3)
	require.NoError(t, harvest.Verify(inst, res.Schedule))

	assert.Equal(t, 60, res.Iterations)
	assert.Equal(t, 61, res.Evaluations)
	assert.Equal(t, opt.StopIterations, res.Meta["stopped"])
	require.Len(t, res.Trace, 60)
	for i := 1; i < len(res.Trace); i++ {
		assert.LessOrEqual(t, res.Trace[i], res.Trace[i-1])
	}
	assert.Equal(t, res.Makespan, res.Trace[len(res.Trace)-1])
	assert.LessOrEqual(t, res.Convergence, res.Iterations)
}

func TestSolveIsDeterministicForSeed(t *testing.T) {
	inst := harvest.SampleInstance()
	cfg := Config{IterationsPerLot: 10}

	a := solve(t, cfg, inst, 17)
	b := solve(t, cfg, inst, 17)
	assert.Equal(t, a.Schedule.Key(), b.Schedule.Key())
	assert.Equal(t, 80, a.Iterations)
}

func TestSolveStopsOnTarget(t *testing.T) {
	inst := harvest.SampleInstance()
	res := solve(t, Config{Iterations: 1000, Target: opt.Target(1e9)}, inst, 1)

	assert.Zero(t, res.Iterations)
	assert.Equal(t, opt.StopTarget, res.Meta["stopped"])
	assert.NotNil(t, res.Schedule)
}

func TestSolveHonorsCancelledContext(t *testing.T) {
	s, err := New(DefaultConfig(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := s.Solve(ctx, harvest.SampleInstance())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, opt.StopContext, res.Meta["stopped"])
	assert.NotNil(t, res.Schedule)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, Config{}.Validate())
	assert.Error(t, Config{Iterations: -1}.Validate())

	_, err := New(DefaultConfig(), nil)
	assert.Error(t, err)
}
