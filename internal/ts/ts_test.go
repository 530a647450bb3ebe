package ts

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

func TestTabuListEvictsOldest(t *testing.T) {
	tl := newTabuList(2)
	tl.Add("a")
	tl.Add("b")
	assert.True(t, tl.Contains("a"))
	assert.Equal(t, 2, tl.Len())

	tl.Add("c")
	assert.False(t, tl.Contains("a"))
	assert.True(t, tl.Contains("b"))
	assert.True(t, tl.Contains("c"))
	assert.Equal(t, 2, tl.Len())
}

func TestTabuListCountsDuplicates(t *testing.T) {
	tl := newTabuList(3)
	tl.Add("a")
	tl.Add("a")
	tl.Add("b")

	// one copy of "a" leaves, the other stays
	tl.Add("c")
	assert.True(t, tl.Contains("a"))

	tl.Add("d")
	assert.False(t, tl.Contains("a"))
	assert.True(t, tl.Contains("b"))
}

func TestAdmissible(t *testing.T) {
	tl := newTabuList(4)
	tl.Add("held")

	cases := []struct {
		name       string
		key        string
		cand, curr float64
		want       bool
	}{
		{"new and worse", "fresh", 9, 5, true},
		{"new and equal", "fresh", 5, 5, true},
		{"held and worse", "held", 9, 5, false},
		{"held and equal", "held", 5, 5, false},
		{"held and strictly better", "held", 4.5, 5, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, admissible(tl, tc.key, tc.cand, tc.curr))
		})
	}
}

func TestSolveSkipsHeldNeighborsAndAspires(t *testing.T) {
	// Two lots on one plot, two vehicles. Split schedules (one lot each,
	// makespan 3) only have merged neighbors (both lots on one vehicle,
	// makespan 5), of which there are four. A merged schedule has no
	// neighbor, so the fallback rebuilds a split one, which is strictly
	// better and accepted even when held in memory. From a split schedule
	// the fifth merged proposal at the latest repeats a held one and is
	// skipped.
	inst, err := harvest.NewInstance(2, 1, 1, []int{0, 0}, []float64{1, 1}, [][]float64{{0}}, 1)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Iterations = 60
	cfg.Memory = 20
	res := solve(t, cfg, inst, 5)
	require.NoError(t, harvest.Verify(inst, res.Schedule))

	assert.InDelta(t, 3.0, res.Makespan, 1e-12)
	assert.Zero(t, res.Convergence)
	assert.Positive(t, res.Fallbacks)
	assert.Greater(t, res.Meta["skipped"], 0)
	assert.Greater(t, res.Meta["aspiration"], 0)
}

func TestSolveKeepsBestNonIncreasing(t *testing.T) {
	inst := harvest.RandomInstance(24, 6, 4, 2, rand.New(rand.NewSource(5)))
	cfg := DefaultConfig()
	cfg.Iterations = 150
	cfg.Trace = true

	res := solve(t, cfg, inst, 12)
	require.NoError(t, harvest.Verify(inst, res.Schedule))

	assert.Equal(t, 150, res.Iterations)
	require.Len(t, res.Trace, 150)
	for i := 1; i < len(res.Trace); i++ {
		assert.LessOrEqual(t, res.Trace[i], res.Trace[i-1])
	}
}

func TestSolveSkipsRevisitedSchedules(t *testing.T) {
	// One lot, one vehicle: every fallback rebuilds the initial schedule,
	// which stays in memory and is never strictly better.
	inst, err := harvest.NewInstance(1, 1, 1, []int{0}, []float64{1}, [][]float64{{0}}, 1)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Iterations = 10
	res := solve(t, cfg, inst, 1)

	assert.Equal(t, 10, res.Iterations)
	assert.Equal(t, 10, res.Fallbacks)
	assert.Equal(t, 10, res.Meta["skipped"])
	assert.Zero(t, res.Convergence)
}

func TestSolveIsDeterministicForSeed(t *testing.T) {
	inst := harvest.SampleInstance()
	cfg := DefaultConfig()
	cfg.Iterations = 100

	a := solve(t, cfg, inst, 8)
	b := solve(t, cfg, inst, 8)
	assert.Equal(t, a.Schedule.Key(), b.Schedule.Key())
	assert.Equal(t, a.Meta["skipped"], b.Meta["skipped"])
}

func TestSolveStopsOnTargetAndContext(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Target = opt.Target(1e9)
	res := solve(t, cfg, harvest.SampleInstance(), 1)
	assert.Zero(t, res.Iterations)
	assert.Equal(t, opt.StopTarget, res.Meta["stopped"])

	s, err := New(DefaultConfig(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Solve(ctx, harvest.SampleInstance())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Memory = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Swaps = 0
	assert.Error(t, cfg.Validate())

	assert.Error(t, Config{Memory: 5, Swaps: 1}.Validate())
}
