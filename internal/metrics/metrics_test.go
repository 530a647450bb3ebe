package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"harvestSched/internal/harvest"
	"harvestSched/internal/opt"
)

func result(makespan float64, iters int, stopped string) opt.Result {
	return opt.Result{
		Schedule:   &harvest.Schedule{Makespan: makespan},
		Makespan:   makespan,
		Iterations: iters,
		Fallbacks:  1,
		Duration:   20 * time.Millisecond,
		Meta:       map[string]any{"stopped": stopped},
	}
}

func TestObserveAccumulates(t *testing.T) {
	m := New()
	m.Observe("SA", result(12, 100, opt.StopIterations))
	m.Observe("SA", result(9, 50, opt.StopTemperature))
	m.Observe("SA", result(11, 10, opt.StopIterations))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Runs.WithLabelValues("SA", opt.StopIterations)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("SA", opt.StopTemperature)))
	assert.Equal(t, 160.0, testutil.ToFloat64(m.Iterations.WithLabelValues("SA")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Fallbacks.WithLabelValues("SA")))
	assert.Equal(t, 9.0, testutil.ToFloat64(m.BestMakespan.WithLabelValues("SA")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Duration))
}

func TestWriteFile(t *testing.T) {
	m := New()
	m.Observe("TS", result(7, 5, opt.StopTarget))

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, m.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `harvest_best_makespan{algo="TS"} 7`)
	assert.Contains(t, string(data), "harvest_search_runs_total")
}
