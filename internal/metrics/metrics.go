package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"harvestSched/internal/opt"
)

// Metrics holds the search collectors on a dedicated registry.
type Metrics struct {
	Registry *prometheus.Registry

	// Runs counts finished searches by algorithm and stop reason
	Runs *prometheus.CounterVec
	// Iterations accumulates outer iterations per algorithm
	Iterations *prometheus.CounterVec
	// Fallbacks counts neighbors replaced by a fresh random schedule
	Fallbacks *prometheus.CounterVec
	// Duration records wall time of a search in seconds
	Duration *prometheus.HistogramVec
	// BestMakespan is the lowest makespan observed per algorithm
	BestMakespan *prometheus.GaugeVec

	best map[string]float64
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "harvest_search_runs_total", Help: "Finished searches by algorithm and stop reason."},
			[]string{"algo", "stopped"},
		),
		Iterations: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "harvest_search_iterations_total", Help: "Search iterations by algorithm."},
			[]string{"algo"},
		),
		Fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "harvest_search_fallbacks_total", Help: "Neighbors replaced by a random schedule."},
			[]string{"algo"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "harvest_search_duration_seconds", Help: "Search duration in seconds.", Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30}},
			[]string{"algo"},
		),
		BestMakespan: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "harvest_best_makespan", Help: "Best makespan observed by algorithm."},
			[]string{"algo"},
		),
		best: map[string]float64{},
	}
	m.Registry.MustRegister(m.Runs, m.Iterations, m.Fallbacks, m.Duration, m.BestMakespan)
	return m
}

// Observe records one finished search. Not safe for concurrent use.
func (m *Metrics) Observe(algo string, res opt.Result) {
	stopped, _ := res.Meta["stopped"].(string)
	m.Runs.WithLabelValues(algo, stopped).Inc()
	m.Iterations.WithLabelValues(algo).Add(float64(res.Iterations))
	m.Fallbacks.WithLabelValues(algo).Add(float64(res.Fallbacks))
	m.Duration.WithLabelValues(algo).Observe(res.Duration.Seconds())

	if res.Schedule == nil {
		return
	}
	if b, ok := m.best[algo]; !ok || res.Makespan < b {
		m.best[algo] = res.Makespan
		m.BestMakespan.WithLabelValues(algo).Set(res.Makespan)
	}
}

// WriteFile dumps the registry in the text exposition format.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
