package bench

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"harvestSched/internal/harvest"
	"harvestSched/internal/metrics"
	"harvestSched/internal/opt"
)

type Algorithm struct {
	Name    string
	Factory func(seed int64) opt.Optimizer
}

// Case is either a random instance generated from its dimensions and seed,
// or a fixed Instance (loaded from a config file).
type Case struct {
	Name string

	Lots         int
	Plots        int
	Vehicles     int
	Forklifts    int
	InstanceSeed int64

	Instance *harvest.Instance
	// Reference is a known makespan; when set the record carries the gap.
	Reference *float64
}

func (c Case) instance() (*harvest.Instance, error) {
	if c.Instance != nil {
		return c.Instance, c.Instance.Validate()
	}
	if c.Lots <= 0 || c.Plots <= 0 || c.Vehicles <= 0 || c.Forklifts <= 0 {
		return nil, fmt.Errorf("case %s: all dimensions must be > 0", c.Label())
	}
	if c.Lots < c.Plots {
		return nil, fmt.Errorf("case %s: %d lots cannot cover %d plots", c.Label(), c.Lots, c.Plots)
	}
	return harvest.RandomInstance(c.Lots, c.Plots, c.Vehicles, c.Forklifts, rand.New(rand.NewSource(c.InstanceSeed))), nil
}

func (c Case) Label() string {
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("%dx%dx%dx%d", c.Lots, c.Plots, c.Vehicles, c.Forklifts)
}

type Record struct {
	Batch     string
	Algo      string
	Case      string
	Lots      int
	Plots     int
	Vehicles  int
	Forklifts int
	Runs      int

	TimeBestMs float64
	TimeMeanMs float64
	TimeStdMs  float64

	MakespanBest float64
	MakespanMean float64
	MakespanStd  float64

	ConvergenceMean float64
	IterationsMean  float64
	Fallbacks       int

	// GapPct is (best - reference) / reference * 100; NaN without reference.
	Reference float64
	GapPct    float64
}

type Runner struct {
	Runs          int
	BaseSeed      int64
	PerRunTimeout time.Duration // 0 = no timeout
	// Workers bounds concurrent runs; <= 0 runs them one by one.
	Workers int
	Batch   string
	Metrics *metrics.Metrics // optional
}

func (r Runner) RunCase(ctx context.Context, c Case, algo Algorithm) (Record, error) {
	if r.Runs <= 0 {
		return Record{}, fmt.Errorf("runs must be > 0 (got %d)", r.Runs)
	}
	inst, err := c.instance()
	if err != nil {
		return Record{}, err
	}
	batch := r.Batch
	if batch == "" {
		batch = uuid.NewString()
	}

	results := make([]opt.Result, r.Runs)
	timesMs := make([]float64, r.Runs)

	g, gctx := errgroup.WithContext(ctx)
	workers := r.Workers
	if workers <= 0 {
		workers = 1
	}
	g.SetLimit(workers)

	for i := 0; i < r.Runs; i++ {
		i := i // per-iteration copy; go directive is 1.21 (pre-loopvar semantics)
		runSeed := r.BaseSeed + int64(i)

		g.Go(func() error {
			op := algo.Factory(runSeed)

			runCtx := gctx
			cancel := func() {}
			if r.PerRunTimeout > 0 {
				runCtx, cancel = context.WithTimeout(gctx, r.PerRunTimeout)
			}
			start := time.Now()
			res, err := op.Solve(runCtx, inst)
			dur := time.Since(start)
			cancel()

			if err != nil && runCtx.Err() != nil {
				return fmt.Errorf("run %d: cancelled/timeout: %w", i, err)
			}
			if err != nil {
				return fmt.Errorf("run %d: solve error: %w", i, err)
			}
			if err := harvest.Verify(inst, res.Schedule); err != nil {
				return fmt.Errorf("run %d: invalid schedule: %w", i, err)
			}

			results[i] = res
			timesMs[i] = float64(dur.Microseconds()) / 1000.0
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Record{}, err
	}

	fallbacks := 0
	for _, res := range results {
		fallbacks += res.Fallbacks
		if r.Metrics != nil {
			r.Metrics.Observe(algo.Name, res)
		}
	}

	msStats := Summarize(column(results, func(res opt.Result) float64 { return res.Makespan }))
	tStats := Summarize(timesMs)

	rec := Record{
		Batch:     batch,
		Algo:      algo.Name,
		Case:      c.Label(),
		Lots:      inst.Lots,
		Plots:     inst.Plots,
		Vehicles:  inst.Vehicles,
		Forklifts: inst.Forklifts,
		Runs:      r.Runs,

		TimeBestMs: tStats.Best,
		TimeMeanMs: tStats.Mean,
		TimeStdMs:  tStats.Std,

		MakespanBest: msStats.Best,
		MakespanMean: msStats.Mean,
		MakespanStd:  msStats.Std,

		ConvergenceMean: Summarize(column(results, func(res opt.Result) int { return res.Convergence })).Mean,
		IterationsMean:  Summarize(column(results, func(res opt.Result) int { return res.Iterations })).Mean,
		Fallbacks:       fallbacks,

		Reference: math.NaN(),
		GapPct:    math.NaN(),
	}
	if c.Reference != nil && *c.Reference > 0 {
		rec.Reference = *c.Reference
		rec.GapPct = (rec.MakespanBest - rec.Reference) / rec.Reference * 100
	}

	log.Printf("bench: batch=%s algo=%s case=%s runs=%d best=%.3f mean=%.3f conv=%.1f",
		rec.Batch, rec.Algo, rec.Case, rec.Runs, rec.MakespanBest, rec.MakespanMean, rec.ConvergenceMean)

	return rec, nil
}
