package rs

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"harvestSched/internal/harvest"
	"harvestSched/internal/opt"
)

// Solver - реализация случайного поиска: каждое решение строится заново.
type Solver struct {
	Cfg Config
	Rng *rand.Rand
}

// New возвращает новый RS-солвер с валидацией конфигурации.
// Используется в фабриках.
func New(cfg Config, rng *rand.Rand) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("генератор случайных чисел не инициализирован (nil)")
	}
	return &Solver{Cfg: cfg, Rng: rng}, nil
}

// Solve — основной цикл алгоритма
func (s *Solver) Solve(ctx context.Context, inst *harvest.Instance) (opt.Result, error) {
	start := time.Now()

	if err := inst.Validate(); err != nil {
		return opt.Result{}, err
	}
	if err := s.Cfg.Validate(); err != nil {
		return opt.Result{}, err
	}
	if s.Rng == nil {
		return opt.Result{}, fmt.Errorf("генератор случайных чисел не инициализирован (nil)")
	}

	builder, err := harvest.NewBuilder(inst, s.Rng)
	if err != nil {
		return opt.Result{}, err
	}
	budget := s.Cfg.budget(inst.Lots)

	best, err := builder.Random()
	if err != nil {
		return opt.Result{}, err
	}
	convergence := 0
	evals := 1

	var trace []float64
	iter := 0
	stopped := ""

	result := func() opt.Result {
		return opt.Result{
			Schedule:    best,
			Makespan:    best.Makespan,
			Iterations:  iter,
			Convergence: convergence,
			Evaluations: evals,
			Duration:    time.Since(start),
			Trace:       trace,
			Meta: map[string]any{
				"stopped": stopped,
			},
		}
	}

	for {
		// Для поддержки отмены через context
		if err := ctx.Err(); err != nil {
			stopped = opt.StopContext
			return result(), err
		}
		if reason, done := budget.Done(iter, start, best.Makespan); done {
			stopped = reason
			break
		}

		cand, err := builder.Random()
		if err != nil {
			return opt.Result{}, err
		}
		evals++
		iter++

		// Лучшее решение обновляется только при строгом улучшении
		if cand.Makespan < best.Makespan {
			best = cand
			convergence = iter
		}
		if s.Cfg.Trace {
			trace = append(trace, best.Makespan)
		}
	}

	return result(), nil
}
