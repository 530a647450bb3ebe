package sa

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"harvestSched/internal/harvest"
	"harvestSched/internal/neighborhood"
	"harvestSched/internal/opt"
)

// Solver - структура реализации алгоритма имитации отжига
type Solver struct {
	Cfg Config
	Rng *rand.Rand
}

// New возвращает новый SA-солвер с валидацией конфигурации, с использованием инициализированного генератора случайных чисел.
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

// Solve — реализация эвристики.
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

	// Построитель расписаний и генератор соседей разделяют один поток случайных чисел
	builder, err := harvest.NewBuilder(inst, s.Rng)
	if err != nil {
		return opt.Result{}, err
	}
	gen, err := neighborhood.New(builder, s.Rng)
	if err != nil {
		return opt.Result{}, err
	}

	budget := s.Cfg.budget(inst.Lots)

	// Инициализация текущего решения
	curr, err := builder.Random()
	if err != nil {
		return opt.Result{}, err
	}
	best := curr
	convergence := 0

	evals := 1
	fallbacks := 0
	T := s.Cfg.InitialTemp

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
			Fallbacks:   fallbacks,
			Duration:    time.Since(start),
			Trace:       trace,
			Meta: map[string]any{
				"stopped":      stopped,
				"T":            T,
				"initial_temp": s.Cfg.InitialTemp,
				"final_temp":   s.Cfg.FinalTemp,
				"alpha":        s.Cfg.Alpha,
				"swaps":        s.Cfg.Swaps,
			},
		}
	}

	for {
		// Для поддержки отмены через context
		if err := ctx.Err(); err != nil {
			stopped = opt.StopContext
			return result(), err
		}
		if T <= s.Cfg.FinalTemp {
			stopped = opt.StopTemperature
			break
		}
		if reason, done := budget.Done(iter, start, best.Makespan); done {
			stopped = reason
			break
		}

		// Соседнее решение: перемещение лота между транспортными средствами.
		// Если сосед не найден, берётся новое случайное решение.
		cand, err := gen.Swap(curr, s.Cfg.Swaps)
		if errors.Is(err, neighborhood.ErrNeighborhoodExhausted) {
			fallbacks++
			cand, err = builder.Random()
		}
		if err != nil {
			return opt.Result{}, err
		}
		evals++

		delta := cand.Makespan - curr.Makespan
		accept := false
		if delta < 0 {
			// Улучшающее решение принимаем всегда
			accept = true
		} else {
			// Критерий Метрополиса:
			// допускает принятие ухудшающих решений
			p := math.Exp(-delta / T)
			if s.Rng.Float64() < p {
				accept = true
			}
		}

		if accept {
			curr = cand

			// Обновление глобально лучшего решения
			if curr.Makespan < best.Makespan {
				best = curr
				convergence = iter + 1
			}
		}

		// Охлаждение температуры
		T *= s.Cfg.Alpha
		iter++

		if s.Cfg.Trace {
			trace = append(trace, best.Makespan)
		}
	}

	return result(), nil
}
