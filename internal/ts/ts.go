package ts

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"harvestSched/internal/harvest"
	"harvestSched/internal/neighborhood"
	"harvestSched/internal/opt"
)

// Solver - структура реализации табу-поиска.
type Solver struct {
	Cfg Config
	Rng *rand.Rand
}

// New возвращает новый TS-солвер с валидацией конфигурации, с использованием инициализированного генератора случайных чисел.
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

	// Валидация входных данных
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
	gen, err := neighborhood.New(builder, s.Rng)
	if err != nil {
		return opt.Result{}, err
	}
	budget := s.Cfg.budget(inst.Lots)

	// Инициализация начального решения
	curr, err := builder.Random()
	if err != nil {
		return opt.Result{}, err
	}

	// Табу-память хранит последние принятые решения
	tabu := newTabuList(s.Cfg.Memory)
	tabu.Add(curr.Key())

	// Глобально лучшее решение
	best := curr
	convergence := 0

	evals := 1
	fallbacks := 0
	skipped := 0
	aspiration := 0

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
				"stopped":    stopped,
				"memory":     s.Cfg.Memory,
				"swaps":      s.Cfg.Swaps,
				"skipped":    skipped,
				"aspiration": aspiration,
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

		cand, err := gen.Swap(curr, s.Cfg.Swaps)
		if errors.Is(err, neighborhood.ErrNeighborhoodExhausted) {
			fallbacks++
			cand, err = builder.Random()
		}
		if err != nil {
			return opt.Result{}, err
		}
		evals++
		iter++

		// Решение из табу-памяти пропускается,
		// если оно не лучше текущего (критерий аспирации)
		key := cand.Key()
		if !admissible(tabu, key, cand.Makespan, curr.Makespan) {
			skipped++
		} else {
			if tabu.Contains(key) {
				aspiration++
			}
			curr = cand
			tabu.Add(key)

			// Обновление глобально лучшего решения
			if curr.Makespan < best.Makespan {
				best = curr
				convergence = iter
			}
		}

		if s.Cfg.Trace {
			trace = append(trace, best.Makespan)
		}
	}

	return result(), nil
}

// admissible проверяет, может ли кандидат заменить текущее решение:
// решение из памяти допускается только при строгом улучшении.
func admissible(t *tabuList, key string, cand, curr float64) bool {
	return !t.Contains(key) || cand < curr
}

// tabuList — FIFO-память фиксированной ёмкости.
// Реализована как кольцевой буфер с map для быстрой проверки.
type tabuList struct {
	m    map[string]int // ключ → количество вхождений в буфере
	key  []string       // кольцевой буфер ключей
	i    int            // позиция самого старого элемента
	size int
}

// newTabuList создаёт табу-список заданной ёмкости.
func newTabuList(capacity int) *tabuList {
	return &tabuList{
		m:   make(map[string]int, capacity),
		key: make([]string, capacity),
	}
}

// Contains проверяет, находится ли решение в памяти.
func (t *tabuList) Contains(k string) bool {
	return t.m[k] > 0
}

// Add добавляет решение; при переполнении вытесняется самое старое.
func (t *tabuList) Add(k string) {
	if t.size == len(t.key) {
		old := t.key[t.i]
		if t.m[old]--; t.m[old] == 0 {
			delete(t.m, old)
		}
		t.key[t.i] = k
		t.i = (t.i + 1) % len(t.key)
	} else {
		t.key[(t.i+t.size)%len(t.key)] = k
		t.size++
	}
	t.m[k]++
}

// Len возвращает количество решений в памяти.
func (t *tabuList) Len() int { return t.size }
