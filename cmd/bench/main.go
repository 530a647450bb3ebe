package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"harvestSched/internal/bench"
	"harvestSched/internal/config"
	"harvestSched/internal/metrics"
	"harvestSched/internal/opt"
	"harvestSched/internal/rs"
	"harvestSched/internal/sa"
	"harvestSched/internal/ts"
)

// Фабрики

func newRSFactory(cfg rs.Config) func(seed int64) opt.Optimizer {
	return func(seed int64) opt.Optimizer {
		solver, _ := rs.New(cfg, rand.New(rand.NewSource(seed)))
		return solver
	}
}

func newSAFactory(cfg sa.Config) func(seed int64) opt.Optimizer {
	return func(seed int64) opt.Optimizer {
		solver, _ := sa.New(cfg, rand.New(rand.NewSource(seed)))
		return solver
	}
}

func newTSFactory(cfg ts.Config) func(seed int64) opt.Optimizer {
	return func(seed int64) opt.Optimizer {
		solver, _ := ts.New(cfg, rand.New(rand.NewSource(seed)))
		return solver
	}
}

func main() {
	// Переменные окружения из .env используются как значения флагов по умолчанию
	if err := godotenv.Load(); err != nil {
		log.Println("Файл .env не найден (используются переменные окружения)")
	}

	// CLI флаги для настройки параметров алгоритмов и политики запуска
	var (
		out          = flag.String("out", getEnv("HARVEST_OUT", "artifacts/results.csv"), "путь к выходному CSV-файлу")
		casesFlag    = flag.String("cases", getEnv("HARVEST_CASES", "8x3x3x2,30x6x4x2,60x10x6x3"), "конфигурации: лоты X участки X машины X погрузчики (через запятую)")
		configPath   = flag.String("config", getEnv("HARVEST_CONFIG", ""), "YAML-файл с экземпляром и параметрами поиска (заменяет -cases и параметры алгоритмов)")
		algos        = flag.String("algos", getEnv("HARVEST_ALGOS", "RS,SA,TS"), "список алгоритмов: RS, SA, TS (через запятую)")
		runs         = flag.Int("runs", getEnvInt("HARVEST_RUNS", 30), "количество запусков каждого алгоритма (с разными сидами)")
		baseSeed     = flag.Int64("seed", 1000, "базовый сид для запусков алгоритмов")
		instanceSeed = flag.Int64("instance_seed", 777, "базовый сид для генерации экземпляров задачи (фиксирован для конфигурации)")
		perRunTO     = flag.Duration("per_run_timeout", 0, "таймаут одного запуска; 0 — без ограничения")
		workers      = flag.Int("workers", getEnvInt("HARVEST_WORKERS", 1), "количество параллельных запусков")
		metricsOut   = flag.String("metrics_out", getEnv("HARVEST_METRICS_OUT", ""), "файл для метрик Prometheus (текстовый формат); пусто — не сохранять")

		// --- Общие ограничения поиска ---
		timeLimit = flag.Duration("time_limit", 0, "ограничение времени одного запуска; 0 — без ограничения")
		target    = flag.Float64("target", 0, "целевое значение makespan для ранней остановки; 0 — не задано")

		// --- Случайный поиск ---
		rsIterPerLot = flag.Int("rs_iter_per_lot", 50, "количество итераций на один лот (используется, если rs_iter == 0)")
		rsIter       = flag.Int("rs_iter", 0, "общее количество итераций (0 => rs_iter_per_lot × nLots)")

		// --- Алгоритм имитации отжига ---
		saIter  = flag.Int("sa_iter", 500, "общее количество итераций (0 — до достижения конечной температуры)")
		saT0    = flag.Float64("sa_t0", 100.0, "начальная температура")
		saTmin  = flag.Float64("sa_tmin", 0.1, "конечная температура")
		saAlpha = flag.Float64("sa_alpha", 0.995, "коэффициент охлаждения (alpha)")
		saSwaps = flag.Int("sa_swaps", 1, "количество перемещений лотов при построении соседа")

		// --- Табу-поиск ---
		tsIterPerLot = flag.Int("ts_iter_per_lot", 50, "количество итераций на один лот (используется, если ts_iter == 0)")
		tsIter       = flag.Int("ts_iter", 0, "общее количество итераций (0 => ts_iter_per_lot × nLots)")
		tsMemory     = flag.Int("ts_memory", 20, "ёмкость табу-памяти (количество решений)")
		tsSwaps      = flag.Int("ts_swaps", 1, "количество перемещений лотов при построении соседа")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var targetPtr *float64
	if *target > 0 {
		targetPtr = opt.Target(*target)
	}

	rsCfg := rs.Config{
		Iterations:       *rsIter,
		IterationsPerLot: *rsIterPerLot,
		TimeLimit:        *timeLimit,
		Target:           targetPtr,
	}
	saCfg := sa.Config{
		Iterations:  *saIter,
		TimeLimit:   *timeLimit,
		Target:      targetPtr,
		InitialTemp: *saT0,
		FinalTemp:   *saTmin,
		Alpha:       *saAlpha,
		Swaps:       *saSwaps,
	}
	tsCfg := ts.Config{
		Iterations:       *tsIter,
		IterationsPerLot: *tsIterPerLot,
		TimeLimit:        *timeLimit,
		Target:           targetPtr,
		Memory:           *tsMemory,
		Swaps:            *tsSwaps,
	}

	var cases []bench.Case
	if *configPath != "" {
		fileCfg, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Конфликт в файле конфигурации:", err)
			os.Exit(2)
		}
		inst, err := fileCfg.BuildInstance()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Конфликт в файле конфигурации:", err)
			os.Exit(2)
		}
		name := fileCfg.Name
		if name == "" {
			name = *configPath
		}
		cases = []bench.Case{{Name: name, Instance: inst, Reference: fileCfg.Instance.Reference}}
		rsCfg, saCfg, tsCfg = fileCfg.RS(), fileCfg.SA(), fileCfg.TS()
	} else {
		var err error
		cases, err = parseCases(*casesFlag, *instanceSeed)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Конфликт:", err)
			os.Exit(2)
		}
	}

	if err := rsCfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "Конфликт в конфигурации случайного поиска:", err)
		os.Exit(2)
	}
	if err := saCfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "Конфликт в конфигурации алгоритма имитации отжига:", err)
		os.Exit(2)
	}
	if err := tsCfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "Конфликт в конфигурации табу-поиска:", err)
		os.Exit(2)
	}

	available := map[string]bench.Algorithm{
		"RS": {Name: "RS", Factory: newRSFactory(rsCfg)},
		"SA": {Name: "SA", Factory: newSAFactory(saCfg)},
		"TS": {Name: "TS", Factory: newTSFactory(tsCfg)},
	}

	var selected []bench.Algorithm
	for _, a := range splitCSV(*algos) {
		al, ok := available[a]
		if !ok {
			fmt.Fprintf(os.Stderr, "Алгоритм не предоставлен в программе %q; доступные: %v\n", a, keys(available))
			os.Exit(2)
		}
		selected = append(selected, al)
	}

	m := metrics.New()
	runner := bench.Runner{
		Runs:          *runs,
		BaseSeed:      *baseSeed,
		PerRunTimeout: *perRunTO,
		Workers:       *workers,
		Batch:         uuid.NewString(),
		Metrics:       m,
	}
	log.Printf("Пакет запусков batch=%s", runner.Batch)

	started := time.Now()
	var records []bench.Record
	for _, c := range cases {
		for _, a := range selected {
			fmt.Printf("Запущен алгоритм %s; экземпляр %s (общее кол-во запусков=%d)...\n", a.Name, c.Label(), runner.Runs)

			rec, err := runner.RunCase(ctx, c, a)
			if err != nil {
				fmt.Fprintln(os.Stderr, "Ошибка:", err)
				os.Exit(1)
			}
			records = append(records, rec)

			fmt.Printf("  Значение целевой функции: лучшее=%.3f среднее=%.3f стандартное отклонение=%.3f | Сходимость: %.1f итераций | Время: среднее=%.2fms среднее отклонение=%.2fms\n",
				rec.MakespanBest, rec.MakespanMean, rec.MakespanStd,
				rec.ConvergenceMean,
				rec.TimeMeanMs, rec.TimeStdMs,
			)
		}
	}

	if err := bench.WriteCSV(*out, records); err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка при записи в CSV:", err)
		os.Exit(1)
	}
	if *metricsOut != "" {
		if err := m.WriteFile(*metricsOut); err != nil {
			fmt.Fprintln(os.Stderr, "Ошибка при записи метрик:", err)
			os.Exit(1)
		}
	}
	fmt.Printf("Saved: %s (%s)\n", *out, time.Since(started).Round(time.Millisecond))
}

// helpers

func parseCases(s string, baseInstanceSeed int64) ([]bench.Case, error) {
	parts := splitCSV(s)
	cases := make([]bench.Case, 0, len(parts))

	for i, p := range parts {
		dims := strings.Split(p, "x")
		if len(dims) != 4 {
			return nil, fmt.Errorf("конфигурация %q невалидной схемы, пример: 30x6x4x2", p)
		}
		var v [4]int
		for j, d := range dims {
			n, err := atoiStrict(d)
			if err != nil {
				return nil, fmt.Errorf("конфигурация %q: ошибка парсинга: %w", p, err)
			}
			if n <= 0 {
				return nil, fmt.Errorf("конфигурация %q: все значения должны быть > 0", p)
			}
			v[j] = n
		}
		if v[0] < v[1] {
			return nil, fmt.Errorf("конфигурация %q: лотов меньше, чем участков", p)
		}

		seed := baseInstanceSeed + int64(i)*10_000 + int64(v[0])*100 + int64(v[1])

		cases = append(cases, bench.Case{
			Lots:         v[0],
			Plots:        v[1],
			Vehicles:     v[2],
			Forklifts:    v[3],
			InstanceSeed: seed,
		})
	}

	return cases, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func atoiStrict(s string) (int, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	return v, nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v, err := atoiStrict(getEnv(key, ""))
	if err != nil {
		return def
	}
	return v
}

func keys(m map[string]bench.Algorithm) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
