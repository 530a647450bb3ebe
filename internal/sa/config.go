package sa

import (
	"fmt"
	"time"

	"harvestSched/internal/opt"
)

type Config struct {
	Iterations       int
	IterationsPerLot int

	TimeLimit time.Duration
	// Target останавливает поиск при достижении известного значения makespan.
	Target *float64

	InitialTemp float64
	FinalTemp   float64
	Alpha       float64

	// Swaps — количество перемещений лотов при построении соседа.
	Swaps int

	Trace bool
}

func DefaultConfig() Config {
	return Config{
		Iterations:       500,
		IterationsPerLot: 0,

		InitialTemp: 100.0,
		FinalTemp:   0.1,
		Alpha:       0.995,

		Swaps: 1,
	}
}

func (c Config) Validate() error {
	if c.Iterations < 0 || c.IterationsPerLot < 0 {
		return fmt.Errorf(
			"Iterations и IterationsPerLot должны быть >= 0 (получено %d, %d)",
			c.Iterations, c.IterationsPerLot,
		)
	}
	if err := c.budget(1).Validate(); err != nil {
		return err
	}
	if c.InitialTemp <= 0 {
		return fmt.Errorf(
			"InitialTemp должно быть > 0 (получено %f)",
			c.InitialTemp,
		)
	}
	if c.FinalTemp <= 0 {
		return fmt.Errorf(
			"FinalTemp должно быть > 0 (получено %f)",
			c.FinalTemp,
		)
	}
	if c.FinalTemp >= c.InitialTemp {
		return fmt.Errorf(
			"FinalTemp должно быть < InitialTemp (получено %f >= %f)",
			c.FinalTemp,
			c.InitialTemp,
		)
	}
	if c.Alpha <= 0 || c.Alpha >= 1 {
		return fmt.Errorf(
			"alpha должно лежать в интервале (0,1) (получено %f)",
			c.Alpha,
		)
	}
	if c.Swaps <= 0 {
		return fmt.Errorf(
			"Swaps должно быть > 0 (получено %d)",
			c.Swaps,
		)
	}
	return nil
}

// budget — ограничение по итерациям для экземпляра с lots лотами.
// Температурный порог ограничивает отжиг сам по себе, поэтому
// нулевой бюджет допустим.
func (c Config) budget(lots int) opt.Budget {
	iters := c.Iterations
	if iters <= 0 {
		iters = c.IterationsPerLot * lots
	}
	return opt.Budget{Iterations: iters, TimeLimit: c.TimeLimit, Target: c.Target}
}
