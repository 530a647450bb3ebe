package ts

import (
	"fmt"
	"time"

	"harvestSched/internal/opt"
)

type Config struct {
	Iterations       int
	IterationsPerLot int

	TimeLimit time.Duration
	Target    *float64

	// Memory — ёмкость табу-памяти (количество последних решений).
	Memory int

	Swaps int

	Trace bool
}

func DefaultConfig() Config {
	return Config{
		Iterations:       0,
		IterationsPerLot: 50,

		Memory: 20,
		Swaps:  1,
	}
}

func (c Config) Validate() error {
	if c.Iterations < 0 || c.IterationsPerLot < 0 {
		return fmt.Errorf(
			"Iterations и IterationsPerLot должны быть >= 0 (получено %d, %d)",
			c.Iterations, c.IterationsPerLot,
		)
	}
	b := c.budget(1)
	if err := b.Validate(); err != nil {
		return err
	}
	if !b.Bounded() {
		return fmt.Errorf(
			"должно быть задано Iterations > 0, IterationsPerLot > 0 или TimeLimit > 0",
		)
	}
	if c.Memory <= 0 {
		return fmt.Errorf(
			"Memory должно быть > 0 (получено %d)",
			c.Memory,
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

func (c Config) budget(lots int) opt.Budget {
	iters := c.Iterations
	if iters <= 0 {
		iters = c.IterationsPerLot * lots
	}
	return opt.Budget{Iterations: iters, TimeLimit: c.TimeLimit, Target: c.Target}
}
