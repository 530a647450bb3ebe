package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"harvestSched/internal/harvest"
	"harvestSched/internal/rs"
	"harvestSched/internal/sa"
	"harvestSched/internal/ts"
)

// ErrInvalidConfig marks a configuration file that fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds a problem instance and the search settings read from YAML.
type Config struct {
	Name     string   `yaml:"name"`
	Instance Instance `yaml:"instance"`
	Search   Search   `yaml:"search"`
}

type Instance struct {
	Vehicles  int     `yaml:"vehicles" validate:"min=1"`
	Forklifts int     `yaml:"forklifts" validate:"min=1"`
	LoadTime  float64 `yaml:"load_time" validate:"gte=0"`

	// ReturnFactor scales outbound times into return legs; 1.15 when omitted.
	ReturnFactor *float64    `yaml:"return_factor" validate:"omitempty,gte=0"`
	Lots         []Lot       `yaml:"lots" validate:"required,min=1,dive"`
	Displacement [][]float64 `yaml:"displacement" validate:"required,min=1,dive,required,dive,gte=0"`

	// Reference is a known makespan used to report the gap of a search.
	Reference *float64 `yaml:"reference" validate:"omitempty,gte=0"`
}

type Lot struct {
	Plot     int     `yaml:"plot" validate:"gte=0"`
	Outbound float64 `yaml:"outbound" validate:"gte=0"`
}

// Search settings shared by all drivers plus per-driver sections. A section
// without iterations and iterations_per_lot keeps the driver's default budget;
// when both are set the total wins.
type Search struct {
	TimeLimit time.Duration `yaml:"time_limit" validate:"gte=0"`
	Target    *float64      `yaml:"target" validate:"omitempty,gte=0"`

	RS RS `yaml:"rs"`
	SA SA `yaml:"sa"`
	TS TS `yaml:"ts"`
}

type RS struct {
	Iterations       int `yaml:"iterations" validate:"gte=0"`
	IterationsPerLot int `yaml:"iterations_per_lot" validate:"gte=0"`
}

type SA struct {
	Iterations       int     `yaml:"iterations" validate:"gte=0"`
	IterationsPerLot int     `yaml:"iterations_per_lot" validate:"gte=0"`
	InitialTemp      float64 `yaml:"initial_temp" validate:"gt=0"`
	FinalTemp        float64 `yaml:"final_temp" validate:"gt=0,ltfield=InitialTemp"`
	Alpha            float64 `yaml:"alpha" validate:"gt=0,lt=1"`
	Swaps            int     `yaml:"swaps" validate:"min=1"`
}

type TS struct {
	Iterations       int `yaml:"iterations" validate:"gte=0"`
	IterationsPerLot int `yaml:"iterations_per_lot" validate:"gte=0"`
	Memory           int `yaml:"memory" validate:"min=1"`
	Swaps            int `yaml:"swaps" validate:"min=1"`
}

// Default returns the search settings of the drivers' default configs.
// Keys missing from a file keep these values. Iteration budgets stay zero
// here and fall back to the driver defaults on conversion.
func Default() Config {
	s, t := sa.DefaultConfig(), ts.DefaultConfig()
	return Config{
		Search: Search{
			SA: SA{
				InitialTemp: s.InitialTemp,
				FinalTemp:   s.FinalTemp,
				Alpha:       s.Alpha,
				Swaps:       s.Swaps,
			},
			TS: TS{
				Memory: t.Memory,
				Swaps:  t.Swaps,
			},
		},
	}
}

// Load reads a YAML config file from the given path and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return c.Instance.checkPartition()
}

// checkPartition verifies that plots partition the lots: the displacement
// matrix is square and every plot holds at least one lot.
func (in Instance) checkPartition() error {
	plots := len(in.Displacement)
	for p, row := range in.Displacement {
		if len(row) != plots {
			return fmt.Errorf("%w: displacement row %d has %d entries, want %d", ErrInvalidConfig, p, len(row), plots)
		}
	}
	sizes := make([]int, plots)
	for i, lot := range in.Lots {
		if lot.Plot >= plots {
			return fmt.Errorf("%w: lot %d on plot %d, only %d plots", ErrInvalidConfig, i, lot.Plot, plots)
		}
		sizes[lot.Plot]++
	}
	for p, n := range sizes {
		if n == 0 {
			return fmt.Errorf("%w: plot %d has no lots", ErrInvalidConfig, p)
		}
	}
	return nil
}

// BuildInstance converts the instance record into a validated harvest.Instance.
func (c *Config) BuildInstance() (*harvest.Instance, error) {
	in := c.Instance
	plotOf := make([]int, len(in.Lots))
	outbound := make([]float64, len(in.Lots))
	for i, lot := range in.Lots {
		plotOf[i] = lot.Plot
		outbound[i] = lot.Outbound
	}
	factor := harvest.DefaultReturnFactor
	if in.ReturnFactor != nil {
		factor = *in.ReturnFactor
	}
	return harvest.NewInstance(in.Vehicles, in.Forklifts, in.LoadTime, plotOf, outbound, in.Displacement, factor)
}

// iterations returns the file's budget, or the driver default when the file
// sets none.
func iterations(total, perLot, defTotal, defPerLot int) (int, int) {
	if total > 0 || perLot > 0 {
		return total, perLot
	}
	return defTotal, defPerLot
}

func (c *Config) RS() rs.Config {
	cfg := rs.DefaultConfig()
	cfg.Iterations, cfg.IterationsPerLot = iterations(c.Search.RS.Iterations, c.Search.RS.IterationsPerLot, cfg.Iterations, cfg.IterationsPerLot)
	cfg.TimeLimit = c.Search.TimeLimit
	cfg.Target = c.Search.Target
	return cfg
}

func (c *Config) SA() sa.Config {
	s := c.Search.SA
	cfg := sa.DefaultConfig()
	cfg.Iterations, cfg.IterationsPerLot = iterations(s.Iterations, s.IterationsPerLot, cfg.Iterations, cfg.IterationsPerLot)
	cfg.InitialTemp = s.InitialTemp
	cfg.FinalTemp = s.FinalTemp
	cfg.Alpha = s.Alpha
	cfg.Swaps = s.Swaps
	cfg.TimeLimit = c.Search.TimeLimit
	cfg.Target = c.Search.Target
	return cfg
}

func (c *Config) TS() ts.Config {
	s := c.Search.TS
	cfg := ts.DefaultConfig()
	cfg.Iterations, cfg.IterationsPerLot = iterations(s.Iterations, s.IterationsPerLot, cfg.Iterations, cfg.IterationsPerLot)
	cfg.Memory = s.Memory
	cfg.Swaps = s.Swaps
	cfg.TimeLimit = c.Search.TimeLimit
	cfg.Target = c.Search.Target
	return cfg
}
