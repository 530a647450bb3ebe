package opt

import (
	"context"
	"fmt"
	"time"

	"harvestSched/internal/harvest"
)

type Optimizer interface {
	Solve(ctx context.Context, inst *harvest.Instance) (Result, error)
}

type Result struct {
	Schedule *harvest.Schedule
	Makespan float64
	// Iterations actually run; Convergence is the iteration of the last
	// improvement of the best schedule (0 = initial schedule).
	Iterations  int
	Convergence int
	Evaluations int
	// Fallbacks counts neighbors replaced by a fresh random build.
	Fallbacks int
	Duration  time.Duration
	// Trace holds the best makespan after every iteration when the driver
	// was asked to record it.
	Trace []float64
	Meta  map[string]any
}

// Stop reasons reported in Result.Meta["stopped"].
const (
	StopIterations  = "iterations"
	StopTime        = "time"
	StopTarget      = "target"
	StopTemperature = "temperature"
	StopContext     = "context"
)

// Budget is the termination condition shared by all drivers. Zero fields are
// unlimited.
type Budget struct {
	Iterations int
	TimeLimit  time.Duration
	// Target stops the run once the best makespan is <= *Target. Used to
	// calibrate against a known reference value.
	Target *float64
}

func (b Budget) Validate() error {
	if b.Iterations < 0 {
		return fmt.Errorf("iterations must be >= 0 (got %d)", b.Iterations)
	}
	if b.TimeLimit < 0 {
		return fmt.Errorf("time limit must be >= 0 (got %s)", b.TimeLimit)
	}
	if b.Target != nil && *b.Target < 0 {
		return fmt.Errorf("target must be >= 0 (got %f)", *b.Target)
	}
	return nil
}

// Bounded reports whether the budget alone guarantees termination.
func (b Budget) Bounded() bool {
	return b.Iterations > 0 || b.TimeLimit > 0
}

// Done reports whether the run must stop before iteration iter, and why.
func (b Budget) Done(iter int, start time.Time, best float64) (string, bool) {
	if b.Target != nil && best <= *b.Target {
		return StopTarget, true
	}
	if b.Iterations > 0 && iter >= b.Iterations {
		return StopIterations, true
	}
	if b.TimeLimit > 0 && time.Since(start) >= b.TimeLimit {
		return StopTime, true
	}
	return "", false
}

// Target returns a pointer usable as Budget.Target.
func Target(v float64) *float64 { return &v }
