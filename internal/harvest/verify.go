package harvest

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// ErrViolation marks a schedule that breaks a routing or timing invariant.
var ErrViolation = errors.New("schedule violation")

const eps = 1e-9

// Verify checks a finalized schedule against the instance: every lot served
// once, plots serviced by one forklift each, timings consistent with the
// travel chain, per-plot serialization and the makespan.
func Verify(inst *Instance, s *Schedule) error {
	if s == nil {
		return fmt.Errorf("%w: nil schedule", ErrViolation)
	}
	if !s.Closed {
		return fmt.Errorf("%w: routes are not closed", ErrViolation)
	}
	if len(s.Vehicles) != inst.Vehicles || len(s.Forklifts) != inst.Forklifts {
		return fmt.Errorf("%w: %d vehicle and %d forklift routes for %d/%d resources",
			ErrViolation, len(s.Vehicles), len(s.Forklifts), inst.Vehicles, inst.Forklifts)
	}

	seen := make([]int, inst.Lots)
	for k, route := range s.Vehicles {
		for i, lot := range route {
			if lot < 0 || lot >= inst.Lots {
				return fmt.Errorf("%w: vehicle %d visits unknown lot %d", ErrViolation, k, lot)
			}
			seen[lot]++
			if s.LotVehicle[lot] != k {
				return fmt.Errorf("%w: lot %d routed by vehicle %d but owned by %d", ErrViolation, lot, k, s.LotVehicle[lot])
			}
			want := inst.Outbound[lot]
			if i > 0 {
				prev := route[i-1]
				want = s.Start[prev] + inst.LoadTime + inst.Return[prev] + inst.Outbound[lot]
			}
			if !near(s.Arrival[lot], want) {
				return fmt.Errorf("%w: lot %d arrival %f, want %f", ErrViolation, lot, s.Arrival[lot], want)
			}
			if s.Wait[lot] < -eps || !near(s.Start[lot], s.Arrival[lot]+s.Wait[lot]) {
				return fmt.Errorf("%w: lot %d wait %f start %f arrival %f", ErrViolation, lot, s.Wait[lot], s.Start[lot], s.Arrival[lot])
			}
			if !near(s.Completion[lot], s.Start[lot]+inst.LoadTime) {
				return fmt.Errorf("%w: lot %d completion %f, want %f", ErrViolation, lot, s.Completion[lot], s.Start[lot]+inst.LoadTime)
			}
		}
	}
	for lot, n := range seen {
		if n != 1 {
			return fmt.Errorf("%w: lot %d served %d times", ErrViolation, lot, n)
		}
	}

	// Per plot: starts in service order, forklift ownership.
	starts := make([][]float64, inst.Plots)
	for lot, p := range inst.Plot {
		starts[p] = append(starts[p], s.Start[lot])
	}
	for p := range starts {
		slices.Sort(starts[p])
		for i := 1; i < len(starts[p]); i++ {
			if starts[p][i]-starts[p][i-1] < inst.LoadTime-eps {
				return fmt.Errorf("%w: plot %d services overlap (%f then %f)", ErrViolation, p, starts[p][i-1], starts[p][i])
			}
		}
	}

	visited := make([]int, inst.Plots)
	for f, route := range s.Forklifts {
		for i, p := range route {
			if p < 0 || p >= inst.Plots {
				return fmt.Errorf("%w: forklift %d visits unknown plot %d", ErrViolation, f, p)
			}
			visited[p]++
			if s.PlotForklift[p] != f {
				return fmt.Errorf("%w: plot %d routed by forklift %d but owned by %d", ErrViolation, p, f, s.PlotForklift[p])
			}
			if !near(s.PlotStart[p], starts[p][0]) {
				return fmt.Errorf("%w: plot %d start %f, first service at %f", ErrViolation, p, s.PlotStart[p], starts[p][0])
			}
			if i == 0 {
				continue
			}
			prev := route[i-1]
			ready := starts[prev][len(starts[prev])-1] + inst.LoadTime + inst.Displace(prev, p)
			if starts[p][0] < ready-eps {
				return fmt.Errorf("%w: forklift %d opens plot %d at %f before leaving plot %d (%f)", ErrViolation, f, p, starts[p][0], prev, ready)
			}
		}
	}
	for p, n := range visited {
		if n != 1 {
			return fmt.Errorf("%w: plot %d serviced by %d forklift visits", ErrViolation, p, n)
		}
	}

	ms := 0.0
	for _, c := range s.Completion {
		ms = math.Max(ms, c)
	}
	if !near(ms, s.Makespan) {
		return fmt.Errorf("%w: makespan %f, want %f", ErrViolation, s.Makespan, ms)
	}
	return nil
}

func near(a, b float64) bool {
	return math.Abs(a-b) <= eps*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}
