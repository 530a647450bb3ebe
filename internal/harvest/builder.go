package harvest

import (
	"cmp"
	"fmt"
	"math"
	"math/rand"
	"slices"
)

// Builder constructs feasible schedules for one instance. A Builder owns its
// random stream and must not be shared between goroutines.
type Builder struct {
	inst *Instance
	rng  *rand.Rand
}

// Order pins the lot sequence of every vehicle. Forklifts optionally names the
// forklift preferred for each plot (-1 for no preference).
type Order struct {
	Vehicles  [][]int
	Forklifts []int
}

func NewBuilder(inst *Instance, rng *rand.Rand) (*Builder, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("random generator is nil")
	}
	return &Builder{inst: inst, rng: rng}, nil
}

func (b *Builder) Instance() *Instance { return b.inst }

// Random assigns every lot by repeated random choice, balancing load over the
// vehicles.
func (b *Builder) Random() (*Schedule, error) {
	c := b.begin()

	pool := make([]int, b.inst.Lots)
	for i := range pool {
		pool[i] = i
	}
	vehicles := make([]int, b.inst.Vehicles)
	for k := range vehicles {
		vehicles[k] = k
	}

	for len(pool) > 0 {
		c.balance(vehicles)
		k := vehicles[0]

		// Lots are drawn without replacement so each retry tries a new one.
		idx, err := attempt(len(pool), func(n int) (int, error) {
			j := n + b.rng.Intn(len(pool)-n)
			pool[n], pool[j] = pool[j], pool[n]
			return n, c.place(k, pool[n], -1)
		})
		if err != nil {
			return nil, fmt.Errorf("build random: vehicle %d, %d lots left: %w", k, len(pool), err)
		}
		pool[idx] = pool[len(pool)-1]
		pool = pool[:len(pool)-1]
	}

	c.s.close()
	return c.s, nil
}

// FromOrder replays the given per-vehicle queues. Each step the load-balance
// choice of vehicle takes the head of its queue; if that lot cannot be placed
// the next vehicle is tried. ErrInfeasible is returned when no vehicle can
// proceed.
func (b *Builder) FromOrder(order Order) (*Schedule, error) {
	if err := b.checkOrder(order); err != nil {
		return nil, err
	}
	c := b.begin()
	queues := cloneRoutes(order.Vehicles)

	hint := func(p int) int {
		if p < len(order.Forklifts) {
			return order.Forklifts[p]
		}
		return -1
	}

	cands := make([]int, 0, b.inst.Vehicles)
	for left := b.inst.Lots; left > 0; left-- {
		cands = cands[:0]
		for k, q := range queues {
			if len(q) > 0 {
				cands = append(cands, k)
			}
		}
		c.balance(cands)

		k, err := attempt(len(cands), func(n int) (int, error) {
			k := cands[n]
			lot := queues[k][0]
			return k, c.place(k, lot, hint(b.inst.Plot[lot]))
		})
		if err != nil {
			return nil, fmt.Errorf("build from order: %d lots left: %w", left, err)
		}
		queues[k] = queues[k][1:]
	}

	c.s.close()
	return c.s, nil
}

func (b *Builder) checkOrder(order Order) error {
	if len(order.Vehicles) != b.inst.Vehicles {
		return fmt.Errorf("%w: %d queues for %d vehicles", ErrInvalidOrder, len(order.Vehicles), b.inst.Vehicles)
	}
	seen := make([]bool, b.inst.Lots)
	total := 0
	for k, q := range order.Vehicles {
		for _, lot := range q {
			if lot < 0 || lot >= b.inst.Lots {
				return fmt.Errorf("%w: vehicle %d lists lot %d out of range [0,%d)", ErrInvalidOrder, k, lot, b.inst.Lots)
			}
			if seen[lot] {
				return fmt.Errorf("%w: lot %d listed twice", ErrInvalidOrder, lot)
			}
			seen[lot] = true
			total++
		}
	}
	if total != b.inst.Lots {
		return fmt.Errorf("%w: %d of %d lots listed", ErrInvalidOrder, total, b.inst.Lots)
	}
	if len(order.Forklifts) != 0 && len(order.Forklifts) != b.inst.Plots {
		return fmt.Errorf("%w: %d forklift hints for %d plots", ErrInvalidOrder, len(order.Forklifts), b.inst.Plots)
	}
	for p, f := range order.Forklifts {
		if f < -1 || f >= b.inst.Forklifts {
			return fmt.Errorf("%w: plot %d hints forklift %d out of range", ErrInvalidOrder, p, f)
		}
	}
	return nil
}

// construction is the bookkeeping of one build in progress.
type construction struct {
	inst *Instance
	rng  *rand.Rand
	s    *Schedule

	remaining []int     // unassigned lots per plot
	lastStart []float64 // latest service start per plot
	scratch   []int
}

func (b *Builder) begin() *construction {
	return &construction{
		inst:      b.inst,
		rng:       b.rng,
		s:         newSchedule(b.inst),
		remaining: PlotSizes(b.inst),
		lastStart: make([]float64, b.inst.Plots),
		scratch:   make([]int, 0, b.inst.Forklifts),
	}
}

// balance orders vehicles: idle ones first, then by completion of their
// latest lot. Ties go to the lower id.
func (c *construction) balance(vehicles []int) {
	slices.SortFunc(vehicles, func(a, b int) int {
		la, okA := LastLot(c.s, a)
		lb, okB := LastLot(c.s, b)
		switch {
		case !okA && !okB:
			return cmp.Compare(a, b)
		case !okA:
			return -1
		case !okB:
			return 1
		}
		if r := cmp.Compare(c.s.Completion[la], c.s.Completion[lb]); r != 0 {
			return r
		}
		return cmp.Compare(a, b)
	})
}

// arrival is the earliest time vehicle k can physically reach lot.
func (c *construction) arrival(k, lot int) float64 {
	prev, ok := LastLot(c.s, k)
	if !ok {
		return c.inst.Outbound[lot]
	}
	return c.s.Start[prev] + c.inst.LoadTime + c.inst.Return[prev] + c.inst.Outbound[lot]
}

// place schedules lot as the next stop of vehicle k. It returns ErrInfeasible
// without touching the schedule when no forklift can reach the lot's plot.
func (c *construction) place(k, lot, hint int) error {
	inst := c.inst
	p := inst.Plot[lot]
	arrival := c.arrival(k, lot)

	f := c.s.PlotForklift[p]
	relocate := f < 0
	var ready float64
	if !relocate {
		ready = c.lastStart[p] + inst.LoadTime
	} else {
		var ok bool
		if f, ok = c.pickForklift(hint); !ok {
			return ErrInfeasible
		}
		if prev, moved := LastPlot(c.s, f); moved {
			ready = c.lastStart[prev] + inst.LoadTime + inst.Displace(prev, p)
		} else {
			ready = arrival
		}
	}

	wait := math.Max(0, ready-arrival)
	start := arrival + wait

	s := c.s
	s.Vehicles[k] = append(s.Vehicles[k], lot)
	s.LotVehicle[lot] = k
	s.Arrival[lot] = arrival
	s.Wait[lot] = wait
	s.Start[lot] = start
	s.Completion[lot] = start + inst.LoadTime

	if relocate {
		s.Forklifts[f] = append(s.Forklifts[f], p)
		s.PlotForklift[p] = f
		s.PlotArrival[p] = ready
		s.PlotStart[p] = start
	}
	c.lastStart[p] = math.Max(c.lastStart[p], start)
	c.remaining[p]--
	return nil
}

// pickForklift chooses a forklift free to relocate: the hinted one if
// eligible, else a never used one, else one that drained its plot.
func (c *construction) pickForklift(hint int) (int, bool) {
	if hint >= 0 && c.free(hint) {
		return hint, true
	}

	fresh := c.scratch[:0]
	for f := range c.s.Forklifts {
		if len(c.s.Forklifts[f]) == 0 {
			fresh = append(fresh, f)
		}
	}
	if len(fresh) > 0 {
		return fresh[c.rng.Intn(len(fresh))], true
	}

	drained := c.scratch[:0]
	for f := range c.s.Forklifts {
		if c.free(f) {
			drained = append(drained, f)
		}
	}
	if len(drained) > 0 {
		return drained[c.rng.Intn(len(drained))], true
	}
	return 0, false
}

func (c *construction) free(f int) bool {
	p, ok := LastPlot(c.s, f)
	return !ok || c.remaining[p] == 0
}
