package harvest

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// DepotStart and DepotEnd are the virtual route endpoints shared by every
// vehicle and forklift. They never index into lot or plot slices.
const (
	DepotStart = -1
	DepotEnd   = -2
)

// DefaultReturnFactor scales the one-way travel time into the return leg.
const DefaultReturnFactor = 1.15

// Instance holds the immutable problem parameters.
type Instance struct {
	Lots      int
	Plots     int
	Vehicles  int
	Forklifts int

	// LoadTime is the fixed duration of loading one lot onto a vehicle.
	LoadTime float64

	// Plot maps each lot to the plot containing it.
	Plot []int
	// Outbound is the one-way travel time from the facility to each lot.
	Outbound []float64
	// Return is the travel time from each lot back to the facility.
	Return []float64
	// Displacement[a][b] is the forklift travel time between plots a and b.
	Displacement [][]float64
}

// NewInstance builds and validates an instance. The number of lots and plots
// is derived from the membership and the displacement matrix; return legs are
// outbound times scaled by returnFactor.
func NewInstance(vehicles, forklifts int, loadTime float64, plotOf []int, outbound []float64, displacement [][]float64, returnFactor float64) (*Instance, error) {
	if returnFactor < 0 || math.IsNaN(returnFactor) || math.IsInf(returnFactor, 0) {
		return nil, fmt.Errorf("%w: return factor must be >= 0 (got %f)", ErrInvalidInstance, returnFactor)
	}
	ret := make([]float64, len(outbound))
	for i, t := range outbound {
		ret[i] = returnFactor * t
	}
	inst := &Instance{
		Lots:         len(plotOf),
		Plots:        len(displacement),
		Vehicles:     vehicles,
		Forklifts:    forklifts,
		LoadTime:     loadTime,
		Plot:         append([]int(nil), plotOf...),
		Outbound:     append([]float64(nil), outbound...),
		Return:       ret,
		Displacement: cloneMatrix(displacement),
	}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return inst, nil
}

func (inst *Instance) Validate() error {
	if inst == nil {
		return fmt.Errorf("%w: instance is nil", ErrInvalidInstance)
	}
	if inst.Lots <= 0 {
		return fmt.Errorf("%w: lots must be > 0 (got %d)", ErrInvalidInstance, inst.Lots)
	}
	if inst.Plots <= 0 {
		return fmt.Errorf("%w: plots must be > 0 (got %d)", ErrInvalidInstance, inst.Plots)
	}
	if inst.Vehicles <= 0 {
		return fmt.Errorf("%w: vehicles must be > 0 (got %d)", ErrInvalidInstance, inst.Vehicles)
	}
	if inst.Forklifts <= 0 {
		return fmt.Errorf("%w: forklifts must be > 0 (got %d)", ErrInvalidInstance, inst.Forklifts)
	}
	if err := checkTime("load time", inst.LoadTime); err != nil {
		return err
	}
	if len(inst.Plot) != inst.Lots {
		return fmt.Errorf("%w: plot membership length must be %d (got %d)", ErrInvalidInstance, inst.Lots, len(inst.Plot))
	}
	if len(inst.Outbound) != inst.Lots || len(inst.Return) != inst.Lots {
		return fmt.Errorf("%w: travel times must have %d entries (got outbound=%d return=%d)",
			ErrInvalidInstance, inst.Lots, len(inst.Outbound), len(inst.Return))
	}

	size := make([]int, inst.Plots)
	for lot, p := range inst.Plot {
		if p < 0 || p >= inst.Plots {
			return fmt.Errorf("%w: lot %d belongs to plot %d out of range [0,%d)", ErrInvalidInstance, lot, p, inst.Plots)
		}
		size[p]++
	}
	for p, n := range size {
		if n == 0 {
			return fmt.Errorf("%w: plot %d has no lots", ErrInvalidInstance, p)
		}
	}

	for i := 0; i < inst.Lots; i++ {
		if err := checkTime(fmt.Sprintf("outbound[%d]", i), inst.Outbound[i]); err != nil {
			return err
		}
		if err := checkTime(fmt.Sprintf("return[%d]", i), inst.Return[i]); err != nil {
			return err
		}
	}

	if len(inst.Displacement) != inst.Plots {
		return fmt.Errorf("%w: displacement must have %d rows (got %d)", ErrInvalidInstance, inst.Plots, len(inst.Displacement))
	}
	for a, row := range inst.Displacement {
		if len(row) != inst.Plots {
			return fmt.Errorf("%w: displacement row %d must have %d columns (got %d)", ErrInvalidInstance, a, inst.Plots, len(row))
		}
		for b, v := range row {
			if err := checkTime(fmt.Sprintf("displacement[%d][%d]", a, b), v); err != nil {
				return err
			}
		}
	}
	return nil
}

// Displace returns the forklift travel time between two plots. Depot
// sentinels cost nothing.
func (inst *Instance) Displace(from, to int) float64 {
	if from < 0 || to < 0 {
		return 0
	}
	return inst.Displacement[from][to]
}

// RandomInstance generates a reproducible synthetic instance. Every plot gets
// at least one lot; the remaining lots are spread uniformly.
func RandomInstance(lots, plots, vehicles, forklifts int, rng *rand.Rand) *Instance {
	if rng == nil {
		panic("random generator is nil")
	}
	if plots <= 0 || lots < plots {
		panic("lots must be >= plots > 0")
	}

	plotOf := make([]int, lots)
	for i := range plotOf {
		if i < plots {
			plotOf[i] = i
		} else {
			plotOf[i] = rng.Intn(plots)
		}
	}
	rng.Shuffle(len(plotOf), func(i, j int) { plotOf[i], plotOf[j] = plotOf[j], plotOf[i] })

	// Lots of one plot share a base distance with a little jitter.
	base := make([]float64, plots)
	for p := range base {
		base[p] = 0.2 + 1.8*rng.Float64()
	}
	outbound := make([]float64, lots)
	for i, p := range plotOf {
		outbound[i] = round2(base[p] * (0.9 + 0.2*rng.Float64()))
	}

	disp := make([][]float64, plots)
	for a := range disp {
		disp[a] = make([]float64, plots)
	}
	for a := 0; a < plots; a++ {
		for b := a + 1; b < plots; b++ {
			d := round2(math.Abs(base[a]-base[b]) + 0.5*rng.Float64())
			disp[a][b], disp[b][a] = d, d
		}
	}

	inst, err := NewInstance(vehicles, forklifts, 1, plotOf, outbound, disp, DefaultReturnFactor)
	if err != nil {
		panic(err)
	}
	return inst
}

// SampleInstance is the reference data set: 8 lots over 3 plots served by
// 3 vehicles and 2 forklifts.
func SampleInstance() *Instance {
	inst, err := NewInstance(3, 2, 1,
		[]int{0, 0, 0, 1, 1, 1, 2, 2},
		[]float64{0.78, 0.78, 0.78, 1.57, 1.57, 1.57, 0.2, 0.2},
		[][]float64{
			{0, 3.03, 1.24},
			{3.03, 0, 2.15},
			{1.24, 2.15, 0},
		},
		DefaultReturnFactor,
	)
	if err != nil {
		panic(err)
	}
	return inst
}

func checkTime(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be finite (got %f)", ErrInvalidInstance, name, v)
	}
	if v < 0 {
		return fmt.Errorf("%w: %s must be >= 0 (got %f)", ErrInvalidInstance, name, v)
	}
	return nil
}

func cloneMatrix(m [][]float64) [][]float64 {
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

var (
	// ErrInvalidInstance marks malformed instance data. It is fatal.
	ErrInvalidInstance = errors.New("invalid instance")
	// ErrInvalidOrder marks per-vehicle queues that are not a partition of the lots.
	ErrInvalidOrder = errors.New("invalid lot order")
	// ErrInfeasible is returned when no (vehicle, lot) pairing can be scheduled
	// within the retry budget.
	ErrInfeasible = errors.New("infeasible construction")
)
