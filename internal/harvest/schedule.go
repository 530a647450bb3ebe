package harvest

import (
	"math"
	"strconv"
	"strings"
)

// Schedule is one candidate solution: vehicle and forklift routes plus the
// timing of every lot and plot. It is filled by a Builder and must be treated
// as read-only once Closed is set.
type Schedule struct {
	// Vehicles[k] lists the lots served by vehicle k in visiting order.
	Vehicles [][]int
	// Forklifts[f] lists the plots serviced by forklift f in visiting order.
	Forklifts [][]int

	LotVehicle []int
	Arrival    []float64
	Wait       []float64
	Start      []float64
	Completion []float64

	PlotForklift []int
	PlotArrival  []float64
	PlotStart    []float64

	Makespan float64
	Closed   bool
}

// Edge is one arc of a route. From/To are lot (vehicle routes) or plot
// (forklift routes) ids, or a depot sentinel.
type Edge struct {
	From int
	To   int
}

func newSchedule(inst *Instance) *Schedule {
	s := &Schedule{
		Vehicles:     make([][]int, inst.Vehicles),
		Forklifts:    make([][]int, inst.Forklifts),
		LotVehicle:   make([]int, inst.Lots),
		Arrival:      make([]float64, inst.Lots),
		Wait:         make([]float64, inst.Lots),
		Start:        make([]float64, inst.Lots),
		Completion:   make([]float64, inst.Lots),
		PlotForklift: make([]int, inst.Plots),
		PlotArrival:  make([]float64, inst.Plots),
		PlotStart:    make([]float64, inst.Plots),
	}
	for i := range s.LotVehicle {
		s.LotVehicle[i] = -1
	}
	for p := range s.PlotForklift {
		s.PlotForklift[p] = -1
	}
	return s
}

// VehicleEdges returns the successor relation of vehicle k's route.
func (s *Schedule) VehicleEdges(k int) []Edge {
	return pathEdges(s.Vehicles[k], s.Closed)
}

// ForkliftEdges returns the successor relation of forklift f's route.
func (s *Schedule) ForkliftEdges(f int) []Edge {
	return pathEdges(s.Forklifts[f], s.Closed)
}

func pathEdges(stops []int, closed bool) []Edge {
	edges := make([]Edge, 0, len(stops)+1)
	prev := DepotStart
	for _, v := range stops {
		edges = append(edges, Edge{From: prev, To: v})
		prev = v
	}
	if closed {
		edges = append(edges, Edge{From: prev, To: DepotEnd})
	}
	return edges
}

// close appends the trailing depot edges and computes the makespan.
func (s *Schedule) close() {
	s.Makespan = 0
	for _, c := range s.Completion {
		s.Makespan = math.Max(s.Makespan, c)
	}
	s.Closed = true
}

// Clone returns a deep copy.
func (s *Schedule) Clone() *Schedule {
	out := *s
	out.Vehicles = cloneRoutes(s.Vehicles)
	out.Forklifts = cloneRoutes(s.Forklifts)
	out.LotVehicle = append([]int(nil), s.LotVehicle...)
	out.Arrival = append([]float64(nil), s.Arrival...)
	out.Wait = append([]float64(nil), s.Wait...)
	out.Start = append([]float64(nil), s.Start...)
	out.Completion = append([]float64(nil), s.Completion...)
	out.PlotForklift = append([]int(nil), s.PlotForklift...)
	out.PlotArrival = append([]float64(nil), s.PlotArrival...)
	out.PlotStart = append([]float64(nil), s.PlotStart...)
	return &out
}

// Key identifies a schedule by value: both routings and the makespan bits.
// Two schedules with equal keys are the same solution.
func (s *Schedule) Key() string {
	var b strings.Builder
	writeRoutes(&b, 'v', s.Vehicles)
	writeRoutes(&b, 'f', s.Forklifts)
	b.WriteByte('m')
	b.WriteString(strconv.FormatUint(math.Float64bits(s.Makespan), 16))
	return b.String()
}

func writeRoutes(b *strings.Builder, tag byte, routes [][]int) {
	for _, r := range routes {
		b.WriteByte(tag)
		for i, v := range r {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Itoa(v))
		}
		b.WriteByte(';')
	}
}

func cloneRoutes(in [][]int) [][]int {
	out := make([][]int, len(in))
	for i, r := range in {
		out[i] = append([]int(nil), r...)
	}
	return out
}
