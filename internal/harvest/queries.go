package harvest

// LastLot returns the most recent lot of vehicle k.
func LastLot(s *Schedule, k int) (int, bool) {
	r := s.Vehicles[k]
	if len(r) == 0 {
		return 0, false
	}
	return r[len(r)-1], true
}

// LastPlot returns the plot forklift f is currently at (or last drained).
func LastPlot(s *Schedule, f int) (int, bool) {
	r := s.Forklifts[f]
	if len(r) == 0 {
		return 0, false
	}
	return r[len(r)-1], true
}

// LotsOfPlot returns the lots belonging to plot p in id order.
func LotsOfPlot(inst *Instance, p int) []int {
	var out []int
	for lot, q := range inst.Plot {
		if q == p {
			out = append(out, lot)
		}
	}
	return out
}

// PlotSizes returns the number of lots in each plot.
func PlotSizes(inst *Instance) []int {
	size := make([]int, inst.Plots)
	for _, p := range inst.Plot {
		size[p]++
	}
	return size
}

// Remaining counts the lots of plot p not yet assigned to any vehicle.
func Remaining(inst *Instance, s *Schedule, p int) int {
	n := 0
	for lot, q := range inst.Plot {
		if q == p && s.LotVehicle[lot] < 0 {
			n++
		}
	}
	return n
}

// VehicleQueues copies the per-vehicle lot order of s.
func VehicleQueues(s *Schedule) [][]int {
	return cloneRoutes(s.Vehicles)
}

// ForkliftHints returns the forklift that serviced each plot in s, or -1.
func ForkliftHints(s *Schedule) []int {
	return append([]int(nil), s.PlotForklift...)
}

// Assigned reports how many lots have a vehicle.
func Assigned(s *Schedule) int {
	n := 0
	for _, k := range s.LotVehicle {
		if k >= 0 {
			n++
		}
	}
	return n
}
