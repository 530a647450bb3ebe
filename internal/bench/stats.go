package bench

import (
	"math"

	"harvestSched/internal/opt"
)

// Summary describes one metric over the runs of a case.
type Summary struct {
	N    int
	Best float64 // minimum
	Mean float64
	Std  float64 // sample deviation, 0 for fewer than two values
}

func Summarize[T int | float64](values []T) Summary {
	s := Summary{N: len(values)}
	if s.N == 0 {
		return s
	}

	s.Best = math.Inf(1)
	sum := 0.0
	for _, v := range values {
		s.Best = math.Min(s.Best, float64(v))
		sum += float64(v)
	}
	s.Mean = sum / float64(s.N)

	if s.N >= 2 {
		variance := 0.0
		for _, v := range values {
			d := float64(v) - s.Mean
			variance += d * d
		}
		s.Std = math.Sqrt(variance / float64(s.N-1))
	}
	return s
}

// column extracts one metric from every run result.
func column[T int | float64](results []opt.Result, field func(opt.Result) T) []T {
	out := make([]T, len(results))
	for i, res := range results {
		out[i] = field(res)
	}
	return out
}
