// Package neighborhood perturbs schedules by relocating lots between vehicles
// and rebuilding the timing from the resulting queues.
package neighborhood

import (
	"errors"
	"fmt"
	"math/rand"

	"harvestSched/internal/harvest"
)

// ErrNeighborhoodExhausted is returned when no feasible relocation was found
// within the retry budget. Callers should fall back to a fresh random build.
var ErrNeighborhoodExhausted = errors.New("no neighbor found")

// Generator produces neighbors of a schedule. It shares the random stream of
// its builder's run and must not be used concurrently.
type Generator struct {
	b   *harvest.Builder
	rng *rand.Rand
}

func New(b *harvest.Builder, rng *rand.Rand) (*Generator, error) {
	if b == nil {
		return nil, fmt.Errorf("builder is nil")
	}
	if rng == nil {
		return nil, fmt.Errorf("random generator is nil")
	}
	return &Generator{b: b, rng: rng}, nil
}

// Swap relocates swaps lots, each from one loaded vehicle into a random
// position of another loaded vehicle, and replays the queues. The input
// schedule is not modified. Relative order is kept everywhere except at the
// moved lots.
func (g *Generator) Swap(s *harvest.Schedule, swaps int) (*harvest.Schedule, error) {
	if swaps <= 0 {
		return nil, fmt.Errorf("swaps must be > 0 (got %d)", swaps)
	}
	base := harvest.VehicleQueues(s)
	hints := harvest.ForkliftHints(s)

	budget := Budget(base)
	if budget == 0 {
		return nil, fmt.Errorf("swap: %w: fewer than two loaded vehicles", ErrNeighborhoodExhausted)
	}

	queues := make([][]int, len(base))
	for try := 0; try < budget; try++ {
		for k := range base {
			queues[k] = append(queues[k][:0], base[k]...)
		}
		// An earlier move emptied a vehicle; draw the moves again.
		if !g.relocate(queues, swaps) {
			continue
		}

		next, err := g.b.FromOrder(harvest.Order{Vehicles: queues, Forklifts: hints})
		if err == nil {
			return next, nil
		}
		if !errors.Is(err, harvest.ErrInfeasible) {
			return nil, fmt.Errorf("swap: %w", err)
		}
	}
	return nil, fmt.Errorf("swap: %w after %d attempts", ErrNeighborhoodExhausted, budget)
}

// relocate applies n random moves in place. It reports false when a move
// finds fewer than two vehicles holding lots.
func (g *Generator) relocate(queues [][]int, n int) bool {
	loaded := make([]int, 0, len(queues))
	for i := 0; i < n; i++ {
		loaded = loaded[:0]
		for k, q := range queues {
			if len(q) > 0 {
				loaded = append(loaded, k)
			}
		}
		if len(loaded) < 2 {
			return false
		}

		from := loaded[g.rng.Intn(len(loaded))]
		to := loaded[g.rng.Intn(len(loaded)-1)]
		if to == from {
			to = loaded[len(loaded)-1]
		}

		src := queues[from]
		j := g.rng.Intn(len(src))
		lot := src[j]
		queues[from] = append(src[:j], src[j+1:]...)

		dst := queues[to]
		pos := g.rng.Intn(len(dst) + 1)
		dst = append(dst, 0)
		copy(dst[pos+1:], dst[pos:])
		dst[pos] = lot
		queues[to] = dst
	}
	return true
}

// Budget is the number of replay attempts allowed for queues: the count of
// (source lot, destination vehicle, insert position) choices.
func Budget(queues [][]int) int {
	loaded := 0
	for _, q := range queues {
		if len(q) > 0 {
			loaded++
		}
	}
	if loaded < 2 {
		return 0
	}
	total := 0
	for a, qa := range queues {
		for b, qb := range queues {
			if a != b && len(qb) > 0 {
				total += len(qa) * (len(qb) + 1)
			}
		}
	}
	return total
}
