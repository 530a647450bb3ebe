package harvest

import "errors"

// attempt calls try with n = 0, 1, ... until it succeeds, fails with an error
// other than ErrInfeasible, or budget attempts have been spent. An exhausted
// budget yields ErrInfeasible. try must leave no trace when it fails.
func attempt[T any](budget int, try func(n int) (T, error)) (T, error) {
	var zero T
	for n := 0; n < budget; n++ {
		v, err := try(n)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrInfeasible) {
			return zero, err
		}
	}
	return zero, ErrInfeasible
}
