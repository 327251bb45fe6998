package markov

import "fmt"

// ValueSource yields the per-state value vector for a given cycle.
// Values are usually cycle-invariant (1 for live states, 0 for the
// terminal state) but the interface permits time dependence.
type ValueSource interface {
	Values(modelTime int) ([]float64, error)
}

// ConstantValues adapts a fixed value vector to ValueSource.
type ConstantValues []float64

// Values returns the fixed vector regardless of cycle.
func (v ConstantValues) Values(int) ([]float64, error) { return v, nil }

// Accumulate integrates state values against the occupancy sequence
// using the life-table (half-cycle) correction: the contribution of the
// transition from cycle t to t+1 is the average of the value dot
// product at both ends,
//
//	increment[t] = ½ · (dist[t]·v(t) + dist[t+1]·v(t+1))
//
// which assumes transitions occur on average at the cycle midpoint.
// It returns the cumulative effect and the per-cycle increments
// (len(dists)-1 of them).
func Accumulate(dists [][]float64, vals ValueSource) (float64, []float64, error) {
	if len(dists) < 2 {
		return 0, nil, fmt.Errorf("need at least 2 occupancy vectors, got %d", len(dists))
	}

	increments := make([]float64, len(dists)-1)
	total := 0.0

	prev, err := valueProduct(dists[0], vals, 0)
	if err != nil {
		return 0, nil, err
	}

	for t := 1; t < len(dists); t++ {
		cur, err := valueProduct(dists[t], vals, t)
		if err != nil {
			return 0, nil, err
		}
		increments[t-1] = 0.5 * (prev + cur)
		total += increments[t-1]
		prev = cur
	}

	return total, increments, nil
}

func valueProduct(dist []float64, vals ValueSource, modelTime int) (float64, error) {
	v, err := vals.Values(modelTime)
	if err != nil {
		return 0, fmt.Errorf("state values at cycle %d: %w", modelTime, err)
	}
	if len(v) != len(dist) {
		return 0, fmt.Errorf("value vector has %d entries for %d states", len(v), len(dist))
	}
	dot := 0.0
	for i, mass := range dist {
		dot += mass * v[i]
	}
	return dot, nil
}
