package markov

import "fmt"

// MatrixSource yields the transition matrix for a given cycle. Builder
// implements it; tests substitute fixed matrices.
type MatrixSource interface {
	Resolve(modelTime int) (Matrix, error)
}

// PointMass returns a length-n distribution with all cohort mass in
// state i.
func PointMass(n, i int) []float64 {
	d := make([]float64, n)
	d[i] = 1
	return d
}

// Simulate propagates the starting occupancy distribution through
// cycles transitions and returns the distributions for cycles
// 0..cycles inclusive. The transition into cycle t uses the matrix
// resolved at model time t (1-based):
//
//	dist[t] = dist[t-1] · M(t)
//
// Cohort mass is checked after every step; a violation is a
// *MassConservationError and indicates a bug upstream of the simulator,
// since every matrix it is handed has already been validated as
// row-stochastic.
func Simulate(start []float64, cycles int, src MatrixSource) ([][]float64, error) {
	if cycles < 1 {
		return nil, fmt.Errorf("cycles must be >= 1, got %d", cycles)
	}

	dists := make([][]float64, cycles+1)
	dists[0] = append([]float64(nil), start...)

	for t := 1; t <= cycles; t++ {
		m, err := src.Resolve(t)
		if err != nil {
			return nil, err
		}
		if len(m) != len(start) {
			return nil, fmt.Errorf("matrix at cycle %d has %d rows for %d states", t, len(m), len(start))
		}

		next := step(dists[t-1], m)

		sum := 0.0
		for _, v := range next {
			sum += v
		}
		if diff := sum - 1; diff > Epsilon || diff < -Epsilon {
			return nil, &MassConservationError{Cycle: t, Sum: sum}
		}

		dists[t] = next
	}

	return dists, nil
}

// step computes the row-vector times row-stochastic matrix product.
func step(dist []float64, m Matrix) []float64 {
	next := make([]float64, len(dist))
	for i, mass := range dist {
		if mass == 0 {
			continue
		}
		for j, p := range m[i] {
			next[j] += mass * p
		}
	}
	return next
}
