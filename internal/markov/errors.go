package markov

import "fmt"

// RowSumError reports a row without a complement marker whose explicit
// entries do not sum to 1.
type RowSumError struct {
	Row   string
	Cycle int
	Sum   float64
}

func (e *RowSumError) Error() string {
	return fmt.Sprintf("row %s does not sum to 1 at cycle %d (sum=%.12g)", e.Row, e.Cycle, e.Sum)
}

// InvalidProbabilityError reports a resolved entry, including a resolved
// complement, outside [0, 1] beyond tolerance. Col is empty when the
// offending value is the row's complement.
type InvalidProbabilityError struct {
	Row   string
	Col   string
	Cycle int
	Value float64
}

func (e *InvalidProbabilityError) Error() string {
	if e.Col == "" {
		return fmt.Sprintf("complement of row %s resolves to %.12g at cycle %d", e.Row, e.Value, e.Cycle)
	}
	return fmt.Sprintf("probability %s -> %s is %.12g at cycle %d", e.Row, e.Col, e.Value, e.Cycle)
}

// MultipleComplementError reports a row with more than one complement
// marker. Detected during spec validation, before any cycle runs.
type MultipleComplementError struct {
	Row   string
	Count int
}

func (e *MultipleComplementError) Error() string {
	return fmt.Sprintf("row %s has %d complement markers, at most 1 allowed", e.Row, e.Count)
}

// AbsorbingRowError reports a state declared absorbing whose resolved
// row is not the identity row.
type AbsorbingRowError struct {
	Row   string
	Cycle int
}

func (e *AbsorbingRowError) Error() string {
	return fmt.Sprintf("absorbing state %s does not have an identity row at cycle %d", e.Row, e.Cycle)
}

// MassConservationError reports a post-transition occupancy vector that
// fails to sum to 1. It indicates an internal invariant breach, not a
// configuration problem, and is always fatal to the run.
type MassConservationError struct {
	Cycle int
	Sum   float64
}

func (e *MassConservationError) Error() string {
	return fmt.Sprintf("occupancy mass is %.12g after cycle %d, expected 1", e.Sum, e.Cycle)
}
