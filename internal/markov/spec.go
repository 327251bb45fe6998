// Package markov implements the cohort transition engine. A transition
// specification over an ordered state set is resolved, cycle by cycle,
// into a validated row-stochastic matrix; the cohort's occupancy
// distribution is propagated through those matrices; and per-state
// values are integrated against the occupancy with a life-table
// (half-cycle) correction to produce the cumulative effect.
package markov

import "fmt"

// Epsilon is the floating tolerance for all probability and mass checks.
const Epsilon = 1e-9

// State is one of the mutually exclusive cohort states. Its position in
// the state list fixes its row and column in the transition matrix and
// its slot in the occupancy vector.
type State struct {
	Name      string
	Absorbing bool
}

// Cell is one entry of a transition specification: either a literal
// probability expression or the row's complement marker ("one minus the
// rest of this row"). The marker is a tagged variant, never a sentinel
// value, so it cannot leak into arithmetic.
type Cell struct {
	Expr       string
	Complement bool
}

// Literal returns a cell holding a probability expression.
func Literal(expr string) Cell { return Cell{Expr: expr} }

// Complement returns the complement marker cell.
func Complement() Cell { return Cell{Complement: true} }

// Zero is the cell for a transition that never occurs.
var Zero = Cell{Expr: "0"}

// Spec is an N×N transition specification over an ordered state set.
// Rows[i][j] describes the transition from States[i] to States[j].
// A Spec is immutable once built; it is evaluated per cycle, never
// mutated.
type Spec struct {
	States []State
	Rows   [][]Cell
}

// Index returns the position of the named state.
func (s *Spec) Index(name string) (int, bool) {
	for i, st := range s.States {
		if st.Name == name {
			return i, true
		}
	}
	return 0, false
}

// Validate checks the cycle-independent shape invariants: square
// dimensions and at most one complement marker per row. Probability
// range and row sums are cycle-dependent and checked at resolution.
func (s *Spec) Validate() error {
	n := len(s.States)
	if n == 0 {
		return fmt.Errorf("transition spec has no states")
	}
	if len(s.Rows) != n {
		return fmt.Errorf("transition spec has %d rows for %d states", len(s.Rows), n)
	}
	for i, row := range s.Rows {
		if len(row) != n {
			return fmt.Errorf("row %s has %d cells for %d states", s.States[i].Name, len(row), n)
		}
		complements := 0
		for _, c := range row {
			if c.Complement {
				complements++
			}
		}
		if complements > 1 {
			return &MultipleComplementError{Row: s.States[i].Name, Count: complements}
		}
	}
	return nil
}
