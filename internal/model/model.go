// Package model ties the parameter evaluator, matrix builder, cohort
// simulator, and value accumulator into runnable strategies. A Model is
// the static, immutable declaration; each run evaluates it without
// mutating it.
package model

import (
	"fmt"

	"github.com/openhta/cohort/internal/markov"
	"github.com/openhta/cohort/internal/params"
)

// Model declares a cohort simulation: an ordered state set, the cycle
// count, parameter definitions, per-state value expressions, and one or
// more strategies sharing the state set.
type Model struct {
	Name       string
	Cycles     int
	CohortSize float64
	StartState string
	States     []markov.State

	// Values maps state name to the value expression integrated into
	// the cumulative effect. Expressions may reference parameters and
	// the cycle variable.
	Values map[string]string

	Parameters []params.Definition
	Strategies []Strategy
}

// Strategy binds a transition specification, and optionally per-state
// value overrides, to the model's shared state set.
type Strategy struct {
	Name        string
	Transitions map[string]map[string]markov.Cell
	Values      map[string]string
}

// UnknownStateError reports a reference to a state name that is not in
// the declared state list.
type UnknownStateError struct {
	Ref     string
	Context string
}

func (e *UnknownStateError) Error() string {
	return fmt.Sprintf("unknown state %q in %s", e.Ref, e.Context)
}

// Validate performs the eager, cycle-independent validation pass:
// shape of the state set, state references, complement marker counts,
// and the parameter dependency graph. Cycle-dependent conditions
// (probability ranges, row sums) surface during a run, at the cycle
// where they first occur.
func (m *Model) Validate() error {
	if m.Cycles < 1 {
		return fmt.Errorf("model %s: cycles must be >= 1, got %d", m.Name, m.Cycles)
	}
	if len(m.States) == 0 {
		return fmt.Errorf("model %s: no states declared", m.Name)
	}

	index := make(map[string]int, len(m.States))
	for i, st := range m.States {
		if st.Name == "" {
			return fmt.Errorf("model %s: state %d has no name", m.Name, i)
		}
		if _, dup := index[st.Name]; dup {
			return fmt.Errorf("model %s: duplicate state %q", m.Name, st.Name)
		}
		index[st.Name] = i
	}

	if _, ok := index[m.StartState]; !ok {
		return &UnknownStateError{Ref: m.StartState, Context: "start_state"}
	}

	for name := range m.Values {
		if _, ok := index[name]; !ok {
			return &UnknownStateError{Ref: name, Context: "state values"}
		}
	}

	if _, err := params.NewSet(m.Parameters); err != nil {
		return fmt.Errorf("model %s: %w", m.Name, err)
	}

	if len(m.Strategies) == 0 {
		return fmt.Errorf("model %s: no strategies declared", m.Name)
	}
	seen := make(map[string]bool, len(m.Strategies))
	for _, st := range m.Strategies {
		if st.Name == "" {
			return fmt.Errorf("model %s: strategy has no name", m.Name)
		}
		if seen[st.Name] {
			return fmt.Errorf("model %s: duplicate strategy %q", m.Name, st.Name)
		}
		seen[st.Name] = true

		for row, cols := range st.Transitions {
			if _, ok := index[row]; !ok {
				return &UnknownStateError{Ref: row, Context: fmt.Sprintf("strategy %s transitions", st.Name)}
			}
			for col := range cols {
				if _, ok := index[col]; !ok {
					return &UnknownStateError{Ref: col, Context: fmt.Sprintf("strategy %s row %s", st.Name, row)}
				}
			}
		}
		for name := range st.Values {
			if _, ok := index[name]; !ok {
				return &UnknownStateError{Ref: name, Context: fmt.Sprintf("strategy %s values", st.Name)}
			}
		}

		spec, err := m.spec(st)
		if err != nil {
			return err
		}
		if err := spec.Validate(); err != nil {
			return fmt.Errorf("strategy %s: %w", st.Name, err)
		}
	}

	return nil
}

// Strategy returns the named strategy.
func (m *Model) Strategy(name string) (Strategy, bool) {
	for _, st := range m.Strategies {
		if st.Name == name {
			return st, true
		}
	}
	return Strategy{}, false
}

// spec assembles the ordered N×N transition spec for a strategy from
// its sparse row maps. Omitted cells are probability 0. A declared
// absorbing state may omit its row entirely; the identity row is
// implied. A non-absorbing state must declare a row.
func (m *Model) spec(st Strategy) (markov.Spec, error) {
	n := len(m.States)
	rows := make([][]markov.Cell, n)

	for i, state := range m.States {
		cols, declared := st.Transitions[state.Name]
		if !declared {
			if !state.Absorbing {
				return markov.Spec{}, fmt.Errorf("strategy %s: state %s has no transition row", st.Name, state.Name)
			}
			rows[i] = identityRow(n, i)
			continue
		}

		row := make([]markov.Cell, n)
		for j := range row {
			row[j] = markov.Zero
		}
		for col, cell := range cols {
			j, ok := m.stateIndex(col)
			if !ok {
				return markov.Spec{}, &UnknownStateError{Ref: col, Context: fmt.Sprintf("strategy %s row %s", st.Name, state.Name)}
			}
			row[j] = cell
		}
		rows[i] = row
	}

	return markov.Spec{States: m.States, Rows: rows}, nil
}

// valueExprs returns the per-state value expressions for a strategy in
// state order, applying strategy overrides on top of the model values.
// A state with no expression defaults to 0 when absorbing and 1
// otherwise.
func (m *Model) valueExprs(st Strategy) []string {
	out := make([]string, len(m.States))
	for i, state := range m.States {
		switch {
		case st.Values[state.Name] != "":
			out[i] = st.Values[state.Name]
		case m.Values[state.Name] != "":
			out[i] = m.Values[state.Name]
		case state.Absorbing:
			out[i] = "0"
		default:
			out[i] = "1"
		}
	}
	return out
}

func (m *Model) stateIndex(name string) (int, bool) {
	for i, st := range m.States {
		if st.Name == name {
			return i, true
		}
	}
	return 0, false
}

func identityRow(n, i int) []markov.Cell {
	row := make([]markov.Cell, n)
	for j := range row {
		if j == i {
			row[j] = markov.Literal("1")
		} else {
			row[j] = markov.Zero
		}
	}
	return row
}
