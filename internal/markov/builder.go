package markov

import (
	"fmt"

	"github.com/openhta/cohort/internal/expr"
	"github.com/openhta/cohort/internal/params"
)

// Matrix is a resolved N×N row-stochastic transition matrix for one
// cycle. Callers must treat it as immutable: a time-invariant Builder
// hands out the same cached matrix for every cycle.
type Matrix [][]float64

// Builder resolves a Spec into per-cycle transition matrices. The
// builder is stateless apart from its cache; resolution is a pure
// function of the cycle index and the static definitions.
type Builder struct {
	spec   Spec
	ev     *expr.Evaluator
	set    *params.Set
	static bool
	cached Matrix
}

// NewBuilder validates the spec shape and prepares a builder. The
// builder detects whether any cell depends on the cycle index, directly
// or through a parameter; if none does, the matrix is resolved once and
// cached.
func NewBuilder(spec Spec, ev *expr.Evaluator, set *params.Set) (*Builder, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	static := true
	for _, row := range spec.Rows {
		for _, cell := range row {
			if cell.Complement {
				continue
			}
			for _, id := range expr.Identifiers(cell.Expr) {
				if id == params.TimeVar || set.DependsOnTime(id) {
					static = false
				}
			}
		}
	}

	return &Builder{spec: spec, ev: ev, set: set, static: static}, nil
}

// Static reports whether the spec resolves to the same matrix at every
// cycle.
func (b *Builder) Static() bool { return b.static }

// Resolve produces the validated transition matrix for the given cycle.
// Every row must be stochastic: explicit entries within [0, 1], the
// complement (if any) non-negative, and the row summing to 1 within
// Epsilon. Small negative rounding noise is clamped to 0.
func (b *Builder) Resolve(modelTime int) (Matrix, error) {
	if b.static && b.cached != nil {
		return b.cached, nil
	}

	env, err := b.set.Values(b.ev, modelTime)
	if err != nil {
		return nil, err
	}

	n := len(b.spec.States)
	m := make(Matrix, n)
	for i, row := range b.spec.Rows {
		resolved := make([]float64, n)
		complement := -1
		sum := 0.0

		for j, cell := range row {
			if cell.Complement {
				complement = j
				continue
			}
			v, err := b.ev.Eval(cell.Expr, env)
			if err != nil {
				return nil, fmt.Errorf("row %s at cycle %d: %w", b.spec.States[i].Name, modelTime, err)
			}
			v = clamp(v)
			if v < 0 || v > 1 {
				return nil, &InvalidProbabilityError{
					Row:   b.spec.States[i].Name,
					Col:   b.spec.States[j].Name,
					Cycle: modelTime,
					Value: v,
				}
			}
			resolved[j] = v
			sum += v
		}

		if complement >= 0 {
			c := clamp(1 - sum)
			if c < 0 {
				return nil, &InvalidProbabilityError{
					Row:   b.spec.States[i].Name,
					Cycle: modelTime,
					Value: c,
				}
			}
			resolved[complement] = c
		} else if diff := sum - 1; diff > Epsilon || diff < -Epsilon {
			return nil, &RowSumError{Row: b.spec.States[i].Name, Cycle: modelTime, Sum: sum}
		}

		if b.spec.States[i].Absorbing && !isIdentityRow(resolved, i) {
			return nil, &AbsorbingRowError{Row: b.spec.States[i].Name, Cycle: modelTime}
		}

		m[i] = resolved
	}

	if b.static {
		b.cached = m
	}
	return m, nil
}

// clamp zeroes rounding noise within Epsilon of the [0, 1] boundaries.
func clamp(v float64) float64 {
	if v < 0 && v > -Epsilon {
		return 0
	}
	if v > 1 && v < 1+Epsilon {
		return 1
	}
	return v
}

func isIdentityRow(row []float64, i int) bool {
	for j, v := range row {
		want := 0.0
		if j == i {
			want = 1.0
		}
		if diff := v - want; diff > Epsilon || diff < -Epsilon {
			return false
		}
	}
	return true
}
