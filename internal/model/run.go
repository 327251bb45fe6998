package model

import (
	"fmt"
	"sync"

	"github.com/openhta/cohort/internal/expr"
	"github.com/openhta/cohort/internal/markov"
	"github.com/openhta/cohort/internal/params"
)

// Result pairs a strategy name with its completed trace.
type Result struct {
	Strategy string
	Trace    *markov.Trace
}

// Run simulates the named strategy and returns its trace. The run is
// deterministic: the same model yields bit-identical traces on every
// call. All per-run state (Lua evaluator, resolved matrices, occupancy
// vectors) is created here and owned by this run alone.
func (m *Model) Run(strategy string) (*markov.Trace, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	st, ok := m.Strategy(strategy)
	if !ok {
		return nil, fmt.Errorf("model %s has no strategy %q", m.Name, strategy)
	}
	return m.run(st)
}

// RunAll simulates every strategy and returns the results in
// declaration order. Strategies share no mutable state, so each runs in
// its own goroutine with its own evaluator. The first error aborts the
// caller's view; no partial trace is returned for a failed strategy.
func (m *Model) RunAll() ([]Result, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	results := make([]Result, len(m.Strategies))
	errs := make([]error, len(m.Strategies))

	var wg sync.WaitGroup
	for i, st := range m.Strategies {
		wg.Add(1)
		go func(i int, st Strategy) {
			defer wg.Done()
			tr, err := m.run(st)
			if err != nil {
				errs[i] = fmt.Errorf("strategy %s: %w", st.Name, err)
				return
			}
			results[i] = Result{Strategy: st.Name, Trace: tr}
		}(i, st)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// Matrices resolves the per-cycle transition matrices for the named
// strategy, for model times 1..Cycles. Reporting and trace logging use
// this to inspect what the simulator applied; the run itself resolves
// matrices lazily and does not retain them.
func (m *Model) Matrices(strategy string) ([]markov.Matrix, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	st, ok := m.Strategy(strategy)
	if !ok {
		return nil, fmt.Errorf("model %s has no strategy %q", m.Name, strategy)
	}

	ev := expr.New()
	set, err := params.NewSet(m.Parameters)
	if err != nil {
		return nil, err
	}
	spec, err := m.spec(st)
	if err != nil {
		return nil, err
	}
	builder, err := markov.NewBuilder(spec, ev, set)
	if err != nil {
		return nil, err
	}

	out := make([]markov.Matrix, m.Cycles)
	for t := 1; t <= m.Cycles; t++ {
		mat, err := builder.Resolve(t)
		if err != nil {
			return nil, err
		}
		out[t-1] = mat
	}
	return out, nil
}

// run executes one strategy: resolve parameters and matrices cycle by
// cycle, propagate the cohort, then integrate state values with the
// life-table correction.
func (m *Model) run(st Strategy) (*markov.Trace, error) {
	ev := expr.New()

	set, err := params.NewSet(m.Parameters)
	if err != nil {
		return nil, err
	}

	spec, err := m.spec(st)
	if err != nil {
		return nil, err
	}

	builder, err := markov.NewBuilder(spec, ev, set)
	if err != nil {
		return nil, err
	}

	startIdx, _ := m.stateIndex(m.StartState)
	start := markov.PointMass(len(m.States), startIdx)

	dists, err := markov.Simulate(start, m.Cycles, builder)
	if err != nil {
		return nil, err
	}

	vals := &stateValues{ev: ev, set: set, exprs: m.valueExprs(st)}
	effect, increments, err := markov.Accumulate(dists, vals)
	if err != nil {
		return nil, err
	}

	return markov.NewTrace(st.Name, m.States, dists, increments, effect, m.CohortSize), nil
}

// stateValues evaluates per-state value expressions for a cycle,
// implementing markov.ValueSource. Time-invariant expressions resolve
// to the same vector every cycle; the cache avoids re-evaluating them.
type stateValues struct {
	ev    *expr.Evaluator
	set   *params.Set
	exprs []string

	static bool
	cached []float64
	once   sync.Once
}

func (v *stateValues) Values(modelTime int) ([]float64, error) {
	v.once.Do(func() {
		v.static = true
		for _, e := range v.exprs {
			for _, id := range expr.Identifiers(e) {
				if id == params.TimeVar || v.set.DependsOnTime(id) {
					v.static = false
				}
			}
		}
	})
	if v.static && v.cached != nil {
		return v.cached, nil
	}

	env, err := v.set.Values(v.ev, modelTime)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(v.exprs))
	for i, e := range v.exprs {
		val, err := v.ev.Eval(e, env)
		if err != nil {
			return nil, fmt.Errorf("state value %d: %w", i, err)
		}
		out[i] = val
	}

	if v.static {
		v.cached = out
	}
	return out, nil
}
