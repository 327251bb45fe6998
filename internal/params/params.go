// Package params evaluates named, possibly time-dependent model
// parameters. Parameters are declared once as expressions over the
// reserved cycle variable and over other parameters; a Set resolves
// them into concrete values for a given cycle, in dependency order.
package params

import (
	"fmt"
	"strings"

	"github.com/openhta/cohort/internal/expr"
)

// TimeVar is the reserved binding that holds the current cycle index.
// It is 1-based: the transition into cycle t evaluates with TimeVar = t.
const TimeVar = "model_time"

// Definition declares one parameter.
type Definition struct {
	Name string
	Expr string
}

// CycleError reports a dependency cycle among parameter definitions.
type CycleError struct {
	// Names are the parameters on the cycle, in dependency order.
	Names []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("parameter dependency cycle: %s", strings.Join(e.Names, " -> "))
}

// Set is an immutable collection of parameter definitions with a
// precomputed evaluation order. Evaluating a Set has no side effects;
// values are a pure function of the cycle index.
type Set struct {
	defs    []Definition
	order   []int
	timeDep map[string]bool
}

// NewSet validates the definitions, orders them topologically, and
// precomputes which parameters depend (transitively) on TimeVar.
// It returns a *CycleError if the dependency graph has a cycle.
func NewSet(defs []Definition) (*Set, error) {
	index := make(map[string]int, len(defs))
	for i, d := range defs {
		if d.Name == "" {
			return nil, fmt.Errorf("parameter %d has no name", i)
		}
		if d.Name == TimeVar {
			return nil, fmt.Errorf("parameter name %q is reserved", TimeVar)
		}
		if _, dup := index[d.Name]; dup {
			return nil, fmt.Errorf("duplicate parameter %q", d.Name)
		}
		index[d.Name] = i
	}

	// Dependencies are the identifiers of each expression restricted to
	// declared parameter names. Anything else (math.exp, TimeVar) is
	// resolved by the expression environment, not by ordering.
	deps := make([][]int, len(defs))
	timeDep := make(map[string]bool, len(defs))
	for i, d := range defs {
		for _, id := range expr.Identifiers(d.Expr) {
			if id == TimeVar {
				timeDep[d.Name] = true
				continue
			}
			if j, ok := index[id]; ok {
				deps[i] = append(deps[i], j)
			}
		}
	}

	order, cycle := topoSort(deps)
	if cycle != nil {
		names := make([]string, len(cycle))
		for i, j := range cycle {
			names[i] = defs[j].Name
		}
		return nil, &CycleError{Names: names}
	}

	// Time dependence propagates along dependencies; order guarantees
	// dependencies are classified before their dependents.
	for _, i := range order {
		if timeDep[defs[i].Name] {
			continue
		}
		for _, j := range deps[i] {
			if timeDep[defs[j].Name] {
				timeDep[defs[i].Name] = true
				break
			}
		}
	}

	return &Set{defs: defs, order: order, timeDep: timeDep}, nil
}

// Values evaluates every parameter for the given cycle and returns the
// complete environment, including TimeVar itself.
func (s *Set) Values(ev *expr.Evaluator, modelTime int) (map[string]float64, error) {
	env := make(map[string]float64, len(s.defs)+1)
	env[TimeVar] = float64(modelTime)

	for _, i := range s.order {
		d := s.defs[i]
		v, err := ev.Eval(d.Expr, env)
		if err != nil {
			return nil, fmt.Errorf("parameter %q at cycle %d: %w", d.Name, modelTime, err)
		}
		env[d.Name] = v
	}

	return env, nil
}

// DependsOnTime reports whether the named parameter depends on TimeVar,
// directly or through other parameters. Unknown names report false.
func (s *Set) DependsOnTime(name string) bool {
	return s.timeDep[name]
}

// Len returns the number of declared parameters.
func (s *Set) Len() int { return len(s.defs) }

// topoSort orders nodes so that dependencies precede dependents. If the
// graph has a cycle, it returns nil and the nodes forming the cycle.
func topoSort(deps [][]int) (order []int, cycle []int) {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make([]int, len(deps))
	order = make([]int, 0, len(deps))
	var stack []int

	var visit func(i int) []int
	visit = func(i int) []int {
		switch state[i] {
		case done:
			return nil
		case visiting:
			// Found a back edge: the cycle is the stack suffix from i.
			for k, n := range stack {
				if n == i {
					return append(append([]int(nil), stack[k:]...), i)
				}
			}
			return []int{i}
		}
		state[i] = visiting
		stack = append(stack, i)
		for _, j := range deps[i] {
			if c := visit(j); c != nil {
				return c
			}
		}
		stack = stack[:len(stack)-1]
		state[i] = done
		order = append(order, i)
		return nil
	}

	for i := range deps {
		if c := visit(i); c != nil {
			return nil, c
		}
	}
	return order, nil
}
