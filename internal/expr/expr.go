// Package expr evaluates the Lua expressions that define model parameters,
// transition probabilities, and state values. Expressions are plain Lua,
// so time-dependent parameters read naturally:
//
//	model_time <= 6 and 0.003 or 0
//
// Every binding in the evaluation environment is exposed as a Lua global,
// and the expression must produce a single number.
package expr

import (
	"fmt"

	"github.com/Shopify/go-lua"
)

// Evaluator evaluates numeric expressions against named scalar bindings.
// It owns a single Lua state and is not safe for concurrent use; each
// simulation run creates its own Evaluator.
type Evaluator struct {
	l *lua.State
}

// New creates an Evaluator with the Lua standard libraries loaded, so
// expressions may use math.min, math.exp, and friends.
func New() *Evaluator {
	l := lua.NewState()
	lua.OpenLibraries(l)
	return &Evaluator{l: l}
}

// Eval evaluates src with every binding in env available as a global
// variable and returns the resulting number. Bindings from earlier calls
// remain visible until overwritten; callers pass a complete environment
// each cycle, so stale values are always shadowed.
func (e *Evaluator) Eval(src string, env map[string]float64) (float64, error) {
	for name, val := range env {
		e.l.PushNumber(val)
		e.l.SetGlobal(name)
	}

	if err := lua.DoString(e.l, "return "+src); err != nil {
		e.l.SetTop(0)
		return 0, fmt.Errorf("evaluating %q: %w", src, err)
	}

	n, ok := e.l.ToNumber(-1)
	e.l.SetTop(0)
	if !ok {
		return 0, fmt.Errorf("expression %q did not produce a number", src)
	}
	return n, nil
}
