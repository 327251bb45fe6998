package params

import (
	"errors"
	"math"
	"testing"

	"github.com/openhta/cohort/internal/expr"
)

func TestSetValues(t *testing.T) {
	set, err := NewSet([]Definition{
		{Name: "pr_fatal", Expr: "model_time <= 6 and 0.003 or 0"},
		{Name: "pr_double", Expr: "pr_fatal * 2"},
		{Name: "pr_fixed", Expr: "0.0208"},
	})
	if err != nil {
		t.Fatalf("NewSet() error = %v", err)
	}

	ev := expr.New()

	tests := []struct {
		cycle      int
		wantFatal  float64
		wantDouble float64
	}{
		{cycle: 1, wantFatal: 0.003, wantDouble: 0.006},
		{cycle: 6, wantFatal: 0.003, wantDouble: 0.006},
		{cycle: 7, wantFatal: 0, wantDouble: 0},
	}

	for _, tt := range tests {
		env, err := set.Values(ev, tt.cycle)
		if err != nil {
			t.Fatalf("Values(%d) error = %v", tt.cycle, err)
		}
		if got := env["pr_fatal"]; math.Abs(got-tt.wantFatal) > 1e-12 {
			t.Errorf("cycle %d: pr_fatal = %v, want %v", tt.cycle, got, tt.wantFatal)
		}
		if got := env["pr_double"]; math.Abs(got-tt.wantDouble) > 1e-12 {
			t.Errorf("cycle %d: pr_double = %v, want %v", tt.cycle, got, tt.wantDouble)
		}
		if got := env[TimeVar]; got != float64(tt.cycle) {
			t.Errorf("cycle %d: %s = %v", tt.cycle, TimeVar, got)
		}
	}
}

func TestSetEvaluatesInDependencyOrder(t *testing.T) {
	// Declared out of order: "b" depends on "a" but comes first.
	set, err := NewSet([]Definition{
		{Name: "b", Expr: "a + 1"},
		{Name: "a", Expr: "2"},
	})
	if err != nil {
		t.Fatalf("NewSet() error = %v", err)
	}

	env, err := set.Values(expr.New(), 1)
	if err != nil {
		t.Fatalf("Values() error = %v", err)
	}
	if env["b"] != 3 {
		t.Errorf("b = %v, want 3", env["b"])
	}
}

func TestNewSetCycleDetection(t *testing.T) {
	_, err := NewSet([]Definition{
		{Name: "a", Expr: "b + 1"},
		{Name: "b", Expr: "c + 1"},
		{Name: "c", Expr: "a + 1"},
	})
	if err == nil {
		t.Fatal("NewSet() expected cycle error, got nil")
	}

	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("NewSet() error = %T, want *CycleError", err)
	}
	if len(cycleErr.Names) < 3 {
		t.Errorf("CycleError.Names = %v, want the full cycle", cycleErr.Names)
	}
}

func TestNewSetRejectsBadDefinitions(t *testing.T) {
	tests := []struct {
		name string
		defs []Definition
	}{
		{
			name: "duplicate name",
			defs: []Definition{{Name: "a", Expr: "1"}, {Name: "a", Expr: "2"}},
		},
		{
			name: "reserved name",
			defs: []Definition{{Name: TimeVar, Expr: "1"}},
		},
		{
			name: "self reference",
			defs: []Definition{{Name: "a", Expr: "a + 1"}},
		},
		{
			name: "empty name",
			defs: []Definition{{Name: "", Expr: "1"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSet(tt.defs); err == nil {
				t.Error("NewSet() expected error, got nil")
			}
		})
	}
}

func TestDependsOnTime(t *testing.T) {
	set, err := NewSet([]Definition{
		{Name: "direct", Expr: "model_time * 0.01"},
		{Name: "indirect", Expr: "direct + 0.5"},
		{Name: "fixed", Expr: "0.25"},
		{Name: "derived_fixed", Expr: "fixed * 2"},
	})
	if err != nil {
		t.Fatalf("NewSet() error = %v", err)
	}

	tests := []struct {
		param string
		want  bool
	}{
		{"direct", true},
		{"indirect", true},
		{"fixed", false},
		{"derived_fixed", false},
		{"unknown", false},
	}

	for _, tt := range tests {
		if got := set.DependsOnTime(tt.param); got != tt.want {
			t.Errorf("DependsOnTime(%q) = %v, want %v", tt.param, got, tt.want)
		}
	}
}
