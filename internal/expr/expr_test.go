package expr

import (
	"math"
	"testing"
)

func TestEval(t *testing.T) {
	tests := []struct {
		name string
		src  string
		env  map[string]float64
		want float64
	}{
		{
			name: "literal",
			src:  "0.0208",
			want: 0.0208,
		},
		{
			name: "arithmetic",
			src:  "1 - 0.003 - 0.0208 - 0.00164",
			want: 0.97456,
		},
		{
			name: "binding reference",
			src:  "pr_base * 2",
			env:  map[string]float64{"pr_base": 0.1},
			want: 0.2,
		},
		{
			name: "conditional true branch",
			src:  "model_time <= 6 and 0.003 or 0",
			env:  map[string]float64{"model_time": 6},
			want: 0.003,
		},
		{
			name: "conditional false branch",
			src:  "model_time <= 6 and 0.003 or 0",
			env:  map[string]float64{"model_time": 7},
			want: 0,
		},
		{
			name: "math library",
			src:  "math.exp(0)",
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := New()
			got, err := ev.Eval(tt.src, tt.env)
			if err != nil {
				t.Fatalf("Eval(%q) error = %v", tt.src, err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Eval(%q) = %v, want %v", tt.src, got, tt.want)
			}
		})
	}
}

func TestEvalShadowsStaleBindings(t *testing.T) {
	ev := New()

	got, err := ev.Eval("x + 1", map[string]float64{"x": 1})
	if err != nil {
		t.Fatalf("Eval() error = %v", err)
	}
	if got != 2 {
		t.Fatalf("Eval() = %v, want 2", got)
	}

	// The same binding with a new value must win over the old global.
	got, err = ev.Eval("x + 1", map[string]float64{"x": 5})
	if err != nil {
		t.Fatalf("Eval() error = %v", err)
	}
	if got != 6 {
		t.Errorf("Eval() = %v, want 6", got)
	}
}

func TestEvalErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "not a number", src: "'abc'"},
		{name: "syntax error", src: "1 +"},
		{name: "nil arithmetic", src: "undefined_param + 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := New()
			if _, err := ev.Eval(tt.src, nil); err == nil {
				t.Errorf("Eval(%q) expected error, got nil", tt.src)
			}
		})
	}
}
