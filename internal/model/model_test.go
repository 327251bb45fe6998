package model

import (
	"errors"
	"testing"

	"github.com/openhta/cohort/internal/markov"
	"github.com/openhta/cohort/internal/params"
)

func validModel() *Model {
	return &Model{
		Name:       "test",
		Cycles:     10,
		StartState: "Alive",
		States: []markov.State{
			{Name: "Alive"},
			{Name: "Death", Absorbing: true},
		},
		Parameters: []params.Definition{
			{Name: "pr_death", Expr: "0.1"},
		},
		Strategies: []Strategy{
			{
				Name: "base",
				Transitions: map[string]map[string]markov.Cell{
					"Alive": {
						"Alive": markov.Complement(),
						"Death": markov.Literal("pr_death"),
					},
				},
			},
		},
	}
}

func TestValidate(t *testing.T) {
	if err := validModel().Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Model)
		unknown bool // expect *UnknownStateError
	}{
		{
			name:   "zero cycles",
			mutate: func(m *Model) { m.Cycles = 0 },
		},
		{
			name:   "no states",
			mutate: func(m *Model) { m.States = nil },
		},
		{
			name: "duplicate state",
			mutate: func(m *Model) {
				m.States = append(m.States, markov.State{Name: "Alive"})
			},
		},
		{
			name:    "unknown start state",
			mutate:  func(m *Model) { m.StartState = "Ghost" },
			unknown: true,
		},
		{
			name: "unknown state in values",
			mutate: func(m *Model) {
				m.Values = map[string]string{"Ghost": "1"}
			},
			unknown: true,
		},
		{
			name: "unknown row state",
			mutate: func(m *Model) {
				m.Strategies[0].Transitions["Ghost"] = map[string]markov.Cell{
					"Alive": markov.Literal("1"),
				}
			},
			unknown: true,
		},
		{
			name: "unknown column state",
			mutate: func(m *Model) {
				m.Strategies[0].Transitions["Alive"]["Ghost"] = markov.Literal("0")
			},
			unknown: true,
		},
		{
			name: "unknown state in strategy values",
			mutate: func(m *Model) {
				m.Strategies[0].Values = map[string]string{"Ghost": "0.8"}
			},
			unknown: true,
		},
		{
			name:   "no strategies",
			mutate: func(m *Model) { m.Strategies = nil },
		},
		{
			name: "duplicate strategy",
			mutate: func(m *Model) {
				m.Strategies = append(m.Strategies, m.Strategies[0])
			},
		},
		{
			name: "missing row for live state",
			mutate: func(m *Model) {
				delete(m.Strategies[0].Transitions, "Alive")
			},
		},
		{
			name: "parameter cycle",
			mutate: func(m *Model) {
				m.Parameters = []params.Definition{
					{Name: "a", Expr: "b"},
					{Name: "b", Expr: "a"},
				}
			},
		},
		{
			name: "two complements in a row",
			mutate: func(m *Model) {
				m.Strategies[0].Transitions["Alive"]["Death"] = markov.Complement()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validModel()
			tt.mutate(m)
			err := m.Validate()
			if err == nil {
				t.Fatal("Validate() expected error, got nil")
			}
			if tt.unknown {
				var e *UnknownStateError
				if !errors.As(err, &e) {
					t.Errorf("Validate() error = %T (%v), want *UnknownStateError", err, err)
				}
			}
		})
	}
}

func TestValidateAllowsOmittedAbsorbingRow(t *testing.T) {
	m := validModel()
	// Death declares no transition row; the identity row is implied.
	if _, declared := m.Strategies[0].Transitions["Death"]; declared {
		t.Fatal("fixture should omit the absorbing row")
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValueExprDefaults(t *testing.T) {
	m := validModel()
	m.Values = map[string]string{"Alive": "0.9"}
	m.Strategies[0].Values = map[string]string{"Alive": "0.95"}

	exprs := m.valueExprs(m.Strategies[0])
	if exprs[0] != "0.95" {
		t.Errorf("Alive value = %q, want strategy override 0.95", exprs[0])
	}
	if exprs[1] != "0" {
		t.Errorf("Death value = %q, want absorbing default 0", exprs[1])
	}

	exprs = m.valueExprs(Strategy{Name: "bare"})
	if exprs[0] != "0.9" {
		t.Errorf("Alive value = %q, want model value 0.9", exprs[0])
	}
}
