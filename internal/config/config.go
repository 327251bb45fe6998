// Package config loads model definitions from YAML files and resolves
// them into validated model.Model values. The file format is the only
// configuration surface; the engine itself takes no environment input.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/openhta/cohort/internal/markov"
	"github.com/openhta/cohort/internal/model"
	"github.com/openhta/cohort/internal/params"
)

// ComplementKeyword marks the complement cell in a transition row:
// the entry resolves to 1 minus the sum of the row's other entries.
const ComplementKeyword = "complement"

// File is the YAML shape of a model definition.
type File struct {
	// Name identifies the model in output and stored runs.
	Name string `yaml:"name"`

	// Cycles is the number of discrete time steps to simulate.
	Cycles int `yaml:"cycles"`

	// CohortSize scales reported occupancy from proportions to counts.
	// Defaults to 1.0 (proportions).
	CohortSize float64 `yaml:"cohort_size"`

	// StartState names the state holding the whole cohort at cycle 0.
	StartState string `yaml:"start_state"`

	// States is the ordered state list; order fixes matrix rows and
	// columns.
	States []StateDef `yaml:"states"`

	// Parameters are named expressions over model_time and other
	// parameters, re-evaluated each cycle.
	Parameters []ParamDef `yaml:"parameters"`

	// Strategies each bind a transition specification to the shared
	// state set.
	Strategies []StrategyDef `yaml:"strategies"`
}

// StateDef declares one state.
type StateDef struct {
	Name string `yaml:"name"`

	// Value is the per-cycle value expression integrated into the
	// cumulative effect. Defaults to "0" for absorbing states and "1"
	// otherwise.
	Value string `yaml:"value,omitempty"`

	// Absorbing marks a state that is never left. Its transition row
	// may be omitted (identity implied) and is verified if present.
	Absorbing bool `yaml:"absorbing,omitempty"`
}

// ParamDef declares one parameter.
type ParamDef struct {
	Name string `yaml:"name"`
	Expr string `yaml:"expr"`
}

// StrategyDef declares one strategy. Transition cells are expressions,
// except the literal string "complement" which marks the row's
// complement cell. Omitted cells are probability 0.
type StrategyDef struct {
	Name        string                       `yaml:"name"`
	Transitions map[string]map[string]string `yaml:"transitions"`
	Values      map[string]string            `yaml:"values,omitempty"`
}

// LoadFromFile reads, parses, and validates a model definition.
func LoadFromFile(path string) (*model.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model file: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse decodes a YAML model definition and validates it. Unknown keys
// are rejected so that typos fail loudly rather than silently dropping
// a probability.
func Parse(data []byte) (*model.Model, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing model definition: %w", err)
	}

	m, err := f.Model()
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Model resolves the file into a model.Model, applying defaults.
func (f *File) Model() (*model.Model, error) {
	if f.Name == "" {
		return nil, fmt.Errorf("model definition has no name")
	}

	m := &model.Model{
		Name:       f.Name,
		Cycles:     f.Cycles,
		CohortSize: f.CohortSize,
		StartState: f.StartState,
		Values:     make(map[string]string, len(f.States)),
	}
	if m.CohortSize == 0 {
		m.CohortSize = 1
	}

	for _, sd := range f.States {
		m.States = append(m.States, markov.State{Name: sd.Name, Absorbing: sd.Absorbing})
		if sd.Value != "" {
			m.Values[sd.Name] = sd.Value
		}
	}

	for _, pd := range f.Parameters {
		m.Parameters = append(m.Parameters, params.Definition{Name: pd.Name, Expr: pd.Expr})
	}

	for _, sd := range f.Strategies {
		st := model.Strategy{
			Name:        sd.Name,
			Transitions: make(map[string]map[string]markov.Cell, len(sd.Transitions)),
			Values:      sd.Values,
		}
		for row, cols := range sd.Transitions {
			cells := make(map[string]markov.Cell, len(cols))
			for col, raw := range cols {
				if raw == ComplementKeyword {
					cells[col] = markov.Complement()
				} else {
					cells[col] = markov.Literal(raw)
				}
			}
			st.Transitions[row] = cells
		}
		m.Strategies = append(m.Strategies, st)
	}

	return m, nil
}
