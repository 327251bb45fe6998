package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/openhta/cohort/internal/markov"
)

func testTrace() *markov.Trace {
	return markov.NewTrace("treat",
		[]markov.State{{Name: "Alive"}, {Name: "Death", Absorbing: true}},
		[][]float64{
			{1, 0},
			{0.99, 0.01},
		},
		[]float64{0.995}, 0.995, 1)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, testTrace()); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	var p Payload
	if err := json.Unmarshal(buf.Bytes(), &p); err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if p.Strategy != "treat" || p.Cycles != 1 || p.Effect != 0.995 {
		t.Errorf("payload = %+v", p)
	}
	if len(p.Occupancy) != 2 || p.Occupancy[1]["Death"] != 0.01 {
		t.Errorf("occupancy = %v", p.Occupancy)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, testTrace()); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("WriteCSV() wrote %d lines, want 3", len(lines))
	}
	if lines[0] != "cycle,Alive,Death,increment" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "0,1,0,0.995" {
		t.Errorf("cycle 0 row = %q", lines[1])
	}
	// The final cycle has no outgoing increment.
	if lines[2] != "1,0.99,0.01," {
		t.Errorf("cycle 1 row = %q", lines[2])
	}
}

func TestWriteCSVScalesByCohortSize(t *testing.T) {
	tr := testTrace()
	tr.CohortSize = 1000

	var buf bytes.Buffer
	if err := WriteCSV(&buf, tr); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	if !strings.Contains(buf.String(), "1,990,10,") {
		t.Errorf("output missing scaled counts:\n%s", buf.String())
	}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTable(&buf, testTrace()); err != nil {
		t.Fatalf("WriteTable() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Strategy: treat (1 cycles)",
		"Alive",
		"Death",
		"0.990000",
		"Cumulative effect: 0.995000",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
