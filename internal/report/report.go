// Package report renders completed traces for human and machine
// consumption. It performs no computation beyond formatting; the trace
// is exposed exactly as the engine produced it.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/openhta/cohort/internal/markov"
)

// Payload is the machine-readable shape of a trace.
type Payload struct {
	Strategy   string               `json:"strategy"`
	States     []string             `json:"states"`
	Cycles     int                  `json:"cycles"`
	CohortSize float64              `json:"cohort_size"`
	Effect     float64              `json:"effect"`
	Occupancy  []map[string]float64 `json:"occupancy"`
	Increments []float64            `json:"increments"`
}

// NewPayload converts a trace into its machine-readable shape, with
// occupancy scaled by the cohort size.
func NewPayload(tr *markov.Trace) Payload {
	occ := make([]map[string]float64, len(tr.Dist))
	for t := range tr.Dist {
		occ[t] = tr.Occupancy(t)
	}
	return Payload{
		Strategy:   tr.Strategy,
		States:     tr.States,
		Cycles:     tr.Cycles(),
		CohortSize: tr.CohortSize,
		Effect:     tr.Effect,
		Occupancy:  occ,
		Increments: tr.Increments,
	}
}

// WriteJSON writes the trace as a single JSON document.
func WriteJSON(w io.Writer, tr *markov.Trace) error {
	enc := json.NewEncoder(w)
	return enc.Encode(NewPayload(tr))
}

// WriteCSV writes one row per cycle: cycle index, occupancy per state
// (scaled by cohort size), and the effect increment attributed to the
// transition out of that cycle (empty for the final cycle).
func WriteCSV(w io.Writer, tr *markov.Trace) error {
	cw := csv.NewWriter(w)

	header := append([]string{"cycle"}, tr.States...)
	header = append(header, "increment")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for t := range tr.Dist {
		row := make([]string, 0, len(tr.States)+2)
		row = append(row, strconv.Itoa(t))
		for _, v := range tr.Counts(t) {
			row = append(row, formatFloat(v))
		}
		if t < len(tr.Increments) {
			row = append(row, formatFloat(tr.Increments[t]))
		} else {
			row = append(row, "")
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", t, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteTable writes an aligned text table of the trace followed by the
// cumulative effect.
func WriteTable(w io.Writer, tr *markov.Trace) error {
	fmt.Fprintf(w, "Strategy: %s (%d cycles)\n\n", tr.Strategy, tr.Cycles())

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprint(tw, "cycle")
	for _, name := range tr.States {
		fmt.Fprintf(tw, "\t%s", name)
	}
	fmt.Fprint(tw, "\n")

	for t := range tr.Dist {
		fmt.Fprintf(tw, "%d", t)
		for _, v := range tr.Counts(t) {
			fmt.Fprintf(tw, "\t%.6f", v)
		}
		fmt.Fprint(tw, "\n")
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nCumulative effect: %.6f\n", tr.Effect)
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
