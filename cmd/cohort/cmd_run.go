package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/openhta/cohort/internal/config"
	"github.com/openhta/cohort/internal/logging"
	"github.com/openhta/cohort/internal/markov"
	"github.com/openhta/cohort/internal/model"
	"github.com/openhta/cohort/internal/report"
	"github.com/openhta/cohort/internal/store"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <model.yaml>",
		Short: "Run a model's strategies and report the traces",
		Long: `Simulate every strategy of a model (or one, with --strategy) and
report the occupancy time series and cumulative effect.

Examples:
  cohort run model.yaml
  cohort run model.yaml --strategy standard --format csv
  cohort run model.yaml --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			level, _ := cmd.Flags().GetString("log-level")
			jsonOut, _ := cmd.Flags().GetBool("json")
			strategy, _ := cmd.Flags().GetString("strategy")
			format, _ := cmd.Flags().GetString("format")
			save, _ := cmd.Flags().GetBool("save")

			logger := logging.NewLogger(level, os.Stderr)

			m, err := config.LoadFromFile(args[0])
			if err != nil {
				return err
			}
			logger.Debug("model loaded", "name", m.Name, "states", len(m.States), "cycles", m.Cycles)

			var results []model.Result
			if strategy != "" {
				tr, err := m.Run(strategy)
				if err != nil {
					return err
				}
				results = []model.Result{{Strategy: strategy, Trace: tr}}
			} else {
				results, err = m.RunAll()
				if err != nil {
					return err
				}
			}

			cycleLog := logging.NewCycleLogger(filepath.Join(root, ".cohort"), level)
			defer cycleLog.Close()
			logTraces(cycleLog, m, results)

			var runIDs []string
			if save {
				runIDs, err = saveResults(cmd.Context(), root, m, results)
				if err != nil {
					return err
				}
			}

			if jsonOut {
				payloads := make([]report.Payload, len(results))
				for i, res := range results {
					payloads[i] = report.NewPayload(res.Trace)
				}
				out := map[string]interface{}{
					"model":   m.Name,
					"results": payloads,
				}
				if save {
					out["run_ids"] = runIDs
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(out)
			}

			for i, res := range results {
				if i > 0 {
					fmt.Fprintln(cmd.OutOrStdout())
				}
				if err := renderTrace(cmd, format, res.Trace); err != nil {
					return err
				}
			}
			for _, id := range runIDs {
				fmt.Fprintf(cmd.OutOrStdout(), "Saved run %s\n", id)
			}

			return nil
		},
	}

	cmd.Flags().String("strategy", "", "Run only the named strategy")
	cmd.Flags().String("format", "table", "Output format (table, csv, json)")
	cmd.Flags().Bool("save", false, "Persist the trace to .cohort/runs.db")

	return cmd
}

func renderTrace(cmd *cobra.Command, format string, tr *markov.Trace) error {
	switch format {
	case "table":
		return report.WriteTable(cmd.OutOrStdout(), tr)
	case "csv":
		return report.WriteCSV(cmd.OutOrStdout(), tr)
	case "json":
		return report.WriteJSON(cmd.OutOrStdout(), tr)
	default:
		return fmt.Errorf("unknown format %q (must be table, csv, or json)", format)
	}
}

// logTraces writes per-cycle occupancy (and, at trace level, the
// resolved matrices) to the cycle log. No-op when the log is disabled.
func logTraces(cycleLog *logging.CycleLogger, m *model.Model, results []model.Result) {
	if cycleLog == nil {
		return
	}
	for _, res := range results {
		for t := range res.Trace.Dist {
			cycleLog.LogCycle(res.Strategy, t, res.Trace.Occupancy(t))
		}
		matrices, err := m.Matrices(res.Strategy)
		if err != nil {
			continue
		}
		for t, mat := range matrices {
			cycleLog.LogMatrix(res.Strategy, t+1, res.Trace.States, mat)
		}
	}
}

func saveResults(ctx context.Context, root string, m *model.Model, results []model.Result) ([]string, error) {
	runStore, err := store.NewSQLiteRunStore(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open run store: %w", err)
	}
	defer runStore.Close()

	ids := make([]string, 0, len(results))
	for _, res := range results {
		id, err := runStore.SaveRun(ctx, store.RunRecord{
			Model:      m.Name,
			Strategy:   res.Strategy,
			Cycles:     res.Trace.Cycles(),
			CohortSize: res.Trace.CohortSize,
			Effect:     res.Trace.Effect,
			States:     res.Trace.States,
			Dist:       res.Trace.Dist,
			Increments: res.Trace.Increments,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to save run for strategy %s: %w", res.Strategy, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
