package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/openhta/cohort/internal/markov"
	"github.com/openhta/cohort/internal/report"
	"github.com/openhta/cohort/internal/store"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect persisted runs",
	}
	cmd.AddCommand(newRunsListCmd(), newRunsShowCmd())
	return cmd
}

func newRunsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List persisted runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")

			runStore, err := store.NewSQLiteRunStore(root)
			if err != nil {
				return fmt.Errorf("failed to open run store: %w", err)
			}
			defer runStore.Close()

			runs, err := runStore.ListRuns(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"runs":  runs,
					"count": len(runs),
				})
			}

			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs saved yet. Use 'cohort run --save' to persist one.")
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Saved runs (%d):\n\n", len(runs))
			for _, r := range runs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s/%s  cycles=%d  effect=%.6f  %s\n",
					r.ID, r.Model, r.Strategy, r.Cycles, r.Effect, r.CreatedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func newRunsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a persisted run's full trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			format, _ := cmd.Flags().GetString("format")

			runStore, err := store.NewSQLiteRunStore(root)
			if err != nil {
				return fmt.Errorf("failed to open run store: %w", err)
			}
			defer runStore.Close()

			rec, err := runStore.GetRun(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get run: %w", err)
			}
			if rec == nil {
				if jsonOut {
					json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
						"error": "run not found",
						"id":    args[0],
					})
					return nil
				}
				return fmt.Errorf("run not found: %s", args[0])
			}

			tr := &markov.Trace{
				Strategy:   rec.Strategy,
				States:     rec.States,
				Dist:       rec.Dist,
				Increments: rec.Increments,
				Effect:     rec.Effect,
				CohortSize: rec.CohortSize,
			}

			if jsonOut {
				return report.WriteJSON(cmd.OutOrStdout(), tr)
			}
			return renderTrace(cmd, format, tr)
		},
	}

	cmd.Flags().String("format", "table", "Output format (table, csv, json)")
	return cmd
}
