package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openhta/cohort/internal/config"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <model.yaml>",
		Short: "Validate a model definition without running it",
		Long: `Perform the eager validation pass on a model definition: state
references, complement marker counts, and the parameter dependency
graph. Cycle-dependent conditions (probability ranges, row sums) can
only surface during a run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			m, err := config.LoadFromFile(args[0])
			if err != nil {
				if jsonOut {
					json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
						"valid": false,
						"error": err.Error(),
					})
					return nil
				}
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"valid":      true,
					"model":      m.Name,
					"states":     len(m.States),
					"cycles":     m.Cycles,
					"strategies": len(m.Strategies),
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid (%d states, %d cycles, %d strategies)\n",
				m.Name, len(m.States), m.Cycles, len(m.Strategies))
			return nil
		},
	}
}
