package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/me/cpusched/internal/status"
	"github.com/me/cpusched/pkg/model"
)

// processTable mirrors the status API's live run payload.
type processTable struct {
	RunID           string                  `json:"run_id"`
	Algorithm       model.Algorithm         `json:"algorithm"`
	Elapsed         time.Duration           `json:"elapsed_ns"`
	ContextSwitches int64                   `json:"context_switches"`
	Done            bool                    `json:"done"`
	Counts          model.StateCounts       `json:"counts"`
	Processes       []model.ProcessSnapshot `json:"processes"`
}

func newStatusCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status [process]",
		Short: "Show the live process table of a run started with --serve",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				snap, err := client.Process(args[0])
				if err != nil {
					return fmt.Errorf("get process: %w", err)
				}
				if asJSON {
					return writeJSON(out, snap)
				}
				fmt.Fprintf(out, "Process:  %s\n", snap.Name)
				fmt.Fprintf(out, "  State:    %s\n", snap.State)
				fmt.Fprintf(out, "  Deadline: %d  Start: %d  Burst: %d\n", snap.Deadline, snap.StartTime, snap.BurstTime)
				fmt.Fprintf(out, "  Current:  %s\n", status.FormatDuration(snap.CurrentBurst))
				fmt.Fprintf(out, "  Visits:   %d\n", snap.Visits)
				return nil
			}

			table, err := client.Processes()
			if err != nil {
				return fmt.Errorf("get processes: %w", err)
			}
			if asJSON {
				return writeJSON(out, table)
			}
			state := "running"
			if table.Done {
				state = "completed"
			}
			fmt.Fprintf(out, "Run: %s (%s, %s)\n", table.RunID, table.Algorithm, state)
			status.WriteTable(out, table.Processes, table.Elapsed, table.ContextSwitches)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw JSON payload")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
