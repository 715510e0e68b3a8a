package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/me/cpusched/internal/status"
	"github.com/me/cpusched/pkg/model"
)

func newHistoryCmd() *cobra.Command {
	var (
		db     string
		alg    = algorithmValue{optional: true}
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List saved runs, or show the processes of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			path, err := historyDB(db, cfg.Store.DBPath)
			if err != nil {
				return err
			}
			st, err := openStore(cmd.Context(), path)
			if err != nil {
				return err
			}
			defer st.Close()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				run, err := st.GetRun(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("get run: %w", err)
				}
				if run == nil {
					return model.NewNotFoundError("run", args[0])
				}
				writeRun(out, run)
				return nil
			}

			opts := model.ListOptions{Limit: limit, Offset: offset, Algorithm: string(alg.alg)}
			opts.Clamp()
			runs, total, err := st.ListRuns(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs found.")
				return nil
			}

			table := tablewriter.NewWriter(out)
			table.SetHeader([]string{"ID", "Algorithm", "Trace", "Processes", "Success", "Deadline", "Cancelled", "Switches", "Started"})
			table.SetAutoFormatHeaders(false)
			for _, r := range runs {
				table.Append([]string{
					r.ID,
					string(r.Algorithm),
					r.TraceName,
					strconv.Itoa(r.ProcessCount),
					strconv.Itoa(r.Counts.Success),
					strconv.Itoa(r.Counts.Deadline),
					strconv.Itoa(r.Counts.Cancelled),
					humanize.Comma(r.ContextSwitches),
					humanize.Time(r.StartedAt),
				})
			}
			table.Render()

			if opts.Offset+len(runs) < total {
				fmt.Fprintf(out, "\n(%d of %d shown)\n", len(runs), total)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&db, "db", "", "SQLite history database (overrides store.db_path)")
	cmd.Flags().Var(&alg, "algorithm", "Only list runs of this algorithm")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "Runs to skip")
	return cmd
}

// writeRun prints a stored run with one row per process in trace order.
func writeRun(out io.Writer, run *model.RunResult) {
	fmt.Fprintf(out, "Run:       %s\n", run.ID)
	fmt.Fprintf(out, "Algorithm: %s\n", run.Algorithm)
	if run.TraceName != "" {
		fmt.Fprintf(out, "Trace:     %s\n", run.TraceName)
	}
	fmt.Fprintf(out, "Started:   %s (%s)\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"), humanize.Time(run.StartedAt))
	fmt.Fprintf(out, "Duration:  %s\n", status.FormatDuration(run.CompletedAt.Sub(run.StartedAt)))
	fmt.Fprintf(out, "Switches:  %s\n", humanize.Comma(run.ContextSwitches))
	fmt.Fprintf(out, "Deadlines: %.0f%% met\n", run.DeadlineCompliance()*100)
	if run.Aborted {
		fmt.Fprintln(out, "Aborted:   yes")
	}
	fmt.Fprintln(out)

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Name", "Deadline", "Start", "Burst", "State", "Visits", "Real start", "Real end", "CPU"})
	table.SetAutoFormatHeaders(false)
	for _, p := range run.Processes {
		realStart, realEnd := "-", "-"
		if p.Dispatched {
			realStart = status.FormatDuration(p.RealStart)
			realEnd = status.FormatDuration(p.RealEnd)
		}
		table.Append([]string{
			p.Name,
			strconv.Itoa(p.Deadline),
			strconv.Itoa(p.StartTime),
			strconv.Itoa(p.BurstTime),
			string(p.State),
			strconv.FormatInt(p.Visits, 10),
			realStart,
			realEnd,
			status.FormatDuration(p.CurrentBurst),
		})
	}
	table.Render()
}
