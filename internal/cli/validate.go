package cli

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/me/cpusched/internal/engine"
	"github.com/me/cpusched/internal/status"
	"github.com/me/cpusched/internal/trace"
	"github.com/me/cpusched/pkg/model"
)

func newValidateCmd() *cobra.Command {
	var alg algorithmValue
	alg.alg = model.AlgorithmSJF

	cmd := &cobra.Command{
		Use:   "validate <trace-file>",
		Short: "Check a trace and show the dispatch order without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			specs, err := trace.ParseFile(args[0], trace.Limits{
				MaxProcesses:  cfg.Limits.MaxProcesses,
				MaxNameLength: cfg.Limits.MaxNameLength,
			})
			if err != nil {
				return err
			}
			reg, err := engine.NewRegistry(specs, alg.alg, engine.FromConfig(cfg))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Trace:     %s\n", args[0])
			fmt.Fprintf(out, "Algorithm: %s\n", reg.Algorithm())
			fmt.Fprintf(out, "Processes: %d\n\n", reg.Len())

			table := tablewriter.NewWriter(out)
			table.SetHeader([]string{"#", "Name", "Key", "Deadline", "Start", "Burst", "Quantum"})
			table.SetAutoFormatHeaders(false)
			table.SetAlignment(tablewriter.ALIGN_RIGHT)
			for i, p := range reg.Processes() {
				spec := p.Spec()
				quantum := "-"
				if reg.Algorithm().IsPreemptive() {
					quantum = status.FormatDuration(p.BaseQuantum())
				}
				table.Append([]string{
					strconv.Itoa(i + 1),
					p.Name(),
					strconv.Itoa(p.Priority()),
					strconv.Itoa(spec.Deadline),
					strconv.Itoa(spec.StartTime),
					strconv.Itoa(spec.BurstTime),
					quantum,
				})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().VarP(&alg, "algorithm", "a", algorithmUsage())
	return cmd
}
