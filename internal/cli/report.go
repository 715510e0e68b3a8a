package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/me/cpusched/internal/report"
)

func newReportCmd() *cobra.Command {
	var (
		db    string
		alg   = algorithmValue{optional: true}
		asCSV bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize saved runs: deadline compliance and context switches per algorithm",
		Args:  cobra.NoArgs,
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

			runs, err := st.LoadRuns(cmd.Context(), alg.alg)
			if err != nil {
				return fmt.Errorf("load runs: %w", err)
			}
			rows := report.Build(runs)

			out := cmd.OutOrStdout()
			if asCSV {
				return report.WriteCSV(out, rows)
			}
			if len(rows) == 0 {
				fmt.Fprintln(out, "No completed runs to report.")
				return nil
			}
			report.WriteTable(out, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&db, "db", "", "SQLite history database (overrides store.db_path)")
	cmd.Flags().Var(&alg, "algorithm", "Only report runs of this algorithm")
	cmd.Flags().BoolVar(&asCSV, "csv", false, "Write CSV instead of a table")
	return cmd
}
