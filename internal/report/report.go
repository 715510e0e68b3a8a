// Package report aggregates stored runs into per-algorithm deadline and
// context-switch statistics.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"gonum.org/v1/gonum/stat"

	"github.com/me/cpusched/pkg/model"
)

// Row summarizes every run of one algorithm over traces of one size.
type Row struct {
	Algorithm model.Algorithm `json:"algorithm"`
	Processes int             `json:"processes"`
	Runs      int             `json:"runs"`

	// Fraction of processes that ended by their deadline.
	ComplianceMean   float64 `json:"compliance_mean"`
	ComplianceStdDev float64 `json:"compliance_stddev"`

	SwitchesMean   float64 `json:"switches_mean"`
	SwitchesStdDev float64 `json:"switches_stddev"`
	SwitchesMedian float64 `json:"switches_median"`
}

type groupKey struct {
	alg   model.Algorithm
	procs int
}

// Build groups runs by algorithm and process count. Aborted runs are
// skipped. Rows come out in algorithm id order, then by process count.
func Build(runs []*model.RunResult) []Row {
	compliance := map[groupKey][]float64{}
	switches := map[groupKey][]float64{}
	for _, r := range runs {
		if r.Aborted || len(r.Processes) == 0 {
			continue
		}
		k := groupKey{alg: r.Algorithm, procs: len(r.Processes)}
		compliance[k] = append(compliance[k], r.DeadlineCompliance())
		switches[k] = append(switches[k], float64(r.ContextSwitches))
	}

	rows := make([]Row, 0, len(compliance))
	for k, c := range compliance {
		s := switches[k]
		row := Row{Algorithm: k.alg, Processes: k.procs, Runs: len(c)}
		row.ComplianceMean, row.ComplianceStdDev = meanStdDev(c)
		row.SwitchesMean, row.SwitchesStdDev = meanStdDev(s)
		sort.Float64s(s)
		row.SwitchesMedian = stat.Quantile(0.5, stat.Empirical, s, nil)
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		ai, aj := algorithmOrder(rows[i].Algorithm), algorithmOrder(rows[j].Algorithm)
		if ai != aj {
			return ai < aj
		}
		return rows[i].Processes < rows[j].Processes
	})
	return rows
}

// meanStdDev is stat.MeanStdDev with a zero deviation for single samples.
func meanStdDev(x []float64) (float64, float64) {
	mean, std := stat.MeanStdDev(x, nil)
	if math.IsNaN(std) {
		std = 0
	}
	return mean, std
}

func algorithmOrder(a model.Algorithm) int {
	for i, known := range model.Algorithms {
		if known == a {
			return i
		}
	}
	return len(model.Algorithms)
}

// WriteTable renders rows as a text table.
func WriteTable(w io.Writer, rows []Row) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Algorithm", "Processes", "Runs", "Deadline met", "±", "Switches", "±", "Median"})
	table.SetAutoFormatHeaders(false)
	for _, r := range rows {
		table.Append([]string{
			string(r.Algorithm),
			strconv.Itoa(r.Processes),
			strconv.Itoa(r.Runs),
			fmt.Sprintf("%.1f%%", r.ComplianceMean*100),
			fmt.Sprintf("%.1f", r.ComplianceStdDev*100),
			fmt.Sprintf("%.1f", r.SwitchesMean),
			fmt.Sprintf("%.1f", r.SwitchesStdDev),
			fmt.Sprintf("%.0f", r.SwitchesMedian),
		})
	}
	table.Render()
}

// WriteCSV writes one line per row with a header, for plotting.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"algorithm", "processes", "runs", "compliance_mean", "compliance_stddev",
		"switches_mean", "switches_stddev", "switches_median"})
	for _, r := range rows {
		cw.Write([]string{
			string(r.Algorithm),
			strconv.Itoa(r.Processes),
			strconv.Itoa(r.Runs),
			formatFloat(r.ComplianceMean),
			formatFloat(r.ComplianceStdDev),
			formatFloat(r.SwitchesMean),
			formatFloat(r.SwitchesStdDev),
			formatFloat(r.SwitchesMedian),
		})
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}
