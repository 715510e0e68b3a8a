// Package status renders live process tables while a run is in flight.
package status

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"github.com/me/cpusched/pkg/model"
)

// Source is the read-only run state the printer polls.
type Source interface {
	Snapshot() []model.ProcessSnapshot
	ContextSwitches() int64
	Elapsed() time.Duration
	Done() bool
}

// Printer redraws the process table at a fixed interval.
type Printer struct {
	out      io.Writer
	src      Source
	interval time.Duration
	logger   *slog.Logger
}

// NewPrinter creates a printer writing to out every interval.
func NewPrinter(out io.Writer, src Source, interval time.Duration, logger *slog.Logger) *Printer {
	if interval <= 0 {
		interval = time.Second
	}
	return &Printer{
		out:      out,
		src:      src,
		interval: interval,
		logger:   logger.With("component", "status"),
	}
}

// Run prints until ctx is cancelled or the source reports done, then prints
// a final table.
func (p *Printer) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	p.logger.Debug("status printer started", "interval", p.interval)

	for {
		select {
		case <-ctx.Done():
			p.Render()
			return
		case <-ticker.C:
			p.Render()
			if p.src.Done() {
				return
			}
		}
	}
}

// Render prints one table of the current snapshot.
func (p *Printer) Render() {
	WriteTable(p.out, p.src.Snapshot(), p.src.Elapsed(), p.src.ContextSwitches())
}

// WriteTable renders snaps as a table followed by a summary line.
func WriteTable(w io.Writer, snaps []model.ProcessSnapshot, elapsed time.Duration, switches int64) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "Start", "Deadline", "Burst", "Current", "Quantum", "Visits", "State"})
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	rows := make([][]string, 0, len(snaps))
	for _, s := range snaps {
		rows = append(rows, []string{
			s.Name,
			strconv.Itoa(s.StartTime),
			strconv.Itoa(s.Deadline),
			strconv.Itoa(s.BurstTime),
			FormatDuration(s.CurrentBurst),
			quantumLabel(s.Quantum),
			humanize.Comma(s.Visits),
			string(s.State),
		})
	}
	table.AppendBulk(rows)

	c := model.CountStates(snaps)
	table.SetFooter([]string{"", "", "", "", "", "",
		humanize.Comma(switches),
		fmt.Sprintf("%d/%d done", c.Success+c.Deadline+c.Cancelled, c.Total)})
	table.Render()
	fmt.Fprintf(w, "elapsed %s, %s context switches\n", FormatDuration(elapsed), humanize.Comma(switches))
}

// FormatDuration rounds d to milliseconds for display.
func FormatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}

func quantumLabel(q time.Duration) string {
	if q <= 0 {
		return "-"
	}
	return FormatDuration(q)
}
