package report

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/me/cpusched/pkg/model"
)

// run builds a result with n processes of which met end by their deadline.
func run(alg model.Algorithm, n, met int, switches int64) *model.RunResult {
	r := &model.RunResult{Algorithm: alg, TimeUnit: time.Second, ContextSwitches: switches}
	for i := 0; i < n; i++ {
		p := model.ProcessResult{Name: "p", Deadline: 5, State: model.ProcessStateSuccess, Dispatched: true, RealEnd: 2 * time.Second}
		if i >= met {
			p.State = model.ProcessStateDeadline
			p.RealEnd = 6 * time.Second
		}
		r.Processes = append(r.Processes, p)
	}
	return r
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestBuild(t *testing.T) {
	aborted := run(model.AlgorithmSJF, 4, 0, 100)
	aborted.Aborted = true

	rows := Build([]*model.RunResult{
		run(model.AlgorithmPriority, 4, 4, 40),
		run(model.AlgorithmSJF, 4, 2, 4),
		run(model.AlgorithmSJF, 4, 4, 4),
		run(model.AlgorithmSJF, 2, 1, 2),
		aborted,
		run(model.AlgorithmRoundRobin, 4, 1, 10),
		run(model.AlgorithmRoundRobin, 4, 3, 20),
		run(model.AlgorithmRoundRobin, 4, 2, 60),
	})

	if len(rows) != 4 {
		t.Fatalf("rows = %d, want 4: %+v", len(rows), rows)
	}
	order := []struct {
		alg   model.Algorithm
		procs int
	}{
		{model.AlgorithmSJF, 2}, {model.AlgorithmSJF, 4}, {model.AlgorithmRoundRobin, 4}, {model.AlgorithmPriority, 4},
	}
	for i, want := range order {
		if rows[i].Algorithm != want.alg || rows[i].Processes != want.procs {
			t.Errorf("row %d = %s/%d, want %s/%d", i, rows[i].Algorithm, rows[i].Processes, want.alg, want.procs)
		}
	}

	sjf := rows[1]
	if sjf.Runs != 2 {
		t.Errorf("sjf runs = %d, want 2 (aborted run skipped)", sjf.Runs)
	}
	if !approx(sjf.ComplianceMean, 0.75) {
		t.Errorf("sjf compliance mean = %v, want 0.75", sjf.ComplianceMean)
	}

	rr := rows[2]
	if !approx(rr.SwitchesMean, 30) || !approx(rr.SwitchesStdDev, math.Sqrt(700)) {
		t.Errorf("rr switches = %v ± %v, want 30 ± %v", rr.SwitchesMean, rr.SwitchesStdDev, math.Sqrt(700))
	}
	if rr.SwitchesMedian != 20 {
		t.Errorf("rr median = %v, want 20", rr.SwitchesMedian)
	}

	if rows[0].ComplianceStdDev != 0 {
		t.Errorf("single-run stddev = %v, want 0", rows[0].ComplianceStdDev)
	}
}

func TestBuild_Empty(t *testing.T) {
	if rows := Build(nil); len(rows) != 0 {
		t.Errorf("Build(nil) = %v", rows)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	rows := []Row{{Algorithm: model.AlgorithmSJF, Processes: 50, Runs: 3, ComplianceMean: 0.5, SwitchesMean: 50, SwitchesMedian: 50}}
	if err := WriteCSV(&buf, rows); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if lines[1] != "sjf,50,3,0.5000,0.0000,50.0000,0.0000,50.0000" {
		t.Errorf("row = %q", lines[1])
	}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	WriteTable(&buf, []Row{{Algorithm: model.AlgorithmPriority, Processes: 250, Runs: 1, ComplianceMean: 0.92}})
	out := buf.String()
	for _, want := range []string{"Algorithm", "priority", "250", "92.0%"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}
