package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/me/cpusched/internal/logging"
	"github.com/me/cpusched/pkg/model"
)

// testConfig shrinks the time unit so scenarios finish quickly.
func testConfig(unit time.Duration) Config {
	cfg := DefaultConfig()
	cfg.TimeUnit = unit
	cfg.Grain = 500 * time.Microsecond
	cfg.WorkScale = 0.25
	cfg.StopTimeout = time.Second
	return cfg
}

func runSession(t *testing.T, alg model.Algorithm, cfg Config, ss []model.ProcessSpec) (*Session, *model.RunResult) {
	t.Helper()
	s, err := NewSession(ss, alg, cfg, logging.Discard())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	res, err := s.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return s, res
}

func resultByName(t *testing.T, res *model.RunResult, name string) model.ProcessResult {
	t.Helper()
	for _, p := range res.Processes {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("no result for %s", name)
	return model.ProcessResult{}
}

func assertAllTerminal(t *testing.T, res *model.RunResult) {
	t.Helper()
	for _, p := range res.Processes {
		if !p.State.IsTerminal() {
			t.Errorf("%s ended in non-terminal state %s", p.Name, p.State)
		}
		if p.Dispatched && p.RealEnd < p.RealStart {
			t.Errorf("%s real_end %v < real_start %v", p.Name, p.RealEnd, p.RealStart)
		}
	}
}

func TestNew(t *testing.T) {
	for _, alg := range model.Algorithms {
		d, err := New(alg)
		if err != nil {
			t.Fatalf("New(%s): %v", alg, err)
		}
		if d.Name() != alg {
			t.Errorf("New(%s).Name() = %s", alg, d.Name())
		}
	}
	if _, err := New("lottery"); err == nil {
		t.Error("New(lottery) succeeded")
	}
}

func TestSJF_DispatchesShortestFirst(t *testing.T) {
	cfg := testConfig(20 * time.Millisecond)
	_, res := runSession(t, model.AlgorithmSJF, cfg,
		specs(proc("A", 5, 0, 2), proc("B", 3, 0, 1), proc("C", 10, 0, 4)))

	assertAllTerminal(t, res)
	a, b, c := resultByName(t, res, "A"), resultByName(t, res, "B"), resultByName(t, res, "C")
	if !(b.RealStart < a.RealStart && a.RealStart < c.RealStart) {
		t.Errorf("start order: B=%v A=%v C=%v, want B < A < C", b.RealStart, a.RealStart, c.RealStart)
	}
	for _, p := range []model.ProcessResult{a, b, c} {
		if p.State != model.ProcessStateSuccess {
			t.Errorf("%s state = %s, want SUCCESS", p.Name, p.State)
		}
		if p.CurrentBurst <= 0 {
			t.Errorf("%s current burst = %v, want > 0", p.Name, p.CurrentBurst)
		}
		if p.Visits != 1 {
			t.Errorf("%s visits = %d, want 1", p.Name, p.Visits)
		}
	}
	if res.ContextSwitches != 3 {
		t.Errorf("context switches = %d, want 3", res.ContextSwitches)
	}
	if got := res.DeadlineCompliance(); got != 1 {
		t.Errorf("deadline compliance = %v, want 1", got)
	}
}

func TestSJF_CancelsOverrun(t *testing.T) {
	cfg := testConfig(20 * time.Millisecond)
	cfg.WorkScale = 3
	_, res := runSession(t, model.AlgorithmSJF, cfg, specs(proc("slow", 10, 0, 1)))

	p := res.Processes[0]
	if p.State != model.ProcessStateCancelled {
		t.Fatalf("state = %s, want CANCELLED", p.State)
	}
	if p.CurrentBurst < cfg.TimeUnit {
		t.Errorf("current burst = %v, want at least the %v bound", p.CurrentBurst, cfg.TimeUnit)
	}
}

func TestSJF_WaitsForStartTime(t *testing.T) {
	cfg := testConfig(20 * time.Millisecond)
	_, res := runSession(t, model.AlgorithmSJF, cfg, specs(proc("late", 20, 3, 1)))

	p := res.Processes[0]
	if p.RealStart < 3*cfg.TimeUnit {
		t.Errorf("real start = %v, want >= %v", p.RealStart, 3*cfg.TimeUnit)
	}
	if p.State != model.ProcessStateSuccess {
		t.Errorf("state = %s, want SUCCESS", p.State)
	}
}

func TestRoundRobin_VisitsEachProcessPerQuantum(t *testing.T) {
	cfg := testConfig(50 * time.Millisecond)
	cfg.RoundRobinQuantum = 25 * time.Millisecond
	cfg.WorkScale = 3 // units never finish on their own

	_, res := runSession(t, model.AlgorithmRoundRobin, cfg,
		specs(proc("a", 100, 0, 2), proc("b", 100, 0, 2), proc("c", 100, 0, 2)))

	assertAllTerminal(t, res)
	budget := 2 * cfg.TimeUnit
	minVisits := int64((budget + cfg.RoundRobinQuantum - 1) / cfg.RoundRobinQuantum)
	var visits int64
	for _, p := range res.Processes {
		visits += p.Visits
		if p.State != model.ProcessStateCancelled {
			t.Errorf("%s state = %s, want CANCELLED", p.Name, p.State)
		}
		if p.Visits < minVisits {
			t.Errorf("%s visits = %d, want >= %d", p.Name, p.Visits, minVisits)
		}
		if over := p.CurrentBurst - budget; over > cfg.RoundRobinQuantum+20*time.Millisecond {
			t.Errorf("%s overshoot %v exceeds one quantum", p.Name, over)
		}
	}
	if res.ContextSwitches != visits {
		t.Errorf("context switches = %d, want one per visit (%d)", res.ContextSwitches, visits)
	}
}

func TestRoundRobin_FinishedBeforeBudget(t *testing.T) {
	cfg := testConfig(20 * time.Millisecond)
	cfg.RoundRobinQuantum = 10 * time.Millisecond
	cfg.WorkScale = 0.1

	_, res := runSession(t, model.AlgorithmRoundRobin, cfg, specs(proc("quick", 10, 0, 2)))
	if p := res.Processes[0]; p.State != model.ProcessStateSuccess {
		t.Errorf("state = %s, want SUCCESS (burst %v)", p.State, p.CurrentBurst)
	}
}

func TestRoundRobin_BurstBeyondDeadline(t *testing.T) {
	cfg := testConfig(20 * time.Millisecond)
	cfg.RoundRobinQuantum = 10 * time.Millisecond
	cfg.WorkScale = 0.6

	_, res := runSession(t, model.AlgorithmRoundRobin, cfg, specs(proc("late", 1, 0, 3)))
	p := res.Processes[0]
	switch p.State {
	case model.ProcessStateDeadline, model.ProcessStateCancelled:
	default:
		t.Errorf("state = %s, want DEADLINE or CANCELLED", p.State)
	}
	// A single process still counts a switch at every quantum boundary.
	if res.ContextSwitches < 2 || res.ContextSwitches != p.Visits {
		t.Errorf("context switches = %d, visits = %d", res.ContextSwitches, p.Visits)
	}
}

func TestRoundRobin_IdleUntilArrival(t *testing.T) {
	cfg := testConfig(20 * time.Millisecond)
	cfg.RoundRobinQuantum = 10 * time.Millisecond
	cfg.WorkScale = 0.1

	_, res := runSession(t, model.AlgorithmRoundRobin, cfg,
		specs(proc("early", 20, 0, 1), proc("late", 20, 4, 1)))

	assertAllTerminal(t, res)
	if late := resultByName(t, res, "late"); late.RealStart < 4*cfg.TimeUnit {
		t.Errorf("late real start = %v, want >= %v", late.RealStart, 4*cfg.TimeUnit)
	}
}

func TestPriority_QuantumWithinBounds(t *testing.T) {
	cfg := testConfig(20 * time.Millisecond)
	cfg.PriorityStartQuantum = 5 * time.Millisecond
	cfg.PriorityQuantumIncrement = 5 * time.Millisecond
	cfg.PriorityMaxQuantum = 15 * time.Millisecond
	cfg.WorkScale = 0.2

	s, res := runSession(t, model.AlgorithmPriority, cfg,
		specs(proc("x", 30, 0, 2), proc("y", 10, 0, 2), proc("z", 20, 0, 2)))

	assertAllTerminal(t, res)
	for _, p := range s.Registry().Processes() {
		q := p.Quantum()
		if q < p.BaseQuantum() || q > cfg.PriorityMaxQuantum {
			t.Errorf("%s last quantum %v outside [%v, %v]", p.Name(), q, p.BaseQuantum(), cfg.PriorityMaxQuantum)
		}
	}
	if got := names(s.Registry().Processes()); got != "y,z,x" {
		t.Errorf("dispatch order = %s, want y,z,x", got)
	}
}

func TestSession_ContextCancelAborts(t *testing.T) {
	cfg := testConfig(50 * time.Millisecond)
	cfg.RoundRobinQuantum = 10 * time.Millisecond
	s, err := NewSession(specs(proc("a", 100, 0, 20), proc("b", 100, 0, 20), proc("c", 100, 50, 1)),
		model.AlgorithmRoundRobin, cfg, logging.Discard())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	res, err := s.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run() error = %v, want context.DeadlineExceeded", err)
	}
	if !res.Aborted {
		t.Error("Aborted = false")
	}
	for _, p := range res.Processes {
		if p.State != model.ProcessStateCancelled {
			t.Errorf("%s state = %s, want CANCELLED", p.Name, p.State)
		}
	}
	if c := resultByName(t, res, "c"); c.Dispatched {
		t.Error("never-arrived process marked dispatched")
	}
	if !s.Done() {
		t.Error("Done() = false after Run")
	}
}

func TestSession_RunTwice(t *testing.T) {
	cfg := testConfig(10 * time.Millisecond)
	s, _ := runSession(t, model.AlgorithmSJF, cfg, specs(proc("a", 5, 0, 1)))
	if _, err := s.Run(context.Background()); !errors.Is(err, ErrSessionUsed) {
		t.Errorf("second Run() = %v, want ErrSessionUsed", err)
	}
}

func TestSession_ConfigErrors(t *testing.T) {
	_, err := NewSession(nil, model.AlgorithmSJF, DefaultConfig(), logging.Discard())
	var cfgErr *model.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Code != model.ErrNoProcesses {
		t.Errorf("NewSession(nil) = %v, want NO_PROCESSES", err)
	}
	_, err = NewSession(specs(proc("a", 1, 0, 1)), "fifo", DefaultConfig(), logging.Discard())
	if !errors.As(err, &cfgErr) || cfgErr.Code != model.ErrUnknownAlgorithm {
		t.Errorf("NewSession(fifo) = %v, want UNKNOWN_ALGORITHM", err)
	}
}

func TestSession_ViewDuringRun(t *testing.T) {
	cfg := testConfig(20 * time.Millisecond)
	cfg.RoundRobinQuantum = 5 * time.Millisecond
	s, err := NewSession(specs(proc("a", 10, 0, 2), proc("b", 10, 1, 2)),
		model.AlgorithmRoundRobin, cfg, logging.Discard(), WithTraceName("view.trace"), WithID("run_test"))
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	var view View = s
	if view.ID() != "run_test" {
		t.Errorf("ID() = %q", view.ID())
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		last := int64(0)
		bursts := map[string]time.Duration{}
		for {
			select {
			case <-stop:
				return
			default:
			}
			if n := view.ContextSwitches(); n < last {
				t.Errorf("context switches decreased: %d -> %d", last, n)
			} else {
				last = n
			}
			for _, snap := range view.Snapshot() {
				if snap.CurrentBurst < bursts[snap.Name] {
					t.Errorf("%s current burst decreased", snap.Name)
				}
				bursts[snap.Name] = snap.CurrentBurst
			}
			time.Sleep(time.Millisecond)
		}
	}()

	res, err := s.Run(context.Background())
	close(stop)
	wg.Wait()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.TraceName != "view.trace" || res.ID != "run_test" {
		t.Errorf("result identity = %q/%q", res.ID, res.TraceName)
	}
	counts := model.CountStates(view.Snapshot())
	if !counts.Done() {
		t.Errorf("snapshot counts after run = %+v", counts)
	}
}

// newCancelSession returns a session whose only process is RUNNING on a unit
// built from step, so cancel can be timed against an in-flight step.
func newCancelSession(t *testing.T, iterations int, step func(time.Duration)) (*Session, *Process) {
	t.Helper()
	s, err := NewSession(specs(proc("a", 10, 0, 1)), model.AlgorithmRoundRobin,
		testConfig(20*time.Millisecond), logging.Discard())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	p, _ := s.registry.Get("a")
	for _, st := range []model.ProcessState{model.ProcessStateReady, model.ProcessStateRunning} {
		if err := p.transition(st); err != nil {
			t.Fatalf("transition: %v", err)
		}
	}
	p.unit = newTestUnit(iterations, step)
	p.markStarted(0)
	if err := p.unit.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return s, p
}

func TestSession_CancelDuringLastStepKeepsFinish(t *testing.T) {
	s, p := newCancelSession(t, 1, func(time.Duration) { time.Sleep(30 * time.Millisecond) })
	time.Sleep(5 * time.Millisecond) // inside the only step

	if err := s.cancel(p); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !p.unit.Finished() {
		t.Fatal("unit did not finish its in-flight last step")
	}
	if got := p.State(); got != model.ProcessStateSuccess {
		t.Errorf("state = %s, want SUCCESS for a unit that finished", got)
	}
}

func TestSession_CancelDuringEarlierStepCancels(t *testing.T) {
	s, p := newCancelSession(t, 3, func(time.Duration) { time.Sleep(30 * time.Millisecond) })
	time.Sleep(5 * time.Millisecond) // inside the first of three steps

	if err := s.cancel(p); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if p.unit.Finished() {
		t.Fatal("stopped unit raised Finished")
	}
	if got := p.State(); got != model.ProcessStateCancelled {
		t.Errorf("state = %s, want CANCELLED", got)
	}
	if steps := p.unit.Steps(); steps != 1 {
		t.Errorf("steps = %d, want only the in-flight step", steps)
	}
}
