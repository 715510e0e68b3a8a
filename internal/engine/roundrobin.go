package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/me/cpusched/pkg/model"
)

// RoundRobin scans the processes in a ring, giving each eligible one a fixed
// quantum per visit.
type RoundRobin struct{}

// Name implements Dispatcher.
func (RoundRobin) Name() model.Algorithm { return model.AlgorithmRoundRobin }

// Run implements Dispatcher.
func (RoundRobin) Run(ctx context.Context, s *Session) error {
	return runRing(ctx, s, func(p *Process, _ time.Duration) time.Duration {
		return p.baseQuantum
	})
}

// quantumFunc picks the slice of p for a visit made at elapsed run time.
type quantumFunc func(p *Process, elapsed time.Duration) time.Duration

// runRing is the preemptive dispatch loop shared by Round-Robin and Priority.
func runRing(ctx context.Context, s *Session, quantum quantumFunc) error {
	procs := s.registry.Processes()
	for !s.registry.allTerminal() {
		dispatched := false
		for _, p := range procs {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("dispatch: %w", err)
			}
			if p.State().IsTerminal() {
				continue
			}
			elapsed := s.Elapsed()
			ready, err := s.promote(p, elapsed)
			if err != nil {
				return err
			}
			if !ready {
				continue
			}
			dispatched = true
			if err := visit(ctx, s, p, quantum(p, elapsed)); err != nil {
				return err
			}
		}

		if dispatched {
			continue
		}
		// Nobody was eligible: sleep until the next arrival.
		at, ok := s.registry.earliestPendingStart(s.cfg.TimeUnit)
		if !ok {
			return fmt.Errorf("dispatch: no eligible process and none pending")
		}
		if err := sleep(ctx, at-s.Elapsed()); err != nil {
			return fmt.Errorf("dispatch: %w", err)
		}
	}
	return nil
}

// visit runs p for one quantum and settles its state.
func visit(ctx context.Context, s *Session, p *Process, q time.Duration) error {
	s.acct.countSwitch()
	p.visits.Add(1)
	p.quantum.Store(int64(q))

	if p.unit == nil {
		if err := s.launch(p); err != nil {
			return err
		}
	} else {
		if err := p.transition(model.ProcessStateRunning); err != nil {
			return err
		}
		p.unit.Resume()
	}

	before := time.Now()
	err := sleep(ctx, q)
	s.acct.AddBurst(p, before, time.Now())
	if err != nil {
		return fmt.Errorf("quantum of %s: %w", p.Name(), err)
	}

	switch {
	case p.unit.Finished():
		return s.finish(p, s.acct.Classify(p, s.Elapsed()))
	case p.exhausted():
		return s.cancel(p)
	default:
		p.unit.Suspend()
		s.logger.Debug("process preempted",
			"process", p.Name(),
			"quantum", q,
			"current_burst", p.CurrentBurst())
		return p.transition(model.ProcessStateReady)
	}
}
