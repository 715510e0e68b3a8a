package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/me/cpusched/pkg/model"
)

// SJF runs each process once, in ascending burst order, without preemption.
// A process gets at most min(time left to its deadline, burst) to finish;
// past that it is force-stopped.
type SJF struct{}

// Name implements Dispatcher.
func (SJF) Name() model.Algorithm { return model.AlgorithmSJF }

// Run implements Dispatcher.
func (SJF) Run(ctx context.Context, s *Session) error {
	for _, p := range s.registry.Processes() {
		if err := waitForStart(ctx, s, p); err != nil {
			return err
		}

		s.acct.countSwitch()
		p.visits.Add(1)
		before := time.Now()
		if err := s.launch(p); err != nil {
			return err
		}

		elapsed := s.Elapsed()
		bound := min(s.cfg.units(p.spec.Deadline)-elapsed, p.budget)
		finished, err := await(ctx, p.unit, bound)
		s.acct.AddBurst(p, before, time.Now())
		if err != nil {
			return err
		}

		// The unit may have finished right as the bound expired.
		if finished || p.unit.Finished() {
			if err := s.finish(p, s.acct.Classify(p, s.Elapsed())); err != nil {
				return err
			}
			continue
		}
		if err := s.cancel(p); err != nil {
			return err
		}
	}
	return nil
}

// waitForStart sleeps until p's start time and promotes it to READY.
func waitForStart(ctx context.Context, s *Session, p *Process) error {
	if d := s.cfg.units(p.spec.StartTime) - s.Elapsed(); d > 0 {
		s.logger.Debug("waiting for start", "process", p.Name(), "delay", d)
		if err := sleep(ctx, d); err != nil {
			return fmt.Errorf("wait for %s: %w", p.Name(), err)
		}
	}
	ready, err := s.promote(p, s.Elapsed())
	if err != nil {
		return err
	}
	if !ready {
		return fmt.Errorf("process %s not ready after its start time", p.Name())
	}
	return nil
}

// await blocks until u exits, bound elapses or ctx is done. It reports
// whether the unit completed its budget.
func await(ctx context.Context, u *Unit, bound time.Duration) (bool, error) {
	if bound <= 0 {
		return u.Finished(), ctx.Err()
	}
	timer := time.NewTimer(bound)
	defer timer.Stop()
	select {
	case <-u.Done():
		return u.Finished(), nil
	case <-timer.C:
		return u.Finished(), nil
	case <-ctx.Done():
		return false, fmt.Errorf("await %s: %w", u.name, ctx.Err())
	}
}
