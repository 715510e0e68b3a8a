package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/me/cpusched/pkg/model"
)

// ErrSessionUsed is returned when Run is called on a session twice.
var ErrSessionUsed = errors.New("session already run")

// View is the read-only face of a session handed to status surfaces.
type View interface {
	ID() string
	Algorithm() model.Algorithm
	Snapshot() []model.ProcessSnapshot
	ContextSwitches() int64
	Elapsed() time.Duration
	Done() bool
}

// Session owns the registry and accounting of one scheduling run. The
// dispatcher running inside Run is the only writer; everything else reads it
// through View.
type Session struct {
	id         string
	traceName  string
	cfg        Config
	logger     *slog.Logger
	registry   *Registry
	acct       *Accounting
	dispatcher Dispatcher

	start     atomic.Pointer[time.Time]
	startedAt time.Time
	ran       atomic.Bool
	done      atomic.Bool
}

// Option customizes a Session.
type Option func(*Session)

// WithTraceName records where the process set came from.
func WithTraceName(name string) Option {
	return func(s *Session) { s.traceName = name }
}

// WithID overrides the generated run ID.
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// NewSession validates specs and prepares a run of alg. Configuration errors
// are reported as *model.ConfigError.
func NewSession(specs []model.ProcessSpec, alg model.Algorithm, cfg Config, logger *slog.Logger, opts ...Option) (*Session, error) {
	d, err := New(alg)
	if err != nil {
		return nil, err
	}
	reg, err := NewRegistry(specs, alg, cfg)
	if err != nil {
		return nil, err
	}
	s := &Session{
		id:         "run_" + uuid.New().String(),
		cfg:        cfg,
		registry:   reg,
		acct:       NewAccounting(cfg.TimeUnit),
		dispatcher: d,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logger.With("component", "engine", "run_id", s.id, "algorithm", string(alg))
	return s, nil
}

// ID returns the run ID.
func (s *Session) ID() string { return s.id }

// Algorithm returns the dispatch algorithm of the run.
func (s *Session) Algorithm() model.Algorithm { return s.registry.Algorithm() }

// Registry returns the ordered process set.
func (s *Session) Registry() *Registry { return s.registry }

// Snapshot returns the current state of every process in trace order.
func (s *Session) Snapshot() []model.ProcessSnapshot { return s.registry.Snapshot() }

// ContextSwitches returns the switch count so far.
func (s *Session) ContextSwitches() int64 { return s.acct.ContextSwitches() }

// Done reports whether Run has returned.
func (s *Session) Done() bool { return s.done.Load() }

// Elapsed returns the time since the run started, or zero before it has.
func (s *Session) Elapsed() time.Duration {
	if start := s.start.Load(); start != nil {
		return time.Since(*start)
	}
	return 0
}

// Run dispatches every process to a terminal state. If ctx is cancelled or a
// unit cannot be stopped, live units are force-stopped, unfinished processes
// are marked CANCELLED and the partial result is returned with the error.
func (s *Session) Run(ctx context.Context) (*model.RunResult, error) {
	if !s.ran.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("run %s: %w", s.id, ErrSessionUsed)
	}
	defer s.done.Store(true)

	s.startedAt = time.Now()
	s.start.Store(&s.startedAt)
	s.logger.Info("run started", "processes", s.registry.Len())

	err := s.dispatcher.Run(ctx, s)
	aborted := err != nil
	if aborted {
		s.logger.Warn("run aborted", "error", err)
		if stopErr := s.abort(); stopErr != nil {
			err = errors.Join(err, stopErr)
		}
	}

	res := &model.RunResult{
		ID:              s.id,
		Algorithm:       s.Algorithm(),
		TraceName:       s.traceName,
		TimeUnit:        s.cfg.TimeUnit,
		ContextSwitches: s.acct.ContextSwitches(),
		Processes:       s.registry.Results(),
		StartedAt:       s.startedAt,
		CompletedAt:     time.Now(),
		Aborted:         aborted,
	}
	counts := res.Counts()
	s.logger.Info("run completed",
		"success", counts.Success,
		"deadline", counts.Deadline,
		"cancelled", counts.Cancelled,
		"context_switches", res.ContextSwitches,
		"duration", res.CompletedAt.Sub(res.StartedAt))
	if err != nil {
		return res, fmt.Errorf("run %s: %w", s.id, err)
	}
	return res, nil
}

// abort force-stops every live unit and cancels every process that has not
// reached a terminal state.
func (s *Session) abort() error {
	var errs []error
	now := s.Elapsed()
	for _, p := range s.registry.Processes() {
		if u := p.unit; u != nil && u.Started() {
			if err := u.ForceStop(s.cfg.StopTimeout); err != nil {
				errs = append(errs, err)
			}
		}
		if p.State().IsTerminal() {
			continue
		}
		if p.dispatched.Load() {
			p.markEnded(now)
		}
		if err := p.transition(model.ProcessStateCancelled); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// launch creates and starts p's unit and records its real start time.
func (s *Session) launch(p *Process) error {
	if p.unit != nil {
		return fmt.Errorf("process %s: %w", p.Name(), ErrUnitStarted)
	}
	p.unit = NewUnit(p.Name(), s.cfg.budgetFor(p.spec))
	if err := p.transition(model.ProcessStateRunning); err != nil {
		return err
	}
	p.markStarted(s.Elapsed())
	if err := p.unit.Start(); err != nil {
		return fmt.Errorf("launch %s: %w", p.Name(), err)
	}
	s.logger.Debug("process launched",
		"process", p.Name(),
		"iterations", p.unit.Budget().Iterations,
		"real_start", time.Duration(p.realStart.Load()))
	return nil
}

// promote moves a WAITING process to READY once its start time has passed.
// It reports whether the process is eligible for dispatch.
func (s *Session) promote(p *Process, elapsed time.Duration) (bool, error) {
	switch p.State() {
	case model.ProcessStateReady:
		return true, nil
	case model.ProcessStateWaiting:
		if elapsed < s.cfg.units(p.spec.StartTime) {
			return false, nil
		}
		return true, p.transition(model.ProcessStateReady)
	}
	return false, nil
}

// finish records the terminal state of p.
func (s *Session) finish(p *Process, state model.ProcessState) error {
	p.markEnded(s.Elapsed())
	if err := p.transition(state); err != nil {
		return err
	}
	s.logger.Info("process terminated",
		"process", p.Name(),
		"state", string(state),
		"current_burst", p.CurrentBurst(),
		"real_end", time.Duration(p.realEnd.Load()))
	return nil
}

// cancel force-stops p's unit and classifies it CANCELLED. A unit that
// completed its last step while the stop was landing is classified as
// finished instead. A stop that does not land in time is fatal to the run.
func (s *Session) cancel(p *Process) error {
	if err := p.unit.ForceStop(s.cfg.StopTimeout); err != nil {
		return fmt.Errorf("cancel %s: %w", p.Name(), err)
	}
	if p.unit.Finished() {
		s.logger.Debug("unit finished during stop", "process", p.Name())
		return s.finish(p, s.acct.Classify(p, s.Elapsed()))
	}
	return s.finish(p, model.ProcessStateCancelled)
}

// sleep blocks for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
