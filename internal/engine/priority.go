package engine

import (
	"context"
	"time"

	"github.com/me/cpusched/pkg/model"
)

// Priority is Round-Robin over deadline-ordered processes with a quantum that
// grows linearly from the process's base quantum toward the configured
// maximum as its deadline approaches.
type Priority struct{}

// Name implements Dispatcher.
func (Priority) Name() model.Algorithm { return model.AlgorithmPriority }

// Run implements Dispatcher.
func (Priority) Run(ctx context.Context, s *Session) error {
	return runRing(ctx, s, func(p *Process, elapsed time.Duration) time.Duration {
		return s.acct.QuantumFor(p, elapsed, s.cfg.PriorityMaxQuantum)
	})
}
