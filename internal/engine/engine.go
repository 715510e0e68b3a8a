// Package engine implements the scheduling core: workload units, their
// suspend/resume coordinators, the ordered process registry, run accounting
// and the SJF, Round-Robin and Priority dispatchers.
package engine

import (
	"context"
	"fmt"

	"github.com/me/cpusched/pkg/model"
)

// Dispatcher drives every process of a session to a terminal state.
type Dispatcher interface {
	Name() model.Algorithm
	Run(ctx context.Context, s *Session) error
}

// New returns the dispatcher for alg.
func New(alg model.Algorithm) (Dispatcher, error) {
	switch alg {
	case model.AlgorithmSJF:
		return SJF{}, nil
	case model.AlgorithmRoundRobin:
		return RoundRobin{}, nil
	case model.AlgorithmPriority:
		return Priority{}, nil
	}
	return nil, model.NewConfigError(model.ErrUnknownAlgorithm,
		fmt.Sprintf("unknown scheduling algorithm '%s'", alg))
}
