package store

import (
	"context"

	"github.com/me/cpusched/pkg/model"
)

// Store persists finished scheduling runs.
type Store interface {
	SaveRun(ctx context.Context, res *model.RunResult) error
	// GetRun returns nil, nil when no run has the ID.
	GetRun(ctx context.Context, id string) (*model.RunResult, error)
	ListRuns(ctx context.Context, opts model.ListOptions) ([]*model.RunSummary, int, error)
	// LoadRuns returns every stored run of alg, or of all algorithms when alg
	// is empty, oldest first.
	LoadRuns(ctx context.Context, alg model.Algorithm) ([]*model.RunResult, error)
	DeleteRun(ctx context.Context, id string) error

	Close() error
	Migrate(ctx context.Context) error
}
