package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/me/cpusched/internal/store"
	"github.com/me/cpusched/pkg/model"
)

// algorithmValue is a pflag.Value accepting algorithm names and numeric ids.
type algorithmValue struct {
	alg      model.Algorithm
	optional bool
}

var _ pflag.Value = (*algorithmValue)(nil)

func (v *algorithmValue) String() string { return string(v.alg) }

func (v *algorithmValue) Set(s string) error {
	if v.optional && s == "" {
		v.alg = ""
		return nil
	}
	alg, err := model.ParseAlgorithm(s)
	if err != nil {
		return err
	}
	v.alg = alg
	return nil
}

func (v *algorithmValue) Type() string { return "algorithm" }

// algorithmUsage lists the accepted algorithm values for flag help.
func algorithmUsage() string {
	names := make([]string, len(model.Algorithms))
	for i, a := range model.Algorithms {
		names[i] = fmt.Sprintf("%s (%d)", a, i+1)
	}
	return "Scheduling algorithm: " + strings.Join(names, ", ")
}

// openStore opens and migrates the run history database at path.
func openStore(ctx context.Context, path string) (*store.SQLiteStore, error) {
	st, err := store.NewSQLiteStore(path, logger)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return st, nil
}

// historyDB resolves the database path from --db or the config file.
func historyDB(flagDB, configured string) (string, error) {
	if flagDB != "" {
		return flagDB, nil
	}
	if configured != "" {
		return configured, nil
	}
	return "", model.NewConfigError(model.ErrInvalidConfig, "no run history database; pass --db or set store.db_path")
}
