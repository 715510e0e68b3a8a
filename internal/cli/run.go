package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/me/cpusched/internal/config"
	"github.com/me/cpusched/internal/engine"
	"github.com/me/cpusched/internal/server"
	"github.com/me/cpusched/internal/status"
	"github.com/me/cpusched/internal/store"
	"github.com/me/cpusched/internal/trace"
	"github.com/me/cpusched/pkg/model"
)

type runOptions struct {
	algorithm algorithmValue
	format    string
	db        string
	serve     string
	watch     bool
	timeUnit  time.Duration
	quantum   time.Duration
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run <trace-file> [output-file]",
		Short: "Schedule the processes of a trace and write when each one ran",
		Long: `Runs every process of the trace under the chosen algorithm and writes one
line per process (name, real start, real end in time units) followed by the
number of context switches. Without an output file the result goes to stdout.

SIGINT and SIGTERM stop the run; unfinished processes are reported CANCELLED.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := ""
			if len(args) > 1 {
				out = args[1]
			}
			return runTrace(cmd, opts, args[0], out)
		},
	}

	opts.algorithm.alg = model.AlgorithmSJF
	cmd.Flags().VarP(&opts.algorithm, "algorithm", "a", algorithmUsage())
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Result format (text, json, yaml)")
	cmd.Flags().StringVar(&opts.db, "db", "", "Save the run to this SQLite history database")
	cmd.Flags().StringVar(&opts.serve, "serve", "", "Serve the status API on this address while running (e.g. :8080)")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Print the process table to stderr while running")
	cmd.Flags().DurationVar(&opts.timeUnit, "time-unit", 0, "Wall-clock length of one trace time unit (overrides config)")
	cmd.Flags().DurationVar(&opts.quantum, "quantum", 0, "Round-Robin quantum (overrides config)")

	return cmd
}

// applyRunFlags layers explicit run flags over cfg.
func applyRunFlags(cfg *config.Config, opts *runOptions) error {
	if opts.timeUnit != 0 {
		cfg.TimeUnit = opts.timeUnit
	}
	if opts.quantum != 0 {
		cfg.RoundRobin.Quantum = opts.quantum
	}
	if opts.db != "" {
		cfg.Store.DBPath = opts.db
	}
	if opts.serve != "" {
		cfg.Status.Addr = opts.serve
	}
	return cfg.Validate()
}

func runTrace(cmd *cobra.Command, opts *runOptions, tracePath, outPath string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyRunFlags(&cfg, opts); err != nil {
		return err
	}
	format, err := trace.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	specs, err := trace.ParseFile(tracePath, trace.Limits{
		MaxProcesses:  cfg.Limits.MaxProcesses,
		MaxNameLength: cfg.Limits.MaxNameLength,
	})
	if err != nil {
		return err
	}

	sess, err := engine.NewSession(specs, opts.algorithm.alg, engine.FromConfig(cfg), logger,
		engine.WithTraceName(filepath.Base(tracePath)))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st store.Store
	if cfg.Store.DBPath != "" {
		sqlStore, err := openStore(ctx, cfg.Store.DBPath)
		if err != nil {
			return err
		}
		defer sqlStore.Close()
		st = sqlStore
	}

	if cfg.Status.Addr != "" {
		srvOpts := []server.Option{
			server.WithView(sess),
			server.WithRefreshInterval(cfg.Status.RefreshInterval),
		}
		if st != nil {
			srvOpts = append(srvOpts, server.WithStore(st))
		}
		httpServer := &http.Server{
			Addr:              cfg.Status.Addr,
			Handler:           server.New(logger, srvOpts...).Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("status API listening", "addr", cfg.Status.Addr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("status API failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			httpServer.Shutdown(shutdownCtx)
		}()
	}

	var wg sync.WaitGroup
	printCtx, stopPrinter := context.WithCancel(ctx)
	if opts.watch {
		p := status.NewPrinter(cmd.ErrOrStderr(), sess, cfg.Status.RefreshInterval, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Run(printCtx)
		}()
	}

	res, runErr := sess.Run(ctx)
	stopPrinter()
	wg.Wait()
	if res == nil {
		return runErr
	}

	if st != nil {
		// The run context may already be cancelled; the partial result is still saved.
		if err := st.SaveRun(context.Background(), res); err != nil {
			return errors.Join(runErr, fmt.Errorf("save run: %w", err))
		}
		logger.Info("run saved", "id", res.ID, "db", cfg.Store.DBPath)
	}

	if outPath != "" {
		err = trace.WriteResultFile(outPath, res, format)
	} else {
		err = trace.WriteResult(cmd.OutOrStdout(), res, format)
	}
	if err != nil {
		return errors.Join(runErr, fmt.Errorf("write result: %w", err))
	}
	return runErr
}
