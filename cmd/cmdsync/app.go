package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"ex-cmdsync/internal/driver"
	"ex-cmdsync/internal/reconcile"
	"ex-cmdsync/modules/help"
	"ex-cmdsync/modules/pingpong"
	"ex-cmdsync/pkg/cmdsync"
)

func runtimeModules() []cmdsync.Module {
	return []cmdsync.Module{
		pingpong.New(),
		help.New(),
	}
}

func run() error {
	registry, err := driver.NewBuiltinRegistry()
	if err != nil {
		return fmt.Errorf("new builtin driver registry: %w", err)
	}

	cfg, err := loadConfig(registry)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.logLevel}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runtimes, err := registry.BuildEnabled(ctx, cfg.drivers, logger)
	if err != nil {
		return fmt.Errorf("build drivers: %w", err)
	}

	state, err := loadHintState(cfg.stateFile)
	if err != nil {
		return err
	}

	syncErr := syncRuntimes(ctx, logger, cfg, runtimes, runtimeModules(), state)
	if err := state.Save(cfg.stateFile); err != nil {
		return errors.Join(syncErr, err)
	}
	if syncErr != nil && !errors.Is(syncErr, context.Canceled) {
		return syncErr
	}

	return nil
}

// syncRuntimes runs one sync per driver runtime in order; a failed runtime
// does not stop the others.
func syncRuntimes(
	ctx context.Context,
	logger *slog.Logger,
	cfg appConfig,
	runtimes []driver.Runtime,
	modules []cmdsync.Module,
	state *hintState,
) error {
	var errs []error
	for _, runtime := range runtimes {
		runtimeLogger := logger.With("driver", runtime.Name, "platform", string(runtime.Platform))
		reports, err := syncRuntime(ctx, runtimeLogger, cfg, runtime, modules, state)
		if reports != nil {
			state.Record(runtime.Name, reports)
			logReports(ctx, runtimeLogger, reports)
		}
		if err != nil {
			runtimeLogger.ErrorContext(ctx, "command sync failed", "error", err)
			errs = append(errs, fmt.Errorf("sync driver %s: %w", runtime.Name, err))
		}
	}

	return errors.Join(errs...)
}

func syncRuntime(
	ctx context.Context,
	logger *slog.Logger,
	cfg appConfig,
	runtime driver.Runtime,
	modules []cmdsync.Module,
	state *hintState,
) ([]reconcile.FlushReport, error) {
	coordinator, err := reconcile.NewCoordinator(
		runtime.Client,
		reconcile.WithLogger(logger),
		reconcile.WithDefaults(cfg.defaults),
		reconcile.WithPlatform(runtime.Platform),
	)
	if err != nil {
		return nil, fmt.Errorf("new coordinator: %w", err)
	}

	for _, module := range modules {
		override := cfg.modules[module.Name()]
		hints := state.Hints(runtime.Name, module.Name())
		if err := coordinator.RegisterModule(module, override, hints); err != nil {
			return nil, err
		}
	}

	var reports []reconcile.FlushReport
	err = runtime.Run(ctx, func(ctx context.Context) error {
		synced, err := coordinator.Sync(ctx)
		reports = synced
		return err
	})

	return reports, err
}

var reportedResults = []reconcile.Result{
	reconcile.ResultCreated,
	reconcile.ResultUpdated,
	reconcile.ResultReported,
	reconcile.ResultUnchanged,
	reconcile.ResultSkipped,
	reconcile.ResultFailed,
}

func logReports(ctx context.Context, logger *slog.Logger, reports []reconcile.FlushReport) {
	for _, report := range reports {
		level := slog.LevelInfo
		if len(report.Failures) > 0 {
			level = slog.LevelWarn
		}
		attrs := []any{
			"registry", report.Registry,
			"executions", report.Executions,
			"failures", len(report.Failures),
		}
		for _, result := range reportedResults {
			if count := report.Results[result]; count > 0 {
				attrs = append(attrs, string(result), count)
			}
		}
		logger.Log(ctx, level, "registry synced", attrs...)
	}
}
