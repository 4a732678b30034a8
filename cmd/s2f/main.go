// Command s2f fetches new Salesforce opportunity activity and posts it to
// Flowdock. It is meant to run from cron: one poll-and-post cycle, then
// exit. Exit code 0 means success (or another instance already running),
// non-zero means the poll failed and the next tick will retry the same
// window.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/futurice/s2f/pkg/activity"
	"github.com/futurice/s2f/pkg/config"
	"github.com/futurice/s2f/pkg/flowdock"
	"github.com/futurice/s2f/pkg/metrics"
	"github.com/futurice/s2f/pkg/salesforce"
	"github.com/futurice/s2f/pkg/state"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger = logger.With(zap.String("run_id", uuid.NewString()))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load config", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Binding a fixed localhost port keeps overlapping cron ticks from
	// running two pollers at once. The listener is held until exit.
	if cfg.LockPort != 0 {
		lock, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", cfg.LockPort))
		if err != nil {
			logger.Warn("Another instance is already running, exiting",
				zap.Int("lock_port", cfg.LockPort))
			return
		}
		defer lock.Close()
	}

	ctx := context.Background()
	m := metrics.New(cfg.PushgatewayURL)
	start := time.Now()

	err = run(ctx, cfg, m, logger)
	m.FinishRun(start, err)
	if pushErr := m.Push(); pushErr != nil {
		logger.Warn("Failed to push metrics", zap.Error(pushErr))
	}

	if err != nil {
		logger.Error("Run failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) error {
	sfClient, err := salesforce.NewClient(cfg, logger)
	if err != nil {
		return err
	}

	flowCfg, err := flowdock.LoadConfig(cfg.FlowdockConfigFile)
	if err != nil {
		return err
	}
	fdClient := flowdock.NewClient(cfg.FlowdockAPIURL, flowCfg, logger)

	var store state.Store
	if cfg.DatabaseURL != "" {
		pgStore, err := state.NewPostgresStore(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return err
		}
		defer pgStore.Close()
		store = pgStore
	} else {
		store = state.NewFileStore(cfg.StateFile, logger)
	}

	svc := activity.NewService(sfClient, fdClient, store, cfg.Limits, m, logger)
	return svc.Run(ctx)
}
