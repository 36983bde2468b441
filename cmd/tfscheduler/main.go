// Command tfscheduler runs the Scheduler process (§4.5-§4.6): it
// tracks the aggregation fleet via periodic updates and keeps the pool
// of ready Aggregators. Its RPC surface does not expose TimeFrame
// assignment (scheduler.Server.AssignTimeFrame), so this process
// assigns no TimeFrames itself.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ktf/DataDistribution/internal/config"
	"github.com/ktf/DataDistribution/internal/procexit"
	"github.com/ktf/DataDistribution/internal/scheduler"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil)).With("component", "tfscheduler")

	app := &cli.App{
		Name:  "tfscheduler",
		Usage: "tracks Aggregators and their ready pool",
		Flags: config.SchedulerFlags(),
		Action: func(c *cli.Context) error {
			return run(c, log)
		},
	}

	if err := app.Run(os.Args); err != nil {
		procexit.Fatal(log, "tfscheduler: fatal error", "error", err)
	}
}

func run(c *cli.Context, log *slog.Logger) error {
	cfg, err := config.SchedulerFromContext(c)
	if err != nil {
		return err
	}

	discardTimeout := time.Duration(cfg.DiscardTimeoutMillis) * time.Millisecond
	selection := scheduler.NewSelection(cfg.OverestimatePercent)
	registry := scheduler.NewRegistry(discardTimeout, log, selection.RemoveReady)
	srv := scheduler.NewServer(registry, selection, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("tfscheduler starting",
		"listenAddress", cfg.ListenAddress,
		"discardTimeout", discardTimeout,
		"overestimatePercent", cfg.OverestimatePercent,
	)

	errCh := make(chan error, 1)
	go func() { errCh <- scheduler.Serve(ctx, cfg, srv, log) }()

	select {
	case <-ctx.Done():
		log.Info("tfscheduler stopped cleanly")
		return nil
	case err := <-errCh:
		return err
	}
}
