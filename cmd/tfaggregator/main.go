// Command tfaggregator runs the Aggregator process (§4.7): it accepts
// BuildTfRequest assignments from the Scheduler, pulls each
// TimeFrame's STF contributions from the named source Builders, and
// reports free memory back on a floor-and-signal schedule.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/ktf/DataDistribution/internal/aggregator"
	"github.com/ktf/DataDistribution/internal/config"
	"github.com/ktf/DataDistribution/internal/discovery"
	"github.com/ktf/DataDistribution/internal/procexit"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil)).With("component", "tfaggregator")

	app := &cli.App{
		Name:  "tfaggregator",
		Usage: "builds TimeFrames from Builder-supplied STFs",
		Flags: config.AggregatorFlags(),
		Action: func(c *cli.Context) error {
			return run(c, log)
		},
	}

	if err := app.Run(os.Args); err != nil {
		procexit.Fatal(log, "tfaggregator: fatal error", "error", err)
	}
}

func run(c *cli.Context, log *slog.Logger) error {
	cfg, err := config.AggregatorFromContext(c)
	if err != nil {
		return err
	}

	processID := uuid.NewString()
	registry := discovery.NewInMemory()
	dialer := aggregator.NewDiscoveryDialer(registry)

	a := aggregator.New(cfg, processID, dialer, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := registry.Register(ctx, "tfaggregator/"+processID, cfg.ListenAddress); err != nil {
		log.Warn("service discovery registration failed", "error", err)
	}
	defer registry.Deregister(context.Background(), "tfaggregator/"+processID)

	log.Info("tfaggregator starting",
		"processId", processID,
		"listenAddress", cfg.ListenAddress,
		"schedulerAddress", cfg.SchedulerAddress,
		"bufferSizeBytes", cfg.BufferSizeBytes,
	)

	if err := aggregator.Serve(ctx, a); err != nil && ctx.Err() == nil {
		return err
	}
	log.Info("tfaggregator stopped cleanly")
	return nil
}
