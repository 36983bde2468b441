// Command stfbuilder runs the Builder process (§4.1-§4.4): it reads
// readout multiparts off the `readout` channel, assembles STFs, and
// forwards them either stand-alone, over the `stfSender` channel, or
// through a workflow-adapter `dpl` channel.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/ktf/DataDistribution/internal/builder"
	"github.com/ktf/DataDistribution/internal/config"
	"github.com/ktf/DataDistribution/internal/discovery"
	"github.com/ktf/DataDistribution/internal/procexit"
	"github.com/ktf/DataDistribution/internal/rdh"
	"github.com/ktf/DataDistribution/internal/transport"
)

const channelBufferDepth = 64

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil)).With("component", "stfbuilder")

	app := &cli.App{
		Name:  "stfbuilder",
		Usage: "assembles readout multiparts into SubTimeFrames",
		Flags: config.BuilderFlags(),
		Action: func(c *cli.Context) error {
			return run(c, log)
		},
	}

	if err := app.Run(os.Args); err != nil {
		procexit.Fatal(log, "stfbuilder: fatal error", "error", err)
	}
}

func run(c *cli.Context, log *slog.Logger) error {
	cfg, err := config.BuilderFromContext(c)
	if err != nil {
		return err
	}

	readout := transport.NewLoopback(channelBufferDepth)
	var output transport.Channel
	var adapter builder.Adapter
	if cfg.OutputChannelName != "" {
		output = transport.NewLoopback(channelBufferDepth)
	}
	if cfg.DplChannelName != "" {
		dpl := transport.NewLoopback(channelBufferDepth)
		adapter = builder.NewChannelAdapter(dpl)
	}

	registry := discovery.NewInMemory()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.SourceListenAddress != "" {
		if err := registry.Register(ctx, cfg.InputChannelName, cfg.SourceListenAddress); err != nil {
			log.Warn("service discovery registration failed", "error", err)
		}
		defer registry.Deregister(context.Background(), cfg.InputChannelName)
	}

	b := builder.New(cfg, readout, output, adapter, rdh.DefaultReader{}, log)

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.SourceListenAddress != "" {
		go func() {
			if err := builder.ServeSource(sigCtx, cfg.SourceListenAddress, b); err != nil && sigCtx.Err() == nil {
				log.Error("source RPC listener stopped unexpectedly", "error", err)
			}
		}()
	}

	log.Info("stfbuilder starting",
		"inputChannelName", cfg.InputChannelName,
		"outputChannelName", cfg.OutputChannelName,
		"dplChannelName", cfg.DplChannelName,
		"standAlone", cfg.StandAlone,
		"sourceListenAddress", cfg.SourceListenAddress,
	)
	b.Run(sigCtx)
	log.Info("stfbuilder stopped cleanly")
	return nil
}
