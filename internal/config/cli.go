package config

import (
	"github.com/urfave/cli/v2"
)

// BuilderFlags declares the §6 CLI options for the Builder process using
// urfave/cli/v2, the flag library pithecene-io-quarry's `quarry` command
// depends on directly. The flag surface itself is named an external
// concern in §1 (only the option keys are specified); this repository
// still wires a real CLI library to parse them, per the ambient-stack
// expansion in SPEC_FULL.md §10.3.
func BuilderFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "input-channel-name", Usage: "readout input channel name"},
		&cli.StringFlag{Name: "output-channel-name", Usage: "stfSender output channel name"},
		&cli.StringFlag{Name: "dpl-channel-name", Usage: "dpl workflow-framework channel name"},
		&cli.BoolFlag{Name: "stand-alone", Usage: "disable output, useful with a file sink"},
		&cli.IntFlag{Name: "max-buffered-stfs", Value: 0, Usage: "pipeline depth cap, <=0 disables"},
		&cli.Uint64Flag{Name: "max-built-stfs", Value: 0, Usage: "stop after N STFs sent, 0=unlimited"},
		&cli.StringFlag{Name: "detector", Usage: "detector id, required when rdh-version < 6"},
		&cli.IntFlag{Name: "rdh-version", Value: 6, Usage: "RDH version, one of 3,4,5,6"},
		&cli.StringFlag{Name: "subspec-mode", Value: string(SubspecModeFEEID), Usage: "cru-linkid or feeid"},
		&cli.StringFlag{Name: "rdh-sanity-check", Value: string(RdhSanityOff), Usage: "off, print, or drop"},
		&cli.BoolFlag{Name: "filter-empty-trigger", Usage: "drop empty-trigger HBFs"},
		&cli.StringFlag{Name: "source-listen-address", Usage: "address to serve sendStf pulls on, empty disables"},
	}
}

// BuilderFromContext builds a Builder config from a parsed cli.Context.
func BuilderFromContext(c *cli.Context) (*Builder, error) {
	mask, err := LoadFeeIDMask()
	if err != nil {
		return nil, err
	}

	b := &Builder{
		InputChannelName:   c.String("input-channel-name"),
		OutputChannelName:  c.String("output-channel-name"),
		DplChannelName:     c.String("dpl-channel-name"),
		StandAlone:         c.Bool("stand-alone"),
		MaxBufferedStfs:    c.Int("max-buffered-stfs"),
		MaxBuiltStfs:       c.Uint64("max-built-stfs"),
		Detector:           Detector(c.String("detector")),
		RdhVersion:         c.Int("rdh-version"),
		SubspecMode:        SubspecMode(c.String("subspec-mode")),
		RdhSanityCheck:     RdhSanityCheck(c.String("rdh-sanity-check")),
		FilterEmptyTrigger: c.Bool("filter-empty-trigger"),
		FeeIDMask:          mask,
		SourceListenAddress: c.String("source-listen-address"),
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// SchedulerFlags declares the Scheduler process's CLI options.
func SchedulerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "listen-address", Value: ":9080", Usage: "address the RPC server binds to"},
		&cli.Int64Flag{Name: "discard-timeout-ms", Value: DiscardTimeoutDefault, Usage: "builder-info eviction timeout"},
		&cli.IntFlag{Name: "overestimate-percent", Value: OverestimatePercentDefault, Usage: "assignment sizing overestimate"},
	}
}

// SchedulerFromContext builds a Scheduler config from a parsed cli.Context.
func SchedulerFromContext(c *cli.Context) (*Scheduler, error) {
	s := &Scheduler{
		ListenAddress:        c.String("listen-address"),
		DiscardTimeoutMillis: c.Int64("discard-timeout-ms"),
		OverestimatePercent:  c.Int("overestimate-percent"),
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// AggregatorFlags declares the Aggregator process's CLI options.
func AggregatorFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "listen-address", Value: ":9090", Usage: "address the RPC server binds to"},
		&cli.StringFlag{Name: "scheduler-address", Usage: "Scheduler RPC address"},
		&cli.Uint64Flag{Name: "buffer-size-bytes", Usage: "total TF buffer capacity"},
		&cli.Int64Flag{Name: "update-floor-ms", Value: 500, Usage: "minimum interval between TfBuilderUpdate pushes"},
	}
}

// AggregatorFromContext builds an Aggregator config from a parsed cli.Context.
func AggregatorFromContext(c *cli.Context) (*Aggregator, error) {
	a := &Aggregator{
		ListenAddress:     c.String("listen-address"),
		SchedulerAddress:  c.String("scheduler-address"),
		BufferSizeBytes:   c.Uint64("buffer-size-bytes"),
		UpdateFloorMillis: c.Int64("update-floor-ms"),
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}
