package builder

import (
	"context"
	"log/slog"
	"time"

	"github.com/ktf/DataDistribution/internal/pipeline"
	"github.com/ktf/DataDistribution/internal/queue"
	"github.com/ktf/DataDistribution/internal/stf"
	"github.com/ktf/DataDistribution/internal/transport"
)

// OutputMode selects how the Output Stage disposes of finished STFs
// (§4.4). Exactly one of DirectSerialiser or WorkflowAdapter is active
// when StandAlone is not.
type OutputMode int

const (
	StandAlone OutputMode = iota
	DirectSerialiser
	WorkflowAdapter
)

// Adapter is the workflow-framework consumer boundary (§1: "the
// downstream workflow framework's wire format beyond the single
// end-of-stream record" is out of scope). This repository owns only
// the end-of-stream record's shape; everything else about the adapter
// wire format is external.
type Adapter interface {
	Send(ctx context.Context, s *stf.STF) error
	SendEndOfStream(ctx context.Context) error
	Close() error
}

// OutputStage serialises finished STFs to the configured downstream
// and enforces an optional maxBuiltStfs cap (§4.4).
type OutputStage struct {
	in  *queue.Queue[*stf.STF]
	cap *pipeline.Cap

	mode    OutputMode
	channel transport.Channel
	adapter Adapter

	maxBuiltStfs uint64
	stats        *Stats
	log          *slog.Logger

	running bool

	sourceServer *SourceServer
}

// SetSourceServer wires a SourceServer to receive every STF this stage
// hands off, so an Aggregator can pull it later via sendStf regardless
// of the stage's delivery mode. Optional; nil (the default) disables
// pull serving.
func (o *OutputStage) SetSourceServer(s *SourceServer) {
	o.sourceServer = s
}

// NewOutputStage creates an OutputStage in the given mode. channel is
// used when mode is DirectSerialiser; adapter when mode is
// WorkflowAdapter; both may be nil when mode is StandAlone.
func NewOutputStage(in *queue.Queue[*stf.STF], cap *pipeline.Cap, mode OutputMode, channel transport.Channel, adapter Adapter, maxBuiltStfs uint64, log *slog.Logger, stats *Stats) *OutputStage {
	return &OutputStage{
		in:           in,
		cap:          cap,
		mode:         mode,
		channel:      channel,
		adapter:      adapter,
		maxBuiltStfs: maxBuiltStfs,
		stats:        stats,
		log:          log,
		running:      true,
	}
}

// Run executes the send loop until the input queue is closed and
// drained, maxBuiltStfs is reached, or a send error occurs while
// running (§4.4 "Error policy").
func (o *OutputStage) Run(ctx context.Context) {
	defer o.teardown(ctx)

	for {
		s, ok := o.in.Pop()
		if !ok {
			o.running = false
			return
		}

		// Null gap-fillers come from the Sequencer and never took a slot.
		if s.Header.Origin != stf.OriginNull {
			o.cap.Release()
			o.stats.DecInFlight()
		}

		if o.sourceServer != nil {
			o.sourceServer.Hold(s)
		}

		if err := o.send(ctx, s); err != nil {
			if o.running {
				o.log.Error("output stage: send failed, exiting loop", "error", err, "tfId", s.Header.ID)
				o.running = false
				return
			}
			o.log.Info("output stage: send failed while not running", "error", err, "tfId", s.Header.ID)
			continue
		}

		sent := o.stats.RecordSent()
		if o.maxBuiltStfs > 0 && sent == o.maxBuiltStfs {
			o.log.Info("output stage: maxBuiltStfs reached, initiating shutdown", "sent", sent)
			o.running = false
			return
		}
	}
}

func (o *OutputStage) send(ctx context.Context, s *stf.STF) error {
	switch o.mode {
	case StandAlone:
		return nil
	case DirectSerialiser:
		mp, err := SerializeStf(s)
		if err != nil {
			return err
		}
		_, err = o.channel.Send(ctx, mp)
		return err
	case WorkflowAdapter:
		return o.adapter.Send(ctx, s)
	default:
		return nil
	}
}

// teardown runs the end-of-stream handling (§4.4 "End-of-stream"): when
// the workflow-framework mode is active, send a best-effort completed
// record, wait endOfStreamDelay, then close the channel.
func (o *OutputStage) teardown(ctx context.Context) {
	if o.mode != WorkflowAdapter || o.adapter == nil {
		return
	}
	if err := o.adapter.SendEndOfStream(ctx); err != nil {
		o.log.Warn("output stage: best-effort end-of-stream send failed", "error", err)
	}
	time.Sleep(endOfStreamDelay)
	if err := o.adapter.Close(); err != nil {
		o.log.Warn("output stage: adapter close failed", "error", err)
	}
}
