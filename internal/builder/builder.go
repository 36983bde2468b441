package builder

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ktf/DataDistribution/internal/config"
	"github.com/ktf/DataDistribution/internal/pipeline"
	"github.com/ktf/DataDistribution/internal/queue"
	"github.com/ktf/DataDistribution/internal/rdh"
	"github.com/ktf/DataDistribution/internal/stf"
	"github.com/ktf/DataDistribution/internal/transport"
)

// inputQueueDepth and sequencerQueueDepth bound the unenforced
// per-stage buffers; the global cap (§3) is the one depth limit the
// specification actually names, so these exist only to keep a slow
// downstream stage from growing a stage's queue without bound before
// the cap kicks in at Assembly's output.
const (
	inputQueueDepth     = 64
	sequencerQueueDepth = 64
)

// Builder wires the four pipeline stages together and owns their
// shared queues and the global pipeline.Cap (§2, §3, §4.1-4.4).
type Builder struct {
	cfg *config.Builder
	log *slog.Logger

	inputToAssembly  *queue.Queue[transport.Multipart]
	assemblyToSeq    *queue.Queue[*stf.STF]
	seqToOutput      *queue.Queue[*stf.STF]
	cap              *pipeline.Cap

	input     *InputStage
	assembly  *AssemblyStage
	sequencer *SequencerStage
	output    *OutputStage

	stats *Stats

	readoutChannel transport.Channel
	outputChannel  transport.Channel // nil in stand-alone or workflow-adapter mode

	sourceServer *SourceServer

	wg sync.WaitGroup
}

// New wires a Builder from cfg. readout is the input transport
// channel; output is the direct-serialiser output channel (nil when
// stand-alone or using adapter); adapter is the workflow-framework
// consumer (nil unless cfg.DplChannelName is set); reader decodes RDH
// payloads.
func New(cfg *config.Builder, readout, output transport.Channel, adapter Adapter, reader rdh.Reader, log *slog.Logger) *Builder {
	stats := NewStats()
	cap := pipeline.NewCap(cfg.EffectiveMaxBufferedStfs())

	inputToAssembly := queue.New[transport.Multipart](inputQueueDepth)
	assemblyToSeq := queue.New[*stf.STF](sequencerQueueDepth)
	seqToOutput := queue.New[*stf.STF](sequencerQueueDepth)

	mode := StandAlone
	switch {
	case cfg.StandAlone:
		mode = StandAlone
	case cfg.DplChannelName != "":
		mode = WorkflowAdapter
	case cfg.OutputChannelName != "":
		mode = DirectSerialiser
	}

	subspecMode := rdh.SubspecFEEID
	if cfg.SubspecMode == config.SubspecModeCRULinkID {
		subspecMode = rdh.SubspecCRULinkID
	}

	b := &Builder{
		cfg:              cfg,
		log:              log,
		inputToAssembly:  inputToAssembly,
		assemblyToSeq:    assemblyToSeq,
		seqToOutput:      seqToOutput,
		cap:              cap,
		stats:            stats,
		readoutChannel:   readout,
		outputChannel:    output,
	}

	b.input = NewInputStage(readout, inputToAssembly, log, stats)
	b.assembly = NewAssemblyStage(inputToAssembly, assemblyToSeq, cap, reader, subspecMode, cfg.FeeIDMask, log, stats)
	b.sequencer = NewSequencerStage(assemblyToSeq, seqToOutput, log)
	b.output = NewOutputStage(seqToOutput, cap, mode, output, adapter, cfg.MaxBuiltStfs, log, stats)

	b.sourceServer = NewSourceServer()
	b.output.SetSourceServer(b.sourceServer)

	return b
}

// SendStfHandler returns the rpcapi.Handler an owning process registers
// under rpcapi.TypeSendStfRequest so Aggregators can pull STFs this
// Builder has emitted (§4.7, §6).
func (b *Builder) SendStfHandler() func([]byte) (string, any, error) {
	return b.sourceServer.Handle
}

// Stats returns the Builder's live counters.
func (b *Builder) Stats() Snapshot {
	return b.stats.Snapshot()
}

// Run starts all four stages and blocks until ctx is cancelled, at
// which point it executes the shutdown order named in §5: stop the
// readout interface, close the input queue, join stages in pipeline
// order, then release pipeline-wide resources last.
func (b *Builder) Run(ctx context.Context) {
	stageCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	b.wg.Add(4)
	go func() { defer b.wg.Done(); b.input.Run(stageCtx) }()
	go func() { defer b.wg.Done(); b.assembly.Run(stageCtx) }()
	go func() { defer b.wg.Done(); b.sequencer.Run(stageCtx) }()
	go func() { defer b.wg.Done(); b.output.Run(stageCtx) }()

	<-ctx.Done()
	b.Shutdown()
}

// Shutdown executes the ordered teardown (§5 "Cancellation"): stop the
// readout interface, close the input queue, and let each stage close
// its own output queue in turn as it drains and exits — this is what
// cascades the shutdown through Assembly, the Sequencer, and finally
// the Output Stage without this function touching their queues
// directly. Safe to call once Run's ctx has already been cancelled;
// Run calls it automatically.
func (b *Builder) Shutdown() {
	b.input.SetRunning(false)
	_ = b.readoutChannel.Stop()
	b.inputToAssembly.Stop()

	b.wg.Wait()

	b.cap.Stop()
}
