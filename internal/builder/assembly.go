package builder

import (
	"context"
	"log/slog"
	"time"

	"github.com/ktf/DataDistribution/internal/pipeline"
	"github.com/ktf/DataDistribution/internal/queue"
	"github.com/ktf/DataDistribution/internal/rdh"
	"github.com/ktf/DataDistribution/internal/stf"
	"github.com/ktf/DataDistribution/internal/transport"
)

// AssemblyStage converts a stream of raw readout multiparts into
// sealed STFs keyed by time-frame id (§4.2).
type AssemblyStage struct {
	in  *queue.Queue[transport.Multipart]
	out *queue.Queue[*stf.STF]
	cap *pipeline.Cap

	reader      rdh.Reader
	subspecMode rdh.SubspecMode
	feeMask     uint32

	log   *slog.Logger
	stats *Stats

	current      *stf.STF
	lastEmitTime time.Time
}

// NewAssemblyStage creates an AssemblyStage decoding HBFs with reader
// and masking sub-specifications per mode/feeMask (§4.2 rule 4). cap
// enforces maxStfsInPipeline across Assembly's output and everything
// downstream of it (§3 "Pipeline").
func NewAssemblyStage(in *queue.Queue[transport.Multipart], out *queue.Queue[*stf.STF], cap *pipeline.Cap, reader rdh.Reader, mode rdh.SubspecMode, feeMask uint32, log *slog.Logger, stats *Stats) *AssemblyStage {
	return &AssemblyStage{
		in:          in,
		out:         out,
		cap:         cap,
		reader:      reader,
		subspecMode: mode,
		feeMask:     feeMask,
		log:         log,
		stats:       stats,
	}
}

// Run executes the assembly loop until the input queue is closed and
// drained.
func (a *AssemblyStage) Run(ctx context.Context) {
	for {
		mp, ok := a.in.PopWait(pollTimeout)
		if !ok {
			if a.in.Closed() {
				a.finalizeOnShutdown()
				return
			}
			// Poll timeout: close and emit an in-progress STF (§4.2
			// "Timeouts"); otherwise loop.
			if a.current != nil {
				a.log.Warn("assembly inactivity timeout, closing in-progress STF", "tfId", a.current.Header.ID)
				a.emit()
			}
			continue
		}

		a.processMultipart(mp)
	}
}

func (a *AssemblyStage) finalizeOnShutdown() {
	if a.current != nil {
		a.emit()
	}
	a.out.Stop()
}

func (a *AssemblyStage) processMultipart(mp transport.Multipart) {
	header, err := rdh.ParseHeader(mp[0])
	if err != nil {
		// Input Stage already validated framing; a failure here means the
		// queue carried something malformed, which should not happen.
		a.log.Error("assembly: unexpected header parse failure", "error", err)
		return
	}

	if a.current != nil && a.current.Header.ID != uint64(header.TimeFrameID) {
		a.log.Error("previous STF closed because stop flag was missed",
			"previousTfId", a.current.Header.ID, "newTfId", header.TimeFrameID)
		a.emit()
	}
	if a.current == nil {
		a.current = stf.New(uint64(header.TimeFrameID), stf.OriginReadout)
	}

	var (
		runEq   stf.EquipmentID
		runHBFs []stf.HBF
		haveRun bool
	)
	flush := func() {
		if len(runHBFs) > 0 {
			a.current.AddHBFs(runEq, runHBFs)
			runHBFs = nil
		}
	}

	for i, part := range mp[1:] {
		decoded, err := a.reader.Decode(part)
		if err != nil {
			lostBytes := 0
			for _, p := range mp[1+i:] {
				lostBytes += len(p)
			}
			a.log.Warn("abandoning remainder of multipart: RDH decode failed", "error", err, "lostBytes", lostBytes)
			break
		}

		masked := rdh.MaskSubSpec(a.subspecMode, decoded.SubSpecification, a.feeMask)
		eq := stf.EquipmentID{DataOrigin: decoded.DataOrigin, SubSpecification: masked}

		if haveRun && eq != runEq {
			flush()
		}
		runEq = eq
		haveRun = true
		runHBFs = append(runHBFs, stf.HBF{Equipment: eq, Data: part})
	}
	flush()

	if header.Flags.LastTfMessage {
		a.emit()
	}
}

func (a *AssemblyStage) emit() {
	s := a.current
	a.current = nil
	s.Seal()

	now := time.Now()
	if !a.lastEmitTime.IsZero() {
		a.stats.UpdateInterStfTime(now.Sub(a.lastEmitTime).Seconds())
	}
	a.lastEmitTime = now
	a.stats.UpdateStfSize(float64(s.Header.Size))

	a.cap.Acquire()
	a.stats.IncInFlight()
	a.out.Push(s)
}
