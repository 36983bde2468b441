// Package aggregator implements the Aggregator process: accepting
// TimeFrame-build assignments from the Scheduler, pulling each
// TimeFrame's STF contributions from the named source Builders,
// tracking buffer accounting, and reporting free memory back (§4.7).
// Grounded on e7canasta-orion-care-sensor's framesupplier for the
// accept/charge/enqueue/acknowledge shape of a bounded admission path
// feeding a background worker loop.
package aggregator

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ktf/DataDistribution/internal/config"
	"github.com/ktf/DataDistribution/internal/queue"
	"github.com/ktf/DataDistribution/internal/rpcapi"
)

// Aggregator is the Aggregator process's in-process state: the
// accounting ledger, the pending-build queue, and the counters the
// update thread reports.
type Aggregator struct {
	cfg    *config.Aggregator
	log    *slog.Logger
	dialer SourceDialer

	processID  string
	accounting *Accounting
	build      *queue.Queue[rpcapi.TfBuildingInformation]

	accepting           atomic.Bool
	terminateRequested  atomic.Bool
	numBufferedTfs      atomic.Uint64
	lastBuiltTfID       atomic.Uint64
}

// New creates an Aggregator over cfg, identified to the Scheduler as
// processID, pulling source contributions through dialer.
func New(cfg *config.Aggregator, processID string, dialer SourceDialer, log *slog.Logger) *Aggregator {
	a := &Aggregator{
		cfg:        cfg,
		log:        log,
		dialer:     dialer,
		processID:  processID,
		accounting: NewAccounting(cfg.BufferSizeBytes),
		build:      newBuildQueue(),
	}
	a.accepting.Store(true)
	return a
}

// Run starts the build thread and blocks until ctx is cancelled, then
// drains outstanding builds before returning (§4.7 TerminatePartition
// "drains outstanding builds").
func (a *Aggregator) Run(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.runBuildLoop(ctx)
	}()

	<-ctx.Done()
	a.Shutdown()
	<-done
}

// Shutdown stops accepting new requests and closes the build queue,
// letting runBuildLoop drain whatever is already queued before
// exiting (§4.7 TerminatePartition).
func (a *Aggregator) Shutdown() {
	a.terminateRequested.Store(true)
	a.accepting.Store(false)
	a.build.Stop()
}

// HandleBuildTfRequest implements the BuildTfRequest admission path:
// reject if not accepting, reject if the charge would overflow the
// buffer, otherwise charge, enqueue, acknowledge (§4.7).
func (a *Aggregator) HandleBuildTfRequest(req rpcapi.BuildTfRequest) rpcapi.BuildTfResponse {
	if !a.accepting.Load() {
		return rpcapi.BuildTfResponse{Accepted: false, Reason: "not accepting (terminating)"}
	}
	if !a.accounting.TryCharge(req.Info.TfID, req.Info.TfSize) {
		return rpcapi.BuildTfResponse{Accepted: false, Reason: "buffer exhausted"}
	}
	if !a.build.TryPush(req.Info) {
		a.accounting.Discharge(req.Info.TfID)
		return rpcapi.BuildTfResponse{Accepted: false, Reason: "build queue full"}
	}
	return rpcapi.BuildTfResponse{Accepted: true}
}

// FreeMemory reports the Aggregator's current free buffer space, used
// by the update thread's TfBuilderUpdateMessage.
func (a *Aggregator) FreeMemory() uint64 {
	return a.accounting.FreeMemory()
}

// Stats is a point-in-time snapshot of counters reported alongside
// updates and useful in tests asserting the accounting invariant.
type Stats struct {
	CurrentTfBufferSize uint64
	NumBufferedTfs      uint64
	LastBuiltTfID       uint64
}

// Stats returns a snapshot of the Aggregator's counters.
func (a *Aggregator) Stats() Stats {
	return Stats{
		CurrentTfBufferSize: a.accounting.CurrentSize(),
		NumBufferedTfs:      a.numBufferedTfs.Load(),
		LastBuiltTfID:       a.lastBuiltTfID.Load(),
	}
}

// sourcePullTimeout is the deadline of the context a build hands to its
// parallel sendStf pulls (§4.7 "issues parallel sendStf RPCs to every
// listed source"). rpcSourceClient does not observe that context, so an
// RPC-backed pull is not cut off by this timeout.
const sourcePullTimeout = 5 * time.Second
