package aggregator

import (
	"context"
	"time"

	"github.com/ktf/DataDistribution/internal/rpcapi"
)

// updateFloor is the maximum interval between pushed updates even
// absent any accounting change (§4.7 "500ms floor").
const updateFloor = 500 * time.Millisecond

// RunUpdateLoop is the Aggregator's "update thread" (§4.7): on every
// accounting change, or at updateFloor otherwise, build a
// TfBuilderUpdateMessage and push it to the Scheduler via send. send
// is expected to redial on failure; a push error is logged and
// retried on the next tick rather than treated as fatal.
func (a *Aggregator) RunUpdateLoop(ctx context.Context, send func(rpcapi.TfBuilderUpdateMessage) error) {
	floor := time.Duration(a.cfg.UpdateFloorMillis) * time.Millisecond
	if floor <= 0 {
		floor = updateFloor
	}

	for {
		a.accounting.WaitForChangeOrTimeout(floor)
		if ctx.Err() != nil {
			return
		}

		update := rpcapi.TfBuilderUpdateMessage{
			ProcessID:     a.processID,
			FreeMemory:    a.FreeMemory(),
			LastBuiltTfID: a.lastBuiltTfID.Load(),
		}
		if err := send(update); err != nil {
			a.log.Warn("failed to push tf builder update", "error", err)
		}
	}
}
