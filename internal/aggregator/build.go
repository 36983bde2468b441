package aggregator

import (
	"context"
	"sync"

	"github.com/ktf/DataDistribution/internal/rpcapi"
)

// runBuildLoop is the Aggregator's "build thread" (§4.7): pop a
// request, pull every listed source in parallel, and on success
// account the TimeFrame as built; on partial failure release the
// charge so the buffer space is freed back.
func (a *Aggregator) runBuildLoop(ctx context.Context) {
	for {
		info, ok := a.build.Pop()
		if !ok {
			return
		}
		a.buildOne(ctx, info)
	}
}

func (a *Aggregator) buildOne(ctx context.Context, info rpcapi.TfBuildingInformation) {
	pullCtx, cancel := context.WithTimeout(ctx, sourcePullTimeout)
	defer cancel()

	var wg sync.WaitGroup
	failed := make([]string, len(info.Sources))

	for i, src := range info.Sources {
		wg.Add(1)
		go func(i int, src rpcapi.SourceSize) {
			defer wg.Done()
			if err := a.pullSource(pullCtx, info.TfID, src); err != nil {
				failed[i] = src.StfSenderID
			}
		}(i, src)
	}
	wg.Wait()

	var failedSources []string
	for _, id := range failed {
		if id != "" {
			failedSources = append(failedSources, id)
		}
	}

	if len(failedSources) > 0 {
		a.log.Error("tf build failed: could not pull all sources",
			"tfId", info.TfID, "failedSources", failedSources)
		a.accounting.Discharge(info.TfID)
		return
	}

	a.numBufferedTfs.Add(1)
	a.lastBuiltTfID.Store(info.TfID)
}

func (a *Aggregator) pullSource(ctx context.Context, tfID uint64, src rpcapi.SourceSize) error {
	client, err := a.dialer.Dial(ctx, src.StfSenderID)
	if err != nil {
		return err
	}
	defer client.Close()

	resp, err := client.SendStf(ctx, tfID)
	if err != nil {
		return err
	}
	if !resp.Present {
		return errSourceMissingTf
	}
	return nil
}
