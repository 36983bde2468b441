package aggregator

import (
	"context"
	"net"

	"github.com/ktf/DataDistribution/internal/rpcapi"
	"github.com/ktf/DataDistribution/internal/wire"
)

// Serve starts the Aggregator's inbound RPC listener (BuildTfRequest,
// TerminatePartition), the build thread, and the update thread,
// blocking until ctx is cancelled.
func Serve(ctx context.Context, a *Aggregator) error {
	ln, err := net.Listen("tcp", a.cfg.ListenAddress)
	if err != nil {
		return err
	}

	rpcServer := rpcapi.NewServer()
	rpcServer.Handle(rpcapi.TypeBuildTfRequest, func(body []byte) (string, any, error) {
		var req rpcapi.BuildTfRequest
		if err := wire.UnwrapEnvelope(wire.Envelope{Body: body}, &req); err != nil {
			return "", nil, err
		}
		return rpcapi.TypeBuildTfResponse, a.HandleBuildTfRequest(req), nil
	})
	rpcServer.Handle(rpcapi.TypeTerminatePartition, func(body []byte) (string, any, error) {
		var info rpcapi.PartitionInfo
		if err := wire.UnwrapEnvelope(wire.Envelope{Body: body}, &info); err != nil {
			return "", nil, err
		}
		a.Shutdown()
		return rpcapi.TypePartitionResponse, rpcapi.PartitionResponse{Acknowledged: true}, nil
	})

	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	go a.Run(ctx)
	go a.RunUpdateLoop(ctx, schedulerPusher(a.cfg.SchedulerAddress))

	return rpcServer.Serve(ln)
}

// schedulerPusher dials addr fresh on every call, matching the
// update thread's "redial on failure, retry next tick" tolerance
// (§4.7) rather than holding a long-lived connection that would need
// its own reconnect logic.
func schedulerPusher(addr string) func(rpcapi.TfBuilderUpdateMessage) error {
	return func(update rpcapi.TfBuilderUpdateMessage) error {
		client, err := rpcapi.Dial(addr)
		if err != nil {
			return err
		}
		defer client.Close()

		_, err = client.Call(rpcapi.TypeTfBuilderUpdate, update)
		return err
	}
}
