package scheduler

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/ktf/DataDistribution/internal/config"
	"github.com/ktf/DataDistribution/internal/rpcapi"
	"github.com/ktf/DataDistribution/internal/wire"
)

// Server wires Registry and Selection to the Scheduler's half of the
// RPC surface (§6): it receives TfBuilderUpdate pushes from
// Aggregators and TerminatePartition requests over RPC. Assignment is
// the AssignTimeFrame method, which Serve does not expose over RPC; it
// returns the TfBuildingInformation record without sending it to the
// chosen Aggregator.
type Server struct {
	registry  *Registry
	selection *Selection
	log       *slog.Logger

	partitionID    string
	terminated     bool
}

// NewServer creates a Server over registry and selection.
func NewServer(registry *Registry, selection *Selection, log *slog.Logger) *Server {
	return &Server{registry: registry, selection: selection, log: log}
}

// HandleTfBuilderUpdate processes a pushed update, folding it into the
// registry and re-adding the sender to the ready pool when its
// estimated free memory (reported free memory less reservations made
// since its previous update) is positive (§4.5, §4.6).
func (srv *Server) HandleTfBuilderUpdate(update rpcapi.TfBuilderUpdateMessage) {
	info := srv.registry.Ingest(update)
	if info.EstimatedFreeMemory > 0 {
		srv.selection.AddReady(info)
	}
}

// AssignTimeFrame attempts to schedule one TimeFrame of sizeBytes,
// returning the chosen aggregator's TfBuildingInformation assignment.
// ok is false when no ready aggregator currently fits (§4.6 "no
// capacity"); the caller is expected to retry later.
func (srv *Server) AssignTimeFrame(tfID, sizeBytes uint64, sources []rpcapi.SourceSize) (rpcapi.TfBuildingInformation, bool) {
	processID, reserved, ok := srv.selection.Assign(tfID, sizeBytes)
	if !ok {
		return rpcapi.TfBuildingInformation{}, false
	}
	srv.registry.Reserve(processID, reserved)

	return rpcapi.TfBuildingInformation{
		TfID:    tfID,
		Sources: sources,
		TfSize:  sizeBytes,
	}, true
}

// HandleTerminatePartition marks the partition terminated, evicting
// every tracked builder so the ready pool empties alongside it.
func (srv *Server) HandleTerminatePartition(info rpcapi.PartitionInfo) rpcapi.PartitionResponse {
	srv.terminated = true
	srv.partitionID = info.PartitionID

	srv.registry.mu.Lock()
	ids := make([]string, 0, len(srv.registry.builders))
	for id := range srv.registry.builders {
		ids = append(ids, id)
	}
	srv.registry.mu.Unlock()
	for _, id := range ids {
		srv.registry.Remove(id)
	}
	return rpcapi.PartitionResponse{Acknowledged: true}
}

// Serve starts the RPC listener and the housekeeping loop, blocking
// until ctx is cancelled.
func Serve(ctx context.Context, cfg *config.Scheduler, srv *Server, log *slog.Logger) error {
	ln, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		return err
	}

	rpcServer := rpcapi.NewServer()
	rpcServer.Handle(rpcapi.TypeTfBuilderUpdate, func(body []byte) (string, any, error) {
		var update rpcapi.TfBuilderUpdateMessage
		if err := wire.UnwrapEnvelope(wire.Envelope{Body: body}, &update); err != nil {
			return "", nil, err
		}
		srv.HandleTfBuilderUpdate(update)
		return rpcapi.TypeTfBuilderUpdate, struct{}{}, nil
	})
	rpcServer.Handle(rpcapi.TypeTerminatePartition, func(body []byte) (string, any, error) {
		var info rpcapi.PartitionInfo
		if err := wire.UnwrapEnvelope(wire.Envelope{Body: body}, &info); err != nil {
			return "", nil, err
		}
		return rpcapi.TypePartitionResponse, srv.HandleTerminatePartition(info), nil
	})

	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	go srv.registry.RunHousekeeping(ctx, housekeepingInterval)

	return rpcServer.Serve(ln)
}

// housekeepingInterval is the Scheduler's builder-info eviction period
// (§4.5: 1s).
const housekeepingInterval = 1 * time.Second
