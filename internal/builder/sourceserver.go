package builder

import (
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/ktf/DataDistribution/internal/rpcapi"
	"github.com/ktf/DataDistribution/internal/stf"
	"github.com/ktf/DataDistribution/internal/wire"
)

// sourceServerCapacity bounds how many recently-emitted STFs a
// SourceServer retains for an Aggregator to pull, oldest evicted
// first once the bound is reached.
const sourceServerCapacity = 64

// SourceServer serves the source-builder side of the Aggregator's
// pull ("§4.7 issues parallel sendStf RPCs to every listed source",
// §6 SendStfRequest/SendStfResponse): a bounded in-memory hold of
// recently emitted STFs, keyed by tfId, exposed through an
// rpcapi.Handler. The Output Stage feeds it every STF it hands off,
// independent of that STF's DirectSerialiser/WorkflowAdapter delivery.
type SourceServer struct {
	mu       sync.Mutex
	held     map[uint64]*stf.STF
	order    []uint64
	capacity int
}

// NewSourceServer creates an empty SourceServer.
func NewSourceServer() *SourceServer {
	return &SourceServer{held: make(map[uint64]*stf.STF), capacity: sourceServerCapacity}
}

// Hold retains s for later pulls, evicting the oldest held STF once
// over capacity.
func (h *SourceServer) Hold(s *stf.STF) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.held[s.Header.ID]; !exists {
		h.order = append(h.order, s.Header.ID)
	}
	h.held[s.Header.ID] = s

	for len(h.order) > h.capacity {
		oldest := h.order[0]
		h.order = h.order[1:]
		delete(h.held, oldest)
	}
}

// Handle implements rpcapi.Handler for rpcapi.TypeSendStfRequest.
func (h *SourceServer) Handle(body []byte) (string, any, error) {
	var req rpcapi.SendStfRequest
	if err := wire.UnwrapEnvelope(wire.Envelope{Body: body}, &req); err != nil {
		return "", nil, err
	}

	h.mu.Lock()
	s, ok := h.held[req.TfID]
	h.mu.Unlock()
	if !ok {
		return rpcapi.TypeSendStfResponse, rpcapi.SendStfResponse{Present: false}, nil
	}

	mp, err := SerializeStf(s)
	if err != nil {
		return "", nil, err
	}
	payload, err := msgpack.Marshal(mp)
	if err != nil {
		return "", nil, err
	}
	return rpcapi.TypeSendStfResponse, rpcapi.SendStfResponse{Present: true, Payload: payload}, nil
}
