package builder

import (
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/ktf/DataDistribution/internal/rpcapi"
	"github.com/ktf/DataDistribution/internal/stf"
)

func sendStfRequestBody(t *testing.T, tfID uint64) []byte {
	t.Helper()
	body, err := msgpack.Marshal(rpcapi.SendStfRequest{TfID: tfID})
	if err != nil {
		t.Fatalf("msgpack.Marshal() error = %v", err)
	}
	return body
}

func decodeSendStfResponse(t *testing.T, resp any) rpcapi.SendStfResponse {
	t.Helper()
	r, ok := resp.(rpcapi.SendStfResponse)
	if !ok {
		t.Fatalf("response has type %T, want rpcapi.SendStfResponse", resp)
	}
	return r
}

func TestSourceServerHandleReturnsAbsentForUnknownTf(t *testing.T) {
	h := NewSourceServer()

	respType, resp, err := h.Handle(sendStfRequestBody(t, 42))
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if respType != rpcapi.TypeSendStfResponse {
		t.Errorf("respType = %q, want %q", respType, rpcapi.TypeSendStfResponse)
	}
	if got := decodeSendStfResponse(t, resp); got.Present {
		t.Errorf("Present = true, want false for an unheld tfId")
	}
}

func TestSourceServerHandleReturnsHeldStf(t *testing.T) {
	h := NewSourceServer()
	h.Hold(sealedStf(7, stf.OriginReadout))

	_, resp, err := h.Handle(sendStfRequestBody(t, 7))
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	got := decodeSendStfResponse(t, resp)
	if !got.Present {
		t.Fatal("Present = false, want true for a held tfId")
	}
	if len(got.Payload) == 0 {
		t.Error("Payload is empty for a held tfId")
	}
}

func TestSourceServerHoldEvictsOldestBeyondCapacity(t *testing.T) {
	h := NewSourceServer()
	h.capacity = 2

	h.Hold(sealedStf(1, stf.OriginReadout))
	h.Hold(sealedStf(2, stf.OriginReadout))
	h.Hold(sealedStf(3, stf.OriginReadout))

	if _, _, err := h.Handle(sendStfRequestBody(t, 1)); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if got := decodeSendStfResponse(t, mustResp(t, h, 1)); got.Present {
		t.Error("Present = true for tfId 1, want evicted")
	}
	if got := decodeSendStfResponse(t, mustResp(t, h, 3)); !got.Present {
		t.Error("Present = false for tfId 3, want held")
	}
}

func TestSourceServerHoldIsIdempotentPerTfID(t *testing.T) {
	h := NewSourceServer()
	h.capacity = 1

	h.Hold(sealedStf(1, stf.OriginReadout))
	h.Hold(sealedStf(1, stf.OriginReadout))

	if got := len(h.order); got != 1 {
		t.Errorf("len(order) = %d, want 1 after re-holding the same tfId", got)
	}
}

func mustResp(t *testing.T, h *SourceServer, tfID uint64) any {
	t.Helper()
	_, resp, err := h.Handle(sendStfRequestBody(t, tfID))
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	return resp
}
