// Package rpcapi defines the message types exchanged over the
// Scheduler<->Aggregator and Aggregator<->Builder RPC surface (§6),
// wire-encoded by internal/wire's msgpack envelopes. Field naming
// follows §4's domain vocabulary directly; each type mirrors a struct
// named in the specification's module descriptions rather than any
// generated-code convention.
package rpcapi

// Envelope type discriminants, used as the Type field of a wire.Envelope.
const (
	TypeBuildTfRequest      = "build-tf-request"
	TypeBuildTfResponse     = "build-tf-response"
	TypeTerminatePartition  = "terminate-partition"
	TypePartitionResponse   = "partition-response"
	TypeTfBuilderUpdate     = "tf-builder-update"
	TypeSendStfRequest      = "send-stf-request"
	TypeSendStfResponse     = "send-stf-response"
)

// SourceSize pairs an stfSender identity with the byte size it reported
// for one TimeFrame's contribution, per §4's "(stfSenderId -> stfSize)" pairs.
type SourceSize struct {
	StfSenderID string `msgpack:"stfSenderId"`
	StfSize     uint64 `msgpack:"stfSize"`
}

// TfBuildingInformation is the assignment record the Scheduler sends to
// the Aggregator it picked: a TimeFrame id, the per-source sizes that
// make it up, and the total.
type TfBuildingInformation struct {
	TfID    uint64       `msgpack:"tfId"`
	Sources []SourceSize `msgpack:"sources"`
	TfSize  uint64       `msgpack:"tfSize"`
}

// BuildTfRequest is the Scheduler -> Aggregator call asking the
// Aggregator to assemble the TimeFrame described by Info.
type BuildTfRequest struct {
	Info TfBuildingInformation `msgpack:"info"`
}

// BuildTfResponse is the Aggregator's reply: Accepted means the
// Aggregator charged the TimeFrame against its buffer and queued the
// build; Reason explains a rejection.
type BuildTfResponse struct {
	Accepted bool   `msgpack:"accepted"`
	Reason   string `msgpack:"reason,omitempty"`
}

// PartitionInfo identifies the run/partition being torn down.
type PartitionInfo struct {
	PartitionID string `msgpack:"partitionId"`
}

// PartitionResponse acknowledges a TerminatePartition call.
type PartitionResponse struct {
	Acknowledged bool `msgpack:"acknowledged"`
}

// TfBuilderUpdateMessage is pushed by an Aggregator to the Scheduler,
// either on an accounting change or at the 500ms floor (§4.7).
type TfBuilderUpdateMessage struct {
	ProcessID     string `msgpack:"processId"`
	FreeMemory    uint64 `msgpack:"freeMemory"`
	LastBuiltTfID uint64 `msgpack:"lastBuiltTfId"`
}

// SendStfRequest is the Aggregator -> source-builder call pulling one
// TimeFrame's STF contribution off an stfSender named in a prior
// TfBuildingInformation.
type SendStfRequest struct {
	TfID uint64 `msgpack:"tfId"`
}

// SendStfResponse carries the raw STF payload back to the Aggregator.
// Present is false when the source has nothing for TfID (e.g. it never
// received that TimeFrame), which the Aggregator treats as a partial TF.
type SendStfResponse struct {
	Present bool   `msgpack:"present"`
	Payload []byte `msgpack:"payload,omitempty"`
}
