package aggregator

import (
	"github.com/ktf/DataDistribution/internal/queue"
	"github.com/ktf/DataDistribution/internal/rpcapi"
)

// buildQueueDepth bounds the number of accepted-but-not-yet-built
// BuildTfRequests held between the RPC handler and the build thread.
// Requests beyond bufferSize's accounting limit are already rejected
// at admission, so this only needs to cover normal pipelining depth.
const buildQueueDepth = 32

// newBuildQueue creates the internal build-queue handed requests move
// through between BuildTfRequest acceptance and the build thread
// (§4.7), reusing the same bounded blocking FIFO the Builder's pipeline
// stages use.
func newBuildQueue() *queue.Queue[rpcapi.TfBuildingInformation] {
	return queue.New[rpcapi.TfBuildingInformation](buildQueueDepth)
}
