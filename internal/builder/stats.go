// Package builder implements the Builder process's four-stage pipeline
// (§4.1-4.4): Input -> Assembly -> Sequencer -> Output, wired together
// in builder.go. Each stage is modeled the way
// e7canasta-orion-care-sensor's framesupplier models a lifecycle
// component: an interface-free concrete type with a Run(ctx) loop
// started on its own goroutine and stopped via its input queue's Stop.
package builder

import (
	"sync"

	"github.com/ktf/DataDistribution/internal/pipeline"
)

// Stats tracks the Builder process counters named in §3 ("running,
// paused, counters (numStfs in flight, sentOutStfsTotal, rolling means
// of size and inter-STF time)").
type Stats struct {
	mu sync.Mutex

	numStfsInFlight  int64
	sentOutStfsTotal uint64
	backwardJumps    uint64
	forwardGaps      uint64
	droppedMultiparts uint64

	meanStfSize      *pipeline.EMA
	meanInterStfTime *pipeline.EMA
}

// NewStats creates a Stats with fresh rolling-mean accumulators.
func NewStats() *Stats {
	const emaWeight = 1.0 / 100.0
	return &Stats{
		meanStfSize:      pipeline.NewEMA(emaWeight),
		meanInterStfTime: pipeline.NewEMA(emaWeight),
	}
}

// IncInFlight records one STF entering the pipeline.
func (s *Stats) IncInFlight() {
	s.mu.Lock()
	s.numStfsInFlight++
	s.mu.Unlock()
}

// DecInFlight records one STF leaving the pipeline (sent or dropped).
func (s *Stats) DecInFlight() {
	s.mu.Lock()
	s.numStfsInFlight--
	s.mu.Unlock()
}

// RecordSent increments sentOutStfsTotal and returns its new value.
func (s *Stats) RecordSent() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sentOutStfsTotal++
	return s.sentOutStfsTotal
}

// RecordBackwardJump increments the backward-tfId-jump counter (§4.1).
func (s *Stats) RecordBackwardJump() {
	s.mu.Lock()
	s.backwardJumps++
	s.mu.Unlock()
}

// RecordForwardGap increments the forward-gap counter (§4.1).
func (s *Stats) RecordForwardGap() {
	s.mu.Lock()
	s.forwardGaps++
	s.mu.Unlock()
}

// RecordDroppedMultipart increments the dropped-multipart counter.
func (s *Stats) RecordDroppedMultipart() {
	s.mu.Lock()
	s.droppedMultiparts++
	s.mu.Unlock()
}

// UpdateStfSize folds size into the rolling mean STF size (§4.2 emission).
func (s *Stats) UpdateStfSize(size float64) {
	s.mu.Lock()
	s.meanStfSize.Update(size)
	s.mu.Unlock()
}

// UpdateInterStfTime folds an inter-arrival duration (seconds) into the
// rolling mean (§4.2 emission).
func (s *Stats) UpdateInterStfTime(seconds float64) {
	s.mu.Lock()
	s.meanInterStfTime.Update(seconds)
	s.mu.Unlock()
}

// Snapshot is a point-in-time copy of Stats for reporting.
type Snapshot struct {
	NumStfsInFlight   int64
	SentOutStfsTotal  uint64
	BackwardJumps     uint64
	ForwardGaps       uint64
	DroppedMultiparts uint64
	MeanStfSize       float64
	MeanInterStfTime  float64
}

// Snapshot returns a copy of the current counters.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		NumStfsInFlight:   s.numStfsInFlight,
		SentOutStfsTotal:  s.sentOutStfsTotal,
		BackwardJumps:     s.backwardJumps,
		ForwardGaps:       s.forwardGaps,
		DroppedMultiparts: s.droppedMultiparts,
		MeanStfSize:       s.meanStfSize.Value(),
		MeanInterStfTime:  s.meanInterStfTime.Value(),
	}
}
