package builder

import (
	"context"
	"log/slog"

	"github.com/ktf/DataDistribution/internal/queue"
	"github.com/ktf/DataDistribution/internal/stf"
)

// SequencerStage delivers STFs downstream in strictly increasing id
// order, synthesising Null-origin placeholders to fill small gaps
// (§4.3).
type SequencerStage struct {
	in  *queue.Queue[*stf.STF]
	out *queue.Queue[*stf.STF]
	log *slog.Logger

	lastDeliveredID uint64
	haveDelivered   bool
}

// NewSequencerStage creates a SequencerStage reading in and writing
// strictly-ordered STFs to out.
func NewSequencerStage(in, out *queue.Queue[*stf.STF], log *slog.Logger) *SequencerStage {
	return &SequencerStage{in: in, out: out, log: log}
}

// Run executes the sequencing loop until the input queue is closed and
// drained.
func (q *SequencerStage) Run(ctx context.Context) {
	for {
		s, ok := q.in.Pop()
		if !ok {
			q.out.Stop()
			return
		}
		q.process(s)
	}
}

func (q *SequencerStage) process(s *stf.STF) {
	k := s.Header.ID

	if q.haveDelivered && k <= q.lastDeliveredID {
		q.log.Error("sequencer: rejecting duplicate or reordered STF", "id", k, "lastDeliveredId", q.lastDeliveredID)
		return
	}

	if !q.haveDelivered || k == q.lastDeliveredID+1 {
		q.deliver(s)
		return
	}

	gap := k - q.lastDeliveredID - 1
	if gap < maxGapFill {
		for fillID := q.lastDeliveredID + 1; fillID < k; fillID++ {
			filler := stf.New(fillID, stf.OriginNull)
			filler.Seal()
			q.deliver(filler)
		}
		q.deliver(s)
		return
	}

	q.log.Warn("sequencer: gap exceeds maxGapFill, skipping gap-fill", "gap", gap, "id", k, "lastDeliveredId", q.lastDeliveredID)
	q.deliver(s)
}

func (q *SequencerStage) deliver(s *stf.STF) {
	q.lastDeliveredID = s.Header.ID
	q.haveDelivered = true
	q.out.Push(s)
}
