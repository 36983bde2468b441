package builder

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ktf/DataDistribution/internal/logx"
	"github.com/ktf/DataDistribution/internal/queue"
	"github.com/ktf/DataDistribution/internal/rdh"
	"github.com/ktf/DataDistribution/internal/transport"
)

// interruptedBackoff is the fixed sleep on an interrupted or
// recoverable transport error (§4.1).
const interruptedBackoff = 10 * time.Millisecond

// InputStage receives framed readout multiparts from one transport
// channel, validates framing and time-frame monotonicity, and forwards
// raw multiparts to the Assembly Stage (§4.1).
type InputStage struct {
	channel transport.Channel
	out     *queue.Queue[transport.Multipart]
	log     *slog.Logger
	limiter *logx.Limiter
	stats   *Stats

	running      atomic.Bool
	lastSeenTfID uint32
	haveSeenAny  bool
}

// NewInputStage creates an InputStage reading ch and forwarding raw
// multiparts to out.
func NewInputStage(ch transport.Channel, out *queue.Queue[transport.Multipart], log *slog.Logger, stats *Stats) *InputStage {
	s := &InputStage{
		channel: ch,
		out:     out,
		log:     log,
		limiter: logx.NewLimiter(log, time.Second),
		stats:   stats,
	}
	s.running.Store(true)
	return s
}

// SetRunning toggles the operational state; while false, received data
// is discarded with a rate-limited warning (§4.1).
func (s *InputStage) SetRunning(running bool) {
	s.running.Store(running)
}

// Run executes the receive loop until ctx is cancelled or the channel
// is stopped. It is intended to run on its own goroutine.
func (s *InputStage) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		mp, cat, err := s.channel.Receive(ctx, pollTimeout)
		if errors.Is(err, transport.ErrClosed) {
			return
		}

		switch cat {
		case transport.ErrCategoryTimeout:
			continue
		case transport.ErrCategoryInterrupted:
			time.Sleep(interruptedBackoff)
			continue
		case transport.ErrCategoryFatal:
			time.Sleep(interruptedBackoff)
			s.limiter.Error(ctx, "transport-error", "input stage transport error", "error", err)
			continue
		}

		if err != nil {
			continue
		}

		if !s.running.Load() {
			s.limiter.Warn(ctx, "not-operational", "discarding input while not operational")
			continue
		}

		s.handleMultipart(ctx, mp)
	}
}

func (s *InputStage) handleMultipart(ctx context.Context, mp transport.Multipart) {
	if len(mp) == 0 || len(mp[0]) != rdh.Size() {
		s.limiter.Error(ctx, "framing-size", "dropping multipart with wrong header size")
		s.stats.RecordDroppedMultipart()
		return
	}

	header, err := rdh.ParseHeader(mp[0])
	if err != nil {
		s.limiter.Error(ctx, "framing-parse", "dropping multipart: header parse failed", "error", err)
		s.stats.RecordDroppedMultipart()
		return
	}

	if header.Version != rdh.InterfaceVersion {
		s.limiter.Error(ctx, "version-mismatch", "dropping multipart: readout header version mismatch",
			"gotVersion", header.Version, "wantVersion", rdh.InterfaceVersion)
		s.stats.RecordDroppedMultipart()
		return
	}

	if s.haveSeenAny {
		switch {
		case header.TimeFrameID < s.lastSeenTfID:
			s.stats.RecordBackwardJump()
			s.limiter.Error(ctx, "backward-jump", "dropping multipart: time-frame id went backward",
				"newId", header.TimeFrameID, "lastSeenId", s.lastSeenTfID)
			return
		case header.TimeFrameID > s.lastSeenTfID+1:
			s.stats.RecordForwardGap()
			s.log.Warn("forward gap in time-frame ids", "newId", header.TimeFrameID, "lastSeenId", s.lastSeenTfID)
		}
	}
	s.lastSeenTfID = header.TimeFrameID
	s.haveSeenAny = true

	s.out.Push(mp)
}
