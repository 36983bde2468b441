package transport

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Loopback is an in-process Channel backed by a pair of buffered Go
// channels, standing in for the external shared-memory transport library
// during tests and single-host operation. It implements the full
// Channel contract, including timeout/interrupted/closed classification,
// so component logic can be exercised without a real network or
// shared-memory fabric.
type Loopback struct {
	in     chan Multipart
	out    chan Multipart
	stopCh chan struct{}
	once   sync.Once

	received atomic.Uint64
	sent     atomic.Uint64
	bytesIn  atomic.Uint64
	bytesOut atomic.Uint64
}

// NewLoopback creates a Loopback channel with the given inbound buffer
// depth. capacity <= 0 means unbuffered (every Send blocks for a
// matching Receive).
func NewLoopback(capacity int) *Loopback {
	if capacity < 0 {
		capacity = 0
	}
	return &Loopback{
		in:     make(chan Multipart, capacity),
		out:    make(chan Multipart, capacity),
		stopCh: make(chan struct{}),
	}
}

// Inject pushes a multipart directly into the inbound side, as if it had
// arrived over the wire — used by tests to drive the Input Stage.
func (l *Loopback) Inject(msg Multipart) {
	select {
	case l.in <- msg:
	case <-l.stopCh:
	}
}

// Sent returns the next message handed to Send, for tests asserting on
// outbound traffic (e.g. the Output Stage's end-of-stream record).
func (l *Loopback) Sent(ctx context.Context) (Multipart, bool) {
	select {
	case msg := <-l.out:
		return msg, true
	case <-ctx.Done():
		return nil, false
	case <-l.stopCh:
		return nil, false
	}
}

func sizeOf(msg Multipart) uint64 {
	var n uint64
	for _, part := range msg {
		n += uint64(len(part))
	}
	return n
}

// Receive implements Channel.
func (l *Loopback) Receive(ctx context.Context, timeout time.Duration) (Multipart, ErrorCategory, error) {
	var timer *time.Timer
	var after <-chan time.Time
	if timeout > 0 {
		timer = time.NewTimer(timeout)
		defer timer.Stop()
		after = timer.C
	}

	select {
	case msg, ok := <-l.in:
		if !ok {
			return nil, ErrCategoryFatal, ErrClosed
		}
		l.received.Add(1)
		l.bytesIn.Add(sizeOf(msg))
		return msg, ErrCategoryNone, nil
	case <-l.stopCh:
		return nil, ErrCategoryFatal, ErrClosed
	case <-ctx.Done():
		return nil, ErrCategoryInterrupted, ctx.Err()
	case <-after:
		return nil, ErrCategoryTimeout, nil
	}
}

// Send implements Channel.
func (l *Loopback) Send(ctx context.Context, msg Multipart) (ErrorCategory, error) {
	select {
	case l.out <- msg:
		l.sent.Add(1)
		l.bytesOut.Add(sizeOf(msg))
		return ErrCategoryNone, nil
	case <-l.stopCh:
		return ErrCategoryFatal, ErrClosed
	case <-ctx.Done():
		return ErrCategoryInterrupted, ctx.Err()
	}
}

// Stats implements Channel.
func (l *Loopback) Stats() Stats {
	return Stats{
		MessagesReceived: l.received.Load(),
		MessagesSent:     l.sent.Load(),
		BytesReceived:    l.bytesIn.Load(),
		BytesSent:        l.bytesOut.Load(),
		IsConnected:      true,
	}
}

// Stop implements Channel.
func (l *Loopback) Stop() error {
	l.once.Do(func() { close(l.stopCh) })
	return nil
}
