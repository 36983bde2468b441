// Package transport defines the external multipart-message transport
// boundary named in §6 (the `readout`, `stfSender`, and `dpl` channels).
// The transport itself — a shared-memory message-queue library in the
// system this was distilled from — is an external collaborator (§1);
// this package specifies the interface every channel implementation
// must satisfy, plus an in-process loopback implementation sufficient
// for tests and single-host operation.
package transport

import (
	"context"
	"errors"
	"time"
)

// Multipart is one framed message: part 0 is the fixed readout header,
// parts 1..N are HBF payloads (§6). The Channel boundary deals in raw
// parts; decoding is the Input/Assembly Stage's job.
type Multipart [][]byte

// ErrorCategory classifies a transport failure the way the Input Stage
// must distinguish it (§4.1, §7): timeout (continue), interrupted (sleep
// 10ms, continue), or a hard error (sleep 10ms, rate-limited log,
// continue). This mirrors stream-capture's ClassifyGStreamerError
// string-based classification, adapted from GStreamer error domains to
// the three transport outcomes this spec names.
type ErrorCategory int

const (
	// ErrCategoryNone indicates a successful Receive/Send.
	ErrCategoryNone ErrorCategory = iota
	// ErrCategoryTimeout indicates Receive returned with no message ready.
	ErrCategoryTimeout
	// ErrCategoryInterrupted indicates the call was interrupted by a
	// signal/cancellation unrelated to channel Stop().
	ErrCategoryInterrupted
	// ErrCategoryFatal indicates a genuine transport error.
	ErrCategoryFatal
)

func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryTimeout:
		return "timeout"
	case ErrCategoryInterrupted:
		return "interrupted"
	case ErrCategoryFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// ErrClosed is returned by Receive/Send once Stop has been called.
var ErrClosed = errors.New("transport: channel closed")

// Channel is the transport boundary a Builder/Aggregator/Scheduler
// process binds to for one named channel (§6 channel-name options).
// Modeled on modules/stream-capture's StreamProvider interface shape
// (Start/Stop/Stats lifecycle), with the video-specific SetTargetFPS and
// Warmup methods dropped as inapplicable to a message transport.
type Channel interface {
	// Receive blocks until a multipart is available, ctx is cancelled, or
	// timeout elapses, classifying the outcome per ErrorCategory.
	Receive(ctx context.Context, timeout time.Duration) (Multipart, ErrorCategory, error)

	// Send transmits a multipart. Classification mirrors Receive.
	Send(ctx context.Context, msg Multipart) (ErrorCategory, error)

	// Stats returns current channel statistics.
	Stats() Stats

	// Stop closes the channel. Idempotent; subsequent Receive/Send return
	// ErrClosed.
	Stop() error
}

// Stats mirrors the subset of stream-capture's StreamStats meaningful to
// a message channel rather than a video stream.
type Stats struct {
	MessagesReceived uint64
	MessagesSent     uint64
	BytesReceived    uint64
	BytesSent        uint64
	Reconnects       uint32
	IsConnected      bool
}
