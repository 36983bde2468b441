// Package wire implements the length-prefixed msgpack framing that
// backs the RPC transport between the Builder, Scheduler, and
// Aggregator processes (§9: "any request/response transport with
// streaming support satisfies this"). Framing is grounded on
// pithecene-io-quarry's quarry/ipc.FrameDecoder: a 4-byte big-endian
// length prefix followed by a msgpack-encoded payload, read off any
// io.Reader.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	// LengthPrefixSize is the size of the frame length prefix in bytes.
	LengthPrefixSize = 4
	// MaxFrameSize bounds a single frame, length prefix included. RPC
	// payloads here are small (registry/accounting messages); anything
	// past this is treated as a corrupt stream rather than a real message.
	MaxFrameSize = 64 * 1024 * 1024
	// MaxPayloadSize is the maximum payload a frame may carry.
	MaxPayloadSize = MaxFrameSize - LengthPrefixSize
)

// ErrorKind classifies a framing failure.
type ErrorKind int

const (
	// ErrKindPartial indicates a truncated frame; the connection is dead.
	ErrKindPartial ErrorKind = iota
	// ErrKindTooLarge indicates a frame exceeding MaxFrameSize.
	ErrKindTooLarge
	// ErrKindDecode indicates a msgpack decoding error.
	ErrKindDecode
)

// FrameError is returned by the Decoder and Encoder methods and by the
// envelope helpers.
type FrameError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *FrameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("wire: %s: %v", e.Msg, e.Err)
	}
	return "wire: " + e.Msg
}

func (e *FrameError) Unwrap() error { return e.Err }

// IsFatal reports whether the framing error means the connection must
// be torn down rather than retried at the message level.
func (e *FrameError) IsFatal() bool {
	return e.Kind == ErrKindPartial || e.Kind == ErrKindTooLarge
}

// IsFatalFrameError is a convenience wrapper around errors.As.
func IsFatalFrameError(err error) bool {
	var fe *FrameError
	return errors.As(err, &fe) && fe.IsFatal()
}

// Decoder reads length-prefixed msgpack frames from a stream.
type Decoder struct {
	r io.Reader
}

// NewDecoder wraps r in a frame Decoder.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// ReadFrame returns the next frame's raw msgpack payload. io.EOF is
// returned verbatim when the stream ends on a frame boundary.
func (d *Decoder) ReadFrame() ([]byte, error) {
	var lenBuf [LengthPrefixSize]byte
	if _, err := io.ReadFull(d.r, lenBuf[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, &FrameError{Kind: ErrKindPartial, Msg: "reading length prefix", Err: err}
	}

	size := binary.BigEndian.Uint32(lenBuf[:])
	if size > MaxPayloadSize {
		return nil, &FrameError{Kind: ErrKindTooLarge, Msg: fmt.Sprintf("payload size %d exceeds maximum %d", size, MaxPayloadSize)}
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(d.r, payload); err != nil {
		return nil, &FrameError{Kind: ErrKindPartial, Msg: "reading payload", Err: err}
	}
	return payload, nil
}

// Decode reads the next frame and unmarshals it into v.
func (d *Decoder) Decode(v any) error {
	payload, err := d.ReadFrame()
	if err != nil {
		return err
	}
	if err := msgpack.Unmarshal(payload, v); err != nil {
		return &FrameError{Kind: ErrKindDecode, Msg: "decoding payload", Err: err}
	}
	return nil
}

// Encoder writes length-prefixed msgpack frames to a stream.
type Encoder struct {
	w io.Writer
}

// NewEncoder wraps w in a frame Encoder.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode marshals v and writes it as a single frame.
func (e *Encoder) Encode(v any) error {
	payload, err := msgpack.Marshal(v)
	if err != nil {
		return &FrameError{Kind: ErrKindDecode, Msg: "encoding payload", Err: err}
	}
	if len(payload) > MaxPayloadSize {
		return &FrameError{Kind: ErrKindTooLarge, Msg: fmt.Sprintf("payload size %d exceeds maximum %d", len(payload), MaxPayloadSize)}
	}

	var lenBuf [LengthPrefixSize]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := e.w.Write(lenBuf[:]); err != nil {
		return &FrameError{Kind: ErrKindPartial, Msg: "writing length prefix", Err: err}
	}
	if _, err := e.w.Write(payload); err != nil {
		return &FrameError{Kind: ErrKindPartial, Msg: "writing payload", Err: err}
	}
	return nil
}
