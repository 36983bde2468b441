// Package rdh defines the readout message framing (§6) and the
// Raw Data Header decode boundary. RDH binary decoding itself is an
// external collaborator (§1); this package specifies only the interface
// an implementation must satisfy, plus the fixed readout header layout
// which this repository does own.
package rdh

import "encoding/binary"

// InterfaceVersion is the compiled readout-header version this builder
// understands. A mismatching incoming version causes the Input Stage to
// drop the multipart (§4.1).
const InterfaceVersion uint32 = 1

// headerWireSize is the exact byte size of the fixed readout header
// (version:4 + timeFrameId:4 + linkId:1 + flags:1, padded to 4-byte
// alignment to match the frozen C layout this was distilled from).
const headerWireSize = 12

// Flags holds the per-message bits carried in the readout header.
type Flags struct {
	LastTfMessage bool
	IsRdhFormat   bool
}

// ReadoutHeader is part 0 of a readout multipart message (§6): a fixed
// layout frozen across protocol versions.
type ReadoutHeader struct {
	Version     uint32
	TimeFrameID uint32
	LinkID      uint8
	Flags       Flags
}

// Size returns the wire size of a readout header, for the Input Stage's
// "first part MUST be exactly the size of the readout header" check.
func Size() int { return headerWireSize }

func flagsByte(f Flags) byte {
	var b byte
	if f.LastTfMessage {
		b |= 1 << 0
	}
	if f.IsRdhFormat {
		b |= 1 << 1
	}
	return b
}

func flagsFromByte(b byte) Flags {
	return Flags{
		LastTfMessage: b&(1<<0) != 0,
		IsRdhFormat:   b&(1<<1) != 0,
	}
}

// Encode serializes h into the fixed wire layout.
func Encode(h ReadoutHeader) []byte {
	buf := make([]byte, headerWireSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Version)
	binary.LittleEndian.PutUint32(buf[4:8], h.TimeFrameID)
	buf[8] = h.LinkID
	buf[9] = flagsByte(h.Flags)
	// buf[10:12] reserved/padding, left zero.
	return buf
}

// ParseHeader decodes the fixed readout header from buf. It returns an
// error if buf is not exactly headerWireSize bytes — the Input Stage
// treats that as a framing error and drops the whole multipart (§4.1,
// §7).
func ParseHeader(buf []byte) (ReadoutHeader, error) {
	if len(buf) != headerWireSize {
		return ReadoutHeader{}, ErrFramingSize
	}
	return ReadoutHeader{
		Version:     binary.LittleEndian.Uint32(buf[0:4]),
		TimeFrameID: binary.LittleEndian.Uint32(buf[4:8]),
		LinkID:      buf[8],
		Flags:       flagsFromByte(buf[9]),
	}, nil
}
