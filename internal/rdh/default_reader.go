package rdh

import "encoding/binary"

// DefaultReader is a minimal Reader sufficient to run the cmd/ binaries
// stand-alone: it reads dataOrigin and subSpecification from a small
// fixed prefix rather than a real Raw Data Header. RDH binary decoding
// proper is an external, detector-specific collaborator (§1); this
// type exists only so the Builder has something concrete to decode
// with before a real decoder is wired in.
//
// Layout: byte 0 is a one-byte numeric data-origin tag, bytes 1-4 are
// the big-endian raw subSpecification, the remainder is payload.
type DefaultReader struct{}

// originTags maps DefaultReader's one-byte tag to a dataOrigin string.
// Unrecognised tags fall back to "UNK" rather than erroring, since an
// unknown origin is not itself a framing failure.
var originTags = map[byte]string{
	0: "TPC", 1: "ITS", 2: "TOF", 3: "TRD", 4: "EMC",
}

const defaultReaderPrefixSize = 5

// Decode implements Reader.
func (DefaultReader) Decode(payload []byte) (Decoded, error) {
	if len(payload) < defaultReaderPrefixSize {
		return Decoded{}, ErrDecode
	}
	origin, ok := originTags[payload[0]]
	if !ok {
		origin = "UNK"
	}
	return Decoded{
		DataOrigin:       origin,
		SubSpecification: binary.BigEndian.Uint32(payload[1:5]),
	}, nil
}
