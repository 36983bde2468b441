package builder

import (
	"github.com/vmihailenco/msgpack/v5"

	"github.com/ktf/DataDistribution/internal/stf"
	"github.com/ktf/DataDistribution/internal/transport"
)

// streamHeader describes one equipment stream's HBF count and byte
// layout within a serialised STF, msgpack-encoded into part 0
// alongside the STF's own header fields — the "interleaved-header
// framing" the direct-serialiser Output mode produces (§4.4).
type streamHeader struct {
	DataOrigin       string   `msgpack:"dataOrigin"`
	SubSpecification uint32   `msgpack:"subSpecification"`
	HbfSizes         []uint32 `msgpack:"hbfSizes"`
}

// stfWireHeader is part 0 of a serialised STF multipart.
type stfWireHeader struct {
	ID      uint64         `msgpack:"id"`
	Origin  int            `msgpack:"origin"`
	Size    uint64         `msgpack:"size"`
	Streams []streamHeader `msgpack:"streams"`
}

// SerializeStf encodes s into a transport.Multipart: part 0 is the
// msgpack-encoded stfWireHeader, and each subsequent part is one
// equipment stream's concatenated HBF payloads, in Equipment() order.
func SerializeStf(s *stf.STF) (transport.Multipart, error) {
	wh := stfWireHeader{ID: s.Header.ID, Origin: int(s.Header.Origin), Size: s.Header.Size}

	mp := make(transport.Multipart, 0, 1+len(s.Equipment()))
	for _, eq := range s.Equipment() {
		hbfs := s.HBFs(eq)
		sh := streamHeader{DataOrigin: eq.DataOrigin, SubSpecification: eq.SubSpecification}

		var total int
		for _, h := range hbfs {
			sh.HbfSizes = append(sh.HbfSizes, uint32(len(h.Data)))
			total += len(h.Data)
		}
		wh.Streams = append(wh.Streams, sh)

		part := make([]byte, 0, total)
		for _, h := range hbfs {
			part = append(part, h.Data...)
		}
		mp = append(mp, part)
	}

	headerBytes, err := msgpack.Marshal(wh)
	if err != nil {
		return nil, err
	}
	return append(transport.Multipart{headerBytes}, mp...), nil
}
