package wire

import "github.com/vmihailenco/msgpack/v5"

// Envelope wraps an RPC message with a type discriminant, letting a
// single connection multiplex several message kinds the way
// quarry/ipc.DecodeFrame discriminates "artifact_chunk" vs "run_result"
// frames by peeking at a probe's Type field before a full decode.
type Envelope struct {
	Type string `msgpack:"type"`
	Body []byte `msgpack:"body"`
}

type typeProbe struct {
	Type string `msgpack:"type"`
}

// WrapEnvelope msgpack-encodes body and wraps it with typ.
func WrapEnvelope(typ string, body any) (Envelope, error) {
	raw, err := msgpack.Marshal(body)
	if err != nil {
		return Envelope{}, &FrameError{Kind: ErrKindDecode, Msg: "encoding envelope body", Err: err}
	}
	return Envelope{Type: typ, Body: raw}, nil
}

// PeekType returns the Type field of a raw envelope payload without
// decoding its Body.
func PeekType(payload []byte) (string, error) {
	var probe typeProbe
	if err := msgpack.Unmarshal(payload, &probe); err != nil {
		return "", &FrameError{Kind: ErrKindDecode, Msg: "peeking envelope type", Err: err}
	}
	return probe.Type, nil
}

// UnwrapEnvelope decodes env.Body into v.
func UnwrapEnvelope(env Envelope, v any) error {
	if err := msgpack.Unmarshal(env.Body, v); err != nil {
		return &FrameError{Kind: ErrKindDecode, Msg: "decoding envelope body", Err: err}
	}
	return nil
}
