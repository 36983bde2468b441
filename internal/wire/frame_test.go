package wire

import (
	"bytes"
	"io"
	"testing"
)

type samplePayload struct {
	ID   uint64 `msgpack:"id"`
	Name string `msgpack:"name"`
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	want := samplePayload{ID: 42, Name: "tf-builder-1"}
	if err := enc.Encode(want); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	dec := NewDecoder(&buf)
	var got samplePayload
	if err := dec.Decode(&got); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got != want {
		t.Errorf("Decode() = %+v, want %+v", got, want)
	}
}

func TestReadFrameEOFOnEmptyStream(t *testing.T) {
	dec := NewDecoder(bytes.NewReader(nil))
	if _, err := dec.ReadFrame(); err != io.EOF {
		t.Errorf("ReadFrame() error = %v, want io.EOF", err)
	}
}

func TestReadFrameTruncatedPayloadIsFatal(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	if err := enc.Encode(samplePayload{ID: 1, Name: "x"}); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	truncated := buf.Bytes()[:buf.Len()-1]
	dec := NewDecoder(bytes.NewReader(truncated))
	_, err := dec.ReadFrame()
	if err == nil {
		t.Fatal("ReadFrame() = nil error, want fatal framing error")
	}
	if !IsFatalFrameError(err) {
		t.Errorf("IsFatalFrameError(%v) = false, want true", err)
	}
}

func TestReadFrameRejectsOversizedLength(t *testing.T) {
	var lenBuf [LengthPrefixSize]byte
	for i := range lenBuf {
		lenBuf[i] = 0xff
	}
	dec := NewDecoder(bytes.NewReader(lenBuf[:]))
	_, err := dec.ReadFrame()
	if err == nil {
		t.Fatal("ReadFrame() = nil error, want too-large framing error")
	}
	if !IsFatalFrameError(err) {
		t.Errorf("IsFatalFrameError(%v) = false, want true", err)
	}
}

func TestMultipleFramesOnOneStream(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	want := []samplePayload{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}, {ID: 3, Name: "c"}}
	for _, w := range want {
		if err := enc.Encode(w); err != nil {
			t.Fatalf("Encode() error = %v", err)
		}
	}

	dec := NewDecoder(&buf)
	for i, w := range want {
		var got samplePayload
		if err := dec.Decode(&got); err != nil {
			t.Fatalf("Decode() frame %d error = %v", i, err)
		}
		if got != w {
			t.Errorf("frame %d = %+v, want %+v", i, got, w)
		}
	}
	if _, err := dec.ReadFrame(); err != io.EOF {
		t.Errorf("trailing ReadFrame() error = %v, want io.EOF", err)
	}
}
