package rdh

import "testing"

func TestEncodeParseRoundTrip(t *testing.T) {
	h := ReadoutHeader{
		Version:     InterfaceVersion,
		TimeFrameID: 42,
		LinkID:      7,
		Flags:       Flags{LastTfMessage: true, IsRdhFormat: true},
	}

	buf := Encode(h)
	if len(buf) != Size() {
		t.Fatalf("Encode() produced %d bytes, want %d", len(buf), Size())
	}

	got, err := ParseHeader(buf)
	if err != nil {
		t.Fatalf("ParseHeader() error = %v", err)
	}
	if got != h {
		t.Errorf("ParseHeader(Encode(h)) = %+v, want %+v", got, h)
	}

	// Round trip: re-encode the parsed header must be byte-identical.
	buf2 := Encode(got)
	if string(buf) != string(buf2) {
		t.Error("re-encoding a parsed header did not reproduce identical bytes")
	}
}

func TestParseHeaderWrongSize(t *testing.T) {
	_, err := ParseHeader([]byte{1, 2, 3})
	if err != ErrFramingSize {
		t.Errorf("ParseHeader() error = %v, want ErrFramingSize", err)
	}
}

func TestMaskSubSpec(t *testing.T) {
	const feeMask = 0x00FF

	if got := MaskSubSpec(SubspecCRULinkID, 0xABCD, feeMask); got != 0xABCD {
		t.Errorf("cru-linkid mode altered raw value: got %#x", got)
	}
	if got := MaskSubSpec(SubspecFEEID, 0xABCD, feeMask); got != 0x00CD {
		t.Errorf("feeid mode = %#x, want %#x", got, 0x00CD)
	}
}
