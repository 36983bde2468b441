package stf

import "testing"

func TestAddHBFsAccumulatesSize(t *testing.T) {
	s := New(10, OriginReadout)
	eq := EquipmentID{DataOrigin: "TPC", SubSpecification: 1}

	s.AddHBFs(eq, []HBF{{Equipment: eq, Data: []byte("abcd")}, {Equipment: eq, Data: []byte("xy")}})

	if s.Header.Size != 6 {
		t.Errorf("Size = %d, want 6", s.Header.Size)
	}
	if n := s.HBFCount(); n != 2 {
		t.Errorf("HBFCount() = %d, want 2", n)
	}
}

func TestEquipmentOrderIsFirstSeen(t *testing.T) {
	s := New(10, OriginReadout)
	a := EquipmentID{DataOrigin: "TPC", SubSpecification: 1}
	b := EquipmentID{DataOrigin: "TPC", SubSpecification: 2}

	s.AddHBFs(b, []HBF{{Data: []byte("1")}})
	s.AddHBFs(a, []HBF{{Data: []byte("1")}})
	s.AddHBFs(b, []HBF{{Data: []byte("1")}})

	got := s.Equipment()
	if len(got) != 2 || got[0] != b || got[1] != a {
		t.Errorf("Equipment() = %v, want [b, a] first-seen order", got)
	}
}

func TestSealPreventsFurtherWrites(t *testing.T) {
	s := New(10, OriginReadout)
	s.Seal()

	defer func() {
		if recover() == nil {
			t.Fatal("AddHBFs on sealed STF did not panic")
		}
	}()
	s.AddHBFs(EquipmentID{}, []HBF{{Data: []byte("x")}})
}

func TestNullOriginPlaceholderHasNoPayload(t *testing.T) {
	s := New(6, OriginNull)
	if s.HBFCount() != 0 {
		t.Errorf("HBFCount() = %d, want 0 for a gap-fill placeholder", s.HBFCount())
	}
	if s.Header.Origin != OriginNull {
		t.Errorf("Origin = %v, want OriginNull", s.Header.Origin)
	}
}
