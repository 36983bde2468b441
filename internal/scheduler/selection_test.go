package scheduler

import "testing"

const gib = uint64(1) << 30

func TestSelectionScenario6FirstFitOverEstimate(t *testing.T) {
	s := NewSelection(10)

	small := &TfBuilderInfo{ProcessID: "agg-1gib", EstimatedFreeMemory: 1 * gib}
	medium := &TfBuilderInfo{ProcessID: "agg-2gib", EstimatedFreeMemory: 2 * gib}
	large := &TfBuilderInfo{ProcessID: "agg-5gib", EstimatedFreeMemory: 5 * gib}
	s.AddReady(small)
	s.AddReady(medium)
	s.AddReady(large)

	processID, reserved, ok := s.Assign(42, 3*gib)
	if !ok {
		t.Fatal("Assign() ok = false, want true")
	}
	if processID != "agg-5gib" {
		t.Fatalf("processID = %q, want agg-5gib (the first candidate whose free memory covers 3.3 GiB)", processID)
	}

	wantRequired := 3*gib + 3*gib/10 // 3 GiB + 10% overestimate = 3.3 GiB
	if reserved != wantRequired {
		t.Errorf("reserved = %d, want %d", reserved, wantRequired)
	}
	if large.EstimatedFreeMemory != 5*gib-wantRequired {
		t.Errorf("large.EstimatedFreeMemory = %d, want %d (1.7 GiB)", large.EstimatedFreeMemory, 5*gib-wantRequired)
	}
	if large.LastScheduledTf != 42 {
		t.Errorf("large.LastScheduledTf = %d, want 42", large.LastScheduledTf)
	}

	// Assigned candidates leave the ready pool; only the caller's
	// explicit re-add (via a later TfBuilderUpdate) puts them back.
	if s.ReadyLen() != 2 {
		t.Fatalf("ReadyLen() = %d, want 2 after agg-5gib was assigned away", s.ReadyLen())
	}
	for _, remaining := range []*TfBuilderInfo{small, medium} {
		if !s.containsForTest(remaining.ProcessID) {
			t.Errorf("ready pool lost %q, which was never assigned", remaining.ProcessID)
		}
	}
}

func TestSelectionAssignNoCapacityLeavesPoolUnchanged(t *testing.T) {
	s := NewSelection(10)
	s.AddReady(&TfBuilderInfo{ProcessID: "agg-1gib", EstimatedFreeMemory: 1 * gib})

	_, _, ok := s.Assign(1, 3*gib)
	if ok {
		t.Fatal("Assign() ok = true, want false: no candidate has 3.3 GiB free")
	}
	if s.ReadyLen() != 1 {
		t.Errorf("ReadyLen() = %d, want 1 (unchanged on a failed assignment)", s.ReadyLen())
	}
}

func TestSelectionAddReadyDedupesByProcessID(t *testing.T) {
	s := NewSelection(10)
	info := &TfBuilderInfo{ProcessID: "agg-1", EstimatedFreeMemory: 1 * gib}
	s.AddReady(info)
	s.AddReady(info)
	if s.ReadyLen() != 1 {
		t.Errorf("ReadyLen() = %d, want 1 after adding the same builder twice", s.ReadyLen())
	}
}

func TestSelectionRemoveReady(t *testing.T) {
	s := NewSelection(10)
	s.AddReady(&TfBuilderInfo{ProcessID: "agg-1", EstimatedFreeMemory: 1 * gib})
	s.AddReady(&TfBuilderInfo{ProcessID: "agg-2", EstimatedFreeMemory: 1 * gib})

	s.RemoveReady("agg-1")
	if s.ReadyLen() != 1 {
		t.Fatalf("ReadyLen() = %d, want 1", s.ReadyLen())
	}
	if s.containsForTest("agg-1") {
		t.Error("agg-1 still present after RemoveReady")
	}

	// Removing an unknown processId is a no-op.
	s.RemoveReady("agg-404")
	if s.ReadyLen() != 1 {
		t.Errorf("ReadyLen() = %d, want unchanged after removing an unknown id", s.ReadyLen())
	}
}

// containsForTest is a test-only helper walking the ready deque; it
// does not belong on the production Selection API.
func (s *Selection) containsForTest(processID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, info := range s.ready {
		if info.ProcessID == processID {
			return true
		}
	}
	return false
}
