package scheduler

import "sync"

// Selection implements the ready-pool first-fit assignment engine
// (§4.6). Its lock ("readyInfoLock" in §5) is independent of
// Registry's; callers needing both acquire Registry's first.
type Selection struct {
	mu                  sync.Mutex
	ready               []*TfBuilderInfo // FIFO deque, front at index 0
	overestimatePercent int
}

// NewSelection creates a Selection applying overestimatePercent to
// every size comparison (§4.6, default 10).
func NewSelection(overestimatePercent int) *Selection {
	return &Selection{overestimatePercent: overestimatePercent}
}

// AddReady appends info to the back of the ready deque if it is not
// already present, per §4.6 "Aggregators re-enter the ready pool via
// an explicit addReadyTfBuilder call."
func (s *Selection) AddReady(info *TfBuilderInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.ready {
		if existing.ProcessID == info.ProcessID {
			return
		}
	}
	s.ready = append(s.ready, info)
}

// RemoveReady removes processID from the ready deque if present. It is
// also the eviction hook Registry calls under its own lock.
func (s *Selection) RemoveReady(processID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, info := range s.ready {
		if info.ProcessID == processID {
			s.ready = append(s.ready[:i], s.ready[i+1:]...)
			return
		}
	}
}

// requiredFreeMemory returns the over-estimated size a candidate must
// cover for a TimeFrame of sizeBytes (§4.6).
func (s *Selection) requiredFreeMemory(sizeBytes uint64) uint64 {
	return sizeBytes + sizeBytes*uint64(s.overestimatePercent)/100
}

// Assign picks the first ready candidate whose estimated free memory
// covers sizeBytes, removes it from the ready pool, decrements its
// estimate by the over-estimated size, and records tfID as its last
// scheduled TimeFrame. ok is false ("no capacity") if no candidate
// fits; the ready pool is left unchanged in that case (§4.6).
func (s *Selection) Assign(tfID, sizeBytes uint64) (processID string, reserved uint64, ok bool) {
	required := s.requiredFreeMemory(sizeBytes)

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, info := range s.ready {
		if info.EstimatedFreeMemory >= required {
			s.ready = append(s.ready[:i], s.ready[i+1:]...)
			info.EstimatedFreeMemory -= required
			info.LastScheduledTf = tfID
			return info.ProcessID, required, true
		}
	}
	return "", 0, false
}

// ReadyLen returns the number of candidates currently in the ready pool.
func (s *Selection) ReadyLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ready)
}
