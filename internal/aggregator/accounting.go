package aggregator

import (
	"sync"
	"time"
)

// Accounting tracks how much of an Aggregator's buffer is charged
// against in-flight TimeFrames (§3 "Aggregator accounting", §4.7, §5
// "tfIDSizesLock"). Charge/discharge are paired with the build
// lifecycle: TryCharge on BuildTfRequest acceptance, Discharge when a
// failed build releases its reservation or an accepted request cannot
// be queued. A successful build keeps its charge while the TF is held.
//
// Changes publish through a sync.Cond rather than a channel, mirroring
// internal/queue's condition-variable wait/broadcast shape and the
// timer-broadcast technique PopWait uses to support a timeout — here
// the update thread (update.go) waits on either an accounting change
// or a floor interval.
type Accounting struct {
	mu          sync.Mutex
	cond        *sync.Cond
	bufferSize  uint64
	currentSize uint64
	tfSizes     map[uint64]uint64
	dirty       bool
}

// NewAccounting creates an Accounting with the given total buffer
// capacity.
func NewAccounting(bufferSize uint64) *Accounting {
	a := &Accounting{
		bufferSize: bufferSize,
		tfSizes:    make(map[uint64]uint64),
	}
	a.cond = sync.NewCond(&a.mu)
	return a
}

// TryCharge charges sizeBytes against tfID if doing so would not
// exceed bufferSize, returning whether the charge was applied (§4.7
// "reject if accounting would exceed bufferSize").
func (a *Accounting) TryCharge(tfID, sizeBytes uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.currentSize+sizeBytes > a.bufferSize {
		return false
	}
	a.tfSizes[tfID] = sizeBytes
	a.currentSize += sizeBytes
	a.dirty = true
	a.cond.Broadcast()
	return true
}

// Discharge releases tfID's charge, if any (a failed build
// decrementing its reservation per §4.7's "build thread", or a
// request whose build queue was full).
func (a *Accounting) Discharge(tfID uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	sizeBytes, ok := a.tfSizes[tfID]
	if !ok {
		return
	}
	delete(a.tfSizes, tfID)
	a.currentSize -= sizeBytes
	a.dirty = true
	a.cond.Broadcast()
}

// FreeMemory returns bufferSize - currentTfBufferSize, floored at
// zero (§4.7's "update thread").
func (a *Accounting) FreeMemory() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.currentSize >= a.bufferSize {
		return 0
	}
	return a.bufferSize - a.currentSize
}

// CurrentSize returns currentTfBufferSize, the invariant §8 requires
// to always equal the sum of held TFs' sizes.
func (a *Accounting) CurrentSize() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentSize
}

// WaitForChangeOrTimeout blocks until a charge/discharge has occurred
// since the last call, or until timeout elapses, whichever comes
// first. Used by the update thread to implement "signal after any
// accounting change, 500ms floor otherwise" (§4.7).
func (a *Accounting) WaitForChangeOrTimeout(timeout time.Duration) {
	deadline := time.Now().Add(timeout)

	timer := time.AfterFunc(timeout, func() {
		a.mu.Lock()
		a.cond.Broadcast()
		a.mu.Unlock()
	})
	defer timer.Stop()

	a.mu.Lock()
	defer a.mu.Unlock()
	for !a.dirty && time.Now().Before(deadline) {
		a.cond.Wait()
	}
	a.dirty = false
}
