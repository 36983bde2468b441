// Package pipeline implements the cross-stage structure shared inside
// a Builder process (§3 "Pipeline"): a global cap on in-flight STFs,
// taken when the Assembly stage emits an STF and released when the
// Output stage dequeues it. Each stage otherwise owns its own
// internal/queue.Queue and shares no other
// state, per §5 "Builder pipeline stages do not share state; each owns
// its queue."
package pipeline

import "sync"

// Cap enforces maxStfsInPipeline (§3): a blocking counting semaphore
// bounding how many STFs may hold a slot at once.
// A Cap with limit <= 0 is disabled and never blocks, matching the
// config.Builder.EffectiveMaxBufferedStfs "<=0 disables" rule.
type Cap struct {
	mu      sync.Mutex
	cond    *sync.Cond
	limit   int
	inFlight int
	stopped bool
}

// NewCap creates a Cap with the given limit. limit <= 0 disables enforcement.
func NewCap(limit int) *Cap {
	c := &Cap{limit: limit}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Acquire blocks while the cap is full and enabled, then reserves one
// slot. It returns false if the pipeline was stopped before a slot
// became available.
func (c *Cap) Acquire() bool {
	if c.limit <= 0 {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.inFlight >= c.limit && !c.stopped {
		c.cond.Wait()
	}
	if c.stopped {
		return false
	}
	c.inFlight++
	return true
}

// Release frees one slot, waking any blocked Acquire.
func (c *Cap) Release() {
	if c.limit <= 0 {
		return
	}
	c.mu.Lock()
	c.inFlight--
	c.mu.Unlock()
	c.cond.Broadcast()
}

// InFlight returns the current number of reserved slots.
func (c *Cap) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Stop wakes all blocked Acquire calls, which then return false. Safe
// to call multiple times.
func (c *Cap) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
	c.cond.Broadcast()
}
