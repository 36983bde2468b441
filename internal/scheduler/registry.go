// Package scheduler implements the Scheduler process's builder-info
// registry and builder-selection engine (§4.5, §4.6): tracking the
// aggregation fleet via periodic updates and assigning TimeFrames to a
// ready candidate whose estimated free memory covers an over-estimated
// size. Grounded on e7canasta-orion-care-sensor's framesupplier for the
// lifecycle shape (Start/Stop'd background loop, a stats snapshot
// method) and modules/framebus for the "reads use a snapshot, writes
// use short-held locks" discipline around a shared registry map.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ktf/DataDistribution/internal/rpcapi"
)

// TfBuilderInfo is the Scheduler's live view of one aggregator (§3).
// Pointers to TfBuilderInfo are shared between the global registry map
// and the ready deque, per §3's "the ready deque holds the same shared
// references" — Go pointers make this safe without the source's
// iterator-invalidation concerns.
type TfBuilderInfo struct {
	ProcessID           string
	LastUpdateLocalTime time.Time
	LastUpdate          rpcapi.TfBuilderUpdateMessage
	LastScheduledTf      uint64
	EstimatedFreeMemory uint64

	// reservedSinceUpdate accumulates assignment reservations made
	// between the last processed update and the next one, subtracted
	// from the next reportedFreeMemory so a stale report can't make an
	// aggregator look more free than it actually is (§4.5 "Ingest").
	reservedSinceUpdate uint64
}

// Registry holds the builder-info map ("globalInfoLock" in §5) and runs
// the housekeeping eviction loop (§4.5).
type Registry struct {
	mu             sync.Mutex
	builders       map[string]*TfBuilderInfo
	discardTimeout time.Duration
	log            *slog.Logger
	onEvict        func(processID string)
}

// NewRegistry creates an empty Registry. onEvict is called, with the
// registry's lock still held, whenever housekeeping or an explicit
// removal evicts a builder — the Scheduler wires this to
// Selection.RemoveReady so both structures stay consistent (§5
// "Dual-lock operations always acquire globalInfoLock first").
func NewRegistry(discardTimeout time.Duration, log *slog.Logger, onEvict func(processID string)) *Registry {
	return &Registry{
		builders:       make(map[string]*TfBuilderInfo, 1000),
		discardTimeout: discardTimeout,
		log:            log,
		onEvict:        onEvict,
	}
}

// Ingest processes a TfBuilderUpdateMessage from the RPC layer (§4.5).
// It returns the updated (or newly created) TfBuilderInfo so the
// caller can decide whether to re-add it to the ready pool.
func (r *Registry) Ingest(update rpcapi.TfBuilderUpdateMessage) *TfBuilderInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, ok := r.builders[update.ProcessID]
	if !ok {
		info = &TfBuilderInfo{ProcessID: update.ProcessID}
		r.builders[update.ProcessID] = info
	}

	info.LastUpdateLocalTime = time.Now()
	info.LastUpdate = update

	var estimate uint64
	if update.FreeMemory > info.reservedSinceUpdate {
		estimate = update.FreeMemory - info.reservedSinceUpdate
	}
	info.EstimatedFreeMemory = estimate
	info.reservedSinceUpdate = 0

	return info
}

// Reserve records a pessimistic in-flight reservation against
// processId, called by the selection engine when it assigns a
// TimeFrame, so the next Ingest discounts memory the aggregator hasn't
// reported consuming yet.
func (r *Registry) Reserve(processID string, amount uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if info, ok := r.builders[processID]; ok {
		info.reservedSinceUpdate += amount
	}
}

// Lookup returns the TfBuilderInfo for processID, or nil if unknown.
func (r *Registry) Lookup(processID string) *TfBuilderInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.builders[processID]
}

// Remove evicts processID from the registry and invokes onEvict while
// still holding the registry lock, matching the fixed-order "global
// lock first" rule of §5.
func (r *Registry) Remove(processID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.builders[processID]; !ok {
		return
	}
	delete(r.builders, processID)
	if r.onEvict != nil {
		r.onEvict(processID)
	}
}

// Len returns the number of tracked builders.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.builders)
}

// RunHousekeeping runs the periodic eviction loop (§4.5: 1s period,
// 5s discard timeout by default) until ctx is cancelled.
func (r *Registry) RunHousekeeping(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.evictStale()
		}
	}
}

func (r *Registry) evictStale() {
	now := time.Now()

	r.mu.Lock()
	var stale []string
	for id, info := range r.builders {
		if now.Sub(info.LastUpdateLocalTime) > r.discardTimeout {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		delete(r.builders, id)
		if r.onEvict != nil {
			r.onEvict(id)
		}
		r.log.Debug("housekeeping evicted stale tf builder", "processId", id)
	}
	r.mu.Unlock()
}
