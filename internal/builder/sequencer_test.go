package builder

import (
	"context"
	"testing"
	"time"

	"github.com/ktf/DataDistribution/internal/queue"
	"github.com/ktf/DataDistribution/internal/stf"
)

func sealedStf(id uint64, origin stf.Origin) *stf.STF {
	s := stf.New(id, origin)
	s.Seal()
	return s
}

func TestScenario2GapFill(t *testing.T) {
	in := queue.New[*stf.STF](8)
	out := queue.New[*stf.STF](8)
	seq := NewSequencerStage(in, out, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go seq.Run(ctx)

	in.Push(sealedStf(5, stf.OriginReadout))
	in.Push(sealedStf(8, stf.OriginReadout))

	wantIDs := []uint64{5, 6, 7, 8}
	wantOrigins := []stf.Origin{stf.OriginReadout, stf.OriginNull, stf.OriginNull, stf.OriginReadout}
	for i, wantID := range wantIDs {
		got, ok := out.PopWait(time.Second)
		if !ok {
			t.Fatalf("PopWait() timed out at index %d", i)
		}
		if got.Header.ID != wantID {
			t.Errorf("delivered[%d].ID = %d, want %d", i, got.Header.ID, wantID)
		}
		if got.Header.Origin != wantOrigins[i] {
			t.Errorf("delivered[%d].Origin = %v, want %v", i, got.Header.Origin, wantOrigins[i])
		}
	}
}

func TestScenario3LargeGapBypass(t *testing.T) {
	in := queue.New[*stf.STF](8)
	out := queue.New[*stf.STF](8)
	seq := NewSequencerStage(in, out, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go seq.Run(ctx)

	in.Push(sealedStf(5, stf.OriginReadout))
	in.Push(sealedStf(500, stf.OriginReadout))

	first, ok := out.PopWait(time.Second)
	if !ok || first.Header.ID != 5 {
		t.Fatalf("first delivered = %+v, ok=%v, want id=5", first, ok)
	}
	second, ok := out.PopWait(time.Second)
	if !ok || second.Header.ID != 500 {
		t.Fatalf("second delivered = %+v, ok=%v, want id=500", second, ok)
	}

	if _, ok := out.PopWait(100 * time.Millisecond); ok {
		t.Error("a third STF was delivered, want only 5 and 500 (no gap-fill for a gap this large)")
	}
}

func TestSequencerRejectsDuplicateOrReordered(t *testing.T) {
	in := queue.New[*stf.STF](8)
	out := queue.New[*stf.STF](8)
	seq := NewSequencerStage(in, out, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go seq.Run(ctx)

	in.Push(sealedStf(5, stf.OriginReadout))
	if _, ok := out.PopWait(time.Second); !ok {
		t.Fatal("PopWait() timed out on first delivery")
	}

	in.Push(sealedStf(5, stf.OriginReadout))
	in.Push(sealedStf(3, stf.OriginReadout))

	if _, ok := out.PopWait(100 * time.Millisecond); ok {
		t.Error("duplicate/reordered STF was delivered, want rejected")
	}
}

func TestSequencerStrictlyIncreasingInvariant(t *testing.T) {
	in := queue.New[*stf.STF](8)
	out := queue.New[*stf.STF](8)
	seq := NewSequencerStage(in, out, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go seq.Run(ctx)

	ids := []uint64{1, 2, 3, 10, 11}
	for _, id := range ids {
		in.Push(sealedStf(id, stf.OriginReadout))
	}

	var lastID uint64
	delivered := 0
	for {
		got, ok := out.PopWait(200 * time.Millisecond)
		if !ok {
			break
		}
		if delivered > 0 && got.Header.ID <= lastID {
			t.Errorf("delivered id %d did not exceed previous %d", got.Header.ID, lastID)
		}
		lastID = got.Header.ID
		delivered++
	}

	if lastID != 11 {
		t.Errorf("last delivered id = %d, want 11", lastID)
	}
	if delivered == 0 {
		t.Fatal("no STFs were delivered")
	}
}
