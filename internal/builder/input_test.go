package builder

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ktf/DataDistribution/internal/queue"
	"github.com/ktf/DataDistribution/internal/rdh"
	"github.com/ktf/DataDistribution/internal/transport"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func readoutMultipart(tfID uint32, lastTfMessage bool, parts ...[]byte) transport.Multipart {
	header := rdh.Encode(rdh.ReadoutHeader{
		Version:     rdh.InterfaceVersion,
		TimeFrameID: tfID,
		Flags:       rdh.Flags{LastTfMessage: lastTfMessage},
	})
	mp := transport.Multipart{header}
	mp = append(mp, parts...)
	return mp
}

func TestInputStageForwardsWellFormedMultipart(t *testing.T) {
	ch := transport.NewLoopback(4)
	out := queue.New[transport.Multipart](4)
	defer out.Stop()

	stage := NewInputStage(ch, out, testLogger(), NewStats())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go stage.Run(ctx)

	ch.Inject(readoutMultipart(1, true, []byte("hbf")))

	got, ok := out.PopWait(time.Second)
	if !ok {
		t.Fatal("PopWait() timed out waiting for forwarded multipart")
	}
	if len(got) != 2 {
		t.Fatalf("forwarded multipart has %d parts, want 2", len(got))
	}
}

func TestInputStageDropsWrongHeaderSize(t *testing.T) {
	ch := transport.NewLoopback(4)
	out := queue.New[transport.Multipart](4)
	defer out.Stop()

	stats := NewStats()
	stage := NewInputStage(ch, out, testLogger(), stats)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go stage.Run(ctx)

	ch.Inject(transport.Multipart{[]byte("too-short")})

	if _, ok := out.PopWait(100 * time.Millisecond); ok {
		t.Fatal("PopWait() = ok, want malformed multipart dropped")
	}
	if got := stats.Snapshot().DroppedMultiparts; got != 1 {
		t.Errorf("DroppedMultiparts = %d, want 1", got)
	}
}

func TestInputStageDropsBackwardTfIdJump(t *testing.T) {
	ch := transport.NewLoopback(4)
	out := queue.New[transport.Multipart](4)
	defer out.Stop()

	stats := NewStats()
	stage := NewInputStage(ch, out, testLogger(), stats)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go stage.Run(ctx)

	ch.Inject(readoutMultipart(10, false, []byte("a")))
	if _, ok := out.PopWait(time.Second); !ok {
		t.Fatal("PopWait() timed out on tfId=10")
	}

	ch.Inject(readoutMultipart(9, false, []byte("b")))
	if _, ok := out.PopWait(100 * time.Millisecond); ok {
		t.Fatal("PopWait() = ok, want backward jump dropped")
	}
	if got := stats.Snapshot().BackwardJumps; got != 1 {
		t.Errorf("BackwardJumps = %d, want 1", got)
	}

	ch.Inject(readoutMultipart(11, false, []byte("c")))
	if _, ok := out.PopWait(time.Second); !ok {
		t.Fatal("PopWait() timed out on tfId=11 after dropped backward jump")
	}
}

func TestInputStageDropsVersionMismatch(t *testing.T) {
	ch := transport.NewLoopback(4)
	out := queue.New[transport.Multipart](4)
	defer out.Stop()

	stats := NewStats()
	stage := NewInputStage(ch, out, testLogger(), stats)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go stage.Run(ctx)

	badHeader := rdh.Encode(rdh.ReadoutHeader{Version: rdh.InterfaceVersion + 1, TimeFrameID: 1})
	ch.Inject(transport.Multipart{badHeader, []byte("x")})

	if _, ok := out.PopWait(100 * time.Millisecond); ok {
		t.Fatal("PopWait() = ok, want version mismatch dropped")
	}
}
