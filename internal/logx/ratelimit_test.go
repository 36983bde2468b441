package logx

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newTestLimiter(buf *bytes.Buffer, window time.Duration) *Limiter {
	log := slog.New(slog.NewTextHandler(buf, nil))
	return NewLimiter(log, window)
}

func TestFirstCallAlwaysLogs(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLimiter(&buf, time.Minute)
	l.Warn(context.Background(), "backward-jump", "tf id went backward")
	if !strings.Contains(buf.String(), "tf id went backward") {
		t.Errorf("output = %q, want message logged", buf.String())
	}
}

func TestRepeatedCallsWithinWindowAreSuppressed(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLimiter(&buf, time.Hour)
	for i := 0; i < 5; i++ {
		l.Warn(context.Background(), "framing-error", "bad framing")
	}
	if n := strings.Count(buf.String(), "bad framing"); n != 1 {
		t.Errorf("log emitted %d times within window, want 1", n)
	}
}

func TestDifferentKeysLogIndependently(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLimiter(&buf, time.Hour)
	l.Warn(context.Background(), "key-a", "msg a")
	l.Warn(context.Background(), "key-b", "msg b")
	if !strings.Contains(buf.String(), "msg a") || !strings.Contains(buf.String(), "msg b") {
		t.Errorf("output = %q, want both messages logged", buf.String())
	}
}

func TestCallAfterWindowElapsesLogsAgainWithSuppressedCount(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLimiter(&buf, 10*time.Millisecond)
	l.Warn(context.Background(), "k", "first")
	l.Warn(context.Background(), "k", "first")
	time.Sleep(20 * time.Millisecond)
	l.Warn(context.Background(), "k", "first")

	if n := strings.Count(buf.String(), "msg=first"); n != 2 {
		t.Errorf("log emitted %d times across windows, want 2", n)
	}
	if !strings.Contains(buf.String(), "suppressedCount") {
		t.Errorf("output = %q, want suppressedCount on second window", buf.String())
	}
}
