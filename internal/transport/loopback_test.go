package transport

import (
	"context"
	"testing"
	"time"
)

func TestLoopbackReceiveDeliversInjected(t *testing.T) {
	l := NewLoopback(4)
	defer l.Stop()

	go l.Inject(Multipart{[]byte("header"), []byte("hbf")})

	msg, cat, err := l.Receive(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if cat != ErrCategoryNone {
		t.Errorf("category = %v, want ErrCategoryNone", cat)
	}
	if len(msg) != 2 {
		t.Fatalf("Receive() = %d parts, want 2", len(msg))
	}
}

func TestLoopbackReceiveTimesOut(t *testing.T) {
	l := NewLoopback(4)
	defer l.Stop()

	_, cat, err := l.Receive(context.Background(), 20*time.Millisecond)
	if err != nil {
		t.Fatalf("Receive() error = %v, want nil on timeout", err)
	}
	if cat != ErrCategoryTimeout {
		t.Errorf("category = %v, want ErrCategoryTimeout", cat)
	}
}

func TestLoopbackReceiveInterruptedByContext(t *testing.T) {
	l := NewLoopback(4)
	defer l.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, cat, err := l.Receive(ctx, time.Second)
	if cat != ErrCategoryInterrupted {
		t.Errorf("category = %v, want ErrCategoryInterrupted", cat)
	}
	if err == nil {
		t.Error("Receive() error = nil, want context.Canceled")
	}
}

func TestLoopbackStopClosesChannel(t *testing.T) {
	l := NewLoopback(4)
	l.Stop()
	l.Stop() // idempotent

	_, cat, err := l.Receive(context.Background(), time.Second)
	if cat != ErrCategoryFatal || err != ErrClosed {
		t.Errorf("Receive() after Stop = (%v, %v), want (ErrCategoryFatal, ErrClosed)", cat, err)
	}
}

func TestLoopbackSendDeliversToSent(t *testing.T) {
	l := NewLoopback(4)
	defer l.Stop()

	go func() {
		l.Send(context.Background(), Multipart{[]byte("x")})
	}()

	msg, ok := l.Sent(context.Background())
	if !ok {
		t.Fatal("Sent() = false, want true")
	}
	if len(msg) != 1 || string(msg[0]) != "x" {
		t.Errorf("Sent() = %v, want [x]", msg)
	}
}
