package builder

import (
	"context"
	"testing"
	"time"

	"github.com/ktf/DataDistribution/internal/config"
	"github.com/ktf/DataDistribution/internal/transport"
)

func TestBuilderEndToEndSingleTf(t *testing.T) {
	readout := transport.NewLoopback(8)
	output := transport.NewLoopback(8)
	cfg := &config.Builder{
		InputChannelName:  "readout",
		OutputChannelName: "stfSender",
		RdhVersion:        6,
		SubspecMode:       config.SubspecModeCRULinkID,
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	b := New(cfg, readout, output, nil, &fakeReader{}, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go b.Run(ctx)
	defer cancel()

	readout.Inject(readoutMultipart(1, false, []byte{1, 'a'}))
	readout.Inject(readoutMultipart(1, true, []byte{1, 'b'}))

	sent, ok := output.Sent(context.Background())
	if !ok {
		t.Fatal("Sent() returned ok=false")
	}
	if len(sent) == 0 {
		t.Fatal("sent multipart is empty")
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if b.Stats().SentOutStfsTotal == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("builder never reported one sent STF")
}

func TestBuilderShutdownIsOrderedAndIdempotent(t *testing.T) {
	readout := transport.NewLoopback(8)
	output := transport.NewLoopback(8)
	cfg := &config.Builder{
		InputChannelName:  "readout",
		OutputChannelName: "stfSender",
		RdhVersion:        6,
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	b := New(cfg, readout, output, nil, &fakeReader{}, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go b.Run(ctx)

	time.Sleep(20 * time.Millisecond)
	cancel()

	time.Sleep(100 * time.Millisecond)
	b.Shutdown()
}
