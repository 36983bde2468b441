package transport

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// BackoffConfig configures exponential-backoff reconnection, adapted
// from stream-capture/internal/rtsp's ReconnectConfig: same schedule,
// generalized from a GStreamer pipeline connect to any DialFunc (an RPC
// client dialing the Scheduler, an Aggregator dialing a Builder's
// StfSender endpoint).
type BackoffConfig struct {
	MaxRetries    int
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
}

// DefaultBackoffConfig returns the conventional 1s/2s/4s/8s/16s(cap 30s)
// schedule.
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		MaxRetries:    5,
		RetryDelay:    1 * time.Second,
		MaxRetryDelay: 30 * time.Second,
	}
}

// DialFunc attempts to establish a connection, returning an error on
// failure.
type DialFunc func(ctx context.Context) error

// RetryState tracks attempts across calls to DialWithBackoff so a caller
// can report cumulative reconnection counts (e.g. in a Channel's Stats).
type RetryState struct {
	CurrentRetries int
	Reconnects     atomic.Uint32
}

// DialWithBackoff calls dial, retrying with exponential backoff on
// failure up to cfg.MaxRetries. It returns nil as soon as dial succeeds,
// or an error once retries are exhausted or ctx is cancelled.
func DialWithBackoff(ctx context.Context, log *slog.Logger, dial DialFunc, cfg BackoffConfig, state *RetryState) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := dial(ctx); err == nil {
			state.CurrentRetries = 0
			return nil
		} else {
			log.Warn("transport: dial failed", "error", err)

			state.CurrentRetries++
			state.Reconnects.Add(1)

			if state.CurrentRetries > cfg.MaxRetries {
				return fmt.Errorf("transport: max retries exceeded (%d attempts): %w", cfg.MaxRetries, err)
			}
		}

		delay := backoffDelay(state.CurrentRetries, cfg)
		log.Warn("transport: retrying dial", "attempt", state.CurrentRetries, "max_retries", cfg.MaxRetries, "delay", delay)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func backoffDelay(attempt int, cfg BackoffConfig) time.Duration {
	delay := cfg.RetryDelay * time.Duration(uint64(1)<<uint(attempt-1))
	if delay > cfg.MaxRetryDelay {
		delay = cfg.MaxRetryDelay
	}
	return delay
}

// ClassifyTransportError maps a low-level dial/io error into the Input
// Stage's three-way transport classification (§4.1, §7), in the shape of
// stream-capture's ClassifyGStreamerError. It compares error values, not
// message text: context.DeadlineExceeded is a timeout, context.Canceled
// an interruption, and any other error fatal.
func ClassifyTransportError(err error) ErrorCategory {
	if err == nil {
		return ErrCategoryNone
	}
	if err == context.DeadlineExceeded {
		return ErrCategoryTimeout
	}
	if err == context.Canceled {
		return ErrCategoryInterrupted
	}
	return ErrCategoryFatal
}
