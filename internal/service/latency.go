package service

import (
	"context"
	"time"
)

// Latency is the simulated round-trip applied to each operation so callers
// treat every call as potentially suspending. Zero values disable a delay.
type Latency struct {
	Auth    time.Duration // sign-up, sign-in
	Session time.Duration // session restore
	Load    time.Duration // collection load
	Save    time.Duration // collection persist
}

// DefaultLatency returns the standard simulated delays.
func DefaultLatency() Latency {
	return Latency{
		Auth:    500 * time.Millisecond,
		Session: 200 * time.Millisecond,
		Load:    500 * time.Millisecond,
		Save:    200 * time.Millisecond,
	}
}

// wait suspends for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
