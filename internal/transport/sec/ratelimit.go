package sec

import (
	"context"
	"sync"
	"time"
)

// rateLimiter spaces requests at least minInterval apart. EDGAR enforces a
// hard cap of 10 requests per second per client.
type rateLimiter struct {
	mu          sync.Mutex
	minInterval time.Duration
	lastRequest time.Time
}

func newRateLimiter(requestsPerSecond int) *rateLimiter {
	return &rateLimiter{minInterval: time.Second / time.Duration(requestsPerSecond)}
}

// Wait blocks until the next request is allowed or the context is canceled.
func (l *rateLimiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	now := time.Now()
	wait := l.minInterval - now.Sub(l.lastRequest)
	if wait < 0 {
		wait = 0
	}
	l.lastRequest = now.Add(wait)
	l.mu.Unlock()

	if wait == 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err() //nolint:wrapcheck
	case <-timer.C:
		return nil
	}
}
