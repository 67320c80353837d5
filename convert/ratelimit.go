package convert

import (
	"context"
	"sync"
	"time"
)

// rateLimiter paces remote requests with a token bucket. A whole-book
// run issues one completion request per text run, which overruns API
// quotas without pacing.
type rateLimiter struct {
	mu     sync.Mutex
	tokens float64
	burst  float64
	rate   float64 // tokens per second
	last   time.Time
}

// newRateLimiter creates a limiter allowing requestsPerMinute sustained
// requests with bursts up to burst. Non-positive burst defaults to the
// per-minute rate.
func newRateLimiter(requestsPerMinute, burst int) *rateLimiter {
	rpm := float64(requestsPerMinute)
	if rpm <= 0 {
		rpm = 60
	}
	b := float64(burst)
	if b <= 0 {
		b = rpm
	}
	return &rateLimiter{
		tokens: b,
		burst:  b,
		rate:   rpm / 60,
		last:   time.Now(),
	}
}

// wait blocks until a token is available or ctx is done.
func (l *rateLimiter) wait(ctx context.Context) error {
	for {
		if l.tryAcquire() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.interval()):
		}
	}
}

// tryAcquire takes a token if one is available.
func (l *rateLimiter) tryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill(time.Now())
	if l.tokens < 1 {
		return false
	}
	l.tokens--
	return true
}

// interval is the time one token takes to accrue.
func (l *rateLimiter) interval() time.Duration {
	return time.Duration(float64(time.Second) / l.rate)
}

// refill credits tokens for the time elapsed since the last call.
// Callers must hold the lock.
func (l *rateLimiter) refill(now time.Time) {
	l.tokens += now.Sub(l.last).Seconds() * l.rate
	l.last = now
	if l.tokens > l.burst {
		l.tokens = l.burst
	}
}
