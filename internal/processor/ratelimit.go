package processor

import (
	"fmt"
	"sync"
	"time"
)

// RateLimitError is returned when a user exceeds the translation request limit
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many translation requests, retry in %s", e.RetryAfter.Round(time.Second))
}

// rateLimiter allows a number of requests per key within a sliding window
type rateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu       sync.Mutex
	requests map[int64][]time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:    limit,
		window:   window,
		now:      time.Now,
		requests: make(map[int64][]time.Time),
	}
}

// allow records a request for key or returns a RateLimitError
func (rl *rateLimiter) allow(key int64) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	// Drop requests that left the window
	cutoff := now.Add(-rl.window)
	requests := rl.requests[key]
	i := 0
	for i < len(requests) && !requests[i].After(cutoff) {
		i++
	}
	requests = requests[i:]

	if len(requests) >= rl.limit {
		rl.requests[key] = requests
		return &RateLimitError{RetryAfter: requests[0].Add(rl.window).Sub(now)}
	}

	rl.requests[key] = append(requests, now)
	return nil
}
