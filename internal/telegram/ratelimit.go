package telegram

import (
	"sync"
	"time"
)

// cleanupInterval triggers a sweep of stale users every N Allowed calls.
const cleanupInterval = 100

// RateLimiter is a sliding-window per-user limiter for command handling.
// A user may issue at most maxCalls commands within window.
type RateLimiter struct {
	mu       sync.Mutex
	maxCalls int
	window   time.Duration
	calls    map[int64][]time.Time
	ticks    int
}

func NewRateLimiter(maxCalls int, window time.Duration) *RateLimiter {
	if maxCalls <= 0 {
		maxCalls = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		maxCalls: maxCalls,
		window:   window,
		calls:    make(map[int64][]time.Time),
	}
}

// Allowed records an attempt and reports whether it is within the limit.
func (r *RateLimiter) Allowed(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	r.ticks++
	if r.ticks%cleanupInterval == 0 {
		r.cleanupLocked(now)
	}

	recent := r.pruneLocked(userID, now)
	if len(recent) >= r.maxCalls {
		r.calls[userID] = recent
		return false
	}
	r.calls[userID] = append(recent, now)
	return true
}

// Remaining reports how many calls the user has left in the current window.
func (r *RateLimiter) Remaining(userID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.maxCalls - len(r.pruneLocked(userID, time.Now()))
	if n < 0 {
		n = 0
	}
	return n
}

// Reset clears the user's recorded calls.
func (r *RateLimiter) Reset(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.calls, userID)
}

// ActiveUsers counts users with at least one call inside the window.
func (r *RateLimiter) ActiveUsers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	n := 0
	for id := range r.calls {
		if len(r.pruneLocked(id, now)) > 0 {
			n++
		}
	}
	return n
}

func (r *RateLimiter) pruneLocked(userID int64, now time.Time) []time.Time {
	cutoff := now.Add(-r.window)
	all := r.calls[userID]
	recent := all[:0]
	for _, t := range all {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	return recent
}

func (r *RateLimiter) cleanupLocked(now time.Time) {
	for id := range r.calls {
		if recent := r.pruneLocked(id, now); len(recent) == 0 {
			delete(r.calls, id)
		} else {
			r.calls[id] = recent
		}
	}
}
