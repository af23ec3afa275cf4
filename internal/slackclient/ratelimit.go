package slackclient

import (
	"golang.org/x/time/rate"
)

// Tier 3 methods (conversations.history) allow roughly 50 calls a minute;
// pacing at 1 rps with a small burst stays well inside that.
const (
	defaultRPS   = 1.0
	defaultBurst = 3
)

// newLimiter creates the client-side pacing limiter, falling back to defaults for non-positive input.
func newLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		rps = defaultRPS
	}
	if burst <= 0 {
		burst = defaultBurst
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
