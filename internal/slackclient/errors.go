package slackclient

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// RateLimitedError is returned when Slack answers 429 (or ok:false "ratelimited").
// RetryAfter is the server-requested pause.
type RateLimitedError struct {
	Method     string
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("slack %s: rate limited, retry after %s", e.Method, e.RetryAfter)
}

// SourceError is any non rate-limit failure: transport status, auth, or an ok:false envelope.
type SourceError struct {
	Method string
	Status int
	Code   string
}

func (e *SourceError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("slack %s: %s (status %d)", e.Method, e.Code, e.Status)
	}
	return fmt.Sprintf("slack %s: status %d", e.Method, e.Status)
}

// parseRetryAfter reads a Retry-After header (seconds or HTTP date). Defaults to 1s.
func parseRetryAfter(h string, now time.Time) time.Duration {
	if h == "" {
		return time.Second
	}
	if secs, err := strconv.Atoi(h); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
		return 0
	}
	return time.Second
}
