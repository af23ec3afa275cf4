package ingest

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"recapbot/internal/logging"
	"recapbot/internal/metrics"
	"recapbot/internal/model"
	"recapbot/internal/slackclient"
)

// History is the single source call the fetcher needs.
type History interface {
	History(ctx context.Context, r slackclient.HistoryRequest) (slackclient.HistoryPage, error)
}

const (
	defaultPageSize   = 200
	minRetryMargin    = time.Second
	defaultMaxRetries = 20
)

// Fetcher streams every message of a window, following the cursor chain.
type Fetcher struct {
	src        History
	pageSize   int
	margin     time.Duration
	maxRetries int
	sleep      func(ctx context.Context, d time.Duration) error
}

type Option func(*Fetcher)

func WithPageSize(n int) Option { return func(f *Fetcher) { f.pageSize = n } }

// WithRetryMargin sets the pause added on top of Retry-After. Values under 1s are raised to 1s.
func WithRetryMargin(d time.Duration) Option { return func(f *Fetcher) { f.margin = d } }

// WithMaxRetries bounds consecutive rate-limit retries of one page.
func WithMaxRetries(n int) Option { return func(f *Fetcher) { f.maxRetries = n } }

// WithSleep replaces the pause implementation (tests).
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(f *Fetcher) { f.sleep = fn }
}

func NewFetcher(src History, opts ...Option) *Fetcher {
	f := &Fetcher{src: src, pageSize: defaultPageSize, margin: minRetryMargin, maxRetries: defaultMaxRetries, sleep: sleepCtx}
	for _, o := range opts {
		o(f)
	}
	if f.pageSize <= 0 {
		f.pageSize = defaultPageSize
	}
	if f.margin < minRetryMargin {
		f.margin = minRetryMargin
	}
	if f.maxRetries <= 0 {
		f.maxRetries = defaultMaxRetries
	}
	return f
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ErrRateLimitExhausted is yielded when one page stays rate limited past the retry bound.
var ErrRateLimitExhausted = errors.New("rate limit retries exhausted")

// Events lazily yields every message with a timestamp in [w.Start, w.End), in source
// order. A rate-limited page is retried as-is after Retry-After plus the margin; any
// other error is yielded once and ends the sequence. Call again to restart.
func (f *Fetcher) Events(ctx context.Context, channel string, w model.TimeWindow) iter.Seq2[model.RawEvent, error] {
	return func(yield func(model.RawEvent, error) bool) {
		if !w.Start.Before(w.End) {
			return
		}
		cursor := ""
		for page := 1; ; page++ {
			p, err := f.page(ctx, slackclient.HistoryRequest{
				Channel: channel,
				Oldest:  w.Start,
				Latest:  w.End,
				Cursor:  cursor,
				Limit:   f.pageSize,
			})
			if err != nil {
				yield(model.RawEvent{}, fmt.Errorf("fetch %s page %d: %w", channel, page, err))
				return
			}
			metrics.PagesFetched.Inc()
			logging.Debug("history_page", map[string]any{"channel": channel, "page": page, "events": len(p.Events), "has_more": p.HasMore})
			for _, e := range p.Events {
				if !w.Contains(e.Time()) {
					continue
				}
				metrics.EventsFetched.Inc()
				if !yield(e, nil) {
					return
				}
			}
			if !p.HasMore {
				return
			}
			if p.NextCursor == "" {
				logging.Warn("history_missing_cursor", map[string]any{"channel": channel, "page": page})
				return
			}
			cursor = p.NextCursor
		}
	}
}

// page requests one page, pausing and repeating the identical request while rate limited.
func (f *Fetcher) page(ctx context.Context, req slackclient.HistoryRequest) (slackclient.HistoryPage, error) {
	for attempt := 1; ; attempt++ {
		p, err := f.src.History(ctx, req)
		var rl *slackclient.RateLimitedError
		if !errors.As(err, &rl) {
			return p, err
		}
		if attempt > f.maxRetries {
			return p, fmt.Errorf("%w after %d attempts: %v", ErrRateLimitExhausted, attempt, err)
		}
		wait := rl.RetryAfter + f.margin
		metrics.RateLimitWaits.Inc()
		logging.Info("rate_limited", map[string]any{"channel": req.Channel, "wait_ms": wait.Milliseconds(), "attempt": attempt})
		if err := f.sleep(ctx, wait); err != nil {
			return p, err
		}
	}
}
