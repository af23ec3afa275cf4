// Package deliver posts a rendered report now or schedules it for a local time
// later today.
package deliver

import (
	"context"
	"errors"
	"time"

	"recapbot/internal/logging"
	"recapbot/internal/metrics"
	"recapbot/internal/model"
	"recapbot/internal/report"
	"recapbot/internal/schedule"
	"recapbot/internal/slackclient"
	"recapbot/internal/store/journal"
)

const (
	KindPost     = "post"
	KindSchedule = "schedule"
)

// Poster is the delivery side of the Slack client.
type Poster interface {
	PostMessage(ctx context.Context, channel, text string, blocks []slackclient.Block) (string, error)
	ScheduleMessage(ctx context.Context, channel, text string, blocks []slackclient.Block, postAt time.Time) (string, error)
}

// Recorder stores delivered reports.
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) error
}

// At is a local delivery time of day.
type At struct {
	Hour, Minute int
}

// Result describes what was done with a report.
type Result struct {
	Kind    string
	Channel string
	Ref     string
	PostAt  time.Time
}

// Deliverer sends reports, scheduling them when a delivery time is set.
type Deliverer struct {
	poster  Poster
	loc     *time.Location
	at      *At
	now     func() time.Time
	journal Recorder
	runID   string
}

type Option func(*Deliverer)

// WithScheduleAt schedules deliveries for today at the given local time.
func WithScheduleAt(at At) Option { return func(d *Deliverer) { d.at = &at } }

// WithJournal records every delivery under runID.
func WithJournal(r Recorder, runID string) Option {
	return func(d *Deliverer) { d.journal = r; d.runID = runID }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(d *Deliverer) { d.now = now } }

func New(p Poster, loc *time.Location, opts ...Option) *Deliverer {
	d := &Deliverer{poster: p, loc: loc, now: time.Now}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Deliver posts r to channel, or schedules it when a delivery time is configured
// and still at least schedule.MinLead away. A Slack "time_in_past" rejection
// also falls back to posting now.
func (d *Deliverer) Deliver(ctx context.Context, mode, channel string, r model.Report) (Result, error) {
	blocks := report.Blocks(r)
	res := Result{Channel: channel}
	if d.at != nil {
		if at, ok := schedule.NextPost(d.now(), d.loc, d.at.Hour, d.at.Minute); ok {
			id, err := d.poster.ScheduleMessage(ctx, channel, r.Fallback, blocks, at)
			var se *slackclient.SourceError
			switch {
			case err == nil:
				res.Kind, res.Ref, res.PostAt = KindSchedule, id, at
				return res, d.finish(ctx, mode, r, res)
			case errors.As(err, &se) && se.Code == "time_in_past":
				logging.Warn("schedule_fallback", map[string]any{"channel": channel, "post_at": at})
			default:
				return res, err
			}
		}
	}
	ts, err := d.poster.PostMessage(ctx, channel, r.Fallback, blocks)
	if err != nil {
		return res, err
	}
	res.Kind, res.Ref = KindPost, ts
	return res, d.finish(ctx, mode, r, res)
}

func (d *Deliverer) finish(ctx context.Context, mode string, r model.Report, res Result) error {
	metrics.IncDelivery(res.Kind)
	logging.Info("delivered", map[string]any{"mode": mode, "channel": res.Channel, "kind": res.Kind, "ref": res.Ref})
	if d.journal == nil {
		return nil
	}
	// the report already went out; a journal failure is logged, not returned
	if err := d.journal.Record(ctx, journal.Entry{
		RunID:   d.runID,
		Mode:    mode,
		Channel: res.Channel,
		Kind:    res.Kind,
		Ref:     res.Ref,
		PostAt:  res.PostAt,
		Text:    report.Text(r),
	}); err != nil {
		logging.Error("journal_record", map[string]any{"error": err.Error()})
	}
	return nil
}
