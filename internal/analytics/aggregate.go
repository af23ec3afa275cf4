package analytics

import (
	"context"
	"iter"
	"math"
	"sort"
	"time"

	"recapbot/internal/logging"
	"recapbot/internal/metrics"
	"recapbot/internal/model"
	"recapbot/internal/window"
)

// Source streams the raw events of one window.
type Source interface {
	Events(ctx context.Context, channel string, w model.TimeWindow) iter.Seq2[model.RawEvent, error]
}

// Classifier decides whether an event counts.
type Classifier interface {
	IsTarget(e model.RawEvent) bool
}

// NameResolver maps a user id to a display name.
type NameResolver interface {
	UserName(ctx context.Context, userID string) (string, error)
}

// Aggregator rolls classified events into day, week and month-to-date summaries.
type Aggregator struct {
	src   Source
	cls   Classifier
	loc   *time.Location
	track bool
	topN  int
	names NameResolver
}

type Option func(*Aggregator)

// WithContributors enables thread and per-actor tallies, keeping the topN actors.
// names may be nil, in which case actors are reported by id.
func WithContributors(topN int, names NameResolver) Option {
	return func(a *Aggregator) {
		a.track = true
		a.topN = topN
		a.names = names
	}
}

func New(src Source, cls Classifier, loc *time.Location, opts ...Option) *Aggregator {
	a := &Aggregator{src: src, cls: cls, loc: loc, topN: 5}
	for _, o := range opts {
		o(a)
	}
	if a.topN <= 0 {
		a.topN = 5
	}
	return a
}

// count classifies every event of w and hands countable ones to fn.
func (a *Aggregator) count(ctx context.Context, channel string, w model.TimeWindow, fn func(model.RawEvent)) (int, error) {
	total := 0
	for e, err := range a.src.Events(ctx, channel, w) {
		if err != nil {
			return 0, err
		}
		ok := a.cls.IsTarget(e)
		metrics.IncClassified(ok)
		if !ok {
			continue
		}
		total++
		if fn != nil {
			fn(e)
		}
	}
	return total, nil
}

// Day summarizes the full local calendar day containing date.
func (a *Aggregator) Day(ctx context.Context, channel string, date time.Time) (model.DaySummary, error) {
	w := window.Day(date, a.loc)
	s := model.DaySummary{
		Date:    window.DateKey(w.Start),
		Label:   w.Label,
		Weekday: window.Weekday(w.Start),
	}
	var tally *actorTally
	var fn func(model.RawEvent)
	if a.track {
		tally = newActorTally()
		fn = func(e model.RawEvent) {
			if e.ReplyCount > 0 || (e.ThreadTS != "" && e.ThreadTS == e.TS) {
				s.ThreadsStarted++
			}
			s.Replies += e.ReplyCount
			if e.User != "" {
				tally.add(e.User)
			}
		}
	}
	total, err := a.count(ctx, channel, w, fn)
	if err != nil {
		return model.DaySummary{}, err
	}
	s.Total = total
	if tally != nil {
		s.TopActors = a.resolve(ctx, tally.top(a.topN))
	}
	logging.Info("day_summary", map[string]any{"channel": channel, "date": s.Date, "total": s.Total})
	return s, nil
}

// Week summarizes the 7 days ending at endInclusive, oldest first. Any failed day fails the week.
func (a *Aggregator) Week(ctx context.Context, channel string, endInclusive time.Time) ([]model.DaySummary, error) {
	days := window.WeekDays(endInclusive, a.loc)
	out := make([]model.DaySummary, 0, len(days))
	for _, d := range days {
		s, err := a.Day(ctx, channel, d)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// MonthToDate counts over the single window [1st of month, asOf). It does not
// compose whole days, so the partial current day is counted exactly once.
func (a *Aggregator) MonthToDate(ctx context.Context, channel string, asOf time.Time) (model.MonthSummary, error) {
	w := window.MonthToDate(asOf, a.loc)
	total, err := a.count(ctx, channel, w, nil)
	if err != nil {
		return model.MonthSummary{}, err
	}
	logging.Info("month_summary", map[string]any{"channel": channel, "month": w.Label, "total": total})
	return model.MonthSummary{Month: w.Label, Total: total}, nil
}

// Rollup folds day summaries, preserving their order.
func Rollup(label string, days []model.DaySummary) model.RollupSummary {
	r := model.RollupSummary{PeriodLabel: label, DayRows: make([]model.ChartRow, 0, len(days))}
	for _, d := range days {
		r.Total += d.Total
		r.DayRows = append(r.DayRows, model.ChartRow{Label: d.Label, Count: d.Total})
	}
	if len(days) > 0 {
		r.DailyAverage = Round2(float64(r.Total) / float64(len(days)))
	}
	return r
}

// Round2 rounds half away from zero to 2 decimal places.
func Round2(x float64) float64 { return math.Round(x*100) / 100 }

func (a *Aggregator) resolve(ctx context.Context, top []model.ActorCount) []model.ActorCount {
	for i := range top {
		top[i].Name = top[i].ID
		if a.names == nil {
			continue
		}
		name, err := a.names.UserName(ctx, top[i].ID)
		if err != nil {
			logging.Warn("user_name_lookup", map[string]any{"user": top[i].ID, "error": err.Error()})
			continue
		}
		top[i].Name = name
	}
	return top
}

// actorTally counts per actor, remembering first-seen order for tie breaks.
type actorTally struct {
	counts map[string]int
	order  []string
}

func newActorTally() *actorTally { return &actorTally{counts: make(map[string]int)} }

func (t *actorTally) add(id string) {
	if _, ok := t.counts[id]; !ok {
		t.order = append(t.order, id)
	}
	t.counts[id]++
}

// top returns the n highest counts; equal counts keep first-seen order.
func (t *actorTally) top(n int) []model.ActorCount {
	out := make([]model.ActorCount, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, model.ActorCount{ID: id, Count: t.counts[id]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
