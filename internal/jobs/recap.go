package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"recapbot/internal/analytics"
	"recapbot/internal/config"
	"recapbot/internal/deliver"
	"recapbot/internal/logging"
	"recapbot/internal/metrics"
	"recapbot/internal/model"
	"recapbot/internal/report"
	"recapbot/internal/window"
)

// Modes.
const (
	ModeDaily   = "daily"
	ModeWeekly  = "weekly"
	ModeMonthly = "monthly"
	ModeDryRun  = "dryrun"
)

// ErrUnknownMode is returned for an unrecognized mode selector.
var ErrUnknownMode = errors.New("unknown mode")

// ParseMode normalizes a mode selector ("DAILY", "dry-run", ...).
func ParseMode(s string) (string, error) {
	m := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "")
	switch m {
	case ModeDaily, ModeWeekly, ModeMonthly, ModeDryRun:
		return m, nil
	case "":
		return ModeDaily, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownMode, strings.ToUpper(s))
}

// Deliverer sends a rendered report to a channel.
type Deliverer interface {
	Deliver(ctx context.Context, mode, channel string, r model.Report) (deliver.Result, error)
}

// Runner executes one report mode end to end: aggregate, render, deliver.
type Runner struct {
	agg     *analytics.Aggregator
	out     Deliverer
	cfg     config.Config
	loc     *time.Location
	now     func() time.Time
	dryRunW io.Writer
}

func NewRunner(agg *analytics.Aggregator, out Deliverer, cfg config.Config, loc *time.Location, now func() time.Time, dryRunW io.Writer) *Runner {
	if now == nil {
		now = time.Now
	}
	return &Runner{agg: agg, out: out, cfg: cfg, loc: loc, now: now, dryRunW: dryRunW}
}

// Run dispatches on mode. The whole aggregation completes before anything is delivered.
func (r *Runner) Run(ctx context.Context, mode string) error {
	start := time.Now()
	defer metrics.ObserveRunDuration(start)
	switch mode {
	case ModeDaily:
		return r.Daily(ctx)
	case ModeWeekly:
		return r.Weekly(ctx)
	case ModeMonthly:
		return r.Monthly(ctx)
	case ModeDryRun:
		return r.DryRun(ctx)
	}
	return fmt.Errorf("%w: %s", ErrUnknownMode, mode)
}

// dailySummary applies the configured daily window policy.
func (r *Runner) dailySummary(ctx context.Context) (model.DaySummary, model.Report, error) {
	now := r.now()
	if r.cfg.Schedule.DailyWindow == config.DailyToday {
		// the source holds nothing after now, so today's full window is today so far
		s, err := r.agg.Day(ctx, r.cfg.Channels.Monitor, window.Today(now, r.loc))
		return s, report.Today(s), err
	}
	s, err := r.agg.Day(ctx, r.cfg.Channels.Monitor, window.Yesterday(now, r.loc))
	return s, report.Daily(s), err
}

// Daily posts the daily recap to the monitor channel.
func (r *Runner) Daily(ctx context.Context) error {
	_, rep, err := r.dailySummary(ctx)
	if err != nil {
		return err
	}
	_, err = r.out.Deliver(ctx, ModeDaily, r.cfg.Channels.Monitor, rep)
	return err
}

// week returns the last 7 full local days ending yesterday.
func (r *Runner) week(ctx context.Context) (model.RollupSummary, error) {
	yesterday := window.Yesterday(r.now(), r.loc)
	days, err := r.agg.Week(ctx, r.cfg.Channels.Monitor, yesterday)
	if err != nil {
		return model.RollupSummary{}, err
	}
	label := days[0].Label + " to " + days[len(days)-1].Label
	return analytics.Rollup(label, days), nil
}

// Weekly posts the 7-day chart to the weekly channel.
func (r *Runner) Weekly(ctx context.Context) error {
	roll, err := r.week(ctx)
	if err != nil {
		return err
	}
	logging.Info("week_rollup", map[string]any{"period": roll.PeriodLabel, "total": roll.Total, "avg": roll.DailyAverage})
	_, err = r.out.Deliver(ctx, ModeWeekly, r.cfg.WeeklyChannel(), report.Weekly(r.cfg.Report.WeeklyHeader, roll))
	return err
}

// Monthly posts the month-to-date count to the monthly channel.
func (r *Runner) Monthly(ctx context.Context) error {
	m, err := r.agg.MonthToDate(ctx, r.cfg.Channels.Monitor, r.now())
	if err != nil {
		return err
	}
	_, err = r.out.Deliver(ctx, ModeMonthly, r.cfg.MonthlyChannel(), report.Monthly(m))
	return err
}

// DryRun prints the summaries as JSON lines without delivering anything.
func (r *Runner) DryRun(ctx context.Context) error {
	ch := r.cfg.Channels.Monitor
	now := r.now()
	y, err := r.agg.Day(ctx, ch, window.Yesterday(now, r.loc))
	if err != nil {
		return err
	}
	roll, err := r.week(ctx)
	if err != nil {
		return err
	}
	m, err := r.agg.MonthToDate(ctx, ch, now)
	if err != nil {
		return err
	}
	rows := make([][2]any, 0, len(roll.DayRows))
	for _, d := range roll.DayRows {
		rows = append(rows, [2]any{d.Label, d.Count})
	}
	enc := json.NewEncoder(r.dryRunW)
	for _, v := range []map[string]any{
		{"yesterday_full": y},
		{"last_7_days": rows},
		{"week_rollup": roll},
		{"month_to_now": m},
	} {
		if err := enc.Encode(v); err != nil {
			return err
		}
	}
	return nil
}
