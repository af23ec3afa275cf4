// Package window computes local-calendar-aligned half-open time windows.
package window

import (
	"strconv"
	"time"

	"recapbot/internal/model"
)

// Midnight returns local midnight of t's calendar date in loc.
func Midnight(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// Day returns [midnight, next midnight) for the calendar date of date in loc.
// AddDate keeps DST days at their true 23h or 25h length.
func Day(date time.Time, loc *time.Location) model.TimeWindow {
	start := Midnight(date, loc)
	return model.TimeWindow{Start: start, End: start.AddDate(0, 0, 1), Label: DateLabel(start)}
}

// MonthStart returns local midnight of the 1st of asOf's month.
func MonthStart(asOf time.Time, loc *time.Location) time.Time {
	lt := asOf.In(loc)
	return time.Date(lt.Year(), lt.Month(), 1, 0, 0, 0, 0, loc)
}

// MonthToDate returns [1st of month, asOf). At exactly midnight of the 1st the
// window would be empty, so End is never before Start.
func MonthToDate(asOf time.Time, loc *time.Location) model.TimeWindow {
	start := MonthStart(asOf, loc)
	end := asOf.In(loc)
	if end.Before(start) {
		end = start
	}
	return model.TimeWindow{Start: start, End: end, Label: MonthLabel(start)}
}

// Today returns local midnight of the current day.
func Today(now time.Time, loc *time.Location) time.Time { return Midnight(now, loc) }

// Yesterday returns local midnight of the previous calendar day.
func Yesterday(now time.Time, loc *time.Location) time.Time {
	return Today(now, loc).AddDate(0, 0, -1)
}

// WeekDays returns the 7 consecutive local midnights ending at endInclusive, oldest first.
func WeekDays(endInclusive time.Time, loc *time.Location) []time.Time {
	end := Midnight(endInclusive, loc)
	days := make([]time.Time, 0, 7)
	for i := 6; i >= 0; i-- {
		days = append(days, end.AddDate(0, 0, -i))
	}
	return days
}

// DateLabel formats a short label like "Sun Sep 14".
func DateLabel(t time.Time) string {
	return t.Format("Mon Jan ") + strconv.Itoa(t.Day())
}

// MonthLabel returns the full month name, e.g. "September".
func MonthLabel(t time.Time) string { return t.Month().String() }

// Weekday returns the full weekday name, e.g. "Sunday".
func Weekday(t time.Time) string { return t.Weekday().String() }

// DateKey formats t as YYYY-MM-DD.
func DateKey(t time.Time) string { return t.Format(time.DateOnly) }
