package window

import (
	"testing"
	"time"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("tz data unavailable: %v", err)
	}
	return loc
}

func TestDayWindowsAreContiguous(t *testing.T) {
	loc := mustLoad(t, "America/Denver")
	d := time.Date(2025, 1, 1, 15, 0, 0, 0, loc)
	for i := 0; i < 400; i++ {
		w := Day(d, loc)
		next := Day(d.AddDate(0, 0, 1), loc)
		if !w.End.Equal(next.Start) {
			t.Fatalf("gap at %s: end=%s next.start=%s", w.Label, w.End, next.Start)
		}
		if !w.Start.Before(w.End) {
			t.Fatalf("empty window at %s", w.Label)
		}
		if h, m, s := w.Start.Clock(); h != 0 || m != 0 || s != 0 {
			t.Fatalf("start not midnight: %s", w.Start)
		}
		d = d.AddDate(0, 0, 1)
	}
}

func TestDayWindowAcrossDST(t *testing.T) {
	loc := mustLoad(t, "America/Denver")
	cases := []struct {
		date time.Time
		want time.Duration
	}{
		{time.Date(2025, 3, 9, 12, 0, 0, 0, loc), 23 * time.Hour},
		{time.Date(2025, 11, 2, 12, 0, 0, 0, loc), 25 * time.Hour},
		{time.Date(2025, 6, 15, 12, 0, 0, 0, loc), 24 * time.Hour},
	}
	for _, c := range cases {
		w := Day(c.date, loc)
		if got := w.End.Sub(w.Start); got != c.want {
			t.Fatalf("%s: span %s, want %s", w.Label, got, c.want)
		}
	}
}

func TestDayUsesLocalCalendarDate(t *testing.T) {
	loc := mustLoad(t, "America/Denver")
	// 03:00 UTC on Sep 15 is still Sep 14 in Denver.
	w := Day(time.Date(2025, 9, 15, 3, 0, 0, 0, time.UTC), loc)
	if w.Label != "Sun Sep 14" {
		t.Fatalf("label %q", w.Label)
	}
}

func TestWeekDays(t *testing.T) {
	loc := mustLoad(t, "America/Denver")
	end := time.Date(2025, 3, 12, 9, 30, 0, 0, loc)
	days := WeekDays(end, loc)
	if len(days) != 7 {
		t.Fatalf("len=%d", len(days))
	}
	for i := 1; i < len(days); i++ {
		if !days[i].After(days[i-1]) {
			t.Fatalf("not increasing at %d", i)
		}
		if !Day(days[i-1], loc).End.Equal(days[i]) {
			t.Fatalf("not consecutive at %d", i)
		}
	}
	if DateKey(days[6]) != "2025-03-12" || DateKey(days[0]) != "2025-03-06" {
		t.Fatalf("range %s..%s", DateKey(days[0]), DateKey(days[6]))
	}
}

func TestYesterdayFromInstant(t *testing.T) {
	loc := mustLoad(t, "America/Denver")
	now := time.Date(2025, 3, 1, 5, 0, 0, 0, time.UTC) // Feb 28 22:00 local
	if got := DateKey(Yesterday(now, loc)); got != "2025-02-27" {
		t.Fatalf("yesterday=%s", got)
	}
	if got := DateKey(Today(now, loc)); got != "2025-02-28" {
		t.Fatalf("today=%s", got)
	}
}

func TestMonthToDate(t *testing.T) {
	loc := mustLoad(t, "America/Denver")
	asOf := time.Date(2025, 9, 30, 14, 0, 0, 0, loc)
	w := MonthToDate(asOf, loc)
	if !w.Start.Equal(time.Date(2025, 9, 1, 0, 0, 0, 0, loc)) {
		t.Fatalf("start=%s", w.Start)
	}
	if !w.End.Equal(asOf) {
		t.Fatalf("end=%s", w.End)
	}
	if w.Label != "September" {
		t.Fatalf("label=%s", w.Label)
	}
}

func TestMonthToDateAcrossYearEnd(t *testing.T) {
	loc := mustLoad(t, "America/Denver")
	dec := MonthToDate(time.Date(2025, 12, 31, 23, 0, 0, 0, loc), loc)
	jan := MonthToDate(time.Date(2026, 1, 1, 9, 0, 0, 0, loc), loc)
	if !dec.Start.Equal(time.Date(2025, 12, 1, 0, 0, 0, 0, loc)) || dec.Label != "December" {
		t.Fatalf("dec=%+v", dec)
	}
	if !jan.Start.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, loc)) || jan.Label != "January" {
		t.Fatalf("jan=%+v", jan)
	}
}

func TestLabels(t *testing.T) {
	d := time.Date(2025, 9, 7, 0, 0, 0, 0, time.UTC)
	if DateLabel(d) != "Sun Sep 7" {
		t.Fatalf("label=%q", DateLabel(d))
	}
	if Weekday(d) != "Sunday" {
		t.Fatalf("weekday=%q", Weekday(d))
	}
}
