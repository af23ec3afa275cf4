package model

import (
	"strconv"
	"strings"
	"time"
)

// TimeWindow is a half-open interval [Start, End) in a fixed local timezone.
type TimeWindow struct {
	Start time.Time
	End   time.Time
	Label string
}

// Contains reports whether t falls inside [Start, End).
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// BotProfile is the automation metadata Slack attaches to app-posted messages.
type BotProfile struct {
	AppID    string
	Name     string
	Username string
}

// RawEvent is one message as returned by conversations.history.
type RawEvent struct {
	TS         string
	ThreadTS   string
	User       string // human actor id, empty for automated posts
	Username   string
	BotID      string
	BotProfile *BotProfile
	Subtype    string
	Text       string
	ReplyCount int
}

// Time parses the Slack "seconds.micros" timestamp. Zero time if unparsable.
func (e RawEvent) Time() time.Time {
	if e.TS == "" {
		return time.Time{}
	}
	sec, frac, _ := strings.Cut(e.TS, ".")
	s, err := strconv.ParseInt(sec, 10, 64)
	if err != nil {
		return time.Time{}
	}
	var nsec int64
	if frac != "" {
		for len(frac) < 9 {
			frac += "0"
		}
		n, err := strconv.ParseInt(frac[:9], 10, 64)
		if err == nil {
			nsec = n
		}
	}
	return time.Unix(s, nsec)
}

// ActorCount is one entry of a contributor leaderboard.
type ActorCount struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DaySummary aggregates one local calendar day.
type DaySummary struct {
	Date           string       `json:"date"`
	Label          string       `json:"date_label"`
	Weekday        string       `json:"dow"`
	Total          int          `json:"total"`
	ThreadsStarted int          `json:"threads_started,omitempty"`
	Replies        int          `json:"replies,omitempty"`
	TopActors      []ActorCount `json:"top_actors,omitempty"`
}

// ChartRow is a single labelled value of a bar chart.
type ChartRow struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// RollupSummary folds an ordered run of days into one period.
type RollupSummary struct {
	PeriodLabel  string     `json:"period_label"`
	Total        int        `json:"total"`
	DailyAverage float64    `json:"daily_average"`
	DayRows      []ChartRow `json:"day_rows"`
}

// MonthSummary is a month-to-date count.
type MonthSummary struct {
	Month string `json:"month"`
	Total int    `json:"total"`
}

// Report is rendered text ready for delivery.
type Report struct {
	Header    string
	BodyLines []string
	Chart     string
	// Fallback is the notification text shown by clients that cannot render blocks.
	Fallback string
}
