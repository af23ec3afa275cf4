package schedule

import (
	"time"
)

// MinLead is how far in the future a scheduled post must be; anything closer posts now.
const MinLead = 15 * time.Second

// TodayAt returns today's local instant at hour:minute in loc.
func TodayAt(now time.Time, loc *time.Location, hour, minute int) time.Time {
	lt := now.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), hour, minute, 0, 0, loc)
}

// NextPost reports the instant to schedule a post at, or ok=false when the
// target is not at least MinLead ahead of now and the caller should post immediately.
func NextPost(now time.Time, loc *time.Location, hour, minute int) (at time.Time, ok bool) {
	at = TodayAt(now, loc, hour, minute)
	if at.After(now.Add(MinLead)) {
		return at, true
	}
	return time.Time{}, false
}
