// Package report turns summaries into display text and Slack blocks. It holds
// no aggregation logic.
package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"recapbot/internal/model"
	"recapbot/internal/slackclient"
)

const (
	barWidth   = 20
	labelWidth = 12
	barFill    = "█"
	fence      = "```"
)

// BarChart renders rows as a fenced monospace chart. Bars scale to the largest
// count (treated as 1 when all counts are zero) and every nonzero count gets at
// least one unit. No rows renders as "".
func BarChart(rows []model.ChartRow) string {
	if len(rows) == 0 {
		return ""
	}
	maxv := 0
	for _, r := range rows {
		if r.Count > maxv {
			maxv = r.Count
		}
	}
	if maxv == 0 {
		maxv = 1
	}
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, fmt.Sprintf("%*s | %s %d", labelWidth, r.Label, strings.Repeat(barFill, BarLength(r.Count, maxv)), r.Count))
	}
	return fence + "\n" + strings.Join(lines, "\n") + "\n" + fence
}

// BarLength is 0 for a zero count, else max(1, ceil(count/max*20)).
func BarLength(count, maxv int) int {
	if count <= 0 {
		return 0
	}
	if maxv <= 0 {
		maxv = 1
	}
	n := int(math.Ceil(float64(count) / float64(maxv) * barWidth))
	return max(1, n)
}

// Daily renders a single-day recap.
func Daily(s model.DaySummary) model.Report {
	r := model.Report{
		Header:    "Previous Day Recap (" + s.Weekday + ")",
		BodyLines: []string{fmt.Sprintf("*Typeform messages:* %d", s.Total)},
		Fallback:  "Daily Typeform recap",
	}
	r.BodyLines = append(r.BodyLines, contributorLines(s)...)
	return r
}

// Today renders a today-so-far recap.
func Today(s model.DaySummary) model.Report {
	r := Daily(s)
	r.Header = "Today So Far (" + s.Weekday + ")"
	return r
}

// Weekly renders a rollup with its chart.
func Weekly(header string, r model.RollupSummary) model.Report {
	return model.Report{
		Header: header,
		BodyLines: []string{
			fmt.Sprintf("*Total Typeform messages:* %d", r.Total),
			"*Daily average:* " + FormatAverage(r.DailyAverage),
		},
		Chart:    BarChart(r.DayRows),
		Fallback: "Weekly Typeform recap",
	}
}

// Monthly renders a month-to-date recap.
func Monthly(m model.MonthSummary) model.Report {
	return model.Report{
		Header:    m.Month + " Monthly Recap",
		BodyLines: []string{fmt.Sprintf("*Typeform messages this month:* %d", m.Total)},
		Fallback:  "Monthly Typeform recap",
	}
}

// FormatAverage prints the shortest decimal form, e.g. 3.29, 3.5 or 0.
func FormatAverage(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func contributorLines(s model.DaySummary) []string {
	if len(s.TopActors) == 0 && s.ThreadsStarted == 0 && s.Replies == 0 {
		return nil
	}
	lines := []string{fmt.Sprintf("*Threads started:* %d  *Replies:* %d", s.ThreadsStarted, s.Replies)}
	if len(s.TopActors) > 0 {
		parts := make([]string, 0, len(s.TopActors))
		for _, a := range s.TopActors {
			parts = append(parts, fmt.Sprintf("%s (%d)", a.Name, a.Count))
		}
		lines = append(lines, "*Top contributors:* "+strings.Join(parts, ", "))
	}
	return lines
}

// Text renders the report as plain text.
func Text(r model.Report) string {
	var b strings.Builder
	b.WriteString(r.Header)
	for _, l := range r.BodyLines {
		b.WriteString("\n")
		b.WriteString(l)
	}
	if r.Chart != "" {
		b.WriteString("\n")
		b.WriteString(r.Chart)
	}
	return b.String()
}

// Blocks renders the report as Block Kit: a header, one section for the body,
// and one section for the chart when present.
func Blocks(r model.Report) []slackclient.Block {
	blocks := []slackclient.Block{
		{Type: "header", Text: &slackclient.TextObject{Type: "plain_text", Text: r.Header}},
		{Type: "section", Text: &slackclient.TextObject{Type: "mrkdwn", Text: strings.Join(r.BodyLines, "\n")}},
	}
	if r.Chart != "" {
		blocks = append(blocks, slackclient.Block{Type: "section", Text: &slackclient.TextObject{Type: "mrkdwn", Text: r.Chart}})
	}
	return blocks
}
