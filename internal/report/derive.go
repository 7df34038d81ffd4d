package report

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for report dates.
const DateLayout = "2006-01-02"

// ParseDate parses an ISO date string in the report wire format.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// IsWeekday reports whether t falls Monday through Friday.
func IsWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd >= time.Monday && wd <= time.Friday
}

// MondayOf returns the Monday of t's ISO week.
func MondayOf(t time.Time) time.Time {
	offset := int(t.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7 // Sunday
	}
	return t.AddDate(0, 0, -offset)
}

// ValidDateRange checks the report date-window rule: both dates are
// weekdays, end is on or after start, and end is no later than the Friday
// of start's week.
func ValidDateRange(start, end string) bool {
	s, err := ParseDate(start)
	if err != nil {
		return false
	}
	e, err := ParseDate(end)
	if err != nil {
		return false
	}
	if !IsWeekday(s) || !IsWeekday(e) {
		return false
	}
	if e.Before(s) {
		return false
	}
	monday := MondayOf(s)
	return !e.After(monday.AddDate(0, 0, 4))
}

// SplitContributorNames splits a comma-separated name list, trimming
// whitespace and dropping empty entries.
func SplitContributorNames(names string) []string {
	parts := strings.Split(names, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// weekOfMonth is the calendar-week row of t within its month, computed as
// the number of Mondays between t's week and the week of the 1st, clamped
// to 1..5.
func weekOfMonth(t time.Time) int {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	weeks := int(MondayOf(t).Sub(MondayOf(first)).Hours()/(24*7)) + 1
	if weeks < 1 {
		weeks = 1
	}
	if weeks > 5 {
		weeks = 5
	}
	return weeks
}

// Recompute refreshes every derived field from its source fields: the
// capacity surplus, contributor counts (top level and per slide), and the
// temporal indices from StartDate. Fields that fail to derive (for
// example an unparseable StartDate) are left untouched.
func (r *WeeklyReport) Recompute() {
	r.Capacity.SurplusDeficitHours = r.Capacity.PlannedHours - r.Capacity.CommittedHours
	r.Strength.ActiveContributors = len(SplitContributorNames(r.Strength.ActiveContributorNames))

	for i := range r.ExecutionReadinessSlides {
		s := &r.ExecutionReadinessSlides[i]
		s.Capacity.SurplusDeficitHours = s.Capacity.PlannedHours - s.Capacity.CommittedHours
		s.Strength.ActiveContributors = len(SplitContributorNames(s.Strength.ActiveContributorNames))
	}

	if start, err := ParseDate(r.StartDate); err == nil {
		year, week := start.ISOWeek()
		r.ISOWeek = week
		r.Year = year
		r.Month = int(start.Month())
		r.WeekOfMonth = weekOfMonth(start)
	}
}

// Pad appends empty template rows so every minimum-row section holds at
// least its minimum count. User rows are never truncated or overwritten.
func (r *WeeklyReport) Pad() {
	for len(r.Goals) < MinGoals {
		r.Goals = append(r.Goals, GoalRow{Health: HealthGreen, Confidence: ConfidenceMed})
	}
	for len(r.Bottlenecks) < MinBottlenecks {
		r.Bottlenecks = append(r.Bottlenecks, "")
	}
	for len(r.Decisions) < MinDecisions {
		r.Decisions = append(r.Decisions, DecisionItem{})
	}
	for len(r.Threads) < MinThreads {
		r.Threads = append(r.Threads, ThreadRow{Status: ThreadNotStarted})
	}
	for i := range r.ExecutionReadinessSlides {
		s := &r.ExecutionReadinessSlides[i]
		for len(s.Bottlenecks) < MinBottlenecks {
			s.Bottlenecks = append(s.Bottlenecks, "")
		}
		for len(s.Decisions) < MinDecisions {
			s.Decisions = append(s.Decisions, DecisionItem{})
		}
	}
}

// Normalize runs padding and derived-field recomputation in the order the
// store applies before persisting.
func (r *WeeklyReport) Normalize() {
	r.Pad()
	r.Recompute()
}
