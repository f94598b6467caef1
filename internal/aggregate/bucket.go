package aggregate

import (
	"sort"
	"time"

	"lendlib/internal/member"
)

// PeriodicCount is one bucket of a counted series: the bucket's label
// date and the number of events that fell into it.
type PeriodicCount struct {
	Date  time.Time
	Total int
}

// WeekEnding returns the Sunday that closes the week containing t.
// Dates already on a Sunday label their own week.
func WeekEnding(t time.Time) time.Time {
	offset := (7 - int(t.Weekday())) % 7
	return t.AddDate(0, 0, offset)
}

// YearEnding returns December 31 of t's year, the label date for yearly
// buckets.
func YearEnding(t time.Time) time.Time {
	return time.Date(t.Year(), time.December, 31, 0, 0, 0, 0, t.Location())
}

// CountWeekly buckets events into weeks ending on Sunday and returns
// the non-empty buckets in date order.
func CountWeekly(events []member.MemberEvent) []PeriodicCount {
	return countBy(eventDates(events), WeekEnding)
}

// CountYearly buckets events by calendar year, labeled at year end.
func CountYearly(events []member.MemberEvent) []PeriodicCount {
	return countBy(eventDates(events), YearEnding)
}

// CountDatesWeekly buckets bare dates into weeks ending on Sunday.
func CountDatesWeekly(dates []time.Time) []PeriodicCount {
	return countBy(dates, WeekEnding)
}

func eventDates(events []member.MemberEvent) []time.Time {
	dates := make([]time.Time, len(events))
	for i, ev := range events {
		dates[i] = ev.Date
	}
	return dates
}

func countBy(dates []time.Time, bucket func(time.Time) time.Time) []PeriodicCount {
	totals := make(map[time.Time]int)
	for _, d := range dates {
		totals[bucket(d)]++
	}

	out := make([]PeriodicCount, 0, len(totals))
	for date, total := range totals {
		out = append(out, PeriodicCount{Date: date, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
