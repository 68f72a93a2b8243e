// Package streak computes consecutive-day activity streaks from calendar dates.
package streak

import (
	"sort"
	"time"
)

// Day is a calendar date with no time-of-day or zone component.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

// DayOf returns the calendar date of t in loc (UTC when loc is nil).
func DayOf(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return Day{Year: y, Month: m, Day: d}
}

// DateOf returns the calendar date of t as written, ignoring its zone. Use it
// for values that are already dates, like a stored study date.
func DateOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day{Year: y, Month: m, Day: d}
}

func (d Day) time() time.Time { return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC) }

// AddDays moves the date by n calendar days.
func (d Day) AddDays(n int) Day { return DateOf(d.time().AddDate(0, 0, n)) }

func (d Day) Before(o Day) bool { return d.time().Before(o.time()) }

func (d Day) String() string { return d.time().Format("2006-01-02") }

// Current counts consecutive active days ending today, or ending yesterday when
// today has no activity yet. A missed full day ends the streak.
func Current(days []Day, today Day) int {
	set := make(map[Day]struct{}, len(days))
	for _, d := range days {
		set[d] = struct{}{}
	}
	anchor := today
	if _, ok := set[anchor]; !ok {
		anchor = today.AddDays(-1)
		if _, ok := set[anchor]; !ok {
			return 0
		}
	}
	n := 0
	for d := anchor; ; d = d.AddDays(-1) {
		if _, ok := set[d]; !ok {
			return n
		}
		n++
	}
}

// Longest returns the longest run of consecutive active days anywhere in the history.
func Longest(days []Day) int {
	uniq := distinctSorted(days)
	if len(uniq) == 0 {
		return 0
	}
	best, run := 1, 1
	for i := 1; i < len(uniq); i++ {
		if uniq[i-1].AddDays(1) == uniq[i] {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}

func distinctSorted(days []Day) []Day {
	seen := make(map[Day]struct{}, len(days))
	out := make([]Day, 0, len(days))
	for _, d := range days {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
