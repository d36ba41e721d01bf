package calendar

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"1/2/06",
	"January 2, 2006",
	"January 2 2006",
	"January 2",
	"Jan 2, 2006",
	"Jan 2",
	"2 January 2006",
	"2 January",
}

var timeLayouts = []string{
	"3:04 PM",
	"3:04PM",
	"3 PM",
	"3PM",
	"15:04",
	"15",
}

// ParseDateTime resolves a natural-language date ("today", "tomorrow",
// "Friday", "2026-03-01") and time ("4 PM", "16:30") against the given
// location. When timeStr is empty the current clock time is used, matching
// the scheduling behavior users expect from "create an event today".
func ParseDateTime(dateStr, timeStr string, loc *time.Location, now time.Time) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)

	day, err := parseDate(dateStr, now)
	if err != nil {
		return time.Time{}, err
	}

	hour, minute := now.Hour(), now.Minute()
	if strings.TrimSpace(timeStr) != "" {
		h, m, err := parseClock(timeStr)
		if err != nil {
			return time.Time{}, err
		}
		hour, minute = h, m
	}

	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc), nil
}

func parseDate(dateStr string, now time.Time) (time.Time, error) {
	s := strings.ToLower(strings.TrimSpace(dateStr))
	switch s {
	case "", "today":
		return now, nil
	case "tomorrow":
		return now.AddDate(0, 0, 1), nil
	case "yesterday":
		return now.AddDate(0, 0, -1), nil
	}

	if wd, ok := weekdays[strings.TrimPrefix(s, "next ")]; ok {
		days := int(wd-now.Weekday()+7) % 7
		if days == 0 {
			days = 7
		}
		return now.AddDate(0, 0, days), nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(dateStr)); err == nil {
			year := t.Year()
			if year == 0 {
				year = now.Year()
			}
			return time.Date(year, t.Month(), t.Day(), 0, 0, 0, 0, now.Location()), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date: %q", dateStr)
}

func parseClock(timeStr string) (hour, minute int, err error) {
	s := strings.ToUpper(strings.TrimSpace(timeStr))
	s = strings.ReplaceAll(s, ".", "")
	for _, layout := range timeLayouts {
		if t, perr := time.Parse(layout, s); perr == nil {
			return t.Hour(), t.Minute(), nil
		}
	}
	return 0, 0, fmt.Errorf("unrecognized time: %q", timeStr)
}

var durationNumberRe = regexp.MustCompile(`\d+`)

// ParseDuration accepts "1 hour", "30 minutes", "2h", "45m", "2 days", or
// a bare number (hours). Anything unparseable falls back to one hour.
func ParseDuration(s string) time.Duration {
	const fallback = time.Hour
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return fallback
	}

	num := 0
	if m := durationNumberRe.FindString(s); m != "" {
		num, _ = strconv.Atoi(m)
	}
	if num <= 0 {
		return fallback
	}

	switch {
	case strings.Contains(s, "minute"), strings.HasSuffix(s, "m"):
		return time.Duration(num) * time.Minute
	case strings.Contains(s, "hour"), strings.HasSuffix(s, "h"):
		return time.Duration(num) * time.Hour
	case strings.Contains(s, "day"):
		return time.Duration(num) * 24 * time.Hour
	default:
		return time.Duration(num) * time.Hour
	}
}
