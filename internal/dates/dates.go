// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dates normalizes the date strings found in search results and
// web pages into calendar dates.
package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/citations-engine/pkg/types"
)

var months = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

const monthPattern = `(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sept?(?:ember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

var (
	relativeRe  = regexp.MustCompile(`(?i)\b(\d+)\s*(minute|min|hour|hr|day|week|month|year)s?\b.*\bago\b`)
	yesterdayRe = regexp.MustCompile(`(?i)\byesterday\b`)
	todayRe     = regexp.MustCompile(`(?i)^(today|just now)$`)

	isoRe       = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})`)
	usRe        = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	monthDayRe  = regexp.MustCompile(`(?i)\b` + monthPattern + `\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`)
	dayMonthRe  = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+` + monthPattern + `\.?,?\s+(\d{4})\b`)
	yearOnlyRe  = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)
	timeLayouts = []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		time.RFC1123Z,
		time.RFC1123,
		time.RFC850,
	}
)

// Parse normalizes s relative to now. It understands ISO and RFC 3339
// timestamps, MM/DD/YYYY, "January 2, 2006", "2 Jan 2006", relative forms
// such as "3 days ago" or "yesterday", and a bare year (mapped to January 1).
// The boolean is false when no date could be established.
func Parse(s string, now time.Time) (types.Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return types.Date{}, false
	}

	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return types.NewDate(t), true
		}
	}

	if d, ok := relative(s, now); ok {
		return d, true
	}

	if d, _, ok := findFull(s); ok {
		return d, true
	}

	if m := yearOnlyRe.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		return types.NewDate(time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)), true
	}
	return types.Date{}, false
}

// FindInText returns the first full calendar date that appears in text.
// Bare years and relative phrases are ignored because running prose is
// full of them.
func FindInText(text string) (types.Date, bool) {
	d, _, ok := findFull(text)
	return d, ok
}

// DaysBefore reports how many whole days d lies before now. Zero dates
// report -1.
func DaysBefore(d types.Date, now time.Time) int {
	if d.IsZero() {
		return -1
	}
	today := types.NewDate(now)
	return int(today.Sub(d.Time).Hours() / 24)
}

func relative(s string, now time.Time) (types.Date, bool) {
	if todayRe.MatchString(s) {
		return types.NewDate(now), true
	}
	if yesterdayRe.MatchString(s) {
		return types.NewDate(now.AddDate(0, 0, -1)), true
	}
	m := relativeRe.FindStringSubmatch(s)
	if m == nil {
		return types.Date{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return types.Date{}, false
	}
	var t time.Time
	switch strings.ToLower(m[2]) {
	case "minute", "min":
		t = now.Add(-time.Duration(n) * time.Minute)
	case "hour", "hr":
		t = now.Add(-time.Duration(n) * time.Hour)
	case "day":
		t = now.AddDate(0, 0, -n)
	case "week":
		t = now.AddDate(0, 0, -7*n)
	case "month":
		// Approximated as 30 days.
		t = now.AddDate(0, 0, -30*n)
	case "year":
		t = now.AddDate(-n, 0, 0)
	}
	return types.NewDate(t), true
}

// findFull tries every full-date pattern and keeps the earliest match.
func findFull(s string) (types.Date, int, bool) {
	best := types.Date{}
	bestAt := -1

	consider := func(at int, year, month, day int) {
		d, ok := calendar(year, month, day)
		if !ok {
			return
		}
		if bestAt < 0 || at < bestAt {
			best, bestAt = d, at
		}
	}

	for _, loc := range isoRe.FindAllStringSubmatchIndex(s, -1) {
		consider(loc[0], atoi(s[loc[2]:loc[3]]), atoi(s[loc[4]:loc[5]]), atoi(s[loc[6]:loc[7]]))
	}
	for _, loc := range usRe.FindAllStringSubmatchIndex(s, -1) {
		consider(loc[0], atoi(s[loc[6]:loc[7]]), atoi(s[loc[2]:loc[3]]), atoi(s[loc[4]:loc[5]]))
	}
	for _, loc := range monthDayRe.FindAllStringSubmatchIndex(s, -1) {
		month := int(months[strings.ToLower(s[loc[2]:loc[3]])])
		consider(loc[0], atoi(s[loc[6]:loc[7]]), month, atoi(s[loc[4]:loc[5]]))
	}
	for _, loc := range dayMonthRe.FindAllStringSubmatchIndex(s, -1) {
		month := int(months[strings.ToLower(s[loc[4]:loc[5]])])
		consider(loc[0], atoi(s[loc[6]:loc[7]]), month, atoi(s[loc[2]:loc[3]]))
	}

	return best, bestAt, bestAt >= 0
}

// calendar rejects impossible dates such as February 30.
func calendar(year, month, day int) (types.Date, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 || year < 1900 || year > 2999 {
		return types.Date{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return types.Date{}, false
	}
	return types.Date{Time: t}, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
