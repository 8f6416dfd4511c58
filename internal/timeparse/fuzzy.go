package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const maxDateWindow = 5

var (
	fuzzyClockRe = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b|\b(\d{1,2}):(\d{2})\b`)
	dateStartRe  = regexp.MustCompile(`^(\d{1,4}[-/.]\d{1,2}|\d{1,2}(st|nd|rd|th)?$|jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)`)
	yearRe       = regexp.MustCompile(`\b\d{4}\b`)
)

// parseFuzzy finds a date and/or a clock time anywhere in s. Missing date
// parts come from now; a missing clock keeps whatever the date carried.
func parseFuzzy(s string, now time.Time) (time.Time, bool) {
	clock, hasClock := findClock(s)
	date, hasDate := findDate(s, now)
	switch {
	case hasDate && hasClock:
		return time.Date(date.Year(), date.Month(), date.Day(), clock.Hour, clock.Minute, 0, 0, now.Location()), true
	case hasDate:
		return time.Date(date.Year(), date.Month(), date.Day(), date.Hour(), date.Minute(), date.Second(), 0, now.Location()), true
	case hasClock:
		return time.Date(now.Year(), now.Month(), now.Day(), clock.Hour, clock.Minute, 0, 0, now.Location()), true
	}
	return time.Time{}, false
}

func findClock(s string) (Clock, bool) {
	for _, m := range fuzzyClockRe.FindAllStringSubmatch(s, -1) {
		var raw string
		if m[3] != "" {
			raw = m[1]
			if m[2] != "" {
				raw += ":" + m[2]
			}
			raw += m[3]
		} else {
			raw = m[4] + ":" + m[5]
		}
		if c, ok := ParseClock(raw); ok {
			return c, true
		}
	}
	return Clock{}, false
}

// findDate slides a window over the words of s and returns the first,
// longest run that parses as a calendar date.
func findDate(s string, now time.Time) (time.Time, bool) {
	words := strings.Fields(s)
	for i := range words {
		words[i] = strings.TrimRight(words[i], ".!?;")
	}
	for i := range words {
		if !dateStartRe.MatchString(words[i]) {
			continue
		}
		end := i + 1
		for end < len(words) && end < i+maxDateWindow && words[end] != "at" {
			end++
		}
		for j := end; j > i; j-- {
			if t, ok := parseDate(strings.Join(words[i:j], " "), now); ok {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func parseDate(candidate string, now time.Time) (time.Time, bool) {
	candidate = titleWords(strings.TrimRight(candidate, ","))
	var tries []string
	if !yearRe.MatchString(candidate) {
		year := strconv.Itoa(now.Year())
		tries = append(tries, candidate+", "+year, candidate+" "+year)
	}
	tries = append(tries, candidate)
	for _, c := range tries {
		t, err := dateparse.ParseIn(c, now.Location())
		if err != nil || t.IsZero() {
			continue
		}
		if t.Year() == 0 {
			t = time.Date(now.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, now.Location())
		}
		return t, true
	}
	return time.Time{}, false
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w[0] >= 'a' && w[0] <= 'z' {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
