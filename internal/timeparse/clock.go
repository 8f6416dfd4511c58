package timeparse

import (
	"regexp"
	"strconv"
	"strings"
)

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
}

// DefaultClock applies when a day phrase carries no usable "at" clause.
var DefaultClock = Clock{Hour: 9}

var (
	clockRe    = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)
	atClauseRe = regexp.MustCompile(`\bat (\d+(?::\d+)?\s*(?:am|pm)?)`)
)

// ParseClock reads "3pm", "3:30 pm", "15:45" or a bare hour such as "15".
func ParseClock(s string) (Clock, bool) {
	m := clockRe.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return Clock{}, false
	}
	h, _ := strconv.Atoi(m[1])
	min := 0
	if m[2] != "" {
		min, _ = strconv.Atoi(m[2])
	}
	switch m[3] {
	case "am":
		if h < 1 || h > 12 {
			return Clock{}, false
		}
		if h == 12 {
			h = 0
		}
	case "pm":
		if h < 1 || h > 12 {
			return Clock{}, false
		}
		if h != 12 {
			h += 12
		}
	}
	if h > 23 || min > 59 {
		return Clock{}, false
	}
	return Clock{Hour: h, Minute: min}, true
}

// atClock returns the clock of the first "at <time>" clause in lower.
func atClock(lower string) (Clock, bool) {
	m := atClauseRe.FindStringSubmatch(lower)
	if m == nil {
		return Clock{}, false
	}
	return ParseClock(m[1])
}

func clockOrDefault(c Clock, ok bool) Clock {
	if !ok {
		return DefaultClock
	}
	return c
}
