// Package timeparse turns free-text reminder requests into an absolute time
// and the remaining reminder text.
package timeparse

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type Kind int

const (
	KindRelativeOffset Kind = iota + 1
	KindTomorrow
	KindWeekday
	KindGenericPhrase
)

func (k Kind) String() string {
	switch k {
	case KindRelativeOffset:
		return "relative_offset"
	case KindTomorrow:
		return "tomorrow"
	case KindWeekday:
		return "weekday"
	case KindGenericPhrase:
		return "generic_phrase"
	}
	return "unknown"
}

// Match is the structured result of a single matcher.
type Match struct {
	Kind   Kind
	At     time.Time
	Phrase string
}

// Matcher recognises one class of time phrase. Input is already lower-cased.
type Matcher interface {
	Kind() Kind
	Match(lower string, now time.Time) (Match, bool)
}

// Resolver tries its matchers in order; the first match wins.
type Resolver struct {
	matchers []Matcher
}

func NewResolver(matchers ...Matcher) *Resolver {
	if len(matchers) == 0 {
		matchers = DefaultMatchers()
	}
	return &Resolver{matchers: matchers}
}

// DefaultMatchers returns the standard precedence: relative offsets, tomorrow,
// weekday names, then the generic on/at phrase.
func DefaultMatchers() []Matcher {
	return []Matcher{RelativeOffset{}, Tomorrow{}, Weekday{}, GenericPhrase{}}
}

func (r *Resolver) Match(text string, now time.Time) (Match, bool) {
	lower := strings.ToLower(text)
	for _, m := range r.matchers {
		if res, ok := m.Match(lower, now); ok {
			return res, true
		}
	}
	return Match{}, false
}

func (r *Resolver) Resolve(text string, now time.Time) (time.Time, bool) {
	m, ok := r.Match(text, now)
	if !ok {
		return time.Time{}, false
	}
	return m.At, true
}

var defaultResolver = NewResolver()

// Resolve uses the default matcher precedence.
func Resolve(text string, now time.Time) (time.Time, bool) {
	return defaultResolver.Resolve(text, now)
}

type relativeUnit struct {
	re   *regexp.Regexp
	unit time.Duration
}

var relativeUnits = []relativeUnit{
	{regexp.MustCompile(`\bin (\d+) min(?:ute)?s?\b`), time.Minute},
	{regexp.MustCompile(`\bin (\d+) hours?\b`), time.Hour},
	{regexp.MustCompile(`\bin (\d+) days?\b`), 24 * time.Hour},
	{regexp.MustCompile(`\bin (\d+) weeks?\b`), 7 * 24 * time.Hour},
}

// RelativeOffset handles "in N minutes|hours|days|weeks".
type RelativeOffset struct{}

func (RelativeOffset) Kind() Kind { return KindRelativeOffset }

func (RelativeOffset) Match(lower string, now time.Time) (Match, bool) {
	for _, u := range relativeUnits {
		m := u.re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil || n > math.MaxInt64/int64(u.unit) {
			continue
		}
		return Match{Kind: KindRelativeOffset, At: now.Add(time.Duration(n) * u.unit), Phrase: m[0]}, true
	}
	return Match{}, false
}

// Tomorrow handles "tomorrow" with an optional "at <time>" clause.
type Tomorrow struct{}

func (Tomorrow) Kind() Kind { return KindTomorrow }

func (Tomorrow) Match(lower string, now time.Time) (Match, bool) {
	if !strings.Contains(lower, "tomorrow") {
		return Match{}, false
	}
	c := clockOrDefault(atClock(lower))
	at := time.Date(now.Year(), now.Month(), now.Day()+1, c.Hour, c.Minute, 0, 0, now.Location())
	return Match{Kind: KindTomorrow, At: at, Phrase: "tomorrow"}, true
}

var weekdays = []struct {
	name string
	day  time.Weekday
}{
	{"monday", time.Monday},
	{"tuesday", time.Tuesday},
	{"wednesday", time.Wednesday},
	{"thursday", time.Thursday},
	{"friday", time.Friday},
	{"saturday", time.Saturday},
	{"sunday", time.Sunday},
}

// Weekday handles weekday names. The result is always strictly after today.
type Weekday struct{}

func (Weekday) Kind() Kind { return KindWeekday }

func (Weekday) Match(lower string, now time.Time) (Match, bool) {
	for _, wd := range weekdays {
		if !strings.Contains(lower, wd.name) {
			continue
		}
		ahead := NextWeekdayOffset(now.Weekday(), wd.day)
		c := clockOrDefault(atClock(lower))
		at := time.Date(now.Year(), now.Month(), now.Day()+ahead, c.Hour, c.Minute, 0, 0, now.Location())
		return Match{Kind: KindWeekday, At: at, Phrase: wd.name}, true
	}
	return Match{}, false
}

// NextWeekdayOffset returns how many days ahead target falls, in 1..7.
func NextWeekdayOffset(today, target time.Weekday) int {
	ahead := (int(target) - int(today) + 7) % 7
	if ahead == 0 {
		ahead = 7
	}
	return ahead
}

var genericRe = regexp.MustCompile(`\b(?:on|at)\s+(.+)`)

// GenericPhrase parses whatever follows the first "on" or "at". The result
// may lie in the past.
type GenericPhrase struct{}

func (GenericPhrase) Kind() Kind { return KindGenericPhrase }

func (GenericPhrase) Match(lower string, now time.Time) (Match, bool) {
	m := genericRe.FindStringSubmatch(lower)
	if m == nil {
		return Match{}, false
	}
	at, ok := parseFuzzy(m[1], now)
	if !ok {
		return Match{}, false
	}
	return Match{Kind: KindGenericPhrase, At: at, Phrase: m[0]}, true
}
