package timeparse

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2024-01-01 is a Monday.
var monday = time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local)

func at(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.Local)
}

func TestResolveRelativeOffsets(t *testing.T) {
	units := []struct {
		words []string
		unit  time.Duration
	}{
		{[]string{"min", "mins", "minute", "minutes"}, time.Minute},
		{[]string{"hour", "hours"}, time.Hour},
		{[]string{"day", "days"}, 24 * time.Hour},
		{[]string{"week", "weeks"}, 7 * 24 * time.Hour},
	}
	for _, u := range units {
		for _, word := range u.words {
			for _, n := range []int{0, 1, 2, 45, 1000} {
				text := fmt.Sprintf("remind me to stretch in %d %s", n, word)
				got, ok := Resolve(text, monday)
				require.True(t, ok, text)
				assert.True(t, got.Equal(monday.Add(time.Duration(n)*u.unit)), "%s: got %v", text, got)
			}
		}
	}
}

func TestResolveRelativeIsCaseInsensitive(t *testing.T) {
	got, ok := Resolve("Remind me IN 3 HOURS to stand up", monday)
	require.True(t, ok)
	assert.Equal(t, monday.Add(3*time.Hour), got)
}

func TestResolveRelativeUnitOrder(t *testing.T) {
	// minutes are checked before hours regardless of position in the text
	got, ok := Resolve("in 2 hours or in 10 minutes", monday)
	require.True(t, ok)
	assert.Equal(t, monday.Add(10*time.Minute), got)
}

func TestResolveRelativeOverflowIsUnresolved(t *testing.T) {
	_, ok := Resolve("in 99999999999999999999 weeks", monday)
	assert.False(t, ok)

	_, ok = Resolve("in 9223372036854775807 weeks", monday)
	assert.False(t, ok)
}

func TestResolveNegativeIsUnresolved(t *testing.T) {
	_, ok := Resolve("in -5 minutes", monday)
	assert.False(t, ok)
}

func TestResolveScenarios(t *testing.T) {
	got, ok := Resolve("remind me in 2 hours to call mom", monday)
	require.True(t, ok)
	assert.Equal(t, at(2024, 1, 1, 12, 0), got)

	got, ok = Resolve("remind me tomorrow at 3pm to pay rent", time.Date(2024, 1, 1, 8, 0, 0, 0, time.Local))
	require.True(t, ok)
	assert.Equal(t, at(2024, 1, 2, 15, 0), got)
}

func TestResolveTomorrow(t *testing.T) {
	cases := map[string]time.Time{
		"tomorrow":                    at(2024, 1, 2, 9, 0),
		"call mom tomorrow at 3:30pm": at(2024, 1, 2, 15, 30),
		"tomorrow at 3:30 pm":         at(2024, 1, 2, 15, 30),
		"tomorrow at 18:05":           at(2024, 1, 2, 18, 5),
		"tomorrow at 7":               at(2024, 1, 2, 7, 0),
		"tomorrow at 12am":            at(2024, 1, 2, 0, 0),
		"tomorrow at 12pm":            at(2024, 1, 2, 12, 0),
		"tomorrow at 25":              at(2024, 1, 2, 9, 0),
		"tomorrow at 13pm":            at(2024, 1, 2, 9, 0),
		"tomorrow at 9:75":            at(2024, 1, 2, 9, 0),
	}
	for text, want := range cases {
		got, ok := Resolve(text, monday)
		require.True(t, ok, text)
		assert.Equal(t, want, got, text)
	}
}

func TestResolveTomorrowCrossesMonthEnd(t *testing.T) {
	now := time.Date(2024, 2, 29, 22, 15, 30, 0, time.Local)
	got, ok := Resolve("tomorrow", now)
	require.True(t, ok)
	assert.Equal(t, at(2024, 3, 1, 9, 0), got)
}

func TestResolveWeekdayNeverToday(t *testing.T) {
	got, ok := Resolve("on monday", monday)
	require.True(t, ok)
	assert.Equal(t, at(2024, 1, 8, 9, 0), got)

	got, ok = Resolve("remind me to exercise on Friday at 6am", monday)
	require.True(t, ok)
	assert.Equal(t, at(2024, 1, 5, 6, 0), got)

	got, ok = Resolve("sunday", monday)
	require.True(t, ok)
	assert.Equal(t, at(2024, 1, 7, 9, 0), got)
}

func TestNextWeekdayOffset(t *testing.T) {
	for today := time.Sunday; today <= time.Saturday; today++ {
		for target := time.Sunday; target <= time.Saturday; target++ {
			off := NextWeekdayOffset(today, target)
			assert.GreaterOrEqual(t, off, 1)
			assert.LessOrEqual(t, off, 7)
			assert.Equal(t, target, time.Weekday((int(today)+off)%7))
		}
	}
}

func TestResolvePrecedence(t *testing.T) {
	m, ok := NewResolver().Match("remind me tomorrow in 2 hours", monday)
	require.True(t, ok)
	assert.Equal(t, KindRelativeOffset, m.Kind)

	m, ok = NewResolver().Match("tomorrow, not friday", monday)
	require.True(t, ok)
	assert.Equal(t, KindTomorrow, m.Kind)

	m, ok = NewResolver().Match("on friday at 5pm", monday)
	require.True(t, ok)
	assert.Equal(t, KindWeekday, m.Kind)

	m, ok = NewResolver().Match("at 5pm", monday)
	require.True(t, ok)
	assert.Equal(t, KindGenericPhrase, m.Kind)
}

func TestResolveGenericPhrase(t *testing.T) {
	got, ok := Resolve("remind me to stretch at 5pm", monday)
	require.True(t, ok)
	assert.Equal(t, at(2024, 1, 1, 17, 0), got)

	got, ok = Resolve("file taxes on 2024-03-05", monday)
	require.True(t, ok)
	assert.Equal(t, at(2024, 3, 5, 0, 0), got)

	got, ok = Resolve("file taxes on 2024-03-05 at 2:30pm", monday)
	require.True(t, ok)
	assert.Equal(t, at(2024, 3, 5, 14, 30), got)

	got, ok = Resolve("dentist on jan 15 at 2pm", monday)
	require.True(t, ok)
	assert.Equal(t, at(2024, 1, 15, 14, 0), got)
}

func TestResolveGenericPhraseMayBeInPast(t *testing.T) {
	got, ok := Resolve("at 5am", monday)
	require.True(t, ok)
	assert.True(t, got.Before(monday))
}

func TestResolveUnresolved(t *testing.T) {
	for _, text := range []string{
		"",
		"buy milk",
		"remind me to work on it",
		"look at this",
		"in a while",
	} {
		_, ok := Resolve(text, monday)
		assert.False(t, ok, text)
	}
}

func TestResolverCustomMatchers(t *testing.T) {
	r := NewResolver(Weekday{})
	_, ok := r.Resolve("in 2 hours", monday)
	assert.False(t, ok)

	got, ok := r.Resolve("friday", monday)
	require.True(t, ok)
	assert.Equal(t, at(2024, 1, 5, 9, 0), got)
}

func TestParseClock(t *testing.T) {
	cases := map[string]Clock{
		"3pm":     {15, 0},
		"3 PM":    {15, 0},
		"11:45am": {11, 45},
		"00:10":   {0, 10},
		"23":      {23, 0},
	}
	for in, want := range cases {
		got, ok := ParseClock(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "24", "0am", "13pm", "7:60", "noon", "300"} {
		_, ok := ParseClock(in)
		assert.False(t, ok, in)
	}
}
