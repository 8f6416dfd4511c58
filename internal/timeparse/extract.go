package timeparse

import (
	"regexp"
	"strings"
)

var (
	triggerRe       = regexp.MustCompile(`(?i)\bremind me\b(?:\s+(?:to|about)\b)?\s*`)
	relativeStripRe = regexp.MustCompile(`(?i)\bin \d+ (?:min(?:ute)?s?|hours?|days?|weeks?)\b`)
	dayStripRe      = regexp.MustCompile(`(?i)(?:\btomorrow\b|\bon \w+)\s*(?:at \d+(?::\d+)?\s*(?:am|pm)?)?`)
	spaceRe         = regexp.MustCompile(`\s+`)
)

// Extract strips the trigger phrase and the relative, tomorrow and "on <word>"
// time phrases from text. Generic date phrases are left in place. The result
// may be empty.
func Extract(text string) string {
	s := relativeStripRe.ReplaceAllString(text, "")
	s = dayStripRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
	s = triggerRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
