package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// TimestampLayout is the canonical form of every normalized date field.
const TimestampLayout = "2006/01/02 15:04:05"

// minYear is the earliest year a parsed date may carry.
const minYear = 1000

var canonicalTimestamp = regexp.MustCompile(`^\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2}$`)

// Layouts dateparse does not cover, mostly short US forms with a 12-hour
// clock. Inputs are upper-cased and whitespace-collapsed before matching;
// month and weekday names match regardless of case.
var extraLayouts = []string{
	"2006/01/02 15:04",
	"2006/1/2 15:04:05",
	"2006/1/2 15:04",
	"1/2/06 3:04PM",
	"1/2/06 3:04 PM",
	"1/2/06 3PM",
	"1/2/06 15:04",
	"1/2/2006 3:04PM",
	"1/2/2006 3:04 PM",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3PM",
	"Jan 2, 2006 3:04PM",
	"Jan 2, 2006 3:04 PM",
	"Jan 2, 2006 AT 3:04 PM",
	"January 2, 2006 AT 3:04 PM",
	"January 2, 2006 3:04 PM",
	"Mon, Jan 2, 2006 3:04 PM",
	"Monday, January 2, 2006 3:04 PM",
	"Monday, January 2, 2006 AT 3:04 PM",
	"2 Jan 2006 15:04",
	"2 Jan 2006 3:04 PM",
}

// IsCanonicalTimestamp reports whether s is already YYYY/MM/DD HH:MM:SS.
func IsCanonicalTimestamp(s string) bool {
	return canonicalTimestamp.MatchString(s)
}

// CanonicalDate rewrites s into TimestampLayout. Values that cannot be read
// as a date, including a bare time of day, are returned unchanged with ok
// false. The wall clock time of the input is kept; any zone in the input is
// not converted.
func CanonicalDate(s string) (string, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s, false
	}
	if IsCanonicalTimestamp(trimmed) {
		return trimmed, true
	}

	folded := strings.Join(strings.Fields(strings.ToUpper(trimmed)), " ")
	for _, layout := range extraLayouts {
		if t, err := time.Parse(layout, folded); err == nil && hasDate(t) {
			return t.Format(TimestampLayout), true
		}
	}

	t, err := dateparse.ParseIn(trimmed, time.UTC)
	if err != nil || !hasDate(t) {
		return s, false
	}
	return t.Format(TimestampLayout), true
}

// hasDate rejects parses that carry no calendar date. dateparse reads a
// bare "9:00am" as year 0 with the hour in the month slot.
func hasDate(t time.Time) bool {
	return t.Year() >= minYear
}
