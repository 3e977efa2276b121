// Package timeutil normalizes the timestamp formats exported by Gradescope and
// Canvas into UTC instants. Nothing in here returns an error: unparsable or
// placeholder values come back as an invalid null.Time.
package timeutil

import (
	"strconv"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"
)

const (
	// ISOLayout is what Canvas emits and what the store keeps normalized rows in.
	ISOLayout = "2006-01-02T15:04:05Z"
	// SubmissionLayout is the Gradescope "Submission Time" export format.
	SubmissionLayout = "2006-01-02 15:04:05 -0700"
	// ExtensionLayout is the Gradescope extension export format (local time).
	ExtensionLayout = "Jan 02 2006 03:04 PM"
)

// layouts tried by Parse, in order.
var layouts = []string{
	ISOLayout,
	time.RFC3339Nano,
	SubmissionLayout,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// sentinels that mean "no value" in platform exports.
var sentinels = map[string]struct{}{
	"":                 {},
	"--":               {},
	"(no change)":      {},
	"no late due date": {},
	"nat":              {},
	"none":             {},
	"null":             {},
}

// IsSentinel reports whether s is a placeholder rather than a timestamp.
func IsSentinel(s string) bool {
	_, ok := sentinels[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// Parse normalizes s to UTC. Layouts without an offset are read as UTC.
func Parse(s string) null.Time {
	return ParseIn(s, time.UTC, layouts...)
}

// ParseNull is Parse for a nullable column.
func ParseNull(s null.String) null.Time {
	if !s.Valid {
		return null.Time{}
	}
	return Parse(s.String)
}

// ParseIn tries each layout with loc as the zone for offset-less values.
func ParseIn(s string, loc *time.Location, layouts ...string) null.Time {
	if IsSentinel(s) {
		return null.Time{}
	}
	if loc == nil {
		loc = time.UTC
	}
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return null.TimeFrom(t.UTC())
		}
	}
	return null.Time{}
}

// ParseExtension reads a Gradescope extension date in the given zone.
func ParseExtension(s null.String, loc *time.Location) null.Time {
	if !s.Valid {
		return null.Time{}
	}
	return ParseIn(s.String, loc, ExtensionLayout, "Jan 2 2006 03:04 PM", "Jan 2 2006 3:04 PM")
}

// ParseLateness reads an "H:M:S" duration. Hours may exceed 24.
func ParseLateness(s string) (time.Duration, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, false
	}
	var total time.Duration
	units := []time.Duration{time.Hour, time.Minute, time.Second}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, false
		}
		total += time.Duration(n) * units[i]
	}
	return total, true
}

// Before orders null values first.
func Before(a, b null.Time) bool {
	switch {
	case !a.Valid && !b.Valid:
		return false
	case !a.Valid:
		return true
	case !b.Valid:
		return false
	}
	return a.Time.Before(b.Time)
}
