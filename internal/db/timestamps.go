package db

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the storage layout for every timestamp column.
const TimestampLayout = "2006-01-02 15:04:05"

// parseLayouts covers the storage layout, driver-rendered times and
// date-only input.
var parseLayouts = []string{
	TimestampLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02",
}

// FormatTimestamp renders t in UTC at whole-second precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(TimestampLayout)
}

// ParseTimestamp parses any supported layout. Values without a zone are UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q: unsupported layout", s)
}
