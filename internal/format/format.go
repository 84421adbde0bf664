// Package format renders sizes, dates and structured output for humans and scripts.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/WillyV3/moodbi/internal/moodboard"
)

// Output formats accepted by Write.
const (
	Table = "table"
	JSON  = "json"
	YAML  = "yaml"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	moodboard.DueDateLayout,
}

// ParseTime accepts the timestamp shapes the backend emits, with or without a zone.
func ParseTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Date renders a backend timestamp as "Jan 2, 2006 15:04". Missing values
// render as "-" and unparseable ones are returned unchanged.
func Date(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	t, ok := ParseTime(value)
	if !ok {
		return value
	}
	return t.Format("Jan 2, 2006 15:04")
}

// DatePtr is Date for optional fields.
func DatePtr(value *string) string {
	if value == nil {
		return "-"
	}
	return Date(*value)
}

// Relative renders value relative to now, e.g. "3 hours ago".
func Relative(value string, now time.Time) string {
	t, ok := ParseTime(value)
	if !ok {
		return ""
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// Due renders a YYYY-MM-DD due date with its distance from today.
func Due(value string, now time.Time) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "no due date"
	}
	due, err := time.Parse(moodboard.DueDateLayout, value)
	if err != nil {
		return value
	}
	// Compare calendar days in UTC so DST shifts do not skew the count.
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	days := int(due.Sub(today).Hours() / 24)
	switch {
	case days == 0:
		return value + " (today)"
	case days == 1:
		return value + " (tomorrow)"
	case days > 1:
		return fmt.Sprintf("%s (in %d days)", value, days)
	case days == -1:
		return value + " (overdue by 1 day)"
	default:
		return fmt.Sprintf("%s (overdue by %d days)", value, -days)
	}
}

// Size renders a byte count, e.g. "1.5 KiB".
func Size(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}

// Write encodes v as JSON or YAML.
func Write(w io.Writer, format string, v any) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q (want %s, %s or %s)", format, Table, JSON, YAML)
	}
}

// Truncate shortens s to width runes, marking the cut with "...".
func Truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}
