package scheduling

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// layouts accepted for free-form timestamp arguments; values without a
// zone are read as UTC.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseInstant accepts an ISO-8601 date-time or a chat timestamp token
// such as <t:1704067200:F> and returns the instant in UTC.
func ParseInstant(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	if t, ok := parseToken(v); ok {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: failed to parse %q", ErrInvalidTimestamp, value)
}

// parseToken reads <t:EPOCH> and <t:EPOCH:STYLE>.
func parseToken(v string) (time.Time, bool) {
	if !strings.HasPrefix(v, "<t:") || !strings.HasSuffix(v, ">") {
		return time.Time{}, false
	}
	body := strings.TrimSuffix(strings.TrimPrefix(v, "<t:"), ">")
	if i := strings.IndexByte(body, ':'); i >= 0 {
		body = body[:i]
	}
	secs, err := strconv.ParseInt(body, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(secs, 0).UTC(), true
}

// parseSlotValue reads the value carried by a slot option.
func parseSlotValue(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, raw)
	}
	return t.UTC(), nil
}

// slotValue is the inverse of parseSlotValue.
func slotValue(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
