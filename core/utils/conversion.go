package utils

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the layout stored timestamps are written in.
const TimestampLayout = "2006-01-02 15:04:05"

// Deref returns the value p points to, or the zero value of T when p is nil.
// It is used for JSON fields the remote API may send as null.
func Deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// JoinTags joins a tag list into the space separated form stored locally.
// Empty tags are skipped.
func JoinTags(tags []string) string {
	var b strings.Builder
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(tag)
	}
	return b.String()
}

// NormalizeTimestamp converts an ISO-8601 timestamp with offset into
// TimestampLayout in UTC, rounded to the nearest second. An empty input yields
// an empty result.
func NormalizeTimestamp(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return "", fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t.UTC().Round(time.Second).Format(TimestampLayout), nil
}
