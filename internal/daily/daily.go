// Package daily buckets finished sessions into UTC calendar days.
package daily

import (
	"fmt"
	"time"
)

const layout = "2006-01-02"

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format(layout)
}

// ParseDateKey validates a YYYY-MM-DD key and returns it normalized.
// An empty key means today (per now).
func ParseDateKey(key string, now time.Time) (string, error) {
	if key == "" {
		return DateKey(now), nil
	}
	t, err := time.Parse(layout, key)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: want YYYY-MM-DD", key)
	}
	return DateKey(t), nil
}
