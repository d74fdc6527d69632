package daily

import (
	"testing"
	"time"
)

func TestDateKeyUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	ts := time.Date(2024, 3, 2, 5, 0, 0, 0, loc) // 2024-03-01 19:00 UTC
	if got := DateKey(ts); got != "2024-03-01" {
		t.Fatalf("DateKey = %q", got)
	}
}

func TestParseDateKey(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	got, err := ParseDateKey("", now)
	if err != nil || got != "2024-03-01" {
		t.Fatalf("empty key: %q, %v", got, err)
	}
	got, err = ParseDateKey("2023-12-31", now)
	if err != nil || got != "2023-12-31" {
		t.Fatalf("explicit key: %q, %v", got, err)
	}
	for _, bad := range []string{"2023-13-01", "yesterday", "2023/12/31"} {
		if _, err := ParseDateKey(bad, now); err == nil {
			t.Errorf("ParseDateKey(%q) should fail", bad)
		}
	}
}
