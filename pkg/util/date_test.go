package util

import (
	"testing"
	"time"
)

func TestParseGameDateISO(t *testing.T) {
	got, err := ParseGameDate("2024-04-14", time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, time.April, 14, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestParseGameDateTimestampTruncates(t *testing.T) {
	loc := time.FixedZone("ET", -5*3600)
	got, err := ParseGameDate("2024-04-14T19:30:00", loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Hour() != 0 || got.Day() != 14 || got.Location() != loc {
		t.Fatalf("expected midnight in loc, got %v", got)
	}
}

func TestParseGameDateLongForm(t *testing.T) {
	got, err := ParseGameDate("Apr 14, 2024", time.UTC)
	if err != nil || got.Month() != time.April {
		t.Fatalf("unexpected result %v %v", got, err)
	}
}

func TestParseGameDateInvalid(t *testing.T) {
	for _, s := range []string{"", "   ", "yesterday"} {
		if _, err := ParseGameDate(s, time.UTC); err == nil {
			t.Fatalf("expected error for %q", s)
		}
	}
}

func TestLoadLocationDefault(t *testing.T) {
	if got := LoadLocationDefault("", time.UTC); got != time.UTC {
		t.Fatalf("expected default for empty name")
	}
	if got := LoadLocationDefault("Not/AZone", time.UTC); got != time.UTC {
		t.Fatalf("expected default for unknown zone")
	}
}

func TestParseID(t *testing.T) {
	if got, ok := ParseID(" 1610612747 "); !ok || got != 1610612747 {
		t.Fatalf("got %d %v", got, ok)
	}
	for _, s := range []string{"", "abc", "0", "-5", "12x"} {
		if _, ok := ParseID(s); ok {
			t.Fatalf("expected %q to be rejected", s)
		}
	}
}
