package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestWindowStart(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 37, 500, time.UTC)
	got := WindowStart(ts, time.Minute)
	want := time.Date(2024, 10, 10, 10, 10, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	if !WindowStart(want, time.Minute).Equal(want) {
		t.Fatalf("window start must be idempotent")
	}
}

func TestWindowEnd(t *testing.T) {
	start := time.Date(2024, 10, 10, 10, 10, 0, 0, time.UTC)
	got := WindowEnd(start, 5*time.Minute)
	if !got.Equal(start.Add(5 * time.Minute)) {
		t.Fatalf("unexpected end %v", got)
	}
}
