package isiis_test

import (
	"errors"
	"testing"
	"time"

	"github.com/cfelab/isiis-prep/internal/isiis"
)

func losAngeles(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func TestParseFrameName(t *testing.T) {
	loc := losAngeles(t)

	frame, err := isiis.ParseFrameName("/data/dive/CFE_ISIIS-001-2024-08-21 14-30-00.000_0003.jpg", loc)
	if err != nil {
		t.Fatalf("ParseFrameName: %v", err)
	}
	if frame.Instrument != "ISIIS" {
		t.Fatalf("unexpected instrument: %q", frame.Instrument)
	}
	// 14:30:00 PDT plus 3 frame seconds is 21:30:03 UTC.
	want := time.Date(2024, time.August, 21, 21, 30, 3, 0, time.UTC)
	if !frame.Timestamp.Equal(want) {
		t.Fatalf("unexpected timestamp: got %v want %v", frame.Timestamp, want)
	}
}

func TestParseFrameNameMilliseconds(t *testing.T) {
	loc := losAngeles(t)

	frame, err := isiis.ParseFrameName("CFE_ISIIS-002-2024-01-15 08-00-01.250_0000.jpg", loc)
	if err != nil {
		t.Fatalf("ParseFrameName: %v", err)
	}
	// 08:00:01.250 PST is 16:00:01.250 UTC.
	want := time.Date(2024, time.January, 15, 16, 0, 1, 250000000, time.UTC)
	if !frame.Timestamp.Equal(want) {
		t.Fatalf("unexpected timestamp: got %v want %v", frame.Timestamp, want)
	}
}

func TestParseFrameNameRejectsOtherNames(t *testing.T) {
	loc := losAngeles(t)

	for _, name := range []string{
		"IMG_1234.jpg",
		"CFE_ISIIS.jpg",
		"CFE_ISIIS-001-2024-08-21.jpg",
	} {
		_, err := isiis.ParseFrameName(name, loc)
		if !errors.Is(err, isiis.ErrNoTimestamp) {
			t.Fatalf("%s: expected ErrNoTimestamp, got %v", name, err)
		}
	}
}
