package depthmatch_test

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cfelab/isiis-prep/internal/ctdlog"
	"github.com/cfelab/isiis-prep/internal/depthmatch"
	"github.com/cfelab/isiis-prep/internal/isiis"
)

func at(sec int) time.Time {
	return time.Date(2024, time.August, 21, 15, 0, 0, 0, time.UTC).Add(time.Duration(sec) * time.Second)
}

func TestNearestPicksClosestRecord(t *testing.T) {
	records := []ctdlog.Record{
		{Timestamp: at(0), Depth: "100.0"},
		{Timestamp: at(10), Depth: "101.0"},
		{Timestamp: at(20), Depth: "102.0"},
	}
	frames := []isiis.Frame{
		{Path: "a.jpg", Timestamp: at(11)},
		{Path: "b.jpg", Timestamp: at(4)},
	}

	matches := depthmatch.Nearest(records, frames, depthmatch.Options{Threshold: 8 * time.Second})
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Record.Depth != "101.0" {
		t.Fatalf("a.jpg matched depth %q", matches[0].Record.Depth)
	}
	if matches[1].Record.Depth != "100.0" {
		t.Fatalf("b.jpg matched depth %q", matches[1].Record.Depth)
	}
	if matches[1].Delta != -4*time.Second {
		t.Fatalf("unexpected delta: %v", matches[1].Delta)
	}
}

func TestNearestAppliesClockOffset(t *testing.T) {
	records := []ctdlog.Record{
		{Timestamp: at(0), Depth: "100.0"},
	}
	// The instrument clock runs 69s behind, so a frame stamped at +69s was
	// really captured at +0s.
	frames := []isiis.Frame{
		{Path: "a.jpg", Timestamp: at(69)},
	}

	opts := depthmatch.Options{ClockOffset: -69 * time.Second, Threshold: 8 * time.Second}
	matches := depthmatch.Nearest(records, frames, opts)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}

	// Without the correction the frame is 69s away and out of tolerance.
	matches = depthmatch.Nearest(records, frames, depthmatch.Options{Threshold: 8 * time.Second})
	if len(matches) != 0 {
		t.Fatalf("expected no matches, got %d", len(matches))
	}
}

func TestNearestThresholdTruncatesToSeconds(t *testing.T) {
	records := []ctdlog.Record{
		{Timestamp: at(0), Depth: "100.0"},
	}
	frames := []isiis.Frame{
		{Path: "a.jpg", Timestamp: at(0).Add(8900 * time.Millisecond)},
		{Path: "b.jpg", Timestamp: at(0).Add(9100 * time.Millisecond)},
	}

	matches := depthmatch.Nearest(records, frames, depthmatch.Options{Threshold: 8 * time.Second})
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].Frame.Path != "a.jpg" {
		t.Fatalf("unexpected frame matched: %s", matches[0].Frame.Path)
	}
}

func TestNearestUnsortedRecords(t *testing.T) {
	records := []ctdlog.Record{
		{Timestamp: at(20), Depth: "102.0"},
		{Timestamp: at(0), Depth: "100.0"},
		{Timestamp: at(10), Depth: "101.0"},
	}
	frames := []isiis.Frame{{Path: "a.jpg", Timestamp: at(19)}}

	matches := depthmatch.Nearest(records, frames, depthmatch.Options{Threshold: 8 * time.Second})
	if len(matches) != 1 || matches[0].Record.Depth != "102.0" {
		t.Fatalf("unexpected matches: %+v", matches)
	}
}

func TestRenamerAppendsDepthSuffix(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "CFE_ISIIS-001-2024-08-21 14-30-00.000_0003.jpg")
	if err := os.WriteFile(path, []byte("jpg"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	matches := []depthmatch.Match{{
		Frame:  isiis.Frame{Path: path},
		Record: ctdlog.Record{Depth: "120.5"},
	}}

	renamed := depthmatch.Renamer{}.Apply(matches)
	if renamed != 1 {
		t.Fatalf("expected 1 rename, got %d", renamed)
	}
	want := filepath.Join(dir, "CFE_ISIIS-001-2024-08-21 14-30-00.000_0003_120.5m.jpg")
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("renamed file missing: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("original file still present: %v", err)
	}
}

func TestRenamerSkipsAnnotatedAndDryRun(t *testing.T) {
	dir := t.TempDir()
	annotated := filepath.Join(dir, "CFE_ISIIS-001_120.5m.jpg")
	plain := filepath.Join(dir, "CFE_ISIIS-002.jpg")
	for _, p := range []string{annotated, plain} {
		if err := os.WriteFile(p, []byte("jpg"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	matches := []depthmatch.Match{
		{Frame: isiis.Frame{Path: annotated}, Record: ctdlog.Record{Depth: "98.0"}},
		{Frame: isiis.Frame{Path: plain}, Record: ctdlog.Record{Depth: "98.0"}},
	}

	renamed := depthmatch.Renamer{DryRun: true}.Apply(matches)
	if renamed != 1 {
		t.Fatalf("expected 1 counted rename, got %d", renamed)
	}
	for _, p := range []string{annotated, plain} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("dry run moved %s: %v", p, err)
		}
	}
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matches.csv")
	matches := []depthmatch.Match{{
		Frame:  isiis.Frame{Path: "a.jpg", Timestamp: at(3)},
		Record: ctdlog.Record{Timestamp: at(0), Depth: "120.5"},
	}}

	if err := depthmatch.WriteReport(path, matches); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header and one row, got %d", len(rows))
	}
	if rows[1][2] != "120.5" || rows[1][3] != "a.jpg" {
		t.Fatalf("unexpected row: %v", rows[1])
	}
}
