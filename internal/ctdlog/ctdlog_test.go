package ctdlog_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/encoding/unicode"

	"github.com/cfelab/isiis-prep/internal/ctdlog"
)

const rawLog = `#HEADER rovctd
#LOG LOGHOST.SYSTEM.UTC seconds
#LOG ROV.CTD.PRESSURE dbar
#LOG ROV.PRESSURE dbar
#LOG ROV.POSITION.LAT deg
#LOG ROV.POSITION.LON deg
1724254496, 120.5, 121.0, 36.7123, -122.0456, 2024, 234, 15:34:56, +00:00
1724254497, NO_PUB, 121.0, 36.7123, -122.0456, 2024, 234, 15:34:57, +00:00
1724254498, 118.2, NO_PROV, 36.7123, -122.0456, 2024, 234, 15:34:58, +00:00
1724254499, 117.9, -1.0, 36.7123, -122.0456, 2024, 234, 15:34:59, +00:00
1724254500, 117.5, 118.0, 36.7123, -122.0456, 2024, 234, 15:35:00, +00:00
garbage line
`

func TestParseRawFiltersAndParses(t *testing.T) {
	records, err := ctdlog.ParseRaw(rawLog)
	if err != nil {
		t.Fatalf("ParseRaw: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records after filtering, got %d", len(records))
	}

	want := time.Date(2024, time.August, 21, 15, 34, 56, 0, time.UTC)
	if !records[0].Timestamp.Equal(want) {
		t.Fatalf("unexpected timestamp: got %v want %v", records[0].Timestamp, want)
	}
	if records[0].Depth != "120.5" {
		t.Fatalf("unexpected depth: %q", records[0].Depth)
	}
	if !records[0].Logged.Equal(want) {
		t.Fatalf("unexpected wall clock: got %v want %v", records[0].Logged, want)
	}
	if records[1].Depth != "117.5" {
		t.Fatalf("unexpected second depth: %q", records[1].Depth)
	}
}

func TestParseRawMissingColumn(t *testing.T) {
	_, err := ctdlog.ParseRaw("#LOG ROV.PRESSURE dbar\n1, 2, 2024, 1, 00:00:00, +00\n")
	if err == nil || !strings.Contains(err.Error(), "loghost_system_utc") {
		t.Fatalf("expected missing column error, got %v", err)
	}
}

func TestParseRawFileUTF16(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	encoded, err := enc.Bytes([]byte(rawLog))
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	path := filepath.Join(t.TempDir(), "rovctd-data-20240821.txt")
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	records, err := ctdlog.ParseRawFile(path)
	if err != nil {
		t.Fatalf("ParseRawFile: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}

func TestParseRawFileLatin1(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rovctd-data-20240821.txt")
	if err := os.WriteFile(path, []byte(rawLog), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	records, err := ctdlog.ParseRawFile(path)
	if err != nil {
		t.Fatalf("ParseRawFile: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}

func TestParseLogDate(t *testing.T) {
	got, err := ctdlog.ParseLogDate("2024", "234", "15:34:56", "+00:00")
	if err != nil {
		t.Fatalf("ParseLogDate: %v", err)
	}
	want := time.Date(2024, time.August, 21, 15, 34, 56, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}

	got, err = ctdlog.ParseLogDate("2024", "001", "08:00:00", "-0700")
	if err != nil {
		t.Fatalf("ParseLogDate with offset: %v", err)
	}
	want = time.Date(2024, time.January, 1, 15, 0, 0, 0, time.UTC)
	if !got.UTC().Equal(want) {
		t.Fatalf("got %v want %v", got.UTC(), want)
	}

	if _, err := ctdlog.ParseLogDate("2024", "234", "15:34:56", "PDT"); err == nil {
		t.Fatal("expected error for named timezone")
	}
}

func TestParseProcessedFile(t *testing.T) {
	body := "rovCtdDtg,usec,depth\n" +
		"08/21/2024 15:34:56,0,120.5\n" +
		"08/21/2024 15:34:57,0,119.8\n" +
		"not a date,0,5\n"
	path := filepath.Join(t.TempDir(), "rovctd.csv")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	records, err := ctdlog.ParseProcessedFile(path)
	if err != nil {
		t.Fatalf("ParseProcessedFile: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	want := time.Date(2024, time.August, 21, 15, 34, 56, 0, time.UTC)
	if !records[0].Timestamp.Equal(want) {
		t.Fatalf("unexpected timestamp: got %v want %v", records[0].Timestamp, want)
	}
	if records[1].Depth != "119.8" {
		t.Fatalf("unexpected depth: %q", records[1].Depth)
	}
}
