// Package ctdlog parses ROV-CTD depth logs in both the raw loghost text
// dump form and the processed CSV form.
package ctdlog

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var (
	errMissingColumn = errors.New("column not found in log")
	errBadTimezone   = errors.New("malformed timezone offset")
)

// Pressure fields carry these markers when the sensor had nothing to
// publish.
var invalidPressure = map[string]bool{
	"NO_PUB":  true,
	"NO_PROV": true,
}

// Record is one depth reading keyed by its UTC timestamp.
type Record struct {
	// Timestamp is the match key. Raw logs take it from the
	// loghost_system_utc epoch column, processed logs from rovCtdDtg.
	Timestamp time.Time
	// Logged is the wall-clock time the loghost stamped on the raw line.
	// Zero for processed logs.
	Logged time.Time
	// Depth is the suffix-ready depth label, e.g. "120.5".
	Depth string
}

// Load reads a depth log, choosing the raw or processed parser.
func Load(path string, raw bool) ([]Record, error) {
	if raw {
		return ParseRawFile(path)
	}
	return ParseProcessedFile(path)
}

// ParseRawFile reads a raw loghost dump. The files come off the vehicle as
// UTF-16; older exports are latin-1.
func ParseRawFile(path string) ([]Record, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	text, err := decodeLogBytes(b)
	if err != nil {
		return nil, fmt.Errorf("decode log: %w", err)
	}
	return ParseRaw(text)
}

// ParseRaw parses the decoded text of a raw loghost dump. Lines beginning
// with #LOG declare the column order; data lines are ", " separated with
// year, yearday, time and timezone fields appended after the declared
// columns. Records with unpublished or non-positive pressure are dropped,
// and malformed lines are logged and skipped.
func ParseRaw(text string) ([]Record, error) {
	lines := strings.Split(text, "\n")

	var names []string
	for _, line := range lines {
		if strings.HasPrefix(line, "#LOG") {
			parts := strings.Fields(line)
			if len(parts) < 2 {
				continue
			}
			name := strings.ToLower(strings.ReplaceAll(parts[1], ".", "_"))
			names = append(names, name)
		}
	}

	utcIdx, err := columnIndex(names, "loghost_system_utc")
	if err != nil {
		return nil, err
	}
	ctdPressureIdx, err := columnIndex(names, "rov_ctd_pressure")
	if err != nil {
		return nil, err
	}
	pressureIdx, err := columnIndex(names, "rov_pressure")
	if err != nil {
		return nil, err
	}

	// The loghost appends the wall-clock fields after the declared columns.
	yearIdx := len(names)
	minFields := len(names) + 4

	var records []Record
	var badLines int
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ", ")
		if len(fields) < minFields {
			badLines++
			log.WithField("line", line).Debug("Skipping short log line")
			continue
		}

		ctdPressure := strings.TrimSpace(fields[ctdPressureIdx])
		pressure := strings.TrimSpace(fields[pressureIdx])
		if invalidPressure[ctdPressure] || invalidPressure[pressure] {
			continue
		}
		p, err := strconv.ParseFloat(pressure, 64)
		if err != nil || p <= 0 {
			continue
		}

		epoch, err := strconv.ParseFloat(strings.TrimSpace(fields[utcIdx]), 64)
		if err != nil {
			badLines++
			log.WithFields(log.Fields{"line": line, "error": err}).Debug("Skipping line with bad UTC epoch")
			continue
		}

		rec := Record{
			Timestamp: time.Unix(int64(epoch), int64((epoch-float64(int64(epoch)))*1e9)).UTC(),
			Depth:     ctdPressure,
		}

		logged, err := ParseLogDate(fields[yearIdx], fields[yearIdx+1], fields[yearIdx+2], fields[yearIdx+3])
		if err != nil {
			log.WithFields(log.Fields{"line": line, "error": err}).Debug("Log line has unparseable wall clock")
		} else {
			rec.Logged = logged
		}

		records = append(records, rec)
	}

	if badLines > 0 {
		log.WithField("count", badLines).Warn("Skipped malformed log lines")
	}
	return records, nil
}

// ParseLogDate parses the loghost wall-clock fields: a year, a day of year,
// an HH:MM:SS time and a numeric UTC offset like +00:00 or -0700.
func ParseLogDate(year, yearday, timeString, timezone string) (time.Time, error) {
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil {
		return time.Time{}, fmt.Errorf("year %q: %w", year, err)
	}
	yd, err := strconv.Atoi(strings.TrimSpace(yearday))
	if err != nil {
		return time.Time{}, fmt.Errorf("yearday %q: %w", yearday, err)
	}

	clock, err := time.Parse("15:04:05", strings.TrimSpace(timeString))
	if err != nil {
		return time.Time{}, fmt.Errorf("time %q: %w", timeString, err)
	}

	loc, err := parseOffset(strings.TrimSpace(timezone))
	if err != nil {
		return time.Time{}, err
	}

	t := time.Date(y, time.January, 1, clock.Hour(), clock.Minute(), clock.Second(), 0, loc)
	return t.AddDate(0, 0, yd-1), nil
}

// ParseProcessedFile reads the processed CSV form of the log: a header row
// with at least rovCtdDtg (MM/DD/YYYY HH:MM:SS, GMT) and depth columns.
func ParseProcessedFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read log csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	dtgIdx, err := columnIndex(header, "rovCtdDtg")
	if err != nil {
		return nil, err
	}
	depthIdx, err := columnIndex(header, "depth")
	if err != nil {
		return nil, err
	}

	var records []Record
	for _, row := range rows[1:] {
		if len(row) <= dtgIdx || len(row) <= depthIdx {
			log.WithField("row", row).Debug("Skipping short CSV row")
			continue
		}
		ts, err := time.ParseInLocation("01/02/2006 15:04:05", strings.TrimSpace(row[dtgIdx]), time.UTC)
		if err != nil {
			log.WithFields(log.Fields{"value": row[dtgIdx], "error": err}).Debug("Skipping row with bad rovCtdDtg")
			continue
		}
		records = append(records, Record{
			Timestamp: ts,
			Depth:     strings.TrimSpace(row[depthIdx]),
		})
	}
	return records, nil
}

func columnIndex(names []string, want string) (int, error) {
	for i, name := range names {
		if strings.TrimSpace(name) == want {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", errMissingColumn, want)
}

// parseOffset turns +HH, +HHMM or +HH:MM into a fixed zone.
func parseOffset(s string) (*time.Location, error) {
	if len(s) < 3 || (s[0] != '+' && s[0] != '-') {
		return nil, fmt.Errorf("%w: %q", errBadTimezone, s)
	}
	sign := 1
	if s[0] == '-' {
		sign = -1
	}
	rest := strings.ReplaceAll(s[1:], ":", "")
	if len(rest) != 2 && len(rest) != 4 {
		return nil, fmt.Errorf("%w: %q", errBadTimezone, s)
	}
	hours, err := strconv.Atoi(rest[:2])
	if err != nil {
		return nil, fmt.Errorf("%w: %q", errBadTimezone, s)
	}
	minutes := 0
	if len(rest) == 4 {
		minutes, err = strconv.Atoi(rest[2:])
		if err != nil {
			return nil, fmt.Errorf("%w: %q", errBadTimezone, s)
		}
	}
	offset := sign * (hours*3600 + minutes*60)
	if offset == 0 {
		return time.UTC, nil
	}
	return time.FixedZone(s, offset), nil
}

// decodeLogBytes sniffs the encoding of a raw dump. A UTF-16 byte order
// mark or embedded NULs mean UTF-16; anything else is treated as latin-1.
func decodeLogBytes(b []byte) (string, error) {
	utf16 := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)

	if bytes.HasPrefix(b, []byte{0xFF, 0xFE}) || bytes.HasPrefix(b, []byte{0xFE, 0xFF}) {
		out, err := utf16.NewDecoder().Bytes(b)
		return string(out), err
	}

	window := b
	if len(window) > 4096 {
		window = window[:4096]
	}
	if bytes.IndexByte(window, 0) >= 0 {
		out, err := utf16.NewDecoder().Bytes(b)
		return string(out), err
	}

	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	return string(out), err
}
