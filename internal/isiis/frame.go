// Package isiis derives capture timestamps for ISIIS still frames, from
// their filenames or, failing that, from the burned-in data banner.
package isiis

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/cfelab/isiis-prep/internal/scan"
)

// Frame filenames look like
// CFE_ISIIS-001-2024-08-21 14-30-00.000_0003.jpg: instrument, video
// number, capture start of the source video, and the frame's second offset
// into it.
var frameNameRE = regexp.MustCompile(`CFE_(.*?)-(\d+)-(\d{4}-\d{2}-\d{2} \d{2}-\d{2}-\d{2}\.\d{3})_(\d{4})`)

const startLayout = "2006-01-02 15-04-05.000"

var (
	// ErrNoTimestamp marks filenames the frame pattern does not match.
	ErrNoTimestamp = errors.New("filename does not carry a timestamp")

	errEmptyImage   = errors.New("image is empty")
	errNoBannerTime = errors.New("no timestamp found in banner text")
)

// Frame is one still image with its capture time resolved to UTC.
type Frame struct {
	Path       string
	Instrument string
	Timestamp  time.Time
}

// ParseFrameName extracts a Frame from the file's base name. The embedded
// start time is wall-clock in loc; the trailing frame number counts seconds
// past it.
func ParseFrameName(path string, loc *time.Location) (Frame, error) {
	m := frameNameRE.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return Frame{}, fmt.Errorf("%w: %s", ErrNoTimestamp, filepath.Base(path))
	}
	instrument, startStr, frameStr := m[1], m[3], m[4]

	start, err := time.ParseInLocation(startLayout, startStr, loc)
	if err != nil {
		return Frame{}, fmt.Errorf("parse %q: %w", startStr, err)
	}
	offset, err := strconv.ParseFloat(frameStr, 64)
	if err != nil {
		return Frame{}, fmt.Errorf("parse frame number %q: %w", frameStr, err)
	}

	ts := start.Add(time.Duration(offset * float64(time.Second))).UTC()
	return Frame{Path: path, Instrument: instrument, Timestamp: ts}, nil
}

// ScanOptions controls a frame scan.
type ScanOptions struct {
	// Location is the zone the instrument clock records in.
	Location *time.Location
	// UseOCR reads the burned-in banner when the filename does not parse.
	UseOCR bool
}

// ScanFrames walks dir for .jpg stills and resolves a timestamp for each.
// Files without a usable timestamp are logged and skipped.
func ScanFrames(dir string, opts ScanOptions) ([]Frame, error) {
	paths, err := scan.Files(dir, scan.Options{Extensions: []string{".jpg"}})
	if err != nil {
		return nil, err
	}

	var frames []Frame
	for _, path := range paths {
		frame, err := ParseFrameName(path, opts.Location)
		if err == nil {
			frames = append(frames, frame)
			continue
		}
		if !opts.UseOCR || !errors.Is(err, ErrNoTimestamp) {
			log.WithFields(log.Fields{"path": path, "error": err}).Warn("Skipping frame without timestamp")
			continue
		}

		ts, ocrErr := ReadBannerTimestamp(path, opts.Location)
		if ocrErr != nil {
			log.WithFields(log.Fields{"path": path, "error": ocrErr}).Warn("Banner OCR failed, skipping frame")
			continue
		}
		log.WithFields(log.Fields{"path": path, "timestamp": ts}).Debug("Timestamp recovered from banner")
		frames = append(frames, Frame{Path: path, Instrument: instrumentFromName(path), Timestamp: ts})
	}

	log.WithFields(log.Fields{"dir": dir, "frames": len(frames), "files": len(paths)}).Info("Scanned frames")
	return frames, nil
}

// Best-effort instrument label for frames resolved by OCR.
func instrumentFromName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimPrefix(base, "CFE_")
	if i := strings.IndexAny(base, "-_."); i > 0 {
		return base[:i]
	}
	return ""
}
