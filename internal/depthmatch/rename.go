package depthmatch

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Renamer appends a depth suffix to matched frame files.
type Renamer struct {
	// DryRun logs the renames without touching the filesystem.
	DryRun bool
}

// Apply renames every matched frame to <name>_<depth>m<ext>. Frames whose
// name already ends in m carry a depth from an earlier run and are skipped.
// Failures are logged and do not stop the batch. It returns the number of
// files renamed (or that would have been, under DryRun).
func (r Renamer) Apply(matches []Match) int {
	renamed := 0
	for _, m := range matches {
		base := filepath.Base(m.Frame.Path)
		ext := filepath.Ext(base)
		stem := strings.TrimSuffix(base, ext)

		if strings.HasSuffix(stem, "m") {
			log.WithField("path", m.Frame.Path).Info("Skipping already annotated frame")
			continue
		}

		newName := fmt.Sprintf("%s_%sm%s", stem, m.Record.Depth, ext)
		newPath := filepath.Join(filepath.Dir(m.Frame.Path), newName)

		if r.DryRun {
			log.WithFields(log.Fields{"type": "DRY RUN", "src": m.Frame.Path, "dest": newPath}).Info("Skip renaming file")
			renamed++
			continue
		}

		if err := os.Rename(m.Frame.Path, newPath); err != nil {
			log.WithFields(log.Fields{"src": m.Frame.Path, "dest": newPath, "error": err}).Error("Error renaming file")
			continue
		}
		log.WithFields(log.Fields{"type": "RENAME", "src": m.Frame.Path, "dest": newPath}).Info("Renamed file")
		renamed++
	}
	return renamed
}

// WriteReport writes the matches as a CSV of ROV time, instrument time,
// depth and frame path.
func WriteReport(path string, matches []Match) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"rov_timestamp", "instrument_timestamp", "depth", "path"}); err != nil {
		return err
	}
	for _, m := range matches {
		row := []string{
			m.Record.Timestamp.UTC().Format(time.RFC3339),
			m.Frame.Timestamp.UTC().Format(time.RFC3339),
			m.Record.Depth,
			m.Frame.Path,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
