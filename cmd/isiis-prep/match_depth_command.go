package main

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cfelab/isiis-prep/internal/ctdlog"
	"github.com/cfelab/isiis-prep/internal/depthmatch"
	"github.com/cfelab/isiis-prep/internal/isiis"
)

func newMatchDepthCommand(ctx *commandContext) *cobra.Command {
	var (
		logFile     string
		imagesDir   string
		rawLog      bool
		offset      int
		threshold   int
		useOCR      bool
		dryRun      bool
		showMatches bool
		reportPath  string
	)

	cmd := &cobra.Command{
		Use:   "match-depth",
		Short: "Rename ISIIS frames with the depth from the nearest ROV-CTD record",
		Long: `Parses an ROV-CTD depth log, derives a UTC capture time for every ISIIS
still frame under the images directory, pairs each frame with the nearest
log record after correcting for instrument clock lag, and renames matched
frames with a _<depth>m suffix.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logPath, err := requirePath(logFile, cfg.Paths.CTDLogFile, "log-file", "paths.ctd_log_file")
			if err != nil {
				return err
			}
			framesDir, err := requirePath(imagesDir, cfg.Paths.ImagesDir, "images-dir", "paths.images_dir")
			if err != nil {
				return err
			}

			raw := boolValue(cmd, "raw-log", rawLog, cfg.Match.RawLog)
			offsetSecs := intValue(cmd, "clock-offset", offset, cfg.Match.ClockOffsetSeconds)
			thresholdSecs := intValue(cmd, "threshold", threshold, cfg.Match.ThresholdSeconds)

			loc, err := cfg.ImageLocation()
			if err != nil {
				return err
			}

			records, err := ctdlog.Load(logPath, raw)
			if err != nil {
				return err
			}
			log.WithFields(log.Fields{"log": logPath, "records": len(records)}).Info("Loaded depth log")

			frames, err := isiis.ScanFrames(framesDir, isiis.ScanOptions{Location: loc, UseOCR: useOCR})
			if err != nil {
				return err
			}

			// The instrument clock runs behind the CTD clock.
			opts := depthmatch.Options{
				ClockOffset: -time.Duration(offsetSecs) * time.Second,
				Threshold:   time.Duration(thresholdSecs) * time.Second,
			}
			matches := depthmatch.Nearest(records, frames, opts)

			if showMatches && len(matches) > 0 {
				fmt.Println(matchTable(matches))
			}
			log.WithFields(log.Fields{"matches": len(matches), "images": len(frames)}).Info("Matched timestamps")

			if reportPath != "" {
				if err := depthmatch.WriteReport(reportPath, matches); err != nil {
					return err
				}
				log.WithField("path", reportPath).Info("Wrote match report")
			}

			renamed := depthmatch.Renamer{DryRun: dryRun}.Apply(matches)
			log.WithFields(log.Fields{"renamed": renamed, "dry_run": dryRun}).Info("Applied depth suffixes")
			return nil
		},
	}

	cmd.Flags().StringVar(&logFile, "log-file", "", "ROV-CTD depth log file")
	cmd.Flags().StringVar(&imagesDir, "images-dir", "", "Directory tree of ISIIS still frames")
	cmd.Flags().BoolVar(&rawLog, "raw-log", false, "Treat the log as a raw #LOG text dump")
	cmd.Flags().IntVar(&offset, "clock-offset", 69, "Seconds the instrument clock runs behind the CTD clock")
	cmd.Flags().IntVar(&threshold, "threshold", 8, "Maximum seconds between timestamps to count as a match")
	cmd.Flags().BoolVar(&useOCR, "ocr", false, "Read the burned-in banner when a filename has no timestamp")
	cmd.Flags().BoolVar(&dryRun, "dry-run", true, "If true, the files will not be renamed")
	cmd.Flags().BoolVar(&showMatches, "show-matches", true, "Print the match table")
	cmd.Flags().StringVar(&reportPath, "report", "", "Write the matches to this CSV file")

	return cmd
}

func matchTable(matches []depthmatch.Match) string {
	headers := []string{"ROV time (UTC)", "Instrument time (UTC)", "Depth (m)", "Path"}
	rows := make([][]string, 0, len(matches))
	for _, m := range matches {
		rows = append(rows, []string{
			m.Record.Timestamp.UTC().Format("2006-01-02 15:04:05"),
			m.Frame.Timestamp.UTC().Format("2006-01-02 15:04:05"),
			m.Record.Depth,
			m.Frame.Path,
		})
	}
	return renderTable(headers, rows, 3)
}
