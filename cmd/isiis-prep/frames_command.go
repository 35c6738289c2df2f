package main

import (
	"github.com/spf13/cobra"

	"github.com/cfelab/isiis-prep/internal/video"
)

func newFramesCommand(ctx *commandContext) *cobra.Command {
	var (
		inputDir  string
		outputDir string
		frameRate int
		workers   int
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "frames",
		Short: "Extract still frames from raw .avi recordings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			in, err := requirePath(inputDir, cfg.Paths.VideoRawDir, "input", "paths.video_raw_dir")
			if err != nil {
				return err
			}
			out, err := requirePath(outputDir, cfg.Paths.FramesDir, "output", "paths.frames_dir")
			if err != nil {
				return err
			}

			extractor := video.Extractor{
				InputDir:  in,
				OutputDir: out,
				FrameRate: intValue(cmd, "frame-rate", frameRate, cfg.Extract.FrameRate),
				Workers:   intValue(cmd, "workers", workers, cfg.Extract.Workers),
				Limit:     limit,
			}
			return extractor.Run()
		},
	}

	cmd.Flags().StringVar(&inputDir, "input", "", "Directory tree of .avi recordings")
	cmd.Flags().StringVar(&outputDir, "output", "", "Output directory for extracted frames")
	cmd.Flags().IntVar(&frameRate, "frame-rate", 1, "Frames to keep per second of video")
	cmd.Flags().IntVar(&workers, "workers", 0, "Worker goroutines (0 means NumCPU-1)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Limit the number of videos processed (0 means no limit)")

	return cmd
}
