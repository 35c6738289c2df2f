package main

import (
	"github.com/spf13/cobra"

	"github.com/cfelab/isiis-prep/internal/video"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var (
		inputDir  string
		outputDir string
		workers   int
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Re-encode raw .avi recordings to MP4",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			in, err := requirePath(inputDir, cfg.Paths.VideoRawDir, "input", "paths.video_raw_dir")
			if err != nil {
				return err
			}
			out, err := requirePath(outputDir, cfg.Paths.MP4Dir, "output", "paths.mp4_dir")
			if err != nil {
				return err
			}

			converter := video.Converter{
				InputDir:  in,
				OutputDir: out,
				Workers:   intValue(cmd, "workers", workers, cfg.Extract.Workers),
				Limit:     limit,
			}
			return converter.Run()
		},
	}

	cmd.Flags().StringVar(&inputDir, "input", "", "Directory tree of .avi recordings")
	cmd.Flags().StringVar(&outputDir, "output", "", "Output directory for MP4 videos")
	cmd.Flags().IntVar(&workers, "workers", 0, "Worker goroutines (0 means NumCPU-1)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Limit the number of videos processed (0 means no limit)")

	return cmd
}
