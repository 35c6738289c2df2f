package main

import (
	"errors"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cfelab/isiis-prep/internal/review"
)

func newSampleCommand(ctx *commandContext) *cobra.Command {
	var (
		srcDir   string
		dstDir   string
		target   int
		noReview bool
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Fill a folder with randomly sampled depth-annotated frames and review them",
		Long: `Copies randomly chosen depth-annotated frames (CFE*...m.jpg) from the
source tree until the destination holds the target count, opening the
review window after each round so bad frames can be culled. Repeats until
the target is met or the source is exhausted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			src, err := requirePath(srcDir, cfg.Paths.ImagesDir, "source", "paths.images_dir")
			if err != nil {
				return err
			}
			if dstDir == "" {
				return errors.New("please specify --dest")
			}
			if target < 1 {
				return errors.New("--target must be at least 1")
			}

			viewer := review.Viewer{DryRun: dryRun}
			for {
				current, err := review.AnnotatedImages(dstDir)
				if err != nil {
					return err
				}
				if len(current) >= target {
					log.WithFields(log.Fields{"count": len(current), "dest": dstDir}).Info("Target count reached")
					if noReview {
						return nil
					}
					return viewer.Run(dstDir)
				}

				log.WithFields(log.Fields{"count": len(current), "target": target}).Info("Adding more images to reach target")
				copied, err := review.CopyRandom(src, dstDir, target-len(current))
				if err != nil {
					return err
				}
				if copied == 0 {
					log.WithField("source", src).Warn("Source exhausted before reaching target")
					return nil
				}
				if !noReview {
					if err := viewer.Run(dstDir); err != nil {
						return err
					}
				}
			}
		},
	}

	cmd.Flags().StringVar(&srcDir, "source", "", "Tree of depth-annotated frames to sample from")
	cmd.Flags().StringVar(&dstDir, "dest", "", "Destination folder for the sampled subset")
	cmd.Flags().IntVar(&target, "target", 5000, "Number of frames the destination should hold")
	cmd.Flags().BoolVar(&noReview, "no-review", false, "Skip the interactive review window")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Review without deleting marked images")

	return cmd
}
