package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/cfelab/isiis-prep/internal/review"
)

func newReviewCommand(ctx *commandContext) *cobra.Command {
	var (
		dir    string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Step through annotated frames and delete the marked ones",
		Long: `Opens a window over every depth-annotated frame in the folder. n or the
right arrow advances, p or the left arrow goes back, d or the up arrow
marks the current frame for deletion, q or ESC closes the window. Marked
frames are deleted after the window closes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			if dir == "" {
				return errors.New("please specify --dir")
			}
			return review.Viewer{DryRun: dryRun}.Run(dir)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Folder of annotated frames to review")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report deletions without removing files")

	return cmd
}
