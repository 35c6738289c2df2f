package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/cfelab/isiis-prep/internal/csvpath"
)

func newRewritePathsCommand(ctx *commandContext) *cobra.Command {
	var (
		csvDir    string
		imageBase string
	)

	cmd := &cobra.Command{
		Use:   "rewrite-paths",
		Short: "Point the image_path column of detection CSVs at a new image folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			dir, err := requirePath(csvDir, cfg.Paths.CSVDir, "csv-dir", "paths.csv_dir")
			if err != nil {
				return err
			}
			if imageBase == "" {
				return errors.New("please specify --image-base")
			}

			return csvpath.RewriteImagePaths(dir, imageBase)
		},
	}

	cmd.Flags().StringVar(&csvDir, "csv-dir", "", "Folder of detection CSV files")
	cmd.Flags().StringVar(&imageBase, "image-base", "", "New base directory for image paths")

	return cmd
}
