package main

import (
	"errors"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cfelab/isiis-prep/internal/csvpath"
)

func newThinCommand(ctx *commandContext) *cobra.Command {
	var (
		srcDir string
		dstDir string
		every  int
	)

	cmd := &cobra.Command{
		Use:   "thin",
		Short: "Copy every Nth detection CSV into a reduced folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			src, err := requirePath(srcDir, cfg.Paths.CSVDir, "source", "paths.csv_dir")
			if err != nil {
				return err
			}
			if dstDir == "" {
				return errors.New("please specify --dest")
			}

			count, err := csvpath.Thin(src, dstDir, every)
			if err != nil {
				return err
			}
			log.WithFields(log.Fields{"dest": dstDir, "count": count}).Info("Copying completed")
			return nil
		},
	}

	cmd.Flags().StringVar(&srcDir, "source", "", "Folder of detection CSV files")
	cmd.Flags().StringVar(&dstDir, "dest", "", "Destination folder for the reduced set")
	cmd.Flags().IntVar(&every, "every", 10, "Keep one file out of every N")

	return cmd
}
