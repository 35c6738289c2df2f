package main

import (
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

func main() {
	start := time.Now()

	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)

	if err := newRootCommand().Execute(); err != nil {
		log.WithError(err).Error("Command failed")
		os.Exit(1)
	}

	log.WithFields(log.Fields{"time_taken": time.Since(start)}).Info("Done.")
}
