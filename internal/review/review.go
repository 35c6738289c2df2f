// Package review curates depth-annotated frame subsets: random sampling
// into a working folder and an interactive cull pass.
package review

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"

	"github.com/cfelab/isiis-prep/internal/scan"
)

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tiff"}

// AnnotatedImages returns every depth-annotated frame under dir: an image
// file named CFE*...m.<ext>, the m marking a depth suffix from an earlier
// match-depth run.
func AnnotatedImages(dir string) ([]string, error) {
	return scan.Files(dir, scan.Options{
		Extensions: imageExtensions,
		Prefix:     "CFE",
		Suffix:     "m",
	})
}

// CopyRandom copies up to n randomly chosen annotated frames from srcDir
// into dstDir, skipping any whose name is already present, and returns the
// number actually copied.
func CopyRandom(srcDir, dstDir string, n int) (int, error) {
	all, err := AnnotatedImages(srcDir)
	if err != nil {
		return 0, err
	}
	if len(all) < n {
		log.WithFields(log.Fields{"available": len(all), "requested": n}).Warn("Fewer images available than requested, copying all")
		n = len(all)
	}

	selected := sampleN(all, n, rand.New(rand.NewSource(rand.Int63())))

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return 0, fmt.Errorf("create destination dir: %w", err)
	}

	bar := progressbar.Default(int64(len(selected)), "Copying images")
	copied := 0
	for _, src := range selected {
		name := filepath.Base(src)
		dst := filepath.Join(dstDir, name)

		if _, err := os.Stat(dst); err == nil {
			log.WithField("file", name).Info("File already exists in destination, skipping")
			continue
		}

		if err := copyFile(src, dst); err != nil {
			log.WithFields(log.Fields{"src": src, "error": err}).Error("Error copying image")
			continue
		}
		copied++
		if err := bar.Add(1); err != nil {
			log.WithError(err).Debug("Error advancing progress bar")
		}
	}

	log.WithFields(log.Fields{"copied": copied, "dest": dstDir}).Info("Copied images")
	return copied, nil
}

// sampleN picks n distinct elements of paths in random order.
func sampleN(paths []string, n int, rng *rand.Rand) []string {
	if n > len(paths) {
		n = len(paths)
	}
	shuffled := make([]string, len(paths))
	copy(shuffled, paths)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:n]
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
