// Package video extracts still frames from raw .avi recordings and
// re-encodes them to MP4, fanning independent files out to a worker pool.
package video

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/cfelab/isiis-prep/internal/scan"
)

var (
	errOpenVideo  = errors.New("failed to open video")
	errFrameWrite = errors.New("failed to write frame to file")
)

// Extractor pulls frames out of every .avi under InputDir into a mirrored
// tree below OutputDir.
type Extractor struct {
	InputDir  string
	OutputDir string
	// FrameRate is how many frames to keep per second of video.
	FrameRate int
	// Workers sizes the pool; zero means NumCPU-1.
	Workers int
	// Limit caps the number of videos processed. Zero means no limit.
	Limit int
}

// Run scans for videos and extracts frames from each. Per-file failures
// are logged; Run only fails when the scan itself does.
func (e Extractor) Run() error {
	return processVideos(e.InputDir, e.Workers, e.Limit, "Extracting frames", func(path string) error {
		outDir := mirrorDir(e.InputDir, e.OutputDir, path)
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return err
		}
		saved, err := ExtractFrames(path, outDir, e.FrameRate)
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{"video": filepath.Base(path), "frames": saved}).Info("Extraction completed")
		return nil
	})
}

// Converter re-encodes every .avi under InputDir to MP4 in a mirrored tree
// below OutputDir, skipping outputs that already exist.
type Converter struct {
	InputDir  string
	OutputDir string
	Workers   int
	Limit     int
}

// Run scans for videos and converts each one.
func (c Converter) Run() error {
	return processVideos(c.InputDir, c.Workers, c.Limit, "Converting videos", func(path string) error {
		outDir := mirrorDir(c.InputDir, c.OutputDir, path)
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return err
		}
		outPath := filepath.Join(outDir, videoStem(path)+".mp4")
		return ConvertToMP4(path, outPath)
	})
}

// processVideos finds the .avi files under inputDir and runs job over them
// with a worker pool.
func processVideos(inputDir string, workers, limit int, description string, job func(string) error) error {
	log.Info("Scanning for video files...")
	paths, err := scan.Files(inputDir, scan.Options{Extensions: []string{".avi"}, Limit: limit})
	if err != nil {
		return fmt.Errorf("scan videos: %w", err)
	}
	log.WithField("count", len(paths)).Info("Found video files to process")
	if len(paths) == 0 {
		return nil
	}

	workers = poolSize(workers)
	log.WithField("workers", workers).Info("Using workers for parallel processing")

	bar := progressbar.Default(int64(len(paths)), description)

	const bufferSize = 100
	filesChan := make(chan string, bufferSize)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range filesChan {
				if err := job(path); err != nil {
					log.WithFields(log.Fields{"path": path, "error": err}).Error("Error processing video")
				}
				if err := bar.Add(1); err != nil {
					log.WithError(err).Debug("Error advancing progress bar")
				}
			}
		}()
	}

	for _, path := range paths {
		filesChan <- path
	}
	close(filesChan)
	wg.Wait()

	log.WithField("count", len(paths)).Info("Processed videos")
	return nil
}

// ExtractFrames saves every Nth frame of the video as
// <video>_<NNNN>.jpg in outDir and returns how many were written.
func ExtractFrames(videoPath, outDir string, frameRate int) (int, error) {
	cap, err := gocv.VideoCaptureFile(videoPath)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", errOpenVideo, videoPath, err)
	}
	defer func() {
		if err := cap.Close(); err != nil {
			log.WithError(err).Error("Error closing video capture")
		}
	}()

	interval := frameInterval(cap.Get(gocv.VideoCaptureFPS), frameRate)
	stem := videoStem(videoPath)

	img := gocv.NewMat()
	defer func() {
		if err := img.Close(); err != nil {
			log.WithError(err).Error("Error closing frame")
		}
	}()

	count := 0
	saved := 0
	for cap.Read(&img) {
		if img.Empty() {
			continue
		}
		if count%interval == 0 {
			framePath := filepath.Join(outDir, fmt.Sprintf("%s_%04d.jpg", stem, saved))
			if ok := gocv.IMWrite(framePath, img); !ok {
				return saved, fmt.Errorf("%w: %s", errFrameWrite, framePath)
			}
			saved++
		}
		count++
	}
	return saved, nil
}

// ConvertToMP4 re-encodes an AVI recording as H.264 MP4. An existing
// output is treated as done from an earlier run.
func ConvertToMP4(videoPath, outPath string) error {
	if _, err := os.Stat(outPath); err == nil {
		log.WithField("path", outPath).Info("Output already exists, skipping conversion")
		return nil
	}

	cap, err := gocv.VideoCaptureFile(videoPath)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", errOpenVideo, videoPath, err)
	}
	defer func() {
		if err := cap.Close(); err != nil {
			log.WithError(err).Error("Error closing video capture")
		}
	}()

	fps := cap.Get(gocv.VideoCaptureFPS)
	width := int(cap.Get(gocv.VideoCaptureFrameWidth))
	height := int(cap.Get(gocv.VideoCaptureFrameHeight))

	writer, err := gocv.VideoWriterFile(outPath, "avc1", fps, width, height, true)
	if err != nil {
		return fmt.Errorf("open writer for %s: %w", outPath, err)
	}
	defer func() {
		if err := writer.Close(); err != nil {
			log.WithError(err).Error("Error closing video writer")
		}
	}()

	img := gocv.NewMat()
	defer func() {
		if err := img.Close(); err != nil {
			log.WithError(err).Error("Error closing frame")
		}
	}()

	for cap.Read(&img) {
		if img.Empty() {
			continue
		}
		if err := writer.Write(img); err != nil {
			return fmt.Errorf("write frame to %s: %w", outPath, err)
		}
	}

	log.WithFields(log.Fields{"src": videoPath, "dest": outPath}).Info("Converted video")
	return nil
}

// mirrorDir maps a video path under inputDir to the matching directory
// under outputDir.
func mirrorDir(inputDir, outputDir, videoPath string) string {
	rel, err := filepath.Rel(inputDir, videoPath)
	if err != nil {
		return filepath.Join(outputDir, filepath.Dir(filepath.Base(videoPath)))
	}
	return filepath.Join(outputDir, filepath.Dir(rel))
}

func videoStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// frameInterval is how many source frames to skip between saved ones.
func frameInterval(fps float64, frameRate int) int {
	if frameRate < 1 {
		frameRate = 1
	}
	interval := int(fps) / frameRate
	if interval < 1 {
		return 1
	}
	return interval
}

func poolSize(workers int) int {
	if workers > 0 {
		return workers
	}
	n := runtime.NumCPU() - 1
	if n < 1 {
		return 1
	}
	return n
}
