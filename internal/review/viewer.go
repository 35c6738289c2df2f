package review

import (
	"image"
	"os"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// Key bindings for the review window. Letter keys are primary; the
// common highgui arrow codes are accepted too.
const (
	keyNext   = 'n'
	keyPrev   = 'p'
	keyDelete = 'd'
	keyQuit   = 'q'
	keyEsc    = 27

	arrowLeft  = 81
	arrowUp    = 82
	arrowRight = 83
)

// Viewer steps through annotated frames in a window so bad frames can be
// culled by hand.
type Viewer struct {
	// DryRun reports which files would be deleted without removing them.
	DryRun bool
}

// Run opens the review window over every annotated frame under dir.
// n/right advances (wrapping), p/left goes back, d/up marks the current
// frame for deletion, q/ESC closes. Marked frames are deleted after the
// window closes.
func (v Viewer) Run(dir string) error {
	paths, err := AnnotatedImages(dir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		log.WithField("dir", dir).Info("No valid images to review")
		return nil
	}

	window := gocv.NewWindow("Image Viewer")
	defer func() {
		if err := window.Close(); err != nil {
			log.WithError(err).Error("Error closing window")
		}
	}()

	marked := make(map[string]bool)
	idx := 0

	for {
		if !v.showImage(window, paths[idx]) {
			// Unreadable image: drop it from the rotation.
			paths = append(paths[:idx], paths[idx+1:]...)
			if len(paths) == 0 {
				log.WithField("dir", dir).Info("No valid images to review")
				break
			}
			idx %= len(paths)
			continue
		}

		key := window.WaitKey(0)
		switch key {
		case keyNext, arrowRight:
			idx = (idx + 1) % len(paths)
			log.WithField("index", idx).Info("Showing next image")
		case keyPrev, arrowLeft:
			idx = (idx - 1 + len(paths)) % len(paths)
			log.WithField("index", idx).Info("Showing previous image")
		case keyDelete, arrowUp:
			if !marked[paths[idx]] {
				marked[paths[idx]] = true
				log.WithFields(log.Fields{"index": idx, "path": paths[idx]}).Info("Image marked for deletion")
			}
		case keyQuit, keyEsc, -1:
			return v.deleteMarked(marked)
		}
	}
	return v.deleteMarked(marked)
}

// showImage renders the frame at half size. It reports false when the
// image cannot be read.
func (v Viewer) showImage(window *gocv.Window, path string) bool {
	img := gocv.IMRead(path, gocv.IMReadColor)
	if img.Empty() {
		log.WithField("path", path).Error("Error reading image")
		return false
	}
	defer func() {
		if err := img.Close(); err != nil {
			log.WithError(err).Error("Error closing image")
		}
	}()

	small := gocv.NewMat()
	defer func() {
		if err := small.Close(); err != nil {
			log.WithError(err).Error("Error closing resized image")
		}
	}()
	gocv.Resize(img, &small, image.Point{}, 0.5, 0.5, gocv.InterpolationArea)

	window.IMShow(small)
	return true
}

func (v Viewer) deleteMarked(marked map[string]bool) error {
	for path := range marked {
		if v.DryRun {
			log.WithFields(log.Fields{"type": "DRY RUN", "path": path}).Info("Skip deleting image")
			continue
		}
		if err := os.Remove(path); err != nil {
			log.WithFields(log.Fields{"path": path, "error": err}).Error("Error deleting image")
			continue
		}
		log.WithField("path", path).Info("Image deleted")
	}
	return nil
}
