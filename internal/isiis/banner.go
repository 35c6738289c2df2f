package isiis

import (
	"fmt"
	"image"
	"regexp"
	"time"

	"github.com/otiai10/gosseract"
	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// The data banner occupies roughly the bottom sixteenth of a frame.
const bannerFraction = 0.94

var bannerTimeRE = regexp.MustCompile(`\d{4}-\d{2}-\d{2}[ T]\d{2}:\d{2}:\d{2}(?:\.\d+)?`)

// ReadBannerTimestamp crops the data banner from a still, OCRs it with
// Tesseract and parses the first timestamp it finds. The banner clock is
// wall-clock in loc; the result is UTC.
func ReadBannerTimestamp(path string, loc *time.Location) (time.Time, error) {
	img := gocv.IMRead(path, gocv.IMReadColor)
	if img.Empty() {
		return time.Time{}, fmt.Errorf("%w: %s", errEmptyImage, path)
	}
	defer func() {
		if err := img.Close(); err != nil {
			log.WithError(err).Error("Error closing image")
		}
	}()

	top := int(float64(img.Rows()) * bannerFraction)
	banner := img.Region(image.Rect(0, top, img.Cols(), img.Rows()))
	defer func() {
		if err := banner.Close(); err != nil {
			log.WithError(err).Error("Error closing banner region")
		}
	}()

	gray := gocv.NewMat()
	defer func() {
		if err := gray.Close(); err != nil {
			log.WithError(err).Error("Error closing grayscale image")
		}
	}()
	gocv.CvtColor(banner, &gray, gocv.ColorBGRToGray)

	pngBytes, err := gocv.IMEncode(".png", gray)
	if err != nil {
		return time.Time{}, err
	}

	text, err := runOCR(pngBytes.GetBytes())
	if err != nil {
		return time.Time{}, err
	}

	return parseBannerText(text, loc)
}

func runOCR(png []byte) (string, error) {
	client := gosseract.NewClient()
	defer func() {
		if err := client.Close(); err != nil {
			log.WithError(err).Error("Error closing Tesseract client")
		}
	}()

	if err := client.SetImageFromBytes(png); err != nil {
		return "", err
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		return "", err
	}
	if err := client.SetLanguage("eng"); err != nil {
		return "", err
	}
	return client.Text()
}

func parseBannerText(text string, loc *time.Location) (time.Time, error) {
	match := bannerTimeRE.FindString(text)
	if match == "" {
		return time.Time{}, errNoBannerTime
	}

	// Parse tolerates a trailing fractional second the layout omits.
	layouts := []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if ts, err := time.ParseInLocation(layout, match, loc); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", errNoBannerTime, match)
}
