// Package scan walks directory trees and collects the files a batch
// command should process, skipping operating-system litter.
package scan

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"
)

// ErrLimitReached stops a walk once the configured file limit is hit.
var ErrLimitReached = errors.New("limit reached")

// AppleDouble resource forks like ._01.avi decode as garbage.
var appleDoubleRE = regexp.MustCompile(`^\._`)

// Options controls which files a walk collects.
type Options struct {
	// Extensions keeps only files with one of these lowercase extensions,
	// dot included. Empty means every file.
	Extensions []string
	// Prefix keeps only files whose base name starts with it.
	Prefix string
	// Suffix keeps only files whose base name, extension stripped, ends
	// with it.
	Suffix string
	// Limit stops the walk after this many files. Zero means no limit.
	Limit int
}

// Files walks root and returns the matching file paths in walk order.
func Files(root string, opts Options) ([]string, error) {
	ignore := ignoreMap()

	var paths []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsPermission(err) {
				log.WithFields(log.Fields{"path": path, "error": err}).Warn("Skipping directory due to permission issue")
				return filepath.SkipDir
			}
			log.WithFields(log.Fields{"path": path, "error": err}).Error("Error accessing path")
			return nil
		}

		name := filepath.Base(path)
		if info.IsDir() {
			if ignore[name] {
				log.WithFields(log.Fields{"type": "directory", "path": path}).Warn("Skipping ignored directory")
				return filepath.SkipDir
			}
			return nil
		}

		if ignore[name] || appleDoubleRE.MatchString(name) {
			return nil
		}
		if !opts.match(name) {
			return nil
		}
		if opts.Limit > 0 && len(paths) >= opts.Limit {
			return ErrLimitReached
		}

		paths = append(paths, path)
		return nil
	})
	if err != nil && !errors.Is(err, ErrLimitReached) {
		return paths, err
	}
	return paths, nil
}

func (o Options) match(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if len(o.Extensions) > 0 {
		ok := false
		for _, want := range o.Extensions {
			if ext == want {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if o.Prefix != "" && !strings.HasPrefix(name, o.Prefix) {
		return false
	}
	if o.Suffix != "" {
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		if !strings.HasSuffix(stem, o.Suffix) {
			return false
		}
	}
	return true
}

// Directory and file names that never hold pipeline data.
func ignoreMap() map[string]bool {
	ignoreNames := []string{
		"$RECYCLE.BIN",
		".Spotlight-V100",
		"System Volume Information",
		".fseventsd",
		".Trashes",
		".DS_Store",
	}

	ignore := make(map[string]bool, len(ignoreNames))
	for _, name := range ignoreNames {
		ignore[name] = true
	}
	return ignore
}
