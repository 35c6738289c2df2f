// Package csvpath rewrites and thins the detection CSV files that
// accompany the image sets.
package csvpath

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
)

var errNoImagePathColumn = errors.New("no image_path column")

// RewriteImagePaths rewrites the image_path column of every .csv in dir so
// each value points into newBase, keeping only the original base name.
// Files that fail are logged and skipped; the rest are still rewritten.
func RewriteImagePaths(dir, newBase string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read csv dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := rewriteFile(path, newBase); err != nil {
			log.WithFields(log.Fields{"path": path, "error": err}).Error("Error rewriting image paths")
			continue
		}
		log.WithField("file", entry.Name()).Info("Image paths changed successfully")
	}
	return nil
}

func rewriteFile(path, newBase string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	f.Close()
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	col := -1
	for i, name := range rows[0] {
		if strings.TrimSpace(name) == "image_path" {
			col = i
			break
		}
	}
	if col < 0 {
		return errNoImagePathColumn
	}

	for _, row := range rows[1:] {
		if len(row) <= col {
			continue
		}
		row[col] = filepath.Join(newBase, filepath.Base(row[col]))
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(out)
	if err := w.WriteAll(rows); err != nil {
		out.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Thin copies every Nth .csv from srcDir to dstDir, creating dstDir when
// needed, and returns the number of .csv files in dstDir afterwards.
func Thin(srcDir, dstDir string, every int) (int, error) {
	if every < 1 {
		return 0, fmt.Errorf("every must be at least 1, got %d", every)
	}
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return 0, fmt.Errorf("read source dir: %w", err)
	}
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return 0, fmt.Errorf("create destination dir: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".csv") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for i, name := range names {
		if i%every != 0 {
			continue
		}
		if err := copyFile(filepath.Join(srcDir, name), filepath.Join(dstDir, name)); err != nil {
			log.WithFields(log.Fields{"file": name, "error": err}).Error("Error copying file")
			continue
		}
		log.WithFields(log.Fields{"file": name, "dest": dstDir}).Info("File copied")
	}

	copied, err := os.ReadDir(dstDir)
	if err != nil {
		return 0, fmt.Errorf("read destination dir: %w", err)
	}
	count := 0
	for _, entry := range copied {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".csv") {
			count++
		}
	}
	return count, nil
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
