package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/penwyp/go-timeline-mapper/internal/util"
)

// FileScanner walks a directory tree collecting files with matching
// extensions.
type FileScanner struct {
	baseDir    string
	extensions map[string]bool
}

// PhotoExtensions are the image formats the photo extractor understands.
var PhotoExtensions = []string{".jpg", ".jpeg", ".png", ".heic"}

// GPXExtensions match recorded route files.
var GPXExtensions = []string{".gpx"}

// NewFileScanner creates a scanner for the given directory and extension
// set. Extensions are matched case-insensitively.
func NewFileScanner(baseDir string, extensions []string) *FileScanner {
	extSet := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		extSet[strings.ToLower(ext)] = true
	}
	return &FileScanner{baseDir: baseDir, extensions: extSet}
}

// Scan walks the directory and returns matching file paths. A missing base
// directory yields an empty result rather than an error, since input
// directories may not exist until their extractor has something to do.
func (s *FileScanner) Scan() ([]string, error) {
	start := time.Now()
	var files []string
	dirCount := 0
	totalCount := 0

	util.LogDebug(fmt.Sprintf("Start scanning directory: %s", s.baseDir))

	if _, err := os.Stat(s.baseDir); os.IsNotExist(err) {
		util.LogDebug(fmt.Sprintf("Directory does not exist, skipping: %s", s.baseDir))
		return nil, nil
	}

	err := filepath.Walk(s.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			util.LogDebug(fmt.Sprintf("Skip file (error): %s - %v", path, err))
			return nil
		}

		if info.IsDir() {
			dirCount++
			return nil
		}

		totalCount++
		if s.extensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}

		return nil
	})

	util.LogDebug(fmt.Sprintf("File scan completed: duration %v, scanned %d directories, %d files, matched %d",
		time.Since(start), dirCount, totalCount, len(files)))

	return files, err
}
