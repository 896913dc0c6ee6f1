package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultImageExtensions are the source image types picked up by a run
var DefaultImageExtensions = []string{"jpg", "jpeg", "png", "webp"}

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// GetFileExtension returns the lower-cased file extension without the dot
func GetFileExtension(filename string) string {
	ext := filepath.Ext(filename)
	if len(ext) > 0 {
		return strings.ToLower(ext[1:])
	}
	return ""
}

// Stem returns the base name without its final extension
func Stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// IsImageFile checks if a file has one of the given extensions, ignoring
// case. With no extensions the default set is used.
func IsImageFile(filename string, exts ...string) bool {
	if len(exts) == 0 {
		exts = DefaultImageExtensions
	}
	ext := GetFileExtension(filename)
	if ext == "" {
		return false
	}
	for _, want := range exts {
		if ext == strings.ToLower(strings.TrimPrefix(want, ".")) {
			return true
		}
	}
	return false
}

// GenerateOutputFilename builds outputDir/{prefix}{stem}{suffix}.{format}.
// An empty format keeps the input extension.
func GenerateOutputFilename(inputFile, outputDir, prefix, suffix, format string) string {
	if format == "" {
		format = GetFileExtension(inputFile)
		if format == "" {
			format = "jpg"
		}
	}
	outputName := fmt.Sprintf("%s%s%s.%s", prefix, Stem(inputFile), suffix, format)
	return filepath.Join(outputDir, outputName)
}

// ListImageFiles lists image files directly inside dir, sorted by name.
// Subdirectories are not descended into.
func ListImageFiles(dir string, exts ...string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsImageFile(e.Name(), exts...) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// FileExists checks if a file exists and is not a directory
func FileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirExists checks if a directory exists
func DirExists(dirname string) bool {
	info, err := os.Stat(dirname)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// FormatFileSize formats file size in human-readable format
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}

	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
