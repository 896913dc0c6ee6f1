// Package dataset walks a YOLO images/labels directory pair and writes the
// augmented variants of every source image.
package dataset

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/menta2k/image-augmenter/internal/utils"
	"github.com/menta2k/image-augmenter/pkg/processing"
)

// LabelExt is the extension of label files
const LabelExt = "txt"

var (
	// ErrSkippable marks a source image that produces no output: its label
	// file is missing or the image cannot be decoded.
	ErrSkippable = errors.New("source skipped")
	// ErrWrite marks a variant whose image or label could not be written
	ErrWrite = errors.New("variant write failed")
	// ErrNoImageDir is returned by Discover when the image directory is absent
	ErrNoImageDir = errors.New("image directory not found")
)

// Layout describes where sources are read from and variants written to
type Layout struct {
	ImageDir    string
	LabelDir    string
	Extensions  []string
	OutImageDir string
	OutLabelDir string
	DebugDir    string
	// Format is the output image format; empty means jpg
	Format string
}

// Source is one image and the label file that belongs to it
type Source struct {
	Stem      string
	ImagePath string
	LabelPath string
}

// LabelPath returns {labelDir}/{stem}.txt for an image path
func LabelPath(labelDir, imagePath string) string {
	return filepath.Join(labelDir, utils.Stem(imagePath)+"."+LabelExt)
}

// VariantName returns {stem}_aug{index} without extension
func VariantName(stem string, index int) string {
	return fmt.Sprintf("%s_aug%d", stem, index)
}

// Discover lists the source images of the layout in name order. Sources
// whose label file is missing are still returned; the runner skips them.
func (l Layout) Discover() ([]Source, error) {
	if !utils.DirExists(l.ImageDir) {
		return nil, fmt.Errorf("%w: %s", ErrNoImageDir, l.ImageDir)
	}
	files, err := utils.ListImageFiles(l.ImageDir, l.Extensions...)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	sources := make([]Source, len(files))
	for i, f := range files {
		sources[i] = Source{
			Stem:      utils.Stem(f),
			ImagePath: f,
			LabelPath: LabelPath(l.LabelDir, f),
		}
	}
	return sources, nil
}

// OutputPaths returns the image and label paths of one variant of src
func (l Layout) OutputPaths(src Source, index int) (string, string) {
	format, err := processing.NormalizeFormat(l.Format)
	if err != nil {
		format = processing.FormatJPEG
	}
	suffix := fmt.Sprintf("_aug%d", index)
	return utils.GenerateOutputFilename(src.ImagePath, l.OutImageDir, "", suffix, format),
		utils.GenerateOutputFilename(src.ImagePath, l.OutLabelDir, "", suffix, LabelExt)
}

// DebugPath returns the overlay path of one variant, or "" without a debug dir
func (l Layout) DebugPath(stem string, index int) string {
	if strings.TrimSpace(l.DebugDir) == "" {
		return ""
	}
	return filepath.Join(l.DebugDir, VariantName(stem, index)+"."+processing.FormatJPEG)
}

// Prepare creates the output directories
func (l Layout) Prepare() error {
	for _, dir := range []string{l.OutImageDir, l.OutLabelDir, l.DebugDir} {
		if err := utils.EnsureDir(dir); err != nil {
			return err
		}
	}
	return nil
}
