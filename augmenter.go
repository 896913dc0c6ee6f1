// Package imageaugmenter expands a YOLO object-detection dataset with
// randomized, label-consistent variants of every image.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		imageaugmenter "github.com/menta2k/image-augmenter"
//		"github.com/menta2k/image-augmenter/pkg/labels"
//	)
//
//	func main() {
//		aug, err := imageaugmenter.New()
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		img, err := aug.LoadImage("photo.jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//		boxes, err := labels.ReadFile("photo.txt", labels.DecodeOptions{})
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		variants, err := aug.AugmentImage(context.Background(), img, boxes, 10)
//		if err != nil {
//			log.Fatal(err)
//		}
//		for _, v := range variants {
//			log.Printf("variant %d: %d boxes, steps %v", v.Index, len(v.Labels), v.Applied)
//		}
//	}
//
// The package is a thin facade over its components:
//
// 1. Transform (pkg/transform): probabilistic image operations, each able to
// move bounding boxes along with the pixels
// 2. Pipeline (pkg/pipeline): applies transforms in declared order and drops
// boxes that end up insufficiently visible
// 3. Generator (pkg/generator): repeats the pipeline N times per image
// 4. Dataset (pkg/dataset): reads an images/labels directory pair and writes
// {stem}_aug{i} image and label files
//
// Bounding boxes are YOLO-normalized (class x_center y_center width height,
// all relative to the image size). Boxes are clipped to the frame once, after
// the last transform, and kept only when at least min_visibility of their
// area remains.
package imageaugmenter

import (
	"context"
	"image"

	"github.com/charmbracelet/log"

	"github.com/menta2k/image-augmenter/pkg/config"
	"github.com/menta2k/image-augmenter/pkg/dataset"
	"github.com/menta2k/image-augmenter/pkg/generator"
	"github.com/menta2k/image-augmenter/pkg/pipeline"
	"github.com/menta2k/image-augmenter/pkg/processing"
	"github.com/menta2k/image-augmenter/pkg/types"
)

// Version of the image augmenter library
const Version = "1.0.0"

// Augmenter provides a high-level interface for dataset augmentation
type Augmenter struct {
	config    *config.Config
	pipeline  *pipeline.Pipeline
	processor *processing.Processor
	logger    *log.Logger
}

// New creates an Augmenter with the default configuration
func New() (*Augmenter, error) {
	return NewWithConfig(config.Default())
}

// NewWithConfig creates an Augmenter from a validated configuration
func NewWithConfig(cfg *config.Config) (*Augmenter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p, err := pipeline.New(pipeline.Config{
		Steps:         cfg.Pipeline,
		MinVisibility: cfg.Augment.MinVisibility,
	})
	if err != nil {
		return nil, err
	}
	return &Augmenter{
		config:    cfg,
		pipeline:  p,
		processor: processing.NewProcessor(),
		logger:    log.Default(),
	}, nil
}

// SetLogger replaces the default logger
func (a *Augmenter) SetLogger(l *log.Logger) {
	if l != nil {
		a.logger = l
		a.pipeline.SetLogger(l)
	}
}

// Config returns the configuration in use
func (a *Augmenter) Config() *config.Config {
	return a.config
}

// Steps returns the pipeline step names in application order
func (a *Augmenter) Steps() []string {
	return a.pipeline.Steps()
}

// LoadImage loads an image from file
func (a *Augmenter) LoadImage(path string) (image.Image, error) {
	return a.processor.LoadImage(path)
}

// SaveImage saves an image using the configured output format
func (a *Augmenter) SaveImage(img image.Image, path string) error {
	out := a.config.Output
	return a.processor.SaveImage(img, path, out.Format, out.Quality, out.Lossless)
}

// DebugOverlay renders labels on top of img
func (a *Augmenter) DebugOverlay(img image.Image, labels types.LabelSet) image.Image {
	return a.processor.CreateDebugOverlay(img, labels)
}

func (a *Augmenter) newGenerator(n int) (*generator.Generator, error) {
	g, err := generator.New(a.pipeline, generator.Config{
		Multiplicity: n,
		Seed:         a.config.Augment.Seed,
		DropEmpty:    a.config.Augment.DropEmpty,
	})
	if err != nil {
		return nil, err
	}
	g.SetLogger(a.logger)
	return g, nil
}

// AugmentImage generates n variants of img and its labels in memory
func (a *Augmenter) AugmentImage(ctx context.Context, img image.Image, labels types.LabelSet, n int) ([]generator.Variant, error) {
	g, err := a.newGenerator(n)
	if err != nil {
		return nil, err
	}
	return g.GenerateAll(ctx, img, labels)
}

// ProcessDataset augments the configured input directories into the
// configured output directories
func (a *Augmenter) ProcessDataset(ctx context.Context) (dataset.Summary, error) {
	g, err := a.newGenerator(a.config.Augment.Multiplicity)
	if err != nil {
		return dataset.Summary{}, err
	}

	in, out := a.config.Input, a.config.Output
	runner, err := dataset.NewRunner(g, dataset.Layout{
		ImageDir:    in.ImageDir,
		LabelDir:    in.LabelDir,
		Extensions:  in.Extensions,
		OutImageDir: out.ImageDir,
		OutLabelDir: out.LabelDir,
		DebugDir:    out.DebugDir,
		Format:      out.Format,
	}, dataset.Encoding{Quality: out.Quality, Lossless: out.Lossless})
	if err != nil {
		return dataset.Summary{}, err
	}
	runner.SetLogger(a.logger)
	return runner.Run(ctx)
}
