package dataset

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/menta2k/image-augmenter/internal/utils"
	"github.com/menta2k/image-augmenter/pkg/generator"
	"github.com/menta2k/image-augmenter/pkg/labels"
	"github.com/menta2k/image-augmenter/pkg/processing"
	"github.com/menta2k/image-augmenter/pkg/types"
)

// Summary counts what a run did
type Summary struct {
	Images        int
	Skipped       int
	Variants      int
	WriteFailures int
	EmptyVariants int
	DroppedEmpty  int
	BoxesIn       int
	BoxesOut      int
	BoxesDropped  int
	BytesWritten  int64
	Elapsed       time.Duration
}

func (s *Summary) add(o Summary) {
	s.Images += o.Images
	s.Skipped += o.Skipped
	s.Variants += o.Variants
	s.WriteFailures += o.WriteFailures
	s.EmptyVariants += o.EmptyVariants
	s.DroppedEmpty += o.DroppedEmpty
	s.BoxesIn += o.BoxesIn
	s.BoxesOut += o.BoxesOut
	s.BoxesDropped += o.BoxesDropped
	s.BytesWritten += o.BytesWritten
}

// Encoding controls how variant images are written
type Encoding struct {
	Quality  int
	Lossless bool
}

// Runner augments every source of a layout, one image at a time
type Runner struct {
	layout    Layout
	encoding  Encoding
	generator *generator.Generator
	processor *processing.Processor
	logger    *log.Logger
}

// NewRunner creates a runner writing variants produced by gen
func NewRunner(gen *generator.Generator, layout Layout, enc Encoding) (*Runner, error) {
	if gen == nil {
		return nil, errors.New("nil generator")
	}
	format, err := processing.NormalizeFormat(layout.Format)
	if err != nil {
		return nil, err
	}
	layout.Format = format
	if enc.Quality <= 0 {
		enc.Quality = 95
	}
	return &Runner{
		layout:    layout,
		encoding:  enc,
		generator: gen,
		processor: processing.NewProcessor(),
		logger:    log.Default(),
	}, nil
}

// SetLogger replaces the default logger
func (r *Runner) SetLogger(l *log.Logger) {
	if l != nil {
		r.logger = l
		r.generator.SetLogger(l)
	}
}

// Run processes every source in name order. Per-image and per-variant
// failures are counted in the summary; only a listing failure, an output
// directory failure or cancellation is returned.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	var total Summary

	if err := r.layout.Prepare(); err != nil {
		return total, err
	}
	sources, err := r.layout.Discover()
	if err != nil {
		return total, err
	}
	r.logger.Info("Augmenting dataset", "images", len(sources), "variants_per_image", r.generator.Multiplicity())

	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			total.Elapsed = time.Since(start)
			return total, err
		}
		r.logger.Debug("Processing image", "n", i+1, "of", len(sources), "file", src.ImagePath)

		s, err := r.ProcessSource(ctx, src)
		total.add(s)
		if errors.Is(err, ErrSkippable) {
			r.logger.Warn("Skipping image", "file", src.ImagePath, "err", err)
			continue
		}
		if err != nil {
			total.Elapsed = time.Since(start)
			return total, err
		}
	}

	total.Elapsed = time.Since(start)
	return total, nil
}

// Load decodes a source image and its labels. Failures wrap ErrSkippable.
func (r *Runner) Load(src Source) (image.Image, types.LabelSet, error) {
	ls, err := labels.ReadFile(src.LabelPath, labels.DecodeOptions{
		OnSkip: func(e *labels.LineError) {
			r.logger.Debug("Malformed label line skipped", "file", src.LabelPath, "line", e.Line, "err", e.Err)
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrSkippable, err)
	}

	img, err := r.processor.LoadImage(src.ImagePath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrSkippable, err)
	}
	return img, ls, nil
}

// ProcessSource writes all variants of one source image
func (r *Runner) ProcessSource(ctx context.Context, src Source) (Summary, error) {
	s := Summary{Images: 1}

	img, ls, err := r.Load(src)
	if err != nil {
		s.Skipped = 1
		return s, err
	}

	stats, err := r.generator.Generate(ctx, img, ls, func(v generator.Variant) error {
		n, err := r.writeVariant(src, v)
		if err != nil {
			s.WriteFailures++
			return err
		}
		s.BytesWritten += n
		return nil
	})
	s.Variants = stats.Emitted
	s.EmptyVariants = stats.Empty
	s.DroppedEmpty = stats.DroppedEmpty
	s.BoxesIn = stats.BoxesKept + stats.BoxesDropped
	s.BoxesOut = stats.BoxesKept
	s.BoxesDropped = stats.BoxesDropped
	return s, err
}

// writeVariant writes the image and label file of one variant. A pair is
// written completely or not at all.
func (r *Runner) writeVariant(src Source, v generator.Variant) (int64, error) {
	imgPath, labelPath := r.layout.OutputPaths(src, v.Index)

	if err := r.processor.SaveImage(v.Image, imgPath, r.layout.Format, r.encoding.Quality, r.encoding.Lossless); err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrWrite, imgPath, err)
	}
	if err := labels.WriteFile(labelPath, v.Labels); err != nil {
		os.Remove(imgPath)
		return 0, fmt.Errorf("%w: %s: %w", ErrWrite, labelPath, err)
	}

	if debugPath := r.layout.DebugPath(src.Stem, v.Index); debugPath != "" {
		overlay := r.processor.CreateDebugOverlay(v.Image, v.Labels)
		if err := r.processor.SaveImage(overlay, debugPath, processing.FormatJPEG, 90, false); err != nil {
			r.logger.Warn("Debug overlay not written", "file", debugPath, "err", err)
		}
	}

	var n int64
	for _, p := range []string{imgPath, labelPath} {
		if info, err := os.Stat(p); err == nil {
			n += info.Size()
		}
	}
	return n, nil
}

// LogSummary reports a finished run
func LogSummary(l *log.Logger, s Summary) {
	l.Info("Augmentation complete",
		"images", s.Images,
		"skipped", s.Skipped,
		"variants", s.Variants,
		"write_failures", s.WriteFailures,
		"empty", s.EmptyVariants,
		"boxes_in", s.BoxesIn,
		"boxes_out", s.BoxesOut,
		"written", utils.FormatFileSize(s.BytesWritten),
		"elapsed", s.Elapsed.Round(time.Millisecond),
	)
}
