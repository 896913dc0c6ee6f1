// Package pipeline composes transforms into one stochastic augmentation.
//
// Each step fires independently with its own probability, in declared
// order. Geometric steps move every box with the image; clipping and the
// visibility check run once, after the last step, so a box pushed out of
// frame by one step and brought back by a later one survives.
package pipeline

import (
	"errors"
	"fmt"
	"image"
	"math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"

	"github.com/menta2k/image-augmenter/pkg/bbox"
	"github.com/menta2k/image-augmenter/pkg/transform"
	"github.com/menta2k/image-augmenter/pkg/types"
)

// Config holds pipeline options
type Config struct {
	Steps         []types.TransformSpec
	MinVisibility float64
}

// DefaultConfig returns the standard detection pipeline
func DefaultConfig() Config {
	return Config{
		Steps:         transform.DefaultPipeline(),
		MinVisibility: bbox.DefaultMinVisibility,
	}
}

// Pipeline is an ordered list of transforms plus the visibility threshold
type Pipeline struct {
	steps         []transform.Transform
	minVisibility float64
	logger        *log.Logger
}

// New builds a pipeline from declared specs
func New(cfg Config) (*Pipeline, error) {
	if cfg.MinVisibility < 0 || cfg.MinVisibility > 1 {
		return nil, fmt.Errorf("min visibility %v outside [0,1]", cfg.MinVisibility)
	}
	steps, err := transform.BuildAll(cfg.Steps)
	if err != nil {
		return nil, err
	}
	return NewFromTransforms(steps, cfg.MinVisibility), nil
}

// NewFromTransforms builds a pipeline from already constructed transforms
func NewFromTransforms(steps []transform.Transform, minVisibility float64) *Pipeline {
	return &Pipeline{steps: steps, minVisibility: minVisibility, logger: log.Default()}
}

// SetLogger replaces the logger used for dropped-box diagnostics
func (p *Pipeline) SetLogger(l *log.Logger) {
	if l != nil {
		p.logger = l
	}
}

// Steps returns the transform names in application order
func (p *Pipeline) Steps() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name()
	}
	return names
}

// MinVisibility returns the visibility threshold
func (p *Pipeline) MinVisibility() float64 {
	return p.minVisibility
}

// Apply produces one augmented variant of img and its labels. Every step
// draws r from rng and runs iff r < p. Neither img nor labels is modified.
func (p *Pipeline) Apply(img image.Image, labels types.LabelSet, rng *rand.Rand) (types.AugmentationResult, error) {
	if img == nil {
		return types.AugmentationResult{}, errors.New("nil image")
	}
	if rng == nil {
		return types.AugmentationResult{}, errors.New("nil random source")
	}

	cur := imaging.Clone(img)
	entries := bbox.Entries(labels)
	var applied []string

	for _, step := range p.steps {
		if rng.Float64() >= step.Probability() {
			continue
		}
		w, h := cur.Bounds().Dx(), cur.Bounds().Dy()
		op := step.Sample(rng, w, h)

		if geo, ok := op.(transform.GeometricOp); ok {
			for i := range entries {
				if entries[i].Degenerate {
					continue
				}
				mapped, err := geo.MapRect(entries[i].Rect, w, h)
				if err != nil {
					p.logger.Debug("box dropped", "step", step.Name(), "class", entries[i].ClassID, "err", err)
					entries[i].Degenerate = true
					continue
				}
				entries[i].Rect = mapped
				entries[i].Original = nil
			}
		}

		cur = op.Apply(cur)
		applied = append(applied, step.Name())
	}

	kept, dropped := bbox.Filter(entries, p.minVisibility)
	return types.AugmentationResult{
		Image:   cur,
		Labels:  kept,
		Applied: applied,
		Dropped: dropped,
	}, nil
}
