// Package generator produces N independent augmented variants per source
// image.
package generator

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"

	"github.com/menta2k/image-augmenter/pkg/pipeline"
	"github.com/menta2k/image-augmenter/pkg/types"
)

// DefaultMultiplicity is the number of variants generated per source image
const DefaultMultiplicity = 400

// Variant is one generated result with its iteration index
type Variant struct {
	Index int
	types.AugmentationResult
}

// EmitFunc receives every variant in index order. An error fails only that
// iteration.
type EmitFunc func(v Variant) error

// Config holds generator options
type Config struct {
	Multiplicity int
	// Seed makes runs reproducible; zero seeds from the clock
	Seed uint64
	// DropEmpty discards variants in which no box survived. The iteration
	// index is still consumed.
	DropEmpty bool
}

// Stats summarizes one Generate call
type Stats struct {
	Emitted      int
	Empty        int
	DroppedEmpty int
	Failed       int
	BoxesKept    int
	BoxesDropped int
}

// Generator repeats a pipeline over one source image
type Generator struct {
	pipeline *pipeline.Pipeline
	config   Config
	rng      *rand.Rand
	logger   *log.Logger
}

// New creates a generator. The random source is owned by the generator and
// must not be shared across goroutines.
func New(p *pipeline.Pipeline, cfg Config) (*Generator, error) {
	if p == nil {
		return nil, errors.New("nil pipeline")
	}
	if cfg.Multiplicity < 0 {
		return nil, fmt.Errorf("multiplicity %d is negative", cfg.Multiplicity)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Generator{
		pipeline: p,
		config:   cfg,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		logger:   log.Default(),
	}, nil
}

// SetLogger replaces the default logger
func (g *Generator) SetLogger(l *log.Logger) {
	if l != nil {
		g.logger = l
	}
}

// Multiplicity returns the number of iterations per source image
func (g *Generator) Multiplicity() int {
	return g.config.Multiplicity
}

// Generate runs the pipeline Multiplicity times on img and labels, calling
// emit for each variant. Iterations are independent: a failed iteration is
// counted and logged, and the rest still run. Generate stops early only
// when ctx is cancelled.
func (g *Generator) Generate(ctx context.Context, img image.Image, labels types.LabelSet, emit EmitFunc) (Stats, error) {
	var stats Stats
	for i := 0; i < g.config.Multiplicity; i++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		res, err := g.pipeline.Apply(img, labels, g.rng)
		if err != nil {
			stats.Failed++
			g.logger.Warn("iteration failed", "index", i, "err", err)
			continue
		}
		stats.BoxesKept += len(res.Labels)
		stats.BoxesDropped += res.Dropped

		if len(res.Labels) == 0 {
			stats.Empty++
			if g.config.DropEmpty {
				stats.DroppedEmpty++
				g.logger.Debug("empty variant discarded", "index", i)
				continue
			}
		}

		if err := emit(Variant{Index: i, AugmentationResult: res}); err != nil {
			stats.Failed++
			g.logger.Warn("variant not written", "index", i, "err", err)
			continue
		}
		stats.Emitted++
	}
	return stats, nil
}

// GenerateAll collects every variant in memory
func (g *Generator) GenerateAll(ctx context.Context, img image.Image, labels types.LabelSet) ([]Variant, error) {
	out := make([]Variant, 0, g.config.Multiplicity)
	_, err := g.Generate(ctx, img, labels, func(v Variant) error {
		out = append(out, v)
		return nil
	})
	return out, err
}
