package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	imageaugmenter "github.com/menta2k/image-augmenter"
	"github.com/menta2k/image-augmenter/pkg/config"
	"github.com/menta2k/image-augmenter/pkg/dataset"
)

type runFlags struct {
	images        string
	labels        string
	outImages     string
	outLabels     string
	n             int
	minVisibility float64
	seed          uint64
	dropEmpty     bool
	format        string
	quality       int
	debugDir      string
}

// newRunCmd creates the "run" command
func newRunCmd(root *rootOptions) *cobra.Command {
	f := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Augment every labeled image of a dataset",
		Long: `Reads images from the image directory and their YOLO label files
({stem}.txt) from the label directory, and writes N augmented variants of each
as {stem}_aug{i} image and label pairs. Images without a label file are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			applyRunFlags(cmd, f, cfg)

			aug, err := imageaugmenter.NewWithConfig(cfg)
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			aug.SetLogger(logger)
			logger.Debug("Pipeline", "steps", aug.Steps(), "min_visibility", cfg.Augment.MinVisibility)

			prog := newProgress(logger)
			summary, err := aug.ProcessDataset(ctx)
			dataset.LogSummary(logger, summary)
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Wrote %d variants from %d images", summary.Variants, summary.Images-summary.Skipped))
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.images, "images", "", "source image directory")
	fl.StringVar(&f.labels, "labels", "", "source label directory")
	fl.StringVar(&f.outImages, "out-images", "", "output image directory")
	fl.StringVar(&f.outLabels, "out-labels", "", "output label directory")
	fl.IntVarP(&f.n, "multiplicity", "n", 0, "variants per image")
	fl.Float64Var(&f.minVisibility, "min-visibility", 0, "minimum visible area fraction for a box to survive")
	fl.Uint64Var(&f.seed, "seed", 0, "random seed (0 = time seeded)")
	fl.BoolVar(&f.dropEmpty, "drop-empty", false, "discard variants in which no box survived")
	fl.StringVar(&f.format, "format", "", "output image format: jpg|png|webp")
	fl.IntVar(&f.quality, "quality", 0, "JPEG/WebP output quality (1-100)")
	fl.StringVar(&f.debugDir, "debug-dir", "", "write box overlays to this directory")

	return cmd
}

// applyRunFlags overrides cfg with the flags set on the command line
func applyRunFlags(cmd *cobra.Command, f *runFlags, cfg *config.Config) {
	fl := cmd.Flags()
	if fl.Changed("images") {
		cfg.Input.ImageDir = f.images
	}
	if fl.Changed("labels") {
		cfg.Input.LabelDir = f.labels
	}
	if fl.Changed("out-images") {
		cfg.Output.ImageDir = f.outImages
	}
	if fl.Changed("out-labels") {
		cfg.Output.LabelDir = f.outLabels
	}
	if fl.Changed("multiplicity") {
		cfg.Augment.Multiplicity = f.n
	}
	if fl.Changed("min-visibility") {
		cfg.Augment.MinVisibility = f.minVisibility
	}
	if fl.Changed("seed") {
		cfg.Augment.Seed = f.seed
	}
	if fl.Changed("drop-empty") {
		cfg.Augment.DropEmpty = f.dropEmpty
	}
	if fl.Changed("format") {
		cfg.Output.Format = f.format
	}
	if fl.Changed("quality") {
		cfg.Output.Quality = f.quality
	}
	if fl.Changed("debug-dir") {
		cfg.Output.DebugDir = f.debugDir
	}
}
