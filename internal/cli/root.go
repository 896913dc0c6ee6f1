package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	imageaugmenter "github.com/menta2k/image-augmenter"
	"github.com/menta2k/image-augmenter/pkg/config"
)

// Execute runs the image-augmenter CLI. SIGINT and SIGTERM stop the run
// between images; variants already written stay complete.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd(os.Stderr).ExecuteContext(ctx)
}

type rootOptions struct {
	verbose    bool
	configPath string
}

func newRootCmd(logOut io.Writer) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "image-augmenter",
		Short:        "Expand a YOLO detection dataset with augmented variants",
		Long:         `image-augmenter generates randomized, label-consistent variants of every image in a YOLO dataset. Geometric transforms move the bounding boxes with the pixels; boxes that end up mostly outside the frame are dropped.`,
		Version:      imageaugmenter.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if opts.verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(logOut, level)))
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("image-augmenter %s\n", imageaugmenter.Version))
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "configuration file (json, yaml or toml)")

	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newConfigCmd())
	root.AddCommand(newTransformsCmd())

	return root
}

// loadConfig reads the file named by --config, or returns the defaults
func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.configPath == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(o.configPath)
}
