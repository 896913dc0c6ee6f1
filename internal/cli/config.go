package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/menta2k/image-augmenter/pkg/config"
	"github.com/menta2k/image-augmenter/internal/utils"
)

// newConfigCmd creates the "config" command group
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration files",
	}
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigPathCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration file",
		Long:  `Writes the default configuration, including the full default pipeline, to path. The format follows the extension: .json, .yaml/.yml or .toml.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.GetConfigPath()
			if len(args) == 1 {
				path = args[0]
			}
			if utils.FileExists(path) && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.Default().SaveToFile(path); err != nil {
				return err
			}
			loggerFromContext(cmd.Context()).Info("Wrote configuration", "path", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the default configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), config.GetConfigPath())
			return nil
		},
	}
}
