package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/menta2k/image-augmenter/pkg/transform"
)

// newTransformsCmd creates the "transforms" command
func newTransformsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transforms",
		Short: "List available transforms and their default parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, def := range transform.Definitions() {
				kind := "photometric"
				if def.Geometric {
					kind = "geometric"
				}
				fmt.Fprintf(out, "%-28s %-12s %s\n", def.Name, kind, formatParams(def.Defaults))
			}
			return nil
		},
	}
}

func formatParams(params map[string]float64) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%g", name, params[name])
	}
	return strings.Join(parts, " ")
}
