package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fuzdev/libmap/internal/version"
)

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Colorized())
		},
	}
}
