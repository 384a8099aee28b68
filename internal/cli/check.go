package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fuzdev/libmap/internal/link"
	"github.com/fuzdev/libmap/internal/pipeline"
)

func (a *app) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check [dir]",
		Short: "Analyze the library without writing artifacts",
		Long: `check runs the full analysis and reports what gen would produce. It writes
nothing and exits non-zero when declaration names collide across modules or
any error-severity diagnostic was recorded.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(argDir(args))
			if err != nil {
				return err
			}
			res, err := pipeline.Run(cmd.Context(), cfg, a.logger)
			if err != nil {
				return err
			}
			return verdict(cmd.OutOrStdout(), res)
		},
	}
}

// verdict renders the summary and decides the exit status.
func verdict(w io.Writer, res *pipeline.Result) error {
	declarations := 0
	for _, m := range res.Model.Modules {
		declarations += len(m.Declarations)
	}
	fmt.Fprintf(w, "modules:      %d\n", len(res.Model.Modules))
	fmt.Fprintf(w, "declarations: %d\n", declarations)
	fmt.Fprintf(w, "diagnostics:  %d\n", res.Context.Len())

	if res.Context.HasErrors() {
		return errors.New("analysis recorded error diagnostics")
	}
	if len(res.Model.Duplicates) > 0 {
		return link.FailOnDuplicates(res.Model)
	}
	fmt.Fprintln(w, "ok")
	return nil
}
