package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCommand(deps commandDeps) *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build version information",
		Example: "  markbook version\n" +
			"  markbook version --short\n" +
			"  markbook --json version",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := noPositionalArgs("version", args); err != nil {
				return err
			}
			var err error
			switch {
			case deps.globals.JSON:
				err = printJSON(deps.out, deps.build)
			case short:
				_, err = fmt.Fprintln(deps.out, deps.build.Version)
			default:
				_, err = fmt.Fprintf(deps.out, "markbook %s (commit %s, built %s)\n", deps.build.Version, deps.build.Commit, deps.build.BuildTime)
			}
			return mapCommandError(err)
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "Print only the version number")
	return cmd
}
