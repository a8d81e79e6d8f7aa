package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newExportCommand(deps commandDeps) *cobra.Command {
	var (
		dir    string
		noOpen bool
	)

	cmd := &cobra.Command{
		Use:   "export <student-id>",
		Short: "Export a student's record as PDF",
		Long: "Export a student's record as an A4 PDF named <first>_<last>_<class>.pdf.\n" +
			"The file is opened with the default viewer unless --no-open is set\n" +
			"or export.auto_open is false.",
		Example: "  markbook export 3\n" +
			"  markbook export 3 --dir ./berichte --no-open",
		Args: exactArgs("export", 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			studentID, err := parseIDArg("export", "student id", args[0])
			if err != nil {
				return err
			}
			return withServices(cmd.Context(), deps, dir, func(ctx context.Context, svc services) error {
				autoOpen := svc.cfg.Export.AutoOpen && !noOpen
				result, err := svc.exports.Export(ctx, studentID, autoOpen)
				if err != nil {
					return err
				}
				if deps.globals.JSON {
					return printJSON(deps.out, result)
				}
				if deps.globals.Quiet {
					return nil
				}
				_, err = fmt.Fprintf(deps.out, "exported %s (%s)\n", result.Path, boolToState(result.Opened, "opened", "not opened"))
				return err
			})
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Output directory (default export.dir)")
	cmd.Flags().BoolVar(&noOpen, "no-open", false, "Do not open the exported file")
	return cmd
}
