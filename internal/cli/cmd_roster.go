package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/amanthanvi/markbook/internal/roster"
	"github.com/amanthanvi/markbook/internal/storage"
	"github.com/spf13/cobra"
)

func newRosterCommand(deps commandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Import and export class lists as xlsx",
	}
	cmd.AddCommand(newRosterImportCommand(deps), newRosterExportCommand(deps))
	return cmd
}

func newRosterImportCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Add the students listed in a workbook",
		Long: "Add the students listed in the first sheet of a workbook. Row 1 is a\n" +
			"header; Vorname, Nachname and Klasse columns are recognised by name,\n" +
			"otherwise columns A to C are used. Invalid rows are skipped and reported.",
		Example: "  markbook roster import klasse5b.xlsx",
		Args:    exactArgs("roster import", 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), deps, "", func(ctx context.Context, svc services) error {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("roster import: %w", err)
				}
				defer f.Close()

				report, err := roster.Import(ctx, f, svc.students)
				if err != nil {
					return err
				}
				if deps.globals.JSON {
					return printJSON(deps.out, report)
				}
				if deps.globals.Quiet {
					return nil
				}
				if _, err := fmt.Fprintf(deps.out, "imported %d student(s), skipped %d row(s)\n", report.Imported, len(report.Skipped)); err != nil {
					return err
				}
				for _, skipped := range report.Skipped {
					if _, err := fmt.Fprintf(deps.out, "row %d: %s\n", skipped.Row, skipped.Reason); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newRosterExportCommand(deps commandDeps) *cobra.Command {
	var class string

	cmd := &cobra.Command{
		Use:     "export <file.xlsx>",
		Short:   "Write the student list to a workbook",
		Example: "  markbook roster export schueler.xlsx --class 5B",
		Args:    exactArgs("roster export", 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), deps, "", func(ctx context.Context, svc services) error {
				students, err := svc.students.List(ctx, storage.StudentFilter{Class: class})
				if err != nil {
					return err
				}

				f, err := os.Create(args[0])
				if err != nil {
					return fmt.Errorf("roster export: %w", err)
				}
				if err := roster.Export(students, f); err != nil {
					_ = f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return fmt.Errorf("roster export: %w", err)
				}

				if deps.globals.JSON {
					return printJSON(deps.out, map[string]any{"output": args[0], "students": len(students)})
				}
				if deps.globals.Quiet {
					return nil
				}
				_, err = fmt.Fprintf(deps.out, "wrote %d student(s) to %s\n", len(students), args[0])
				return err
			})
		},
	}
	cmd.Flags().StringVar(&class, "class", "", "Only students of this class")
	return cmd
}
