package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/amanthanvi/markbook/internal/app"
	"github.com/amanthanvi/markbook/internal/storage"
	"github.com/spf13/cobra"
)

func newStudentCommand(deps commandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "student",
		Short: "Student management",
	}
	cmd.AddCommand(
		newStudentAddCommand(deps),
		newStudentListCommand(deps),
		newStudentShowCommand(deps),
		newStudentDetailsCommand(deps),
		newStudentRemoveCommand(deps),
	)
	return cmd
}

func newStudentAddCommand(deps commandDeps) *cobra.Command {
	var (
		student     storage.NewStudent
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a student",
		Example: "  markbook student add --first Anna --last Berg --class 5b\n" +
			"  markbook student add --interactive",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := noPositionalArgs("student add", args); err != nil {
				return err
			}
			if interactive {
				if err := runStudentFormFn(cmd.InOrStdin(), deps.out, &student); err != nil {
					return mapCommandError(err)
				}
			}
			if strings.TrimSpace(student.FirstName) == "" {
				return usageErrorf("student add requires --first")
			}
			if strings.TrimSpace(student.LastName) == "" {
				return usageErrorf("student add requires --last")
			}

			return withServices(cmd.Context(), deps, "", func(ctx context.Context, svc services) error {
				id, err := svc.students.Add(ctx, student)
				if err != nil {
					return err
				}
				added, err := svc.students.Get(ctx, id)
				if err != nil {
					return err
				}
				if deps.globals.JSON {
					return printJSON(deps.out, added)
				}
				if deps.globals.Quiet {
					return nil
				}
				_, err = fmt.Fprintf(deps.out, "added student %d: %s %s (%s)\n", added.ID, added.FirstName, added.LastName, classOrDash(added.Class))
				return err
			})
		},
	}

	cmd.Flags().StringVar(&student.FirstName, "first", "", "First name")
	cmd.Flags().StringVar(&student.LastName, "last", "", "Last name")
	cmd.Flags().StringVar(&student.Class, "class", "", "Class label (stored upper-case)")
	cmd.Flags().BoolVar(&interactive, "interactive", false, "Prompt for the fields in a form")
	return cmd
}

func newStudentListCommand(deps commandDeps) *cobra.Command {
	var filter storage.StudentFilter

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List students ordered by class",
		Example: "  markbook student ls\n" +
			"  markbook student ls --search ann --class 5B",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := noPositionalArgs("student ls", args); err != nil {
				return err
			}
			return withServices(cmd.Context(), deps, "", func(ctx context.Context, svc services) error {
				students, err := svc.students.List(ctx, filter)
				if err != nil {
					return err
				}
				if deps.globals.JSON {
					return printJSON(deps.out, students)
				}
				return printStudents(deps.out, students)
			})
		},
	}

	cmd.Flags().StringVar(&filter.Keyword, "search", "", "Substring of first or last name")
	cmd.Flags().StringVar(&filter.Class, "class", "", "Only students of this class")
	return cmd
}

func newStudentShowCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "show <student-id>",
		Short: "Show a student with assessment and work titles",
		Args:  exactArgs("student show", 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg("student show", "student id", args[0])
			if err != nil {
				return err
			}
			return withServices(cmd.Context(), deps, "", func(ctx context.Context, svc services) error {
				record, err := svc.students.Show(ctx, id)
				if err != nil {
					return err
				}
				if deps.globals.JSON {
					return printJSON(deps.out, record)
				}
				return printRecord(deps.out, record)
			})
		},
	}
}

func newStudentDetailsCommand(deps commandDeps) *cobra.Command {
	var fields *assessmentFlagSet

	cmd := &cobra.Command{
		Use:   "details <student-id>",
		Short: "Update a student's assessment fields",
		Long: "Update a student's assessment fields. Only the given flags change;\n" +
			"pass an empty value (--comment \"\") to clear a field.",
		Example: "  markbook student details 3 --social \"hilfsbereit\" --comment \"ruhig\"",
		Args:    exactArgs("student details", 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg("student details", "student id", args[0])
			if err != nil {
				return err
			}
			if !fields.anyChanged(cmd) {
				return usageErrorf("student details requires at least one field flag")
			}
			return withServices(cmd.Context(), deps, "", func(ctx context.Context, svc services) error {
				record, err := svc.students.Show(ctx, id)
				if err != nil {
					return err
				}
				var current storage.Assessment
				if record.Details != nil {
					current = *record.Details
				}
				next := fields.overlay(cmd, current)
				if err := svc.students.UpdateDetails(ctx, id, next); err != nil {
					return err
				}
				if deps.globals.JSON {
					return printJSON(deps.out, next)
				}
				if deps.globals.Quiet {
					return nil
				}
				_, err = fmt.Fprintf(deps.out, "updated details of student %d\n", id)
				return err
			})
		},
	}
	fields = bindAssessmentFlags(cmd, studentAssessmentFlags)
	return cmd
}

func newStudentRemoveCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <student-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a student and all of their work titles",
		Args:    exactArgs("student rm", 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg("student rm", "student id", args[0])
			if err != nil {
				return err
			}
			return withServices(cmd.Context(), deps, "", func(ctx context.Context, svc services) error {
				if _, err := svc.students.Get(ctx, id); err != nil {
					return err
				}
				if err := svc.students.Delete(ctx, id); err != nil {
					return err
				}
				if deps.globals.JSON {
					return printJSON(deps.out, map[string]any{"deleted": id})
				}
				if deps.globals.Quiet {
					return nil
				}
				_, err := fmt.Fprintf(deps.out, "deleted student %d\n", id)
				return err
			})
		},
	}
}

func exactArgs(command string, n int) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) != n {
			return usageErrorf("%s expects %d argument(s), got %d", command, n, len(args))
		}
		return nil
	}
}

func printStudents(w io.Writer, students []storage.Student) error {
	for _, s := range students {
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.ID, classOrDash(s.Class), s.LastName, s.FirstName); err != nil {
			return err
		}
	}
	return nil
}

func printRecord(w io.Writer, record *app.StudentRecord) error {
	var details storage.Assessment
	if record.Details != nil {
		details = *record.Details
	}
	s := record.Student

	var b strings.Builder
	fmt.Fprintf(&b, "id=%d name=%q class=%s\n", s.ID, s.FirstName+" "+s.LastName, classOrDash(s.Class))
	writeAssessment(&b, "  ", studentAssessmentFlags, details)
	fmt.Fprintf(&b, "work titles: %d\n", len(record.WorkTitles))
	for _, work := range record.WorkTitles {
		fmt.Fprintf(&b, "- id=%d title=%q note=%q\n", work.ID, work.Title, work.Note)
		writeAssessment(&b, "    ", workAssessmentFlags, work.Assessment)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeAssessment(b *strings.Builder, indent string, flags []assessmentFlag, value storage.Assessment) {
	for _, flag := range flags {
		fmt.Fprintf(b, "%s%s: %s\n", indent, flag.name, *flag.target(&value))
	}
}

func classOrDash(class string) string {
	if class == "" {
		return "-"
	}
	return class
}
