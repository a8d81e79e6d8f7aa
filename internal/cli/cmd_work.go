package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/amanthanvi/markbook/internal/storage"
	"github.com/spf13/cobra"
)

func newWorkCommand(deps commandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "work",
		Aliases: []string{"arbeit"},
		Short:   "Graded work titles of a student",
	}
	cmd.AddCommand(
		newWorkAddCommand(deps),
		newWorkEditCommand(deps),
		newWorkRemoveCommand(deps),
		newWorkListCommand(deps),
	)
	return cmd
}

func newWorkAddCommand(deps commandDeps) *cobra.Command {
	var (
		title  string
		note   string
		fields *assessmentFlagSet
	)

	cmd := &cobra.Command{
		Use:     "add <student-id>",
		Short:   "Add a work title to a student",
		Example: "  markbook work add 3 --title Vase --concept \"klar\" --liked \"Farben\"",
		Args:    exactArgs("work add", 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			studentID, err := parseIDArg("work add", "student id", args[0])
			if err != nil {
				return err
			}
			input := storage.WorkTitleInput{
				Title:      title,
				Note:       note,
				Assessment: fields.overlay(cmd, storage.Assessment{}),
			}
			return withServices(cmd.Context(), deps, "", func(ctx context.Context, svc services) error {
				if _, err := svc.students.Get(ctx, studentID); err != nil {
					return err
				}
				id, err := svc.students.AddWork(ctx, studentID, input)
				if err != nil {
					return err
				}
				if deps.globals.JSON {
					return printJSON(deps.out, storage.WorkTitle{
						ID:         id,
						StudentID:  studentID,
						Title:      input.Title,
						Note:       input.Note,
						Assessment: input.Assessment,
					})
				}
				if deps.globals.Quiet {
					return nil
				}
				_, err = fmt.Fprintf(deps.out, "added work title %d to student %d\n", id, studentID)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Title of the work (Arbeitstitel)")
	cmd.Flags().StringVar(&note, "note", "", "Free note (Notiz)")
	fields = bindAssessmentFlags(cmd, workAssessmentFlags)
	return cmd
}

func newWorkEditCommand(deps commandDeps) *cobra.Command {
	var (
		title  string
		note   string
		fields *assessmentFlagSet
	)

	cmd := &cobra.Command{
		Use:     "edit <work-id>",
		Short:   "Change fields of a work title",
		Long:    "Change fields of a work title. Only the given flags change.",
		Example: "  markbook work edit 7 --note \"nachgebessert\"",
		Args:    exactArgs("work edit", 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workID, err := parseIDArg("work edit", "work id", args[0])
			if err != nil {
				return err
			}
			titleChanged := cmd.Flags().Changed("title")
			noteChanged := cmd.Flags().Changed("note")
			if !titleChanged && !noteChanged && !fields.anyChanged(cmd) {
				return usageErrorf("work edit requires at least one field flag")
			}

			return withServices(cmd.Context(), deps, "", func(ctx context.Context, svc services) error {
				current, err := svc.students.Work(ctx, workID)
				if err != nil {
					return err
				}
				input := storage.WorkTitleInput{
					Title:      current.Title,
					Note:       current.Note,
					Assessment: fields.overlay(cmd, current.Assessment),
				}
				if titleChanged {
					input.Title = title
				}
				if noteChanged {
					input.Note = note
				}
				if err := svc.students.UpdateWork(ctx, workID, input); err != nil {
					return err
				}
				if deps.globals.JSON {
					return printJSON(deps.out, storage.WorkTitle{
						ID:         workID,
						StudentID:  current.StudentID,
						Title:      input.Title,
						Note:       input.Note,
						Assessment: input.Assessment,
					})
				}
				if deps.globals.Quiet {
					return nil
				}
				_, err = fmt.Fprintf(deps.out, "updated work title %d\n", workID)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Title of the work (Arbeitstitel)")
	cmd.Flags().StringVar(&note, "note", "", "Free note (Notiz)")
	fields = bindAssessmentFlags(cmd, workAssessmentFlags)
	return cmd
}

func newWorkRemoveCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <work-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a work title",
		Args:    exactArgs("work rm", 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workID, err := parseIDArg("work rm", "work id", args[0])
			if err != nil {
				return err
			}
			return withServices(cmd.Context(), deps, "", func(ctx context.Context, svc services) error {
				if _, err := svc.students.Work(ctx, workID); err != nil {
					return err
				}
				if err := svc.students.DeleteWork(ctx, workID); err != nil {
					return err
				}
				if deps.globals.JSON {
					return printJSON(deps.out, map[string]any{"deleted": workID})
				}
				if deps.globals.Quiet {
					return nil
				}
				_, err := fmt.Fprintf(deps.out, "deleted work title %d\n", workID)
				return err
			})
		},
	}
}

func newWorkListCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:     "ls <student-id>",
		Aliases: []string{"list"},
		Short:   "List a student's work titles in insertion order",
		Args:    exactArgs("work ls", 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			studentID, err := parseIDArg("work ls", "student id", args[0])
			if err != nil {
				return err
			}
			return withServices(cmd.Context(), deps, "", func(ctx context.Context, svc services) error {
				if _, err := svc.students.Get(ctx, studentID); err != nil {
					return err
				}
				works, err := svc.students.Works(ctx, studentID)
				if err != nil {
					return err
				}
				if deps.globals.JSON {
					return printJSON(deps.out, works)
				}
				var b strings.Builder
				for _, work := range works {
					fmt.Fprintf(&b, "%d\t%s\t%s\n", work.ID, work.Title, work.Note)
				}
				_, err = fmt.Fprint(deps.out, b.String())
				return err
			})
		},
	}
}
