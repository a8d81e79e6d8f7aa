package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newClassCommand(deps commandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "class",
		Short: "Class labels",
	}
	cmd.AddCommand(&cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List distinct class labels",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := noPositionalArgs("class ls", args); err != nil {
				return err
			}
			return withServices(cmd.Context(), deps, "", func(ctx context.Context, svc services) error {
				classes, err := svc.students.Classes(ctx)
				if err != nil {
					return err
				}
				if deps.globals.JSON {
					if classes == nil {
						classes = []string{}
					}
					return printJSON(deps.out, classes)
				}
				for _, class := range classes {
					if _, err := fmt.Fprintln(deps.out, class); err != nil {
						return err
					}
				}
				return nil
			})
		},
	})
	return cmd
}
