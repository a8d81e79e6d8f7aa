package cli

import (
	"context"
	"os"

	"github.com/amanthanvi/markbook/internal/app"
	"github.com/amanthanvi/markbook/internal/storage"
	"github.com/amanthanvi/markbook/internal/tui"
	"github.com/spf13/cobra"
)

var runTUIFn = tui.Run

func newTUICommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse students interactively",
		Long: "Browse students interactively. / searches by name, c cycles the class\n" +
			"filter, enter shows a student, e exports, d deletes, q quits.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := noPositionalArgs("tui", args); err != nil {
				return err
			}
			return withServices(cmd.Context(), deps, "", func(ctx context.Context, svc services) error {
				client := tuiClient{
					students: svc.students,
					exports:  svc.exports,
					autoOpen: svc.cfg.Export.AutoOpen,
				}
				err := runTUIFn(tui.Options{
					Client: client,
					IsTTY:  stdinIsTerminal,
					Input:  cmd.InOrStdin(),
					Output: deps.out,
				})
				if err != nil {
					return asExitError(ExitCodeUsage, err)
				}
				return nil
			})
		},
	}
}

// tuiClient adapts the services to the TUI. The store stays open for the
// lifetime of the program.
type tuiClient struct {
	students *app.StudentService
	exports  *app.ExportService
	autoOpen bool
}

func (c tuiClient) ListStudents(ctx context.Context, filter storage.StudentFilter) ([]storage.Student, error) {
	return c.students.List(ctx, filter)
}

func (c tuiClient) Classes(ctx context.Context) ([]string, error) {
	return c.students.Classes(ctx)
}

func (c tuiClient) Show(ctx context.Context, id int64) (*app.StudentRecord, error) {
	return c.students.Show(ctx, id)
}

func (c tuiClient) Delete(ctx context.Context, id int64) error {
	return c.students.Delete(ctx, id)
}

func (c tuiClient) Export(ctx context.Context, id int64) (string, error) {
	result, err := c.exports.Export(ctx, id, c.autoOpen)
	if err != nil {
		return "", err
	}
	return result.Path, nil
}

func stdinIsTerminal() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
