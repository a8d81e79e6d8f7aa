package cli

import (
	"io"

	"github.com/spf13/cobra"
)

type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

type GlobalOptions struct {
	JSON       bool
	Quiet      bool
	DBPath     string
	ConfigPath string
}

type commandDeps struct {
	out     io.Writer
	globals *GlobalOptions
	build   BuildInfo
}

func NewRootCommand(out io.Writer, build BuildInfo) *cobra.Command {
	globals := &GlobalOptions{}
	deps := commandDeps{
		out:     out,
		globals: globals,
		build:   build,
	}

	cmd := &cobra.Command{
		Use:   "markbook",
		Short: "Record student assessments and export them as PDF",
		Long: "markbook keeps per-student assessment notes and graded work titles in a\n" +
			"local SQLite file and exports a student's record as a PDF document.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: ExitCodeUsage, Err: err}
	})

	flags := cmd.PersistentFlags()
	flags.BoolVar(&globals.JSON, "json", false, "Print machine-readable JSON")
	flags.BoolVar(&globals.Quiet, "quiet", false, "Suppress non-essential output")
	flags.StringVar(&globals.DBPath, "db", "", "Path to the student database (default students.db)")
	flags.StringVar(&globals.ConfigPath, "config", "", "Path to config.toml")

	cmd.AddCommand(
		newStudentCommand(deps),
		newWorkCommand(deps),
		newClassCommand(deps),
		newExportCommand(deps),
		newRosterCommand(deps),
		newStatusCommand(deps),
		newDoctorCommand(deps),
		newDebugCommand(deps),
		newTUICommand(deps),
		newVersionCommand(deps),
	)
	cmd.InitDefaultCompletionCmd()
	return cmd
}
