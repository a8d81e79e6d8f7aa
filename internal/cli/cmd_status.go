package cli

import (
	"context"
	"fmt"

	"github.com/amanthanvi/markbook/internal/export"
	"github.com/amanthanvi/markbook/internal/storage"
	"github.com/spf13/cobra"
)

func newStatusCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show database and export status",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := noPositionalArgs("status", args); err != nil {
				return err
			}
			return withServices(cmd.Context(), deps, "", func(ctx context.Context, svc services) error {
				version, err := svc.store.SchemaVersion(ctx)
				if err != nil {
					return err
				}
				stats, err := svc.store.Stats(ctx)
				if err != nil {
					return err
				}

				payload := map[string]any{
					"db_path":            svc.store.Path(),
					"schema_version":     version,
					"students":           stats.Students,
					"work_titles":        stats.WorkTitles,
					"classes":            stats.Classes,
					"export_dir":         svc.cfg.Export.Dir,
					"renderer_available": svc.exports.Available(),
				}
				if deps.globals.JSON {
					return printJSON(deps.out, payload)
				}
				if deps.globals.Quiet {
					return nil
				}
				_, err = fmt.Fprintf(
					deps.out,
					"db=%s schema=%d students=%d work_titles=%d classes=%d pdf=%s\n",
					svc.store.Path(),
					version,
					stats.Students,
					stats.WorkTitles,
					stats.Classes,
					boolToState(svc.exports.Available(), "available", "unavailable"),
				)
				return err
			})
		},
	}
}

type doctorCheck struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

func newDoctorCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check config, database and PDF renderer",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := noPositionalArgs("doctor", args); err != nil {
				return err
			}

			checks := []doctorCheck{}
			add := func(name string, err error, okMessage string) {
				if err != nil {
					checks = append(checks, doctorCheck{Name: name, OK: false, Message: err.Error()})
					return
				}
				checks = append(checks, doctorCheck{Name: name, OK: true, Message: okMessage})
			}

			rendererErr := checkRenderer()
			add("renderer", rendererErr, "pdf")

			cfg, _, cfgErr := loadConfig(deps)
			add("config", cfgErr, "loaded")
			if cfgErr == nil {
				schema, dbErr := checkDatabase(cmd.Context(), cfg.Storage.Path)
				add("database", dbErr, fmt.Sprintf("%s (%s)", cfg.Storage.Path, schemaCheckMessage(schema)))
			}

			if deps.globals.JSON {
				if err := printJSON(deps.out, map[string]any{"checks": checks}); err != nil {
					return mapCommandError(err)
				}
			} else if !deps.globals.Quiet {
				for _, check := range checks {
					if _, err := fmt.Fprintf(deps.out, "%s: %s (%s)\n", check.Name, boolToState(check.OK, "ok", "fail"), check.Message); err != nil {
						return mapCommandError(err)
					}
				}
			}

			if rendererErr != nil {
				return asExitError(ExitCodeDependencyMissing, rendererErr)
			}
			for _, check := range checks {
				if !check.OK {
					return asExitError(ExitCodeGeneric, fmt.Errorf("doctor: one or more checks failed"))
				}
			}
			return nil
		},
	}
}

func checkRenderer() error {
	if !newRendererFn().Available() {
		return export.RendererUnavailableError()
	}
	return nil
}

func checkDatabase(ctx context.Context, path string) (int, error) {
	store, err := openStoreFn(path)
	if err != nil {
		return 0, err
	}
	defer store.Close()
	return store.SchemaVersion(ctx)
}

// schemaCheckMessage describes the database schema relative to this build.
func schemaCheckMessage(version int) string {
	return fmt.Sprintf("schema %d of %d", version, storage.CurrentSchemaVersion())
}
