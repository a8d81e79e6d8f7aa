package cli

import (
	"context"
	"fmt"
	"strings"

	debugpkg "github.com/amanthanvi/markbook/internal/debug"
	"github.com/spf13/cobra"
)

func newDebugCommand(deps commandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "debug",
		Short:   "Diagnostics helpers",
		Example: "  markbook debug bundle --output ./markbook-debug.json",
	}
	cmd.AddCommand(newDebugBundleCommand(deps))
	return cmd
}

func newDebugBundleCommand(deps commandDeps) *cobra.Command {
	var outputPath string
	cmd := &cobra.Command{
		Use:   "bundle",
		Short: "Collect diagnostics without student data into a JSON bundle",
		Example: "  markbook debug bundle --output ./markbook-debug.json\n" +
			"  markbook --json debug bundle --output ./markbook-debug.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := noPositionalArgs("debug bundle", args); err != nil {
				return err
			}
			if strings.TrimSpace(outputPath) == "" {
				return usageErrorf("debug bundle requires --output")
			}

			bundle := debugpkg.NewBundle()
			bundle.Version = map[string]any{
				"version":    deps.build.Version,
				"commit":     deps.build.Commit,
				"build_time": deps.build.BuildTime,
			}
			bundle.AddCheck("renderer", checkRenderer(), "pdf")

			cfg, report, err := loadConfig(deps)
			bundle.AddCheck("config", err, "loaded")
			if err == nil {
				bundle.Config = map[string]any{
					"config_path":  report.ConfigPath,
					"env_file":     report.EnvFile,
					"db_path":      cfg.Storage.Path,
					"export_dir":   cfg.Export.Dir,
					"auto_open":    cfg.Export.AutoOpen,
					"log_level":    cfg.Logging.Level,
					"log_file_set": cfg.Logging.File != "",
				}
				collectStorage(cmd.Context(), &bundle, cfg.Storage.Path)
			}

			if err := debugpkg.WriteBundle(outputPath, bundle); err != nil {
				return mapCommandError(err)
			}
			if deps.globals.JSON {
				return printJSON(deps.out, map[string]any{"output": outputPath, "healthy": bundle.Healthy()})
			}
			if deps.globals.Quiet {
				return nil
			}
			if failed := bundle.Failed(); len(failed) > 0 {
				_, err = fmt.Fprintf(deps.out, "debug bundle written: %s (failing checks: %s)\n", outputPath, strings.Join(failed, ", "))
			} else {
				_, err = fmt.Fprintf(deps.out, "debug bundle written: %s\n", outputPath)
			}
			return mapCommandError(err)
		},
	}
	cmd.Flags().StringVar(&outputPath, "output", "", "Output JSON bundle path")
	return cmd
}

// collectStorage records counts only.
func collectStorage(ctx context.Context, bundle *debugpkg.Bundle, path string) {
	store, err := openStoreFn(path)
	if err != nil {
		bundle.AddCheck("database", err, "")
		return
	}
	defer store.Close()

	version, err := store.SchemaVersion(ctx)
	if err != nil {
		bundle.AddCheck("database", err, "")
		return
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		bundle.AddCheck("database", err, "")
		return
	}
	bundle.Storage = map[string]any{
		"schema_version": version,
		"students":       stats.Students,
		"work_titles":    stats.WorkTitles,
		"classes":        stats.Classes,
	}
	bundle.AddCheck("database", nil, schemaCheckMessage(version))
}
