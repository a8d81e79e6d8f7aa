package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/amanthanvi/markbook/internal/app"
	"github.com/amanthanvi/markbook/internal/config"
	"github.com/amanthanvi/markbook/internal/export"
	mblog "github.com/amanthanvi/markbook/internal/log"
	"github.com/amanthanvi/markbook/internal/storage"
)

var (
	loadConfigFn  = config.Load
	openStoreFn   = storage.Open
	newRendererFn = export.NewPDFRenderer
	newOpenerFn   = func() app.FileOpener { return export.Opener{} }
)

type services struct {
	cfg      config.Config
	store    *storage.Store
	logger   *slog.Logger
	students *app.StudentService
	exports  *app.ExportService
}

func loadConfig(deps commandDeps) (config.Config, config.LoadReport, error) {
	opts := config.LoadOptions{}
	if deps.globals != nil {
		if configPath := strings.TrimSpace(deps.globals.ConfigPath); configPath != "" {
			opts.ConfigPath = configPath
		}
		if dbPath := strings.TrimSpace(deps.globals.DBPath); dbPath != "" {
			opts.Flags.DBPath = &dbPath
		}
	}
	cfg, report, err := loadConfigFn(opts)
	if err != nil {
		return config.Config{}, report, fmt.Errorf("load config: %w", err)
	}
	return cfg, report, nil
}

// withServices opens the store for the duration of fn. exportDir overrides
// the configured export directory when non-empty.
func withServices(cmdCtx context.Context, deps commandDeps, exportDir string, fn func(context.Context, services) error) error {
	ctx := cmdCtx
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, _, err := loadConfig(deps)
	if err != nil {
		return mapCommandError(err)
	}
	if exportDir != "" {
		cfg.Export.Dir = exportDir
	}

	logger, closeLog, err := mblog.New(mblog.Options{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		MaxFiles:  cfg.Logging.MaxFiles,
	})
	if err != nil {
		return mapCommandError(fmt.Errorf("%w: logging: %v", config.ErrInvalidConfig, err))
	}
	defer closeLog.Close()

	store, err := openStoreFn(cfg.Storage.Path)
	if err != nil {
		return mapCommandError(err)
	}
	defer store.Close()

	exporter := export.NewExporter(cfg.Export.Dir, newRendererFn())
	svc := services{
		cfg:      cfg,
		store:    store,
		logger:   logger,
		students: app.NewStudentService(store.Students, store.WorkTitles, logger),
		exports:  app.NewExportService(store.Students, store.WorkTitles, exporter, newOpenerFn(), logger),
	}
	return mapCommandError(fn(ctx, svc))
}

func printJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func boolToState(v bool, yes, no string) string {
	if v {
		return yes
	}
	return no
}

func noPositionalArgs(name string, args []string) error {
	if len(args) != 0 {
		return usageErrorf("%s does not accept positional arguments", name)
	}
	return nil
}
