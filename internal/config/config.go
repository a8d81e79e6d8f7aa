package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	defaultStoragePath  = "students.db"
	defaultExportDir    = "."
	defaultAutoOpen     = true
	defaultLogLevel     = "warn"
	defaultLogMaxSizeMB = 10
	defaultLogMaxFiles  = 5
	defaultEnvFile      = ".env"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Storage StorageConfig `toml:"storage"`
	Export  ExportConfig  `toml:"export"`
	Logging LoggingConfig `toml:"logging"`
}

type StorageConfig struct {
	Path string `toml:"path"`
}

type ExportConfig struct {
	Dir      string `toml:"dir"`
	AutoOpen bool   `toml:"auto_open"`
}

type LoggingConfig struct {
	Level     string `toml:"level"`
	File      string `toml:"file"`
	MaxSizeMB int    `toml:"max_size_mb"`
	MaxFiles  int    `toml:"max_files"`
}

type LoadOptions struct {
	ConfigPath string
	// EnvFile is the dotenv file layered between the config file and the
	// process environment. Empty means MARKBOOK_ENV_FILE or ./.env.
	EnvFile string
	Env     map[string]string
	Flags   FlagOverrides
}

type FlagOverrides struct {
	DBPath    *string
	ExportDir *string
	AutoOpen  *bool
	LogLevel  *string
}

type LoadReport struct {
	ConfigPath string
	EnvFile    string
}

func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{
			Path: defaultStoragePath,
		},
		Export: ExportConfig{
			Dir:      defaultExportDir,
			AutoOpen: defaultAutoOpen,
		},
		Logging: LoggingConfig{
			Level:     defaultLogLevel,
			File:      "",
			MaxSizeMB: defaultLogMaxSizeMB,
			MaxFiles:  defaultLogMaxFiles,
		},
	}
}

func Load(opts LoadOptions) (Config, LoadReport, error) {
	cfg := DefaultConfig()
	report := LoadReport{}

	dotenv, envFile, err := readEnvFile(opts)
	if err != nil {
		return Config{}, report, err
	}
	report.EnvFile = envFile
	lookup := envLookup(opts, dotenv)

	configPath, explicit, err := resolveConfigPath(opts, lookup)
	if err != nil {
		return Config{}, report, fmt.Errorf("resolve config path: %w", err)
	}
	report.ConfigPath = configPath
	if err := loadAndApplyFile(configPath, explicit, &cfg); err != nil {
		return Config{}, report, err
	}

	if err := applyEnvOverrides(&cfg, lookup); err != nil {
		return Config{}, report, err
	}
	applyFlagOverrides(&cfg, opts.Flags)

	if err := validate(cfg); err != nil {
		return Config{}, report, err
	}

	return cfg, report, nil
}

type rawConfig struct {
	Storage *rawStorage `toml:"storage"`
	Export  *rawExport  `toml:"export"`
	Logging *rawLogging `toml:"logging"`
}

type rawStorage struct {
	Path *string `toml:"path"`
}

type rawExport struct {
	Dir      *string `toml:"dir"`
	AutoOpen *bool   `toml:"auto_open"`
}

type rawLogging struct {
	Level     *string `toml:"level"`
	File      *string `toml:"file"`
	MaxSizeMB *int    `toml:"max_size_mb"`
	MaxFiles  *int    `toml:"max_files"`
}

// loadAndApplyFile overlays the TOML file at path onto cfg. A missing file is
// only an error when the path was asked for explicitly.
func loadAndApplyFile(path string, explicit bool, cfg *Config) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if explicit {
				return fmt.Errorf("%w: config file %q not found", ErrInvalidConfig, path)
			}
			return nil
		}
		return fmt.Errorf("read config file %q: %w", path, err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: parse TOML file %q: %v", ErrInvalidConfig, path, err)
	}

	applyRawConfig(cfg, raw)
	return nil
}

func applyRawConfig(cfg *Config, raw rawConfig) {
	if raw.Storage != nil {
		setString(raw.Storage.Path, &cfg.Storage.Path)
	}

	if raw.Export != nil {
		setString(raw.Export.Dir, &cfg.Export.Dir)
		setBool(raw.Export.AutoOpen, &cfg.Export.AutoOpen)
	}

	if raw.Logging != nil {
		setString(raw.Logging.Level, &cfg.Logging.Level)
		setString(raw.Logging.File, &cfg.Logging.File)
		setInt(raw.Logging.MaxSizeMB, &cfg.Logging.MaxSizeMB)
		setInt(raw.Logging.MaxFiles, &cfg.Logging.MaxFiles)
	}
}

func applyEnvOverrides(cfg *Config, lookup func(string) (string, bool)) error {
	if value, ok := lookup("MARKBOOK_DB_PATH"); ok {
		cfg.Storage.Path = value
	}

	if value, ok := lookup("MARKBOOK_EXPORT_DIR"); ok {
		cfg.Export.Dir = value
	}
	if value, ok := lookup("MARKBOOK_EXPORT_AUTO_OPEN"); ok {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: parse MARKBOOK_EXPORT_AUTO_OPEN: %v", ErrInvalidConfig, err)
		}
		cfg.Export.AutoOpen = parsed
	}

	if value, ok := lookup("MARKBOOK_LOG_LEVEL"); ok {
		cfg.Logging.Level = value
	}
	if value, ok := lookup("MARKBOOK_LOG_FILE"); ok {
		cfg.Logging.File = value
	}
	if value, ok := lookup("MARKBOOK_LOG_MAX_SIZE_MB"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: parse MARKBOOK_LOG_MAX_SIZE_MB: %v", ErrInvalidConfig, err)
		}
		cfg.Logging.MaxSizeMB = parsed
	}
	if value, ok := lookup("MARKBOOK_LOG_MAX_FILES"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: parse MARKBOOK_LOG_MAX_FILES: %v", ErrInvalidConfig, err)
		}
		cfg.Logging.MaxFiles = parsed
	}

	return nil
}

func applyFlagOverrides(cfg *Config, flags FlagOverrides) {
	setString(flags.DBPath, &cfg.Storage.Path)
	setString(flags.ExportDir, &cfg.Export.Dir)
	setBool(flags.AutoOpen, &cfg.Export.AutoOpen)
	setString(flags.LogLevel, &cfg.Logging.Level)
}

func validate(cfg Config) error {
	if strings.TrimSpace(cfg.Storage.Path) == "" {
		return fmt.Errorf("%w: storage.path must not be empty", ErrInvalidConfig)
	}
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: logging.level must be one of debug, info, warn, error; got %q", ErrInvalidConfig, cfg.Logging.Level)
	}
	if cfg.Logging.MaxSizeMB < 0 || cfg.Logging.MaxFiles < 0 {
		return fmt.Errorf("%w: logging.max_size_mb and logging.max_files must be >= 0", ErrInvalidConfig)
	}
	return nil
}

func setString(raw *string, target *string) {
	if raw == nil {
		return
	}
	*target = *raw
}

func setBool(raw *bool, target *bool) {
	if raw == nil {
		return
	}
	*target = *raw
}

func setInt(raw *int, target *int) {
	if raw == nil {
		return
	}
	*target = *raw
}

// readEnvFile loads the dotenv overlay into a map. The process environment is
// left untouched. Only the default ./.env may be absent.
func readEnvFile(opts LoadOptions) (map[string]string, string, error) {
	path := opts.EnvFile
	explicit := path != ""
	if !explicit {
		if value, ok := lookupProcessEnv(opts, "MARKBOOK_ENV_FILE"); ok && value != "" {
			path = value
			explicit = true
		} else {
			path = defaultEnvFile
		}
	}

	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if explicit {
				return nil, "", fmt.Errorf("%w: env file %q not found", ErrInvalidConfig, path)
			}
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("%w: read env file %q: %v", ErrInvalidConfig, path, err)
	}
	return values, path, nil
}

func envLookup(opts LoadOptions, dotenv map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if value, ok := lookupProcessEnv(opts, key); ok {
			return value, true
		}
		value, ok := dotenv[key]
		return value, ok
	}
}

func lookupProcessEnv(opts LoadOptions, key string) (string, bool) {
	if opts.Env != nil {
		if value, ok := opts.Env[key]; ok {
			return value, true
		}
	}
	return os.LookupEnv(key)
}

// resolveConfigPath reports the config file to read and whether the caller
// named it through --config or MARKBOOK_CONFIG_PATH.
func resolveConfigPath(opts LoadOptions, lookup func(string) (string, bool)) (string, bool, error) {
	if opts.ConfigPath != "" {
		return opts.ConfigPath, true, nil
	}
	if value, ok := lookup("MARKBOOK_CONFIG_PATH"); ok {
		return value, true, nil
	}
	path, err := defaultConfigPath(lookup)
	return path, false, err
}

func defaultConfigPath(lookup func(string) (string, bool)) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}

	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support", "Markbook", "config.toml"), nil
	}

	configHome := filepath.Join(home, ".config")
	if xdgConfigHome, ok := lookup("XDG_CONFIG_HOME"); ok && xdgConfigHome != "" {
		configHome = xdgConfigHome
	}
	return filepath.Join(configHome, "markbook", "config.toml"), nil
}
