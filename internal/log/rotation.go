package log

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultMaxSizeMB = 10
	defaultMaxFiles  = 5
)

var errNoLogFile = errors.New("log file path must not be empty")

// openLogFile returns a size-rotated writer for opts.File. Rotated files are
// gzip-compressed and kept up to opts.MaxFiles; zero sizes take the defaults.
func openLogFile(opts Options) (*lumberjack.Logger, error) {
	if opts.File == "" {
		return nil, errNoLogFile
	}
	maxSize := opts.MaxSizeMB
	if maxSize <= 0 {
		maxSize = defaultMaxSizeMB
	}
	maxFiles := opts.MaxFiles
	if maxFiles <= 0 {
		maxFiles = defaultMaxFiles
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0o700); err != nil {
		return nil, fmt.Errorf("open log file: create directory: %w", err)
	}
	return &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    maxSize,
		MaxBackups: maxFiles,
		LocalTime:  true,
		Compress:   true,
	}, nil
}
