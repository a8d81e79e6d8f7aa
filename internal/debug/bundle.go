// Package debug collects diagnostics for bug reports.
package debug

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

var ErrNoOutputPath = errors.New("debug bundle: output path is required")

type Check struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Bundle is a diagnostics snapshot. It never contains student data, only
// paths, counts and check results.
type Bundle struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Platform    Platform       `json:"platform"`
	Version     map[string]any `json:"version,omitempty"`
	Config      map[string]any `json:"config,omitempty"`
	Storage     map[string]any `json:"storage,omitempty"`
	Checks      []Check        `json:"checks"`
}

type Platform struct {
	GOOS      string `json:"goos"`
	GOARCH    string `json:"goarch"`
	GoVersion string `json:"go_version"`
}

func NewBundle() Bundle {
	return Bundle{
		GeneratedAt: time.Now().UTC(),
		Platform: Platform{
			GOOS:      runtime.GOOS,
			GOARCH:    runtime.GOARCH,
			GoVersion: runtime.Version(),
		},
		Checks: []Check{},
	}
}

// AddCheck records a passing check with okMessage, or a failing one carrying
// err's text.
func (b *Bundle) AddCheck(name string, err error, okMessage string) {
	check := Check{Name: name, OK: err == nil, Message: okMessage}
	if err != nil {
		check.Message = err.Error()
	}
	b.Checks = append(b.Checks, check)
}

// Failed lists the names of failing checks in recording order.
func (b Bundle) Failed() []string {
	var names []string
	for _, check := range b.Checks {
		if !check.OK {
			names = append(names, check.Name)
		}
	}
	return names
}

func (b Bundle) Healthy() bool {
	return len(b.Failed()) == 0
}

// WriteBundle writes the bundle as indented JSON readable only by the owner.
// An existing file at outputPath is replaced.
func WriteBundle(outputPath string, bundle Bundle) error {
	if outputPath == "" {
		return ErrNoOutputPath
	}
	payload, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return fmt.Errorf("write debug bundle: marshal: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("write debug bundle: create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".markbook-debug-*.json")
	if err != nil {
		return fmt.Errorf("write debug bundle: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(payload, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write debug bundle: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write debug bundle: %w", err)
	}
	if err := os.Rename(tmp.Name(), outputPath); err != nil {
		return fmt.Errorf("write debug bundle: %w", err)
	}
	return nil
}
