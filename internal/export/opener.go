package export

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// Opener launches the host's default viewer for a file.
type Opener struct {
	GOOS string
	Stat func(name string) (os.FileInfo, error)
	Run  func(name string, args ...string) error
}

// Open opens path with the platform default application.
func Open(path string) error {
	return Opener{}.Open(path)
}

func (o Opener) Open(path string) error {
	stat := o.Stat
	if stat == nil {
		stat = os.Stat
	}
	run := o.Run
	if run == nil {
		run = runCommand
	}
	goos := o.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}

	if _, err := stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return fmt.Errorf("open %s: %w", path, err)
	}

	name, args := openCommand(goos, path)
	if err := run(name, args...); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrLaunch, path, err)
	}
	return nil
}

func openCommand(goos, path string) (string, []string) {
	switch goos {
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", path}
	case "darwin":
		return "open", []string{path}
	default:
		return "xdg-open", []string{path}
	}
}

func runCommand(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}
