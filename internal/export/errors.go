package export

import (
	"errors"
	"fmt"
)

const ExitCodeDependencyUnavailable = 6

var (
	ErrRendererUnavailable = errors.New("export: pdf renderer unavailable")
	ErrGeneration          = errors.New("export: pdf generation failed")
	ErrFileNotFound        = errors.New("export: file not found")
	ErrLaunch              = errors.New("export: launch viewer failed")
)

type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *ExitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *ExitError) ExitCode() int {
	if e == nil {
		return 0
	}
	return e.Code
}

// RendererUnavailableError is the capability error returned when the build
// carries no PDF renderer.
func RendererUnavailableError() error {
	return &ExitError{
		Code:    ExitCodeDependencyUnavailable,
		Message: "pdf export is not available in this build; rebuild without the nopdf tag",
		Err:     ErrRendererUnavailable,
	}
}

func generationError(step string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrGeneration, step, err)
}
