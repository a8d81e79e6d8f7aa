package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/amanthanvi/markbook/internal/storage"
	"github.com/charmbracelet/huh"
)

var runStudentFormFn = runStudentForm

func runStudentForm(in io.Reader, out io.Writer, student *storage.NewStudent) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Vorname").
				Value(&student.FirstName).
				Validate(requiredField("Vorname")),
			huh.NewInput().
				Title("Nachname").
				Value(&student.LastName).
				Validate(requiredField("Nachname")),
			huh.NewInput().
				Title("Klasse").
				Description("Wird in Großbuchstaben gespeichert").
				Value(&student.Class),
		),
	).WithInput(in).WithOutput(out)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return usageErrorf("student add: aborted")
		}
		return fmt.Errorf("student add: form: %w", err)
	}
	return nil
}

func requiredField(label string) func(string) error {
	return func(value string) error {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s darf nicht leer sein", label)
		}
		return nil
	}
}
