package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func validateID(op, field string, id int64) error {
	if err := validate.Var(id, "gt=0"); err != nil {
		return fmt.Errorf("%s: %w: %s must be a positive integer, got %d", op, ErrValidation, field, id)
	}
	return nil
}

func validateStruct(op string, value any) error {
	err := validate.Struct(value)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%s: %w: %v", op, ErrValidation, err)
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		problems = append(problems, fmt.Sprintf("%s is %s", fieldErr.Field(), fieldErr.Tag()))
	}
	return fmt.Errorf("%s: %w: %s", op, ErrValidation, strings.Join(problems, ", "))
}

// likeContains builds a LIKE pattern matching value as a plain substring.
// Used together with ESCAPE '\'.
func likeContains(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(value) + "%"
}

func nullString(raw sql.NullString) string {
	if !raw.Valid {
		return ""
	}
	return raw.String
}

func nowUTCString() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(scanner rowScanner) (Student, error) {
	var (
		student Student
		class   sql.NullString
	)
	if err := scanner.Scan(&student.ID, &student.FirstName, &student.LastName, &class); err != nil {
		return Student{}, err
	}
	student.Class = nullString(class)
	return student, nil
}

func scanAssessment(scanner rowScanner, extra ...any) (Assessment, error) {
	var (
		social, active, clean, material, punctual, comment sql.NullString
	)
	dest := append(extra, &social, &active, &clean, &material, &punctual, &comment)
	if err := scanner.Scan(dest...); err != nil {
		return Assessment{}, err
	}
	return Assessment{
		SocialCompetence:    nullString(social),
		ActiveParticipation: nullString(active),
		Cleanliness:         nullString(clean),
		Material:            nullString(material),
		Punctuality:         nullString(punctual),
		Comment:             nullString(comment),
	}, nil
}

func collectStudents(rows *sql.Rows, op string) ([]Student, error) {
	defer rows.Close()

	out := []Student{}
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, student)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterate: %w", op, err)
	}
	return out, nil
}
