package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

type studentRepository struct {
	db *sql.DB
}

func (r *studentRepository) Add(ctx context.Context, student NewStudent) (int64, error) {
	student.FirstName = strings.TrimSpace(student.FirstName)
	student.LastName = strings.TrimSpace(student.LastName)
	if err := validateStruct("add student", student); err != nil {
		return 0, err
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO students(firstname, lastname, class) VALUES(?, ?, ?)`,
		student.FirstName, student.LastName, student.Class,
	)
	if err != nil {
		return 0, fmt.Errorf("add student: insert: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("add student: last insert id: %w", err)
	}
	return id, nil
}

func (r *studentRepository) Get(ctx context.Context, id int64) (*Student, error) {
	if err := validateID("get student", "student id", id); err != nil {
		return nil, err
	}

	row := r.db.QueryRowContext(ctx, `SELECT id, firstname, lastname, class FROM students WHERE id = ?`, id)
	student, err := scanStudent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get student %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get student: %w", err)
	}
	return &student, nil
}

func (r *studentRepository) List(ctx context.Context) ([]Student, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, firstname, lastname, class FROM students ORDER BY class ASC`)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return collectStudents(rows, "list students")
}

func (r *studentRepository) Search(ctx context.Context, keyword string) ([]Student, error) {
	return r.Filter(ctx, StudentFilter{Keyword: keyword})
}

// Filter combines the name substring search with an optional exact class
// match. An empty filter lists every student.
func (r *studentRepository) Filter(ctx context.Context, filter StudentFilter) ([]Student, error) {
	query := `SELECT id, firstname, lastname, class FROM students WHERE 1=1`
	args := []any{}

	if filter.Keyword != "" {
		pattern := likeContains(filter.Keyword)
		query += ` AND (firstname LIKE ? ESCAPE '\' OR lastname LIKE ? ESCAPE '\')`
		args = append(args, pattern, pattern)
	}
	if filter.Class != "" {
		query += ` AND class = ?`
		args = append(args, filter.Class)
	}
	query += ` ORDER BY class ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search students: %w", err)
	}
	return collectStudents(rows, "search students")
}

func (r *studentRepository) Details(ctx context.Context, id int64) (*Assessment, error) {
	if err := validateID("get student details", "student id", id); err != nil {
		return nil, err
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT social_competence, active_participation, cleanliness, material, punctuality, comment
		FROM students
		WHERE id = ?
	`, id)
	details, err := scanAssessment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get student details: %w", err)
	}
	return &details, nil
}

// UpdateDetails replaces the six assessment fields. A missing id updates
// zero rows and is not an error.
func (r *studentRepository) UpdateDetails(ctx context.Context, id int64, details Assessment) error {
	if err := validateID("update student details", "student id", id); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE students
		SET social_competence = ?, active_participation = ?, cleanliness = ?,
			material = ?, punctuality = ?, comment = ?
		WHERE id = ?
	`, details.SocialCompetence, details.ActiveParticipation, details.Cleanliness,
		details.Material, details.Punctuality, details.Comment, id)
	if err != nil {
		return fmt.Errorf("update student details: %w", err)
	}
	return nil
}

// Delete removes the student's work titles and then the student in one
// transaction. A missing id is not an error.
func (r *studentRepository) Delete(ctx context.Context, id int64) error {
	if err := validateID("delete student", "student id", id); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete student: begin tx: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM work_titles WHERE student_id = ?`, id); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete student: delete work titles: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM students WHERE id = ?`, id); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete student: delete row: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete student: commit: %w", err)
	}
	return nil
}

func (r *studentRepository) Classes(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT class FROM students
		WHERE class IS NOT NULL AND class != ''
		ORDER BY class ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	defer rows.Close()

	classes := []string{}
	for rows.Next() {
		var class string
		if err := rows.Scan(&class); err != nil {
			return nil, fmt.Errorf("list classes: scan: %w", err)
		}
		classes = append(classes, class)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list classes: iterate: %w", err)
	}
	return classes, nil
}
