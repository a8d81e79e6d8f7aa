package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type workTitleRepository struct {
	db *sql.DB
}

// Add links a new work title to studentID. The student is not required to
// exist; referential integrity is left to the caller.
func (r *workTitleRepository) Add(ctx context.Context, studentID int64, input WorkTitleInput) (int64, error) {
	if err := validateID("add work title", "student id", studentID); err != nil {
		return 0, err
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO work_titles(
			student_id, title, note, social_competence, active_participation,
			cleanliness, material, punctuality, comment
		)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, studentID, input.Title, input.Note, input.SocialCompetence, input.ActiveParticipation,
		input.Cleanliness, input.Material, input.Punctuality, input.Comment)
	if err != nil {
		return 0, fmt.Errorf("add work title: insert: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("add work title: last insert id: %w", err)
	}
	return id, nil
}

func (r *workTitleRepository) Get(ctx context.Context, id int64) (*WorkTitle, error) {
	if err := validateID("get work title", "work title id", id); err != nil {
		return nil, err
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, student_id, title, note,
			social_competence, active_participation, cleanliness, material, punctuality, comment
		FROM work_titles
		WHERE id = ?
	`, id)
	work, err := scanWorkTitle(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get work title %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get work title: %w", err)
	}
	return &work, nil
}

func (r *workTitleRepository) Update(ctx context.Context, id int64, input WorkTitleInput) error {
	if err := validateID("update work title", "work title id", id); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE work_titles
		SET title = ?, note = ?, social_competence = ?, active_participation = ?,
			cleanliness = ?, material = ?, punctuality = ?, comment = ?
		WHERE id = ?
	`, input.Title, input.Note, input.SocialCompetence, input.ActiveParticipation,
		input.Cleanliness, input.Material, input.Punctuality, input.Comment, id)
	if err != nil {
		return fmt.Errorf("update work title: %w", err)
	}
	return nil
}

func (r *workTitleRepository) Delete(ctx context.Context, id int64) error {
	if err := validateID("delete work title", "work title id", id); err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM work_titles WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete work title: %w", err)
	}
	return nil
}

func (r *workTitleRepository) ListByStudent(ctx context.Context, studentID int64) ([]WorkTitle, error) {
	if err := validateID("list work titles", "student id", studentID); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, student_id, title, note,
			social_competence, active_participation, cleanliness, material, punctuality, comment
		FROM work_titles
		WHERE student_id = ?
		ORDER BY id ASC
	`, studentID)
	if err != nil {
		return nil, fmt.Errorf("list work titles: %w", err)
	}
	defer rows.Close()

	out := []WorkTitle{}
	for rows.Next() {
		work, err := scanWorkTitle(rows)
		if err != nil {
			return nil, fmt.Errorf("list work titles: scan: %w", err)
		}
		out = append(out, work)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list work titles: iterate: %w", err)
	}
	return out, nil
}

func scanWorkTitle(scanner rowScanner) (WorkTitle, error) {
	var (
		work        WorkTitle
		title, note sql.NullString
		err         error
	)
	work.Assessment, err = scanAssessment(scanner, &work.ID, &work.StudentID, &title, &note)
	if err != nil {
		return WorkTitle{}, err
	}
	work.Title = nullString(title)
	work.Note = nullString(note)
	return work, nil
}
