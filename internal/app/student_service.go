package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	mblog "github.com/amanthanvi/markbook/internal/log"
	"github.com/amanthanvi/markbook/internal/storage"
)

type StudentService struct {
	students storage.StudentRepository
	works    storage.WorkTitleRepository
	logger   *slog.Logger
}

func NewStudentService(students storage.StudentRepository, works storage.WorkTitleRepository, logger *slog.Logger) *StudentService {
	if logger == nil {
		logger = mblog.Discard()
	}
	return &StudentService{
		students: students,
		works:    works,
		logger:   logger,
	}
}

// Add stores a student with trimmed names and an upper-cased class label.
func (s *StudentService) Add(ctx context.Context, student storage.NewStudent) (int64, error) {
	student.FirstName = strings.TrimSpace(student.FirstName)
	student.LastName = strings.TrimSpace(student.LastName)
	student.Class = NormalizeClass(student.Class)

	id, err := s.students.Add(ctx, student)
	if err != nil {
		return 0, err
	}
	s.logger.Info("student added", "student_id", id, "class", student.Class)
	return id, nil
}

func (s *StudentService) Get(ctx context.Context, id int64) (*storage.Student, error) {
	return s.students.Get(ctx, id)
}

// List returns students matching filter, ordered by class. The class filter
// is normalized the same way Add normalizes stored labels.
func (s *StudentService) List(ctx context.Context, filter storage.StudentFilter) ([]storage.Student, error) {
	filter.Keyword = strings.TrimSpace(filter.Keyword)
	filter.Class = NormalizeClass(filter.Class)
	return s.students.Filter(ctx, filter)
}

func (s *StudentService) Classes(ctx context.Context) ([]string, error) {
	return s.students.Classes(ctx)
}

func (s *StudentService) Show(ctx context.Context, id int64) (*StudentRecord, error) {
	student, err := s.students.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("show student: %w", err)
	}
	details, err := s.students.Details(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("show student: %w", err)
	}
	works, err := s.works.ListByStudent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("show student: %w", err)
	}
	return &StudentRecord{
		Student:    *student,
		Details:    details,
		WorkTitles: works,
	}, nil
}

func (s *StudentService) UpdateDetails(ctx context.Context, id int64, details storage.Assessment) error {
	if err := s.students.UpdateDetails(ctx, id, details); err != nil {
		return err
	}
	s.logger.Info("student details updated", "student_id", id)
	return nil
}

func (s *StudentService) Delete(ctx context.Context, id int64) error {
	if err := s.students.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("student deleted", "student_id", id)
	return nil
}

func (s *StudentService) AddWork(ctx context.Context, studentID int64, input storage.WorkTitleInput) (int64, error) {
	id, err := s.works.Add(ctx, studentID, input)
	if err != nil {
		return 0, err
	}
	s.logger.Info("work title added", "student_id", studentID, "work_id", id)
	return id, nil
}

func (s *StudentService) UpdateWork(ctx context.Context, workID int64, input storage.WorkTitleInput) error {
	if err := s.works.Update(ctx, workID, input); err != nil {
		return err
	}
	s.logger.Info("work title updated", "work_id", workID)
	return nil
}

func (s *StudentService) DeleteWork(ctx context.Context, workID int64) error {
	if err := s.works.Delete(ctx, workID); err != nil {
		return err
	}
	s.logger.Info("work title deleted", "work_id", workID)
	return nil
}

func (s *StudentService) Work(ctx context.Context, workID int64) (*storage.WorkTitle, error) {
	return s.works.Get(ctx, workID)
}

func (s *StudentService) Works(ctx context.Context, studentID int64) ([]storage.WorkTitle, error) {
	return s.works.ListByStudent(ctx, studentID)
}

// NormalizeClass trims and upper-cases a class label.
func NormalizeClass(class string) string {
	return strings.ToUpper(strings.TrimSpace(class))
}
