package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/amanthanvi/markbook/internal/export"
	mblog "github.com/amanthanvi/markbook/internal/log"
	"github.com/amanthanvi/markbook/internal/storage"
)

type ExportService struct {
	students storage.StudentRepository
	works    storage.WorkTitleRepository
	exporter DocumentExporter
	opener   FileOpener
	logger   *slog.Logger
}

func NewExportService(
	students storage.StudentRepository,
	works storage.WorkTitleRepository,
	exporter DocumentExporter,
	opener FileOpener,
	logger *slog.Logger,
) *ExportService {
	if opener == nil {
		opener = export.Opener{}
	}
	if logger == nil {
		logger = mblog.Discard()
	}
	return &ExportService{
		students: students,
		works:    works,
		exporter: exporter,
		opener:   opener,
		logger:   logger,
	}
}

func (s *ExportService) Available() bool {
	return s.exporter != nil && s.exporter.Available()
}

// Export writes the student's document. When autoOpen is set the file is
// handed to the default viewer; a viewer failure is logged and does not fail
// the export.
func (s *ExportService) Export(ctx context.Context, studentID int64, autoOpen bool) (ExportResult, error) {
	if !s.Available() {
		return ExportResult{}, export.RendererUnavailableError()
	}

	snap, err := s.snapshot(ctx, studentID)
	if err != nil {
		return ExportResult{}, err
	}

	path, err := s.exporter.ExportStudent(ctx, snap)
	if err != nil {
		return ExportResult{}, fmt.Errorf("export student %d: %w", studentID, err)
	}
	s.logger.Info("student exported", "student_id", studentID, "work_titles", len(snap.WorkTitles))

	result := ExportResult{Path: path}
	if !autoOpen {
		return result, nil
	}
	if err := s.opener.Open(path); err != nil {
		s.logger.Warn("open exported file", "student_id", studentID, "reason", openFailureReason(err))
		return result, nil
	}
	result.Opened = true
	return result, nil
}

// openFailureReason names the opener failure without its message, which
// carries the file path and with it the student's name.
func openFailureReason(err error) string {
	switch {
	case errors.Is(err, export.ErrFileNotFound):
		return "file not found"
	case errors.Is(err, export.ErrLaunch):
		return "viewer launch failed"
	default:
		return "open failed"
	}
}

func (s *ExportService) snapshot(ctx context.Context, studentID int64) (export.Snapshot, error) {
	student, err := s.students.Get(ctx, studentID)
	if err != nil {
		return export.Snapshot{}, fmt.Errorf("export student %d: %w", studentID, err)
	}
	details, err := s.students.Details(ctx, studentID)
	if err != nil {
		return export.Snapshot{}, fmt.Errorf("export student %d: %w", studentID, err)
	}
	works, err := s.works.ListByStudent(ctx, studentID)
	if err != nil {
		return export.Snapshot{}, fmt.Errorf("export student %d: %w", studentID, err)
	}
	return export.Snapshot{
		Student:    *student,
		Details:    details,
		WorkTitles: works,
	}, nil
}
