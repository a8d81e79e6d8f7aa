package app

import (
	"context"

	"github.com/amanthanvi/markbook/internal/export"
	"github.com/amanthanvi/markbook/internal/storage"
)

// StudentRecord is one student with everything stored about them.
type StudentRecord struct {
	Student storage.Student `json:"student"`
	// Details holds empty strings until an assessment is recorded; it is nil
	// only when the student row does not exist.
	Details    *storage.Assessment `json:"details"`
	WorkTitles []storage.WorkTitle `json:"work_titles"`
}

type ExportResult struct {
	Path   string `json:"path"`
	Opened bool   `json:"opened"`
}

// DocumentExporter renders a snapshot to a file.
type DocumentExporter interface {
	Available() bool
	ExportStudent(ctx context.Context, snap export.Snapshot) (string, error)
}

// FileOpener shows a produced file to the user.
type FileOpener interface {
	Open(path string) error
}
