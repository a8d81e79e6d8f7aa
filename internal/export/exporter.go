package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Renderer turns a Layout into a document. Available must be checked before
// any file is touched.
type Renderer interface {
	Available() bool
	Render(w io.Writer, layout Layout) error
}

type Exporter struct {
	dir      string
	renderer Renderer
}

// NewExporter writes documents into dir (the working directory when empty).
func NewExporter(dir string, renderer Renderer) *Exporter {
	if dir == "" {
		dir = "."
	}
	return &Exporter{dir: dir, renderer: renderer}
}

func (e *Exporter) Available() bool {
	return e != nil && e.renderer != nil && e.renderer.Available()
}

// ExportStudent renders snap and returns the written path. The document is
// rendered into a temporary file and renamed into place only on success, so
// a failed export never leaves a partial file under the final name.
func (e *Exporter) ExportStudent(ctx context.Context, snap Snapshot) (string, error) {
	if !e.Available() {
		return "", RendererUnavailableError()
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("export student: %w", err)
	}

	target := filepath.Join(e.dir, Filename(snap.Student.FirstName, snap.Student.LastName, snap.Student.Class))
	layout := BuildLayout(snap)

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", generationError("create output directory", err)
	}
	tmp, err := os.CreateTemp(e.dir, ".markbook-*.pdf.tmp")
	if err != nil {
		return "", generationError("create temp file", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := e.renderer.Render(tmp, layout); err != nil {
		_ = tmp.Close()
		return "", generationError("render", err)
	}
	if err := tmp.Close(); err != nil {
		return "", generationError("close temp file", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return "", generationError("set file permissions", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return "", generationError("move into place", err)
	}
	committed = true
	return target, nil
}
