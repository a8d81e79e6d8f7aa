// Package roster reads and writes class lists as spreadsheets.
package roster

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/amanthanvi/markbook/internal/storage"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Schüler"

var exportHeader = []any{"Klasse", "Vorname", "Nachname"}

// StudentAdder stores one imported student.
type StudentAdder interface {
	Add(ctx context.Context, student storage.NewStudent) (int64, error)
}

type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

type ImportReport struct {
	Imported int        `json:"imported"`
	Skipped  []RowError `json:"skipped"`
}

// Import reads the first sheet of an xlsx workbook. Row 1 is a header. Known
// header names (Vorname, Nachname, Klasse) pick the columns; otherwise columns
// A to C hold first name, last name and class. Rows rejected by validation
// are reported and skipped, other storage errors stop the import.
func Import(ctx context.Context, r io.Reader, adder StudentAdder) (ImportReport, error) {
	report := ImportReport{Skipped: []RowError{}}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return report, fmt.Errorf("import roster: open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return report, errors.New("import roster: workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return report, fmt.Errorf("import roster: read sheet %q: %w", sheet, err)
	}

	columns := defaultColumns
	if len(rows) > 0 {
		columns = columnsFromHeader(rows[0])
	}

	for i, row := range rows {
		if i == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("import roster: %w", err)
		}

		student := storage.NewStudent{
			FirstName: cell(row, columns.first),
			LastName:  cell(row, columns.last),
			Class:     cell(row, columns.class),
		}
		if student == (storage.NewStudent{}) {
			continue
		}

		if _, err := adder.Add(ctx, student); err != nil {
			if errors.Is(err, storage.ErrValidation) {
				report.Skipped = append(report.Skipped, RowError{Row: i + 1, Reason: err.Error()})
				continue
			}
			return report, fmt.Errorf("import roster: row %d: %w", i+1, err)
		}
		report.Imported++
	}
	return report, nil
}

// Export writes students to a single-sheet workbook in the given order.
func Export(students []storage.Student, w io.Writer) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return fmt.Errorf("export roster: name sheet: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("export roster: write header: %w", err)
	}
	for i, student := range students {
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("export roster: %w", err)
		}
		values := []any{student.Class, student.FirstName, student.LastName}
		if err := f.SetSheetRow(exportSheet, cellRef, &values); err != nil {
			return fmt.Errorf("export roster: write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export roster: write workbook: %w", err)
	}
	return nil
}

type columnLayout struct {
	first, last, class int
}

var defaultColumns = columnLayout{first: 0, last: 1, class: 2}

func columnsFromHeader(header []string) columnLayout {
	layout := columnLayout{first: -1, last: -1, class: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "vorname", "first name", "firstname":
			layout.first = i
		case "nachname", "last name", "lastname":
			layout.last = i
		case "klasse", "class":
			layout.class = i
		}
	}
	if layout.first < 0 || layout.last < 0 {
		return defaultColumns
	}
	return layout
}

func cell(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}
