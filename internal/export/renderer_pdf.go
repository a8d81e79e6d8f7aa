//go:build !nopdf

package export

import (
	"io"
	"math"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	pageMarginTop    = 10.0
	pageMarginBottom = 10.0
	pageMarginSide   = 15.0
	labelColumnWidth = 50.0
	valueColumnWidth = 110.0
	cellPadding      = 1.5

	// Go fonts cover WGL4, so names outside Latin-1 render as written.
	fontFamily = "go"
)

type pdfRenderer struct{}

// NewPDFRenderer returns the A4 renderer backed by fpdf.
func NewPDFRenderer() Renderer {
	return pdfRenderer{}
}

func (pdfRenderer) Available() bool {
	return true
}

func (pdfRenderer) Render(w io.Writer, layout Layout) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddUTF8FontFromBytes(fontFamily, "", goregular.TTF)
	pdf.AddUTF8FontFromBytes(fontFamily, "B", gobold.TTF)
	pdf.SetMargins(pageMarginSide, pageMarginTop, pageMarginSide)
	pdf.SetAutoPageBreak(true, pageMarginBottom)
	pdf.SetCreator("markbook", true)
	pdf.SetTitle(layout.Title, true)
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetFillColor(211, 211, 211)
	pdf.AddPage()

	pdf.SetFont(fontFamily, "B", 18)
	pdf.MultiCell(0, 9, layout.Title, "", "C", false)
	pdf.Ln(5)

	for sectionIndex, section := range layout.Sections {
		pdf.SetFont(fontFamily, "B", 14)
		pdf.CellFormat(0, 8, section.Heading, "", 1, "L", false, 0, "")

		for _, table := range section.Tables {
			if table.Heading != "" {
				pdf.SetFont(fontFamily, "B", 12)
				pdf.CellFormat(0, 7, table.Heading, "", 1, "L", false, 0, "")
			}
			// Work title tables use the smaller body size.
			fontSize := 10.0
			if sectionIndex > 0 {
				fontSize = 8
			}
			pdf.SetFont(fontFamily, "", fontSize)
			for _, row := range table.Rows {
				drawRow(pdf, row.Label, row.Value, fontSize)
			}
			pdf.Ln(3)
		}
		pdf.Ln(2)
	}

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

// drawRow draws a bordered label/value row. A row taller than the space left
// on the page moves to the next page; a row taller than a whole page is split,
// and every piece gets its own borders.
func drawRow(pdf *fpdf.Fpdf, label, value string, fontSize float64) {
	lineHeight := fontSize * 0.5
	labelLines := pdf.SplitText(label, labelColumnWidth-2*cellPadding)
	valueLines := pdf.SplitText(value, valueColumnWidth-2*cellPadding)
	total := max(len(labelLines), len(valueLines), 1)

	_, pageHeight := pdf.GetPageSize()
	bottom := pageHeight - pageMarginBottom
	firstFit := linesThatFit(bottom-pdf.GetY(), lineHeight)
	pageFit := linesThatFit(bottom-pageMarginTop, lineHeight)

	start := 0
	for i, n := range rowChunks(total, firstFit, pageFit) {
		if i > 0 {
			pdf.AddPage()
		}
		if n == 0 {
			continue
		}
		drawRowChunk(pdf, labelLines, valueLines, start, start+n, lineHeight)
		start += n
	}
}

func drawRowChunk(pdf *fpdf.Fpdf, labelLines, valueLines []string, from, to int, lineHeight float64) {
	height := float64(to-from)*lineHeight + 2*cellPadding
	x, y := pdf.GetX(), pdf.GetY()
	pdf.Rect(x, y, labelColumnWidth, height, "FD")
	pdf.Rect(x+labelColumnWidth, y, valueColumnWidth, height, "D")

	for i := from; i < to; i++ {
		lineY := y + cellPadding + float64(i-from)*lineHeight
		if i < len(labelLines) {
			pdf.SetXY(x+cellPadding, lineY)
			pdf.CellFormat(labelColumnWidth-2*cellPadding, lineHeight, labelLines[i], "", 0, "L", false, 0, "")
		}
		if i < len(valueLines) {
			pdf.SetXY(x+labelColumnWidth+cellPadding, lineY)
			pdf.CellFormat(valueColumnWidth-2*cellPadding, lineHeight, valueLines[i], "", 0, "L", false, 0, "")
		}
	}

	pdf.SetXY(x, y+height)
}

// linesThatFit reports how many text lines of a padded row fit into space mm.
func linesThatFit(space, lineHeight float64) int {
	// The small slack keeps float rounding away from the page break trigger.
	n := int(math.Floor((space - 2*cellPadding - 0.01) / lineHeight))
	return max(n, 0)
}

// rowChunks returns the number of lines placed on each page for a row of
// total lines, given firstFit lines free on the current page and pageFit on a
// fresh one. A leading zero means the row starts on the next page. A row that
// fits on a fresh page is never split.
func rowChunks(total, firstFit, pageFit int) []int {
	pageFit = max(pageFit, 1)
	var chunks []int
	fit := firstFit
	if fit < 1 || (total > fit && total <= pageFit) {
		chunks = append(chunks, 0)
		fit = pageFit
	}
	for total > 0 {
		n := min(fit, total)
		chunks = append(chunks, n)
		total -= n
		fit = pageFit
	}
	return chunks
}
