package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfPageWidth = 190.0
	pdfEmptyText = "Nothing scheduled."
)

// PDFRenderer lays the table out on A4 portrait pages.
type PDFRenderer struct{}

// ContentType implements Renderer.
func (PDFRenderer) ContentType() string { return "application/pdf" }

// Extension implements Renderer.
func (PDFRenderer) Extension() string { return FormatPDF }

// Render implements Renderer.
func (PDFRenderer) Render(t Table) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(t.Title, true)
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if t.Title != "" {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 9, t.Title, "", 1, "L", false, 0, "")
	}
	if t.Subtitle != "" {
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, 6, t.Subtitle, "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	widths := columnWidths(t)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(235, 235, 235)
	for i, col := range t.Columns {
		pdf.CellFormat(widths[i], 8, col, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	if len(t.Rows) == 0 {
		pdf.CellFormat(pdfPageWidth, 7, pdfEmptyText, "1", 1, "C", false, 0, "")
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			pdf.CellFormat(widths[i], 7, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// columnWidths shares the page width in proportion to the longest cell of
// each column, with a floor so short columns stay readable.
func columnWidths(t Table) []float64 {
	longest := make([]int, len(t.Columns))
	for i, col := range t.Columns {
		longest[i] = len(col)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if len(cell) > longest[i] {
				longest[i] = len(cell)
			}
		}
	}
	total := 0
	for i := range longest {
		if longest[i] < 6 {
			longest[i] = 6
		}
		total += longest[i]
	}
	widths := make([]float64, len(longest))
	for i, n := range longest {
		widths[i] = pdfPageWidth * float64(n) / float64(total)
	}
	return widths
}
