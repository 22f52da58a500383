package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Grid describes a weekly timetable layout with one column per day and
// one row per start time. Cells may hold multiple lines.
type Grid struct {
	Days   []string
	Times  []string
	Cells  map[string]map[string][]string
	Legend []string
}

// PDFExporter renders datasets and weekly grids into PDF documents.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with an optional title and table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	pdf.SetFont("Arial", "B", 10)
	colWidth := 190.0 / float64(len(data.Headers))
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			value := row[header]
			pdf.CellFormat(colWidth, 7, value, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderGrid creates a landscape PDF with the weekly timetable grid.
func (e *PDFExporter) RenderGrid(grid Grid, title string) ([]byte, error) {
	if len(grid.Days) == 0 || len(grid.Times) == 0 {
		return nil, fmt.Errorf("grid requires days and times")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	timeColWidth := 22.0
	dayColWidth := (277.0 - timeColWidth) / float64(len(grid.Days))
	rowHeight := 22.0

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(timeColWidth, 8, "", "1", 0, "C", false, 0, "")
	for _, day := range grid.Days {
		pdf.CellFormat(dayColWidth, 8, day, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	for _, slot := range grid.Times {
		x, y := pdf.GetXY()
		pdf.SetFont("Arial", "B", 8)
		pdf.CellFormat(timeColWidth, rowHeight, slot, "1", 0, "C", false, 0, "")

		pdf.SetFont("Arial", "", 7)
		for i, day := range grid.Days {
			cellX := x + timeColWidth + float64(i)*dayColWidth
			pdf.Rect(cellX, y, dayColWidth, rowHeight, "D")

			var lines []string
			if byDay, ok := grid.Cells[day]; ok {
				lines = byDay[slot]
			}
			if len(lines) > 0 {
				pdf.SetXY(cellX+1, y+1)
				pdf.MultiCell(dayColWidth-2, 3.6, strings.Join(lines, "\n"), "", "L", false)
			}
		}
		pdf.SetXY(x, y+rowHeight)
	}

	if len(grid.Legend) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Arial", "I", 8)
		for _, line := range grid.Legend {
			pdf.CellFormat(0, 4, line, "", 1, "L", false, 0, "")
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render grid pdf: %w", err)
	}
	return buf.Bytes(), nil
}
