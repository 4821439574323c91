package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfPageWidth = 277.0 // A4 landscape minus margins
	pdfMinColumn = 14.0
)

// PDFExporter renders datasets as a landscape timetable table.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

func (e *PDFExporter) ContentType() string { return "application/pdf" }

func (e *PDFExporter) Extension() string { return "pdf" }

// Render writes the title, notes and a bordered table sized to the content of each column.
func (e *PDFExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if data.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 9, tr(data.Title), "", 1, "L", false, 0, "")
	}
	if len(data.Notes) > 0 {
		pdf.SetFont("Arial", "", 9)
		for _, note := range data.Notes {
			pdf.CellFormat(0, 5, tr(note), "", 1, "L", false, 0, "")
		}
		pdf.Ln(3)
	}

	widths := columnWidths(pdf, data)

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, header := range data.Headers {
		pdf.CellFormat(widths[i], 7, tr(header), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, row := range data.Rows {
		for i := range data.Headers {
			var value string
			if i < len(row) {
				value = row[i]
			}
			pdf.CellFormat(widths[i], 6, tr(value), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// columnWidths splits the page width in proportion to the widest cell of each column.
func columnWidths(pdf *gofpdf.Fpdf, data Dataset) []float64 {
	pdf.SetFont("Arial", "", 8)
	natural := make([]float64, len(data.Headers))
	var total float64
	for i, header := range data.Headers {
		w := pdf.GetStringWidth(header) + 4
		for _, row := range data.Rows {
			if i < len(row) {
				w = max(w, pdf.GetStringWidth(row[i])+4)
			}
		}
		natural[i] = max(w, pdfMinColumn)
		total += natural[i]
	}
	widths := make([]float64, len(natural))
	for i, w := range natural {
		widths[i] = w / total * pdfPageWidth
	}
	return widths
}
