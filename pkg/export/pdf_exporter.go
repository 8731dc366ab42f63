package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfUsableWidth = 277.0
	pdfMaxFontSize = 10.0
	pdfMinFontSize = 5.0
	pdfHeaderRow   = 8.0
	pdfBodyRow     = 7.0
	pdfBottom      = 15.0
)

// PDFExporter lays a Dataset out as a landscape A4 table. The first column
// holds identifiers and gets twice the width of the others.
type PDFExporter struct {
	font string
}

func NewPDFExporter() *PDFExporter {
	return &PDFExporter{font: "Arial"}
}

// Render returns the PDF document. Core fonts only cover cp1252, so characters
// outside it are replaced.
func (e *PDFExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate("pdf"); err != nil {
		return nil, err
	}

	widths := columnWidths(len(data.Headers))
	size := fontSizeFor(widths[len(widths)-1])

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.SetAutoPageBreak(true, pdfBottom)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	drawHeader := func() {
		pdf.SetFont(e.font, "B", size)
		pdf.SetFillColor(230, 230, 230)
		for i, h := range data.Headers {
			pdf.CellFormat(widths[i], pdfHeaderRow, tr(h), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont(e.font, "", size)
	}
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(e.font, "I", 8)
		pdf.CellFormat(0, 6, fmt.Sprintf("%d / {nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})
	pdf.AliasNbPages("")

	pdf.AddPage()
	if data.Title != "" {
		pdf.SetFont(e.font, "B", 14)
		pdf.CellFormat(0, 10, tr(data.Title), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}
	drawHeader()

	_, pageHeight := pdf.GetPageSize()
	for _, row := range data.Rows {
		if pdf.GetY()+pdfBodyRow > pageHeight-pdfBottom {
			pdf.AddPage()
			drawHeader()
		}
		for i := range data.Headers {
			align := "C"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(widths[i], pdfBodyRow, tr(cell(row, i)), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func columnWidths(columns int) []float64 {
	widths := make([]float64, columns)
	if columns == 1 {
		widths[0] = pdfUsableWidth
		return widths
	}
	unit := pdfUsableWidth / float64(columns+1)
	widths[0] = 2 * unit
	for i := 1; i < columns; i++ {
		widths[i] = unit
	}
	return widths
}

func fontSizeFor(width float64) float64 {
	size := width * 0.9
	if size > pdfMaxFontSize {
		return pdfMaxFontSize
	}
	if size < pdfMinFontSize {
		return pdfMinFontSize
	}
	return size
}
