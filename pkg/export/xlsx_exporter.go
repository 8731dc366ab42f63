package export

import (
	"github.com/Boatkungg/teerute-tpat13-checker/pkg/spreadsheet"
)

// XLSXExporter renders datasets into a single-sheet workbook.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render writes the dataset on a sheet named after the title.
func (e *XLSXExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate("xlsx"); err != nil {
		return nil, err
	}
	sheet := data.Title
	if sheet == "" || len([]rune(sheet)) > 31 {
		sheet = "Sheet1"
	}
	return spreadsheet.WriteXLSX(sheet, data.Headers, data.Rows)
}
