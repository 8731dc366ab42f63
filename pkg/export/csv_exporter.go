package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVOption adjusts the CSV dialect.
type CSVOption func(*CSVExporter)

// WithComma sets the field separator.
func WithComma(r rune) CSVOption {
	return func(e *CSVExporter) { e.comma = r }
}

// WithoutBOM drops the byte order mark that spreadsheet programs use to detect UTF-8.
func WithoutBOM() CSVOption {
	return func(e *CSVExporter) { e.bom = false }
}

// CSVExporter writes a Dataset as CSV. Thai headers need the BOM to open
// correctly in Excel, so it is on unless WithoutBOM is given.
type CSVExporter struct {
	comma rune
	bom   bool
}

func NewCSVExporter(opts ...CSVOption) *CSVExporter {
	e := &CSVExporter{comma: ',', bom: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Render returns the whole document in memory.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.Write(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write streams the document to w. Short rows are padded to the header width.
func (e *CSVExporter) Write(w io.Writer, data Dataset) error {
	if err := data.validate("csv"); err != nil {
		return err
	}
	if e.bom {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("write bom: %w", err)
		}
	}

	cw := csv.NewWriter(w)
	cw.Comma = e.comma
	if err := cw.Write(data.Headers); err != nil {
		return fmt.Errorf("csv header: %w", err)
	}

	record := make([]string, len(data.Headers))
	for n, row := range data.Rows {
		for i := range record {
			record[i] = cell(row, i)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("csv row %d: %w", n+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
