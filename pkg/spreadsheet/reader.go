package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Boatkungg/teerute-tpat13-checker/internal/models"
	appErrors "github.com/Boatkungg/teerute-tpat13-checker/pkg/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Format identifies a supported spreadsheet encoding.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// DetectFormat picks the format from the file extension.
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", appErrors.Clone(appErrors.ErrUnsupportedFormat, fmt.Sprintf("unsupported file format: %s", name))
	}
}

// Parse reads the first sheet of an xlsx workbook or a csv file into a RawTable.
// The header row is consumed; entirely blank rows are dropped.
func Parse(name string, r io.Reader) (models.RawTable, error) {
	format, err := DetectFormat(name)
	if err != nil {
		return models.RawTable{}, err
	}

	var rows [][]string
	switch format {
	case FormatXLSX:
		rows, err = readXLSX(r)
	case FormatCSV:
		rows, err = readCSV(r)
	}
	if err != nil {
		return models.RawTable{}, appErrors.Wrap(err, appErrors.ErrMalformedTable.Code, appErrors.ErrMalformedTable.Status, fmt.Sprintf("cannot read %s", name))
	}

	table := FromRows(rows)
	table.Name = name
	return table, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close() //nolint:errcheck

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return rows, nil
}

// FromRows converts a header row plus data rows into a RawTable.
// Blank header names after the first column are ignored together with their cells.
func FromRows(rows [][]string) models.RawTable {
	if len(rows) == 0 {
		return models.RawTable{Headers: []string{}, Rows: []models.Row{}}
	}

	headers := make([]string, 0, len(rows[0]))
	positions := make([]int, 0, len(rows[0]))
	for i, header := range rows[0] {
		name := strings.TrimSpace(header)
		if name == "" && i > 0 {
			continue
		}
		headers = append(headers, name)
		positions = append(positions, i)
	}

	data := make([]models.Row, 0, len(rows)-1)
	for _, values := range rows[1:] {
		row := make(models.Row, len(headers))
		blank := true
		for k, header := range headers {
			pos := positions[k]
			if pos >= len(values) {
				row[header] = models.MissingCell()
				continue
			}
			value := strings.TrimSpace(values[pos])
			if value == "" {
				row[header] = models.MissingCell()
				continue
			}
			blank = false
			row[header] = models.TextCell(value)
		}
		if blank {
			continue
		}
		data = append(data, row)
	}

	return models.RawTable{Headers: headers, Rows: data}
}
