package spreadsheet

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// NewWorkbook lays headers and rows out on a single sheet with a bold header row.
func NewWorkbook(sheet string, headers []string, rows [][]string) (*excelize.File, error) {
	f := excelize.NewFile()
	if sheet == "" {
		sheet = defaultSheet
	}
	if sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, sheet); err != nil {
			return nil, fmt.Errorf("rename sheet: %w", err)
		}
	}

	if err := writeRow(f, sheet, 1, headers); err != nil {
		return nil, err
	}
	for i, row := range rows {
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return nil, err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return nil, fmt.Errorf("apply header style: %w", err)
	}
	return f, nil
}

// WriteXLSX renders a single-sheet workbook to bytes.
func WriteXLSX(sheet string, headers []string, rows [][]string) ([]byte, error) {
	f, err := NewWorkbook(sheet, headers, rows)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// AnswerKeyTemplate builds a blank answer key: one row per question number
// and one column per answer slot.
func AnswerKeyTemplate(questionColumn string, questions, slots int) ([]byte, error) {
	if questions <= 0 || slots <= 0 {
		return nil, fmt.Errorf("questions and slots must be positive")
	}
	headers := make([]string, 0, slots+1)
	headers = append(headers, questionColumn)
	for s := 1; s <= slots; s++ {
		headers = append(headers, strconv.Itoa(s))
	}
	rows := make([][]string, 0, questions)
	for q := 1; q <= questions; q++ {
		rows = append(rows, []string{strconv.Itoa(q)})
	}

	f, err := NewWorkbook("AnswerKey", headers, rows)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	if err := f.SetColWidth("AnswerKey", "A", "A", 10); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write template: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, rowNum int, values []string) error {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("cell name for row %d: %w", rowNum, err)
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("write row %d: %w", rowNum, err)
	}
	return nil
}
