package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// CellKind identifies which variant a Cell holds.
type CellKind int

const (
	// CellMissing marks an absent or null spreadsheet value.
	CellMissing CellKind = iota
	// CellText marks a string value.
	CellText
	// CellNumber marks a numeric value.
	CellNumber
)

// Cell is a single spreadsheet scalar: text, number or missing.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
}

// TextCell wraps a string value.
func TextCell(s string) Cell {
	return Cell{Kind: CellText, Text: s}
}

// NumberCell wraps a numeric value.
func NumberCell(n float64) Cell {
	return Cell{Kind: CellNumber, Number: n}
}

// MissingCell returns the absent value.
func MissingCell() Cell {
	return Cell{Kind: CellMissing}
}

// IsMissing reports whether the cell holds no value.
func (c Cell) IsMissing() bool {
	return c.Kind == CellMissing
}

// String stringifies the cell. Numbers use the shortest decimal form.
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	default:
		return ""
	}
}

// Trimmed returns the stringified value without surrounding whitespace.
func (c Cell) Trimmed() string {
	return strings.TrimSpace(c.String())
}

// MarshalJSON encodes text as a JSON string, numbers as numbers and missing as null.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CellText:
		return json.Marshal(c.Text)
	case CellNumber:
		return json.Marshal(c.Number)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts strings, numbers and null.
func (c *Cell) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*c = MissingCell()
		return nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*c = TextCell(s)
		return nil
	default:
		var n float64
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return fmt.Errorf("cell must be string, number or null: %w", err)
		}
		*c = NumberCell(n)
		return nil
	}
}

// Row maps a column header to the cell found under it.
type Row map[string]Cell

// RawTable is one parsed spreadsheet: a header row plus data rows.
// The first header is the student identifier column by convention.
type RawTable struct {
	Name    string   `json:"name,omitempty"`
	Headers []string `json:"headers"`
	Rows    []Row    `json:"rows"`
}

// IDColumn returns the first header, or "" when the table has none.
func (t RawTable) IDColumn() string {
	if len(t.Headers) == 0 {
		return ""
	}
	return t.Headers[0]
}

// MergeSkips records rows and tables dropped without failing the merge.
type MergeSkips struct {
	BlankIdentifiers int `json:"blankIdentifiers"`
	EmptyTables      int `json:"emptyTables"`
}

// MergedTable is the canonical student table produced by a merge.
// Every row carries exactly len(Columns) cells.
type MergedTable struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Skipped MergeSkips `json:"skipped"`
}

// IDColumn returns the student identifier header.
func (t MergedTable) IDColumn() string {
	if len(t.Columns) == 0 {
		return ""
	}
	return t.Columns[0]
}

// StudentCount returns the number of distinct students.
func (t MergedTable) StudentCount() int {
	return len(t.Rows)
}

// QuestionCount returns the number of non-identifier columns.
func (t MergedTable) QuestionCount() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns) - 1
}

// AsRawTable converts the merged table back into the parser shape so that
// it can be re-merged or scored like an uploaded file.
func (t MergedTable) AsRawTable() RawTable {
	rows := make([]Row, 0, len(t.Rows))
	for _, values := range t.Rows {
		row := make(Row, len(t.Columns))
		for i, col := range t.Columns {
			if i < len(values) && values[i] != "" {
				row[col] = TextCell(values[i])
			} else {
				row[col] = MissingCell()
			}
		}
		rows = append(rows, row)
	}
	headers := make([]string, len(t.Columns))
	copy(headers, t.Columns)
	return RawTable{Headers: headers, Rows: rows}
}
