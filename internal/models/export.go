package models

import "time"

// ExportFormat enumerates supported export formats.
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatXLSX ExportFormat = "xlsx"
	ExportFormatPDF  ExportFormat = "pdf"
)

// Valid reports whether the format is supported.
func (f ExportFormat) Valid() bool {
	switch f {
	case ExportFormatCSV, ExportFormatXLSX, ExportFormatPDF:
		return true
	}
	return false
}

// ContentType returns the MIME type served for the format.
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportFormatCSV:
		return "text/csv"
	case ExportFormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ExportFormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// ExportKind identifies which stored result an export was rendered from.
type ExportKind string

const (
	ExportKindMerge ExportKind = "merge"
	ExportKindScore ExportKind = "score"
)

// ExportLink is returned to clients after an export has been rendered.
type ExportLink struct {
	Kind      ExportKind   `json:"kind"`
	SourceID  string       `json:"sourceId"`
	Format    ExportFormat `json:"format"`
	Filename  string       `json:"filename"`
	URL       string       `json:"url"`
	ExpiresAt time.Time    `json:"expiresAt"`
}
