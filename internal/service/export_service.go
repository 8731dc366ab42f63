package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Boatkungg/teerute-tpat13-checker/internal/models"
	appErrors "github.com/Boatkungg/teerute-tpat13-checker/pkg/errors"
	"github.com/Boatkungg/teerute-tpat13-checker/pkg/export"
	"github.com/Boatkungg/teerute-tpat13-checker/pkg/storage"
)

type fileStorage interface {
	Write(name string, data []byte) (string, error)
	Open(name string) (*os.File, error)
	Remove(name string) error
	Expire(maxAge time.Duration) ([]string, error)
}

type scoreReader interface {
	Get(ctx context.Context, id string) (*models.ScoreRecord, error)
}

type renderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	FileTTL   time.Duration
}

// ExportService renders stored results and persists the files behind signed URLs.
type ExportService struct {
	merges    mergeReader
	scores    scoreReader
	storage   fileStorage
	renderers map[models.ExportFormat]renderer
	signer    *storage.LinkSigner
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService with the CSV, XLSX and PDF renderers.
func NewExportService(merges mergeReader, scores scoreReader, store fileStorage, signer *storage.LinkSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.FileTTL <= 0 {
		cfg.FileTTL = 24 * time.Hour
	}
	return &ExportService{
		merges:  merges,
		scores:  scores,
		storage: store,
		renderers: map[models.ExportFormat]renderer{
			models.ExportFormatCSV:  export.NewCSVExporter(),
			models.ExportFormatXLSX: export.NewXLSXExporter(),
			models.ExportFormatPDF:  export.NewPDFExporter(),
		},
		signer: signer,
		logger: logger,
		cfg:    cfg,
	}
}

// Export renders the stored merge or score result identified by id.
func (s *ExportService) Export(ctx context.Context, kind models.ExportKind, id string, format models.ExportFormat) (*models.ExportLink, error) {
	r, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	var dataset export.Dataset
	switch kind {
	case models.ExportKindMerge:
		record, err := s.merges.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		dataset = MergeDataset(record)
	case models.ExportKindScore:
		record, err := s.scores.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		dataset = ScoreDataset(record)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown export kind %q", kind))
	}

	payload, err := r.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	filename := buildFilename(kind, id, format)
	relPath, err := s.storage.Write(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}

	token, dl, err := s.signer.Sign(uuid.NewString(), relPath)
	if err != nil {
		if rmErr := s.storage.Remove(relPath); rmErr != nil {
			s.logger.Warn("failed to remove unsigned export", zap.String("file", relPath), zap.Error(rmErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export")
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	s.logger.Info("export rendered",
		zap.String("kind", string(kind)),
		zap.String("source_id", id),
		zap.String("format", string(format)),
		zap.Int("bytes", len(payload)),
	)
	return &models.ExportLink{
		Kind:      kind,
		SourceID:  id,
		Format:    format,
		Filename:  relPath,
		URL:       fmt.Sprintf("%s/export/%s", prefix, token),
		ExpiresAt: dl.ExpiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string) (relPath string, expiresAt time.Time, err error) {
	dl, err := s.signer.Verify(token)
	switch {
	case errors.Is(err, storage.ErrLinkExpired):
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export link expired")
	case err != nil:
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export link invalid")
	}
	return dl.Path, dl.ExpiresAt, nil
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	f, err := s.storage.Open(relPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export file no longer available")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export")
	}
	return f, nil
}

// Cleanup removes files older than ttl (defaults to FileTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.FileTTL
	}
	return s.storage.Expire(ttl)
}

// FormatFromFilename maps a stored export back to its format.
func FormatFromFilename(name string) models.ExportFormat {
	return models.ExportFormat(strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), "."))
}

// MergeDataset lays a merged table out exactly as it was merged.
func MergeDataset(record *models.MergeRecord) export.Dataset {
	return export.Dataset{
		Title:   fmt.Sprintf("Merged answers (%d students)", record.Table.StudentCount()),
		Headers: append([]string(nil), record.Table.Columns...),
		Rows:    record.Table.Rows,
	}
}

// ScoreDataset lays out one row per student: identifier, total, then each question's score.
func ScoreDataset(record *models.ScoreRecord) export.Dataset {
	result := record.Result
	headers := []string{"Student ID", "Total Score"}
	if len(result.Rows) > 0 {
		for _, qs := range result.Rows[0].Breakdown {
			headers = append(headers, "Q"+qs.Question)
		}
	}

	rows := make([][]string, 0, len(result.Rows))
	for _, row := range result.Rows {
		values := make([]string, 0, len(headers))
		values = append(values, row.StudentID, formatScore(row.TotalScore))
		for _, qs := range row.Breakdown {
			values = append(values, formatScore(qs.Score))
		}
		rows = append(rows, values)
	}

	return export.Dataset{
		Title: fmt.Sprintf("Scores (reward %s, penalty %s, mean %s)",
			formatScore(result.Weights.Reward), formatScore(result.Weights.Penalty), formatScore(result.Summary.Mean)),
		Headers: headers,
		Rows:    rows,
	}
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func buildFilename(kind models.ExportKind, id string, format models.ExportFormat) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%s.%s", kind, sanitizeFilename(id), timestamp, format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 36 {
		return result[:36]
	}
	return result
}
