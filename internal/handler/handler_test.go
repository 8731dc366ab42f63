package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/Boatkungg/teerute-tpat13-checker/internal/models"
	"github.com/Boatkungg/teerute-tpat13-checker/internal/service"
	appErrors "github.com/Boatkungg/teerute-tpat13-checker/pkg/errors"
)

type upload struct {
	field    string
	filename string
	content  string
}

// newMultipartContext builds a gin context carrying a multipart body.
func newMultipartContext(t *testing.T, method, path string, fields map[string]string, files ...upload) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, f := range files {
		part, err := writer.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.Request = req
	return c, w
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var env map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

type mergeServiceStub struct {
	gotTables []models.RawTable
	gotOpts   service.MergeOptions
	record    *models.MergeRecord
	err       error
}

func (s *mergeServiceStub) Merge(_ context.Context, tables []models.RawTable, opts service.MergeOptions) (*models.MergeRecord, error) {
	s.gotTables = tables
	s.gotOpts = opts
	if s.err != nil {
		return nil, s.err
	}
	merged, err := service.MergeTables(tables, opts)
	if err != nil {
		return nil, err
	}
	return &models.MergeRecord{ID: "m-1", Table: merged}, nil
}

func (s *mergeServiceStub) Get(_ context.Context, id string) (*models.MergeRecord, error) {
	if s.record == nil || s.record.ID != id {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "merge result not found or expired")
	}
	return s.record, nil
}

func (s *mergeServiceStub) Delete(_ context.Context, id string) error {
	if s.record == nil || s.record.ID != id {
		return appErrors.Clone(appErrors.ErrNotFound, "merge result not found or expired")
	}
	s.record = nil
	return nil
}

type scoreServiceStub struct {
	got    service.ScoreRequest
	record *models.ScoreRecord
	err    error
}

func (s *scoreServiceStub) Score(_ context.Context, req service.ScoreRequest) (*models.ScoreRecord, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	return &models.ScoreRecord{ID: "s-1", MergeID: req.MergeID}, nil
}

func (s *scoreServiceStub) Get(_ context.Context, id string) (*models.ScoreRecord, error) {
	if s.record == nil || s.record.ID != id {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "score result not found or expired")
	}
	return s.record, nil
}

func (s *scoreServiceStub) Delete(_ context.Context, id string) error {
	if s.record == nil || s.record.ID != id {
		return appErrors.Clone(appErrors.ErrNotFound, "score result not found or expired")
	}
	s.record = nil
	return nil
}

type exportServiceStub struct {
	kind   models.ExportKind
	id     string
	format models.ExportFormat
}

func (s *exportServiceStub) Export(_ context.Context, kind models.ExportKind, id string, format models.ExportFormat) (*models.ExportLink, error) {
	s.kind, s.id, s.format = kind, id, format
	return &models.ExportLink{Kind: kind, SourceID: id, Format: format, URL: "/api/v1/export/token"}, nil
}
