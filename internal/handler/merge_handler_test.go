package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Boatkungg/teerute-tpat13-checker/internal/dto"
	"github.com/Boatkungg/teerute-tpat13-checker/internal/models"
)

func TestMergeHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &mergeServiceStub{}
	h := NewMergeHandler(svc, nil, UploadLimits{MaxFileSize: 1 << 20, MaxFiles: 5})

	c, w := newMultipartContext(t, http.MethodPost, "/merges", map[string]string{"idColumn": "เลขประจำตัว"},
		upload{"files", "day1.csv", "id,1.1,1.2\ns1,1&11&21,2&12&22\ns2,1&11&21,\n"},
		upload{"files", "day2.csv", "id,1.1\ns1,3&13&23\ns3,4&14&24\n"},
	)
	h.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, svc.gotTables, 2)
	assert.Equal(t, "day1.csv", svc.gotTables[0].Name)
	assert.Equal(t, "day2.csv", svc.gotTables[1].Name)
	assert.Equal(t, "เลขประจำตัว", svc.gotOpts.IDColumn)

	var summary dto.MergeSummaryResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w)["data"], &summary))
	assert.Equal(t, []string{"เลขประจำตัว", "1.1", "1.2", "2.1"}, summary.Columns)
	assert.Equal(t, 3, summary.StudentCount)
	assert.Equal(t, 3, summary.QuestionCount)
}

func TestMergeHandlerCreateRejectsBadUploads(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewMergeHandler(&mergeServiceStub{}, nil, UploadLimits{MaxFileSize: 16, MaxFiles: 1})

	c, w := newMultipartContext(t, http.MethodPost, "/merges", nil)
	h.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newMultipartContext(t, http.MethodPost, "/merges", nil, upload{"files", "answers.pdf", "x"})
	h.Create(c)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	c, w = newMultipartContext(t, http.MethodPost, "/merges", nil,
		upload{"files", "a.csv", "id\n"}, upload{"files", "b.csv", "id\n"})
	h.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newMultipartContext(t, http.MethodPost, "/merges", nil,
		upload{"files", "big.csv", "id,1.1\ns1,1&11&21\ns2,1&11&21\n"})
	h.Create(c)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestMergeHandlerGet(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &mergeServiceStub{record: &models.MergeRecord{ID: "m-1", Table: models.MergedTable{Columns: []string{"id"}}}}
	h := NewMergeHandler(svc, nil, UploadLimits{})

	c, w := newGinContext(http.MethodGet, "/merges/m-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "m-1"}}
	h.Get(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newGinContext(http.MethodGet, "/merges/nope", nil)
	c.Params = gin.Params{{Key: "id", Value: "nope"}}
	h.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMergeHandlerExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	exports := &exportServiceStub{}
	h := NewMergeHandler(&mergeServiceStub{}, exports, UploadLimits{})

	c, w := newGinContext(http.MethodPost, "/merges/m-1/exports", []byte(`{"format":"xlsx"}`))
	c.Params = gin.Params{{Key: "id", Value: "m-1"}}
	h.Export(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, models.ExportKindMerge, exports.kind)
	assert.Equal(t, "m-1", exports.id)
	assert.Equal(t, models.ExportFormatXLSX, exports.format)

	c, w = newGinContext(http.MethodPost, "/merges/m-1/exports", []byte(`{"format":"docx"}`))
	c.Params = gin.Params{{Key: "id", Value: "m-1"}}
	h.Export(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMergeHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &mergeServiceStub{record: &models.MergeRecord{ID: "m-1"}}
	h := NewMergeHandler(svc, nil, UploadLimits{})

	c, _ := newGinContext(http.MethodDelete, "/merges/m-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "m-1"}}
	h.Delete(c)
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Nil(t, svc.record)

	c, w := newGinContext(http.MethodDelete, "/merges/m-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "m-1"}}
	h.Delete(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
