package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Boatkungg/teerute-tpat13-checker/internal/dto"
	"github.com/Boatkungg/teerute-tpat13-checker/internal/models"
	"github.com/Boatkungg/teerute-tpat13-checker/internal/service"
	appErrors "github.com/Boatkungg/teerute-tpat13-checker/pkg/errors"
	"github.com/Boatkungg/teerute-tpat13-checker/pkg/response"
)

type mergeService interface {
	Merge(ctx context.Context, tables []models.RawTable, opts service.MergeOptions) (*models.MergeRecord, error)
	Get(ctx context.Context, id string) (*models.MergeRecord, error)
	Delete(ctx context.Context, id string) error
}

type exportService interface {
	Export(ctx context.Context, kind models.ExportKind, id string, format models.ExportFormat) (*models.ExportLink, error)
}

// MergeHandler exposes answer sheet merging endpoints.
type MergeHandler struct {
	service mergeService
	exports exportService
	limits  UploadLimits
}

// NewMergeHandler constructs the handler.
func NewMergeHandler(service mergeService, exports exportService, limits UploadLimits) *MergeHandler {
	return &MergeHandler{service: service, exports: exports, limits: limits}
}

// Create godoc
// @Summary Merge per-session answer sheets
// @Description Files are merged in upload order. Question columns of later files are renumbered past the groups already used.
// @Tags Merges
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "Answer sheets (.xlsx or .csv), repeatable"
// @Param idColumn formData string false "Header for the student identifier column"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Router /merges [post]
func (h *MergeHandler) Create(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "multipart form with files is required"))
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrEmptyInput, "at least one file is required"))
		return
	}

	tables, err := parseUploads(c.Request.Context(), files, h.limits)
	if err != nil {
		response.Error(c, err)
		return
	}

	opts := service.MergeOptions{IDColumn: strings.TrimSpace(c.PostForm("idColumn"))}
	record, err := h.service.Merge(c.Request.Context(), tables, opts)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewMergeSummary(record))
}

// Get godoc
// @Summary Fetch a merged table
// @Tags Merges
// @Produce json
// @Param id path string true "Merge ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /merges/{id} [get]
func (h *MergeHandler) Get(c *gin.Context) {
	record, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record)
}

// Delete godoc
// @Summary Discard a merged table
// @Tags Merges
// @Param id path string true "Merge ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /merges/{id} [delete]
func (h *MergeHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Export godoc
// @Summary Render a merged table for download
// @Tags Merges
// @Accept json
// @Produce json
// @Param id path string true "Merge ID"
// @Param payload body dto.ExportRequest true "Export format"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /merges/{id}/exports [post]
func (h *MergeHandler) Export(c *gin.Context) {
	createExport(c, h.exports, models.ExportKindMerge)
}

func createExport(c *gin.Context, exports exportService, kind models.ExportKind) {
	if exports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "export service not configured"))
		return
	}
	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be one of csv, xlsx, pdf"))
		return
	}
	link, err := exports.Export(c.Request.Context(), kind, c.Param("id"), req.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, link)
}
