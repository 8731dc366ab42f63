package handler

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Boatkungg/teerute-tpat13-checker/internal/service"
	appErrors "github.com/Boatkungg/teerute-tpat13-checker/pkg/errors"
	"github.com/Boatkungg/teerute-tpat13-checker/pkg/response"
)

type downloadService interface {
	ParseToken(token string) (relPath string, expiresAt time.Time, err error)
	Open(relPath string) (*os.File, error)
}

// ExportHandler serves rendered exports behind signed tokens.
type ExportHandler struct {
	service downloadService
}

// NewExportHandler constructs the handler.
func NewExportHandler(service downloadService) *ExportHandler {
	return &ExportHandler{service: service}
}

// Download godoc
// @Summary Download a rendered export via signed token
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /export/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	relPath, _, err := h.service.ParseToken(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.service.Open(relPath)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat export"))
		return
	}

	format := service.FormatFromFilename(relPath)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filepath.Base(relPath)))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), format.ContentType(), file, nil)
}
