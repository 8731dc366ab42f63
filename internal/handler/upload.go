package handler

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/Boatkungg/teerute-tpat13-checker/internal/models"
	appErrors "github.com/Boatkungg/teerute-tpat13-checker/pkg/errors"
	"github.com/Boatkungg/teerute-tpat13-checker/pkg/spreadsheet"
)

// maxConcurrentParses caps how many workbooks are decoded at once per request.
const maxConcurrentParses = 4

// UploadLimits bounds multipart spreadsheet uploads.
type UploadLimits struct {
	MaxFileSize int64
	MaxFiles    int
}

// parseUploads parses every file of a multipart field concurrently.
// The result keeps the upload order; the first failure cancels the rest.
func parseUploads(ctx context.Context, files []*multipart.FileHeader, limits UploadLimits) ([]models.RawTable, error) {
	if limits.MaxFiles > 0 && len(files) > limits.MaxFiles {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("at most %d files per request", limits.MaxFiles))
	}
	for _, fh := range files {
		if limits.MaxFileSize > 0 && fh.Size > limits.MaxFileSize {
			return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("%s exceeds %d bytes", fh.Filename, limits.MaxFileSize)).
				WithDetail("file", fh.Filename)
		}
		if _, err := spreadsheet.DetectFormat(fh.Filename); err != nil {
			return nil, err
		}
	}

	tables := make([]models.RawTable, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentParses)
	for i, fh := range files {
		i, fh := i, fh
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			table, err := parseUpload(fh)
			if err != nil {
				return err
			}
			tables[i] = table
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}

func parseUpload(fh *multipart.FileHeader) (models.RawTable, error) {
	src, err := fh.Open()
	if err != nil {
		return models.RawTable{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open upload")
	}
	defer src.Close()

	return spreadsheet.Parse(fh.Filename, src)
}

// singleUpload parses one optional file field. ok is false when the field is absent.
func singleUpload(c *gin.Context, field string, limits UploadLimits) (table models.RawTable, ok bool, err error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return models.RawTable{}, false, nil
	}
	tables, err := parseUploads(c.Request.Context(), []*multipart.FileHeader{fh}, UploadLimits{MaxFileSize: limits.MaxFileSize})
	if err != nil {
		return models.RawTable{}, true, err
	}
	return tables[0], true, nil
}
