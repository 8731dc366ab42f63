package handler

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Boatkungg/teerute-tpat13-checker/internal/dto"
	"github.com/Boatkungg/teerute-tpat13-checker/internal/models"
	"github.com/Boatkungg/teerute-tpat13-checker/internal/service"
	appErrors "github.com/Boatkungg/teerute-tpat13-checker/pkg/errors"
	"github.com/Boatkungg/teerute-tpat13-checker/pkg/response"
)

type scoreService interface {
	Score(ctx context.Context, req service.ScoreRequest) (*models.ScoreRecord, error)
	Get(ctx context.Context, id string) (*models.ScoreRecord, error)
	Delete(ctx context.Context, id string) error
}

// ScoreHandler exposes scoring endpoints.
type ScoreHandler struct {
	service scoreService
	exports exportService
	limits  UploadLimits
}

// NewScoreHandler constructs the handler.
func NewScoreHandler(service scoreService, exports exportService, limits UploadLimits) *ScoreHandler {
	return &ScoreHandler{service: service, exports: exports, limits: limits}
}

// Create godoc
// @Summary Score students against an answer key
// @Description Students come from a stored merge (mergeId) or an uploaded file (students).
// @Tags Scores
// @Accept multipart/form-data
// @Produce json
// @Param answerKey formData file true "Answer key (.xlsx or .csv)"
// @Param students formData file false "Student answers (.xlsx or .csv)"
// @Param mergeId formData string false "Stored merge ID"
// @Param questionColumn formData string false "Question number column of the answer key"
// @Param reward formData number false "Points per correct selection"
// @Param penalty formData number false "Points per incorrect or duplicate selection"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /scores [post]
func (h *ScoreHandler) Create(c *gin.Context) {
	key, ok, err := singleUpload(c, "answerKey", h.limits)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "answerKey file is required"))
		return
	}

	req := service.ScoreRequest{
		MergeID:        strings.TrimSpace(c.PostForm("mergeId")),
		AnswerKey:      key,
		QuestionColumn: strings.TrimSpace(c.PostForm("questionColumn")),
	}
	if req.MergeID == "" {
		students, ok, err := singleUpload(c, "students", h.limits)
		if err != nil {
			response.Error(c, err)
			return
		}
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "students file or mergeId is required"))
			return
		}
		req.Students = &students
	}

	if req.Reward, err = optionalFloat(c, "reward"); err != nil {
		response.Error(c, err)
		return
	}
	if req.Penalty, err = optionalFloat(c, "penalty"); err != nil {
		response.Error(c, err)
		return
	}

	record, err := h.service.Score(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewScoreResponse(record))
}

// Get godoc
// @Summary Fetch a score result
// @Tags Scores
// @Produce json
// @Param id path string true "Score ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /scores/{id} [get]
func (h *ScoreHandler) Get(c *gin.Context) {
	record, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewScoreResponse(record))
}

// Delete godoc
// @Summary Discard a score result
// @Tags Scores
// @Param id path string true "Score ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /scores/{id} [delete]
func (h *ScoreHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Export godoc
// @Summary Render a score result for download
// @Tags Scores
// @Accept json
// @Produce json
// @Param id path string true "Score ID"
// @Param payload body dto.ExportRequest true "Export format"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /scores/{id}/exports [post]
func (h *ScoreHandler) Export(c *gin.Context) {
	createExport(c, h.exports, models.ExportKindScore)
}

func optionalFloat(c *gin.Context, field string) (*float64, error) {
	raw := strings.TrimSpace(c.PostForm(field))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s must be a number", field))
	}
	return &v, nil
}
