package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Boatkungg/teerute-tpat13-checker/internal/dto"
	"github.com/Boatkungg/teerute-tpat13-checker/internal/models"
	appErrors "github.com/Boatkungg/teerute-tpat13-checker/pkg/errors"
	"github.com/Boatkungg/teerute-tpat13-checker/pkg/response"
	"github.com/Boatkungg/teerute-tpat13-checker/pkg/spreadsheet"
)

const (
	defaultTemplateQuestions = 60
	defaultTemplateSlots     = 1
)

// TemplateHandler serves blank workbooks users fill in.
type TemplateHandler struct {
	questionColumn string
}

// NewTemplateHandler constructs the handler.
func NewTemplateHandler(questionColumn string) *TemplateHandler {
	return &TemplateHandler{questionColumn: questionColumn}
}

// AnswerKey godoc
// @Summary Download a blank answer key workbook
// @Tags Templates
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param questions query int false "Number of questions (1-200)"
// @Param slots query int false "Answer slots per question (1-10)"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /templates/answer-key [get]
func (h *TemplateHandler) AnswerKey(c *gin.Context) {
	var query dto.TemplateQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "questions must be 1-200 and slots 1-10"))
		return
	}
	if query.Questions == 0 {
		query.Questions = defaultTemplateQuestions
	}
	if query.Slots == 0 {
		query.Slots = defaultTemplateSlots
	}

	payload, err := spreadsheet.AnswerKeyTemplate(h.questionColumn, query.Questions, query.Slots)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build template"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"answer-key-%dq.xlsx\"", query.Questions))
	c.Data(http.StatusOK, models.ExportFormatXLSX.ContentType(), payload)
}
