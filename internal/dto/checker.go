package dto

import (
	"time"

	"github.com/Boatkungg/teerute-tpat13-checker/internal/models"
)

// MergeSummaryResponse is returned after POST /merges.
type MergeSummaryResponse struct {
	ID            string            `json:"id"`
	Sources       []string          `json:"sources"`
	Columns       []string          `json:"columns"`
	StudentCount  int               `json:"studentCount"`
	QuestionCount int               `json:"questionCount"`
	Skipped       models.MergeSkips `json:"skipped"`
	CreatedAt     time.Time         `json:"createdAt"`
}

// NewMergeSummary trims a stored merge down to its summary.
func NewMergeSummary(record *models.MergeRecord) MergeSummaryResponse {
	return MergeSummaryResponse{
		ID:            record.ID,
		Sources:       record.Sources,
		Columns:       record.Table.Columns,
		StudentCount:  record.Table.StudentCount(),
		QuestionCount: record.Table.QuestionCount(),
		Skipped:       record.Table.Skipped,
		CreatedAt:     record.CreatedAt,
	}
}

// ScoreResponse is returned by POST /scores and GET /scores/:id.
type ScoreResponse struct {
	ID                  string                  `json:"id"`
	MergeID             string                  `json:"mergeId,omitempty"`
	Rows                []models.ScoreRow       `json:"rows"`
	Summary             models.ScoreSummary     `json:"summary"`
	Weights             models.EffectiveWeights `json:"weights"`
	UnencodedSelections int                     `json:"unencodedSelections"`
	CreatedAt           time.Time               `json:"createdAt"`
}

// NewScoreResponse flattens a stored score record.
func NewScoreResponse(record *models.ScoreRecord) ScoreResponse {
	return ScoreResponse{
		ID:                  record.ID,
		MergeID:             record.MergeID,
		Rows:                record.Result.Rows,
		Summary:             record.Result.Summary,
		Weights:             record.Result.Weights,
		UnencodedSelections: record.Result.UnencodedSelections,
		CreatedAt:           record.CreatedAt,
	}
}

// ExportRequest captures POST /merges/:id/exports and POST /scores/:id/exports.
type ExportRequest struct {
	Format models.ExportFormat `json:"format" binding:"required,oneof=csv xlsx pdf"`
}

// TemplateQuery captures GET /templates/answer-key parameters.
type TemplateQuery struct {
	Questions int `form:"questions" binding:"omitempty,min=1,max=200"`
	Slots     int `form:"slots" binding:"omitempty,min=1,max=10"`
}
