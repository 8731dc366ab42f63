package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
	"go.uber.org/zap"

	"github.com/Boatkungg/teerute-tpat13-checker/internal/models"
	appErrors "github.com/Boatkungg/teerute-tpat13-checker/pkg/errors"
)

// DefaultPenalty is applied per incorrect or duplicate selection when none is given.
const DefaultPenalty = -3.0

// fullMarks is split evenly over every answer slot when no reward is given.
const fullMarks = 100.0

// ScoringOptions carries the codec and the penalty used when the caller omits one.
type ScoringOptions struct {
	Codec          AnswerCodec
	DefaultPenalty float64
}

// ResolveWeights fills in omitted weights. The default reward is 100 divided by
// the total number of answer slots in the key, or 0 when the key has none.
func ResolveWeights(key models.AnswerKeyIndex, weights models.ScoreWeights, defaultPenalty float64) models.EffectiveWeights {
	slots := key.TotalAnswerSlots()
	effective := models.EffectiveWeights{Penalty: defaultPenalty, TotalAnswerSlots: slots}
	if weights.Reward != nil {
		effective.Reward = *weights.Reward
	} else if slots > 0 {
		effective.Reward = fullMarks / float64(slots)
	}
	if weights.Penalty != nil {
		effective.Penalty = *weights.Penalty
	}
	return effective
}

// ScoreTable scores every student row of the table against the key.
// Per question: correct = |set(student) ∩ key|, duplicates = len(student) - |set(student)|,
// incorrect = |set(student) \ key|, and the question score never drops below zero.
func ScoreTable(table models.MergedTable, key models.AnswerKeyIndex, weights models.ScoreWeights, opts ScoringOptions) models.ScoreResult {
	effective := ResolveWeights(key, weights, opts.DefaultPenalty)
	result := models.ScoreResult{Rows: []models.ScoreRow{}, Weights: effective}
	if key.Len() == 0 {
		return result
	}

	groups := groupColumns(table.Columns)
	correctSets := make(map[string]map[string]struct{}, key.Len())
	for _, q := range key.Order {
		set := make(map[string]struct{}, len(key.Codes[q]))
		for _, code := range key.Codes[q] {
			set[code] = struct{}{}
		}
		correctSets[q] = set
	}

	for _, values := range table.Rows {
		if len(values) == 0 {
			continue
		}
		studentID := strings.TrimSpace(values[0])
		if studentID == "" {
			continue
		}

		row := models.ScoreRow{StudentID: studentID, Breakdown: make([]models.QuestionScore, 0, key.Len())}
		for _, q := range key.Order {
			codes := make([]string, 0, len(groups[q]))
			for _, idx := range groups[q] {
				if idx >= len(values) {
					continue
				}
				raw := strings.TrimSpace(values[idx])
				if raw == "" {
					continue
				}
				code := opts.Codec.Encode(raw)
				if code == "" {
					result.UnencodedSelections++
					continue
				}
				codes = append(codes, code)
			}

			qs := scoreQuestion(q, codes, correctSets[q], effective)
			row.TotalScore += qs.Score
			row.Breakdown = append(row.Breakdown, qs)
		}
		result.Rows = append(result.Rows, row)
	}

	result.Summary = Summarize(result.Rows)
	return result
}

func scoreQuestion(question string, codes []string, correct map[string]struct{}, weights models.EffectiveWeights) models.QuestionScore {
	unique := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		unique[code] = struct{}{}
	}

	qs := models.QuestionScore{Question: question, Duplicates: len(codes) - len(unique)}
	for code := range unique {
		if _, ok := correct[code]; ok {
			qs.Correct++
		} else {
			qs.Incorrect++
		}
	}

	score := float64(qs.Correct)*weights.Reward + float64(qs.Duplicates+qs.Incorrect)*weights.Penalty
	qs.Score = math.Max(0, score)
	return qs
}

// groupColumns maps a question group (the part of a header before the first ".")
// to the positions of its columns. The identifier column is never grouped.
func groupColumns(columns []string) map[string][]int {
	groups := make(map[string][]int)
	for i := 1; i < len(columns); i++ {
		group := strings.SplitN(columns[i], ".", 2)[0]
		groups[group] = append(groups[group], i)
	}
	return groups
}

// Summarize describes the distribution of total scores.
func Summarize(rows []models.ScoreRow) models.ScoreSummary {
	if len(rows) == 0 {
		return models.ScoreSummary{}
	}
	data := make(stats.Float64Data, 0, len(rows))
	for _, row := range rows {
		data = append(data, row.TotalScore)
	}

	summary := models.ScoreSummary{Count: len(rows)}
	summary.Mean, _ = stats.Mean(data)
	summary.Median, _ = stats.Median(data)
	summary.StdDev, _ = stats.StandardDeviation(data)
	summary.Min, _ = stats.Min(data)
	summary.Max, _ = stats.Max(data)
	return summary
}

// ScoreRequest describes one scoring call. Exactly one of Students or MergeID is used;
// MergeID wins when both are set.
type ScoreRequest struct {
	MergeID        string
	Students       *models.RawTable
	AnswerKey      models.RawTable
	QuestionColumn string
	Reward         *float64 `validate:"omitempty,gte=0"`
	Penalty        *float64 `validate:"omitempty,lte=0"`
}

type mergeReader interface {
	Get(ctx context.Context, id string) (*models.MergeRecord, error)
}

// ScoringConfig holds the policies a ScoreService applies.
type ScoringConfig struct {
	DefaultPenalty float64
	Codec          AnswerCodec
	Duplicates     DuplicatePolicy
	QuestionColumn string
	ResultTTL      time.Duration
}

// ScoreService indexes answer keys, scores student tables and stores results.
type ScoreService struct {
	merges    mergeReader
	store     resultStore
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ScoringConfig
}

// NewScoreService constructs a ScoreService.
func NewScoreService(merges mergeReader, store resultStore, metrics *MetricsService, cfg ScoringConfig, validate *validator.Validate, logger *zap.Logger) *ScoreService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 2 * time.Hour
	}
	return &ScoreService{merges: merges, store: store, metrics: metrics, validator: validate, logger: logger, cfg: cfg}
}

// Score runs one scoring pass and stores the result.
func (s *ScoreService) Score(ctx context.Context, req ScoreRequest) (*models.ScoreRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "reward must be >= 0 and penalty <= 0")
	}

	var students models.MergedTable
	switch {
	case req.MergeID != "":
		record, err := s.merges.Get(ctx, req.MergeID)
		if err != nil {
			return nil, err
		}
		students = record.Table
	case req.Students != nil:
		merged, err := MergeTables([]models.RawTable{*req.Students}, MergeOptions{})
		if err != nil {
			return nil, err
		}
		students = merged
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "student table or merge id required")
	}

	preferred := req.QuestionColumn
	if preferred == "" {
		preferred = s.cfg.QuestionColumn
	}
	questionColumn := ResolveQuestionColumn(req.AnswerKey, preferred)
	if questionColumn == "" {
		return nil, appErrors.Clone(appErrors.ErrMalformedTable, "answer key has no header row")
	}

	key, err := IndexAnswerKey(req.AnswerKey, questionColumn, AnswerKeyOptions{Codec: s.cfg.Codec, Duplicates: s.cfg.Duplicates})
	if err != nil {
		return nil, err
	}
	if len(key.Overwritten) > 0 {
		s.logger.Warn("answer key redefines questions, later rows win", zap.Strings("questions", key.Overwritten))
	}

	start := time.Now()
	result := ScoreTable(students, key, models.ScoreWeights{Reward: req.Reward, Penalty: req.Penalty}, ScoringOptions{
		Codec:          s.cfg.Codec,
		DefaultPenalty: s.cfg.DefaultPenalty,
	})
	s.metrics.ObserveScoring(key.Len(), result, time.Since(start))

	record := &models.ScoreRecord{
		ID:        uuid.NewString(),
		MergeID:   req.MergeID,
		Result:    result,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Set(ctx, scoreKey(record.ID), record, s.cfg.ResultTTL); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store score result")
	}

	s.logger.Info("students scored",
		zap.String("score_id", record.ID),
		zap.String("merge_id", req.MergeID),
		zap.Int("questions", key.Len()),
		zap.Int("students", len(result.Rows)),
		zap.Float64("reward", result.Weights.Reward),
		zap.Float64("penalty", result.Weights.Penalty),
		zap.Int("unencoded_selections", result.UnencodedSelections),
	)
	return record, nil
}

// Get returns a stored score result.
func (s *ScoreService) Get(ctx context.Context, id string) (*models.ScoreRecord, error) {
	var record models.ScoreRecord
	hit, err := s.store.Get(ctx, scoreKey(id), &record)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load score result")
	}
	if !hit {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "score result not found or expired")
	}
	return &record, nil
}

// Delete discards a stored score result before its TTL runs out.
func (s *ScoreService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.store.Invalidate(ctx, scoreKey(id)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete score result")
	}
	s.logger.Info("score result discarded", zap.String("score_id", id))
	return nil
}

func scoreKey(id string) string {
	return "score:" + id
}
