package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Boatkungg/teerute-tpat13-checker/internal/models"
	appErrors "github.com/Boatkungg/teerute-tpat13-checker/pkg/errors"
)

var questionColumnPattern = regexp.MustCompile(`^(\d+)\.(\d+)$`)

// QuestionColumn is a parsed "<group>.<index>" column header.
type QuestionColumn struct {
	Group int
	Index int
}

// ParseQuestionColumn recognises question headers. Both parts must be positive integers.
func ParseQuestionColumn(name string) (QuestionColumn, bool) {
	m := questionColumnPattern.FindStringSubmatch(name)
	if m == nil {
		return QuestionColumn{}, false
	}
	group, err := strconv.Atoi(m[1])
	if err != nil || group <= 0 {
		return QuestionColumn{}, false
	}
	index, err := strconv.Atoi(m[2])
	if err != nil || index <= 0 {
		return QuestionColumn{}, false
	}
	return QuestionColumn{Group: group, Index: index}, true
}

// String renders the header without leading zeros.
func (q QuestionColumn) String() string {
	return strconv.Itoa(q.Group) + "." + strconv.Itoa(q.Index)
}

// MergeOptions tunes a merge.
type MergeOptions struct {
	// IDColumn overrides the identifier header of the output. Empty keeps
	// the first contributing table's header.
	IDColumn string
}

type studentEntry struct {
	id     string
	values map[string]string
}

// mergeState is the accumulator threaded through the fold over input tables.
type mergeState struct {
	offset      int
	idColumn    string
	columnOrder []string
	seenColumns map[string]struct{}
	students    []*studentEntry
	byID        map[string]*studentEntry
	skips       models.MergeSkips
}

func newMergeState() mergeState {
	return mergeState{
		columnOrder: []string{},
		seenColumns: map[string]struct{}{},
		students:    []*studentEntry{},
		byID:        map[string]*studentEntry{},
	}
}

// MergeTables merges per-session tables into one table keyed by student identifier.
// Question groups of each table are shifted past the highest group already assigned,
// so "1.1" of the second file becomes "2.1" when the first file only used group 1.
func MergeTables(tables []models.RawTable, opts MergeOptions) (models.MergedTable, error) {
	if len(tables) == 0 {
		return models.MergedTable{}, appErrors.ErrEmptyInput
	}

	state := newMergeState()
	for i, table := range tables {
		next, err := foldTable(state, table)
		if err != nil {
			return models.MergedTable{}, appErrors.Clone(appErrors.ErrMalformedTable, fmt.Sprintf("table %d (%s) has no header row", i+1, table.Name)).
				WithDetail("table", i+1).
				WithDetail("file", table.Name)
		}
		state = next
	}
	return state.build(opts), nil
}

func foldTable(state mergeState, table models.RawTable) (mergeState, error) {
	if len(table.Rows) == 0 {
		state.skips.EmptyTables++
		return state, nil
	}
	if len(table.Headers) == 0 {
		return state, appErrors.ErrMalformedTable
	}

	idHeader := table.Headers[0]
	if state.idColumn == "" {
		state.idColumn = idHeader
	}

	remapped := make([]string, len(table.Headers))
	maxGroup := 0
	for j := 1; j < len(table.Headers); j++ {
		name := table.Headers[j]
		if q, ok := ParseQuestionColumn(name); ok {
			q.Group += state.offset
			if q.Group > maxGroup {
				maxGroup = q.Group
			}
			name = q.String()
		}
		remapped[j] = name
	}
	if maxGroup > 0 {
		state.offset = maxGroup
	}

	for j := 1; j < len(remapped); j++ {
		name := remapped[j]
		if name == state.idColumn {
			continue
		}
		if _, seen := state.seenColumns[name]; seen {
			continue
		}
		state.seenColumns[name] = struct{}{}
		state.columnOrder = append(state.columnOrder, name)
	}

	for _, row := range table.Rows {
		id := row[idHeader].Trimmed()
		if id == "" {
			state.skips.BlankIdentifiers++
			continue
		}
		entry, ok := state.byID[id]
		if !ok {
			entry = &studentEntry{id: id, values: map[string]string{}}
			state.byID[id] = entry
			state.students = append(state.students, entry)
		}
		for j := 1; j < len(table.Headers); j++ {
			cell, present := row[table.Headers[j]]
			if !present {
				continue
			}
			entry.values[remapped[j]] = cell.String()
		}
	}

	return state, nil
}

func (s mergeState) build(opts MergeOptions) models.MergedTable {
	idColumn := s.idColumn
	if opts.IDColumn != "" {
		idColumn = opts.IDColumn
	}

	columns := make([]string, 0, len(s.columnOrder)+1)
	if idColumn != "" || len(s.students) > 0 || len(s.columnOrder) > 0 {
		columns = append(columns, idColumn)
	}
	columns = append(columns, s.columnOrder...)

	rows := make([][]string, 0, len(s.students))
	for _, student := range s.students {
		values := make([]string, len(columns))
		values[0] = student.id
		for i := 1; i < len(columns); i++ {
			values[i] = student.values[columns[i]]
		}
		rows = append(rows, values)
	}

	return models.MergedTable{Columns: columns, Rows: rows, Skipped: s.skips}
}

// resultStore persists short-lived results.
type resultStore interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// MergeService merges uploaded tables and keeps the result retrievable by ID.
type MergeService struct {
	store   resultStore
	metrics *MetricsService
	logger  *zap.Logger
	ttl     time.Duration
	opts    MergeOptions
}

// NewMergeService constructs a MergeService.
func NewMergeService(store resultStore, metrics *MetricsService, ttl time.Duration, opts MergeOptions, logger *zap.Logger) *MergeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &MergeService{store: store, metrics: metrics, logger: logger, ttl: ttl, opts: opts}
}

// Merge merges the tables in the given order and stores the result.
// Empty fields of opts fall back to the service defaults.
func (s *MergeService) Merge(ctx context.Context, tables []models.RawTable, opts MergeOptions) (*models.MergeRecord, error) {
	if opts.IDColumn == "" {
		opts.IDColumn = s.opts.IDColumn
	}
	start := time.Now()
	merged, err := MergeTables(tables, opts)
	if err != nil {
		return nil, err
	}

	sources := make([]string, 0, len(tables))
	for _, table := range tables {
		sources = append(sources, table.Name)
	}
	record := &models.MergeRecord{
		ID:        uuid.NewString(),
		Sources:   sources,
		Table:     merged,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Set(ctx, mergeKey(record.ID), record, s.ttl); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store merge result")
	}

	s.metrics.ObserveMerge(len(tables), merged, time.Since(start))
	s.logger.Info("tables merged",
		zap.String("merge_id", record.ID),
		zap.Int("files", len(tables)),
		zap.Int("students", merged.StudentCount()),
		zap.Int("columns", merged.QuestionCount()),
		zap.Int("blank_identifiers", merged.Skipped.BlankIdentifiers),
		zap.Int("empty_tables", merged.Skipped.EmptyTables),
	)
	return record, nil
}

// Get returns a stored merge result.
func (s *MergeService) Get(ctx context.Context, id string) (*models.MergeRecord, error) {
	var record models.MergeRecord
	hit, err := s.store.Get(ctx, mergeKey(id), &record)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load merge result")
	}
	if !hit {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "merge result not found or expired")
	}
	return &record, nil
}

// Delete discards a stored merge before its TTL runs out.
func (s *MergeService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.store.Invalidate(ctx, mergeKey(id)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete merge result")
	}
	s.logger.Info("merge discarded", zap.String("merge_id", id))
	return nil
}

func mergeKey(id string) string {
	return "merge:" + id
}
