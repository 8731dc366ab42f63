package service

import (
	"fmt"

	"github.com/Boatkungg/teerute-tpat13-checker/internal/models"
	appErrors "github.com/Boatkungg/teerute-tpat13-checker/pkg/errors"
)

// DuplicatePolicy decides what happens when an answer key repeats a question number.
type DuplicatePolicy int

const (
	// DuplicateOverwrite keeps the later row and records the question in Overwritten.
	DuplicateOverwrite DuplicatePolicy = iota
	// DuplicateReject fails with ErrDuplicateQuestion.
	DuplicateReject
)

// AnswerKeyOptions tunes answer key indexing.
type AnswerKeyOptions struct {
	Codec      AnswerCodec
	Duplicates DuplicatePolicy
}

// ResolveQuestionColumn returns the preferred column when the table has it,
// otherwise the table's first header.
func ResolveQuestionColumn(table models.RawTable, preferred string) string {
	for _, h := range table.Headers {
		if h == preferred {
			return h
		}
	}
	return table.IDColumn()
}

// IndexAnswerKey builds the question -> correct codes index. Every column other
// than questionColumn is one answer slot; blank cells define no slot.
func IndexAnswerKey(table models.RawTable, questionColumn string, opts AnswerKeyOptions) (models.AnswerKeyIndex, error) {
	index := models.NewAnswerKeyIndex()

	answerColumns := make([]string, 0, len(table.Headers))
	for _, h := range table.Headers {
		if h != questionColumn {
			answerColumns = append(answerColumns, h)
		}
	}

	for rowNum, row := range table.Rows {
		question := row[questionColumn].Trimmed()
		if question == "" {
			continue
		}

		codes := make([]string, 0, len(answerColumns))
		for _, col := range answerColumns {
			cell, ok := row[col]
			if !ok || cell.IsMissing() {
				continue
			}
			raw := cell.Trimmed()
			if raw == "" {
				continue
			}
			code, outcome := opts.Codec.Inspect(raw)
			switch outcome {
			case SelectionEncoded:
				codes = append(codes, code)
			case SelectionOutOfRange:
				return models.AnswerKeyIndex{}, appErrors.Clone(appErrors.ErrSelectionOutOfRange,
					fmt.Sprintf("answer key row %d, question %s, column %s: %q is outside the answer grid", rowNum+2, question, col, raw)).
					WithDetail("row", rowNum+2).
					WithDetail("question", question).
					WithDetail("column", col)
			default:
				codes = append(codes, raw)
			}
		}

		if _, exists := index.Codes[question]; exists {
			if opts.Duplicates == DuplicateReject {
				return models.AnswerKeyIndex{}, appErrors.Clone(appErrors.ErrDuplicateQuestion,
					fmt.Sprintf("answer key defines question %s more than once", question)).
					WithDetail("row", rowNum+2).
					WithDetail("question", question)
			}
			index.Overwritten = append(index.Overwritten, question)
		} else {
			index.Order = append(index.Order, question)
		}
		index.Codes[question] = codes
	}

	return index, nil
}
