package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Boatkungg/teerute-tpat13-checker/internal/models"
	appErrors "github.com/Boatkungg/teerute-tpat13-checker/pkg/errors"
)

func TestIndexAnswerKey(t *testing.T) {
	key := rawTable("key.xlsx", []string{"ข้อ", "A1", "A2", "A3"},
		[]string{"1", "1&11&21", "2&12&22", ""},
		[]string{"", "9&19&29", "", ""},
		[]string{"2", "3&13&23", "", ""},
		[]string{"3", "TRUE", "4&14&24", ""},
	)

	index, err := IndexAnswerKey(key, "ข้อ", AnswerKeyOptions{Codec: NewAnswerCodec(RangeUnchecked)})
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2", "3"}, index.Order)
	assert.Equal(t, []string{"00A", "11B"}, index.Codes["1"])
	assert.Equal(t, []string{"22C"}, index.Codes["2"])
	assert.Equal(t, []string{"TRUE", "33D"}, index.Codes["3"])
	assert.Equal(t, 5, index.TotalAnswerSlots())
	assert.Empty(t, index.Overwritten)
}

func TestIndexAnswerKeyDuplicateQuestions(t *testing.T) {
	key := rawTable("key", []string{"ข้อ", "A1"},
		[]string{"1", "1&11&21"},
		[]string{"2", "2&12&22"},
		[]string{"1", "3&13&23"},
	)

	index, err := IndexAnswerKey(key, "ข้อ", AnswerKeyOptions{Duplicates: DuplicateOverwrite})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, index.Order)
	assert.Equal(t, []string{"22C"}, index.Codes["1"])
	assert.Equal(t, []string{"1"}, index.Overwritten)

	_, err = IndexAnswerKey(key, "ข้อ", AnswerKeyOptions{Duplicates: DuplicateReject})
	assert.True(t, errors.Is(err, appErrors.ErrDuplicateQuestion))
}

func TestIndexAnswerKeyStrictRange(t *testing.T) {
	key := rawTable("key", []string{"ข้อ", "A1"}, []string{"1", "0&11&21"})

	index, err := IndexAnswerKey(key, "ข้อ", AnswerKeyOptions{Codec: NewAnswerCodec(RangeUnchecked)})
	require.NoError(t, err)
	assert.Equal(t, []string{"-10A"}, index.Codes["1"])

	_, err = IndexAnswerKey(key, "ข้อ", AnswerKeyOptions{Codec: NewAnswerCodec(RangeReject)})
	assert.True(t, errors.Is(err, appErrors.ErrSelectionOutOfRange))

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, map[string]interface{}{"row": 2, "question": "1", "column": "A1"}, appErr.Details)
}

func TestResolveQuestionColumn(t *testing.T) {
	withDefault := models.RawTable{Headers: []string{"note", "ข้อ", "A1"}}
	assert.Equal(t, "ข้อ", ResolveQuestionColumn(withDefault, "ข้อ"))

	without := models.RawTable{Headers: []string{"Question", "A1"}}
	assert.Equal(t, "Question", ResolveQuestionColumn(without, "ข้อ"))

	assert.Equal(t, "", ResolveQuestionColumn(models.RawTable{}, "ข้อ"))
}
