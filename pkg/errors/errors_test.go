package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneMatchesOriginal(t *testing.T) {
	err := Clone(ErrDuplicateQuestion, "question 4 defined twice")
	assert.True(t, errors.Is(err, ErrDuplicateQuestion))
	assert.False(t, errors.Is(err, ErrSelectionOutOfRange))
	assert.Equal(t, "question 4 defined twice", err.Message)
	assert.Equal(t, "answer key defines a question more than once", ErrDuplicateQuestion.Message)
}

func TestWithDetailLeavesSentinelUntouched(t *testing.T) {
	err := Clone(ErrSelectionOutOfRange, "").WithDetail("row", 3).WithDetail("question", "7")
	require.Equal(t, map[string]interface{}{"row": 3, "question": "7"}, err.Details)
	assert.Nil(t, ErrSelectionOutOfRange.Details)

	again := err.WithDetail("column", "A2")
	assert.Len(t, err.Details, 2)
	assert.Len(t, again.Details, 3)
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	wrapped := fmt.Errorf("parse: %w", Clone(ErrMalformedTable, "empty sheet"))
	got := FromError(wrapped)
	assert.Equal(t, ErrMalformedTable.Code, got.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, got.Status)

	plain := FromError(errors.New("disk full"))
	assert.Equal(t, ErrInternal.Code, plain.Code)
	assert.Equal(t, "internal server error: disk full", plain.Error())
}
