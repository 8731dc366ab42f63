package service

import (
	"strconv"
	"strings"
)

// SelectionDelimiter separates the three grid coordinates of a bubbled answer.
const SelectionDelimiter = "&"

// Grid origins of the three selection fields.
const (
	rowGroupOrigin  = 1
	rowOffsetOrigin = 11
	letterOrigin    = 21
)

// RangePolicy decides what happens to coordinates that fall outside the answer grid.
type RangePolicy int

const (
	// RangeUnchecked stringifies whatever the arithmetic yields.
	RangeUnchecked RangePolicy = iota
	// RangeReject refuses digits outside 0-9 and letters outside A-Z.
	RangeReject
)

// SelectionOutcome names how a raw selection was handled.
type SelectionOutcome int

const (
	SelectionEncoded SelectionOutcome = iota
	// SelectionMalformed means the input is not three integer fields.
	SelectionMalformed
	// SelectionOutOfRange means RangeReject refused the coordinates.
	SelectionOutOfRange
)

func (o SelectionOutcome) String() string {
	switch o {
	case SelectionEncoded:
		return "encoded"
	case SelectionMalformed:
		return "malformed"
	case SelectionOutOfRange:
		return "out_of_range"
	}
	return "unknown"
}

// AnswerCodec turns a raw "a&b&c" selection into its canonical answer code.
type AnswerCodec struct {
	policy RangePolicy
}

// NewAnswerCodec constructs a codec with the given range policy.
func NewAnswerCodec(policy RangePolicy) AnswerCodec {
	return AnswerCodec{policy: policy}
}

// Policy returns the configured range policy.
func (c AnswerCodec) Policy() RangePolicy {
	return c.policy
}

// Encode returns the answer code, or "" when the selection cannot be encoded.
func (c AnswerCodec) Encode(selection string) string {
	code, _ := c.Inspect(selection)
	return code
}

// Inspect encodes the selection and reports the outcome.
// "1&11&21" becomes "00A" and "10&20&30" becomes "99J".
func (c AnswerCodec) Inspect(selection string) (string, SelectionOutcome) {
	fields := strings.Split(selection, SelectionDelimiter)
	if len(fields) != 3 {
		return "", SelectionMalformed
	}

	values := make([]int, 3)
	for i, field := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return "", SelectionMalformed
		}
		values[i] = n
	}

	digit1 := values[0] - rowGroupOrigin
	digit2 := values[1] - rowOffsetOrigin
	letter := values[2] - letterOrigin

	if c.policy == RangeReject {
		if digit1 < 0 || digit1 > 9 || digit2 < 0 || digit2 > 9 || letter < 0 || letter > 25 {
			return "", SelectionOutOfRange
		}
	}

	var b strings.Builder
	b.WriteString(strconv.Itoa(digit1))
	b.WriteString(strconv.Itoa(digit2))
	b.WriteRune(rune('A' + letter))
	return b.String(), SelectionEncoded
}
