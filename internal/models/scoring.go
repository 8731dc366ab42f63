package models

import "time"

// AnswerKeyIndex maps question numbers to their currently-correct answer codes.
type AnswerKeyIndex struct {
	Order       []string            `json:"order"`
	Codes       map[string][]string `json:"codes"`
	Overwritten []string            `json:"overwritten,omitempty"`
}

// NewAnswerKeyIndex returns an empty index ready for writes.
func NewAnswerKeyIndex() AnswerKeyIndex {
	return AnswerKeyIndex{Order: []string{}, Codes: map[string][]string{}}
}

// Len returns the number of indexed questions.
func (k AnswerKeyIndex) Len() int {
	return len(k.Order)
}

// TotalAnswerSlots sums the number of correct codes over every question.
func (k AnswerKeyIndex) TotalAnswerSlots() int {
	total := 0
	for _, q := range k.Order {
		total += len(k.Codes[q])
	}
	return total
}

// ScoreWeights carries the optional reward and penalty. Nil means default.
type ScoreWeights struct {
	Reward  *float64 `json:"reward,omitempty"`
	Penalty *float64 `json:"penalty,omitempty"`
}

// EffectiveWeights are the values actually applied during a scoring pass.
type EffectiveWeights struct {
	Reward           float64 `json:"reward"`
	Penalty          float64 `json:"penalty"`
	TotalAnswerSlots int     `json:"totalAnswerSlots"`
}

// QuestionScore breaks down one question group for one student.
type QuestionScore struct {
	Question   string  `json:"question"`
	Correct    int     `json:"correct"`
	Duplicates int     `json:"duplicates"`
	Incorrect  int     `json:"incorrect"`
	Score      float64 `json:"score"`
}

// ScoreRow is the total for one student.
type ScoreRow struct {
	StudentID  string          `json:"studentId"`
	TotalScore float64         `json:"totalScore"`
	Breakdown  []QuestionScore `json:"breakdown,omitempty"`
}

// ScoreSummary describes the distribution of total scores.
type ScoreSummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"stdDev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// ScoreResult is the outcome of one scoring pass. UnencodedSelections counts
// non-empty student cells the codec could not encode; they score nothing.
type ScoreResult struct {
	Rows                []ScoreRow       `json:"rows"`
	Weights             EffectiveWeights `json:"weights"`
	Summary             ScoreSummary     `json:"summary"`
	UnencodedSelections int              `json:"unencodedSelections"`
}

// MergeRecord is a merged table kept in the result store.
type MergeRecord struct {
	ID        string      `json:"id"`
	Sources   []string    `json:"sources"`
	Table     MergedTable `json:"table"`
	CreatedAt time.Time   `json:"createdAt"`
}

// ScoreRecord is a score result kept in the result store.
type ScoreRecord struct {
	ID        string      `json:"id"`
	MergeID   string      `json:"mergeId,omitempty"`
	Result    ScoreResult `json:"result"`
	CreatedAt time.Time   `json:"createdAt"`
}
