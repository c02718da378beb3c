package models

import (
	"time"

	"github.com/vytor/sandplay/internal/emotion"
)

// Question is one multiple-choice prompt. Options never repeat a label and
// always contain CorrectAnswer exactly once.
type Question struct {
	Options       []emotion.Emotion `json:"options"`
	CorrectAnswer emotion.Emotion   `json:"correct_answer"`
}

// AnswerRecord is the outcome of one question. Selected is nil when the
// question timed out without an answer.
type AnswerRecord struct {
	Correct  emotion.Emotion  `json:"correct" validate:"required,emotion"`
	Selected *emotion.Emotion `json:"selected" validate:"omitempty,emotion"`
}

// IsCorrect reports whether the selected label equals the target label.
func (a AnswerRecord) IsCorrect() bool {
	return a.Selected != nil && *a.Selected == a.Correct
}

// RoundResult is the batch flushed at the end of a round.
type RoundResult struct {
	Round   int            `json:"round" validate:"required,gte=1"`
	Results []AnswerRecord `json:"results" validate:"required,dive"`
}

// Round is the stored form of a RoundResult.
type Round struct {
	ID        int64          `json:"id"`
	Number    int            `json:"round"`
	PlayerID  string         `json:"player_id,omitempty"`
	Results   []AnswerRecord `json:"results"`
	CreatedAt time.Time      `json:"created_at"`
}

// Score counts the correct answers of the round.
func (r Round) Score() int {
	n := 0
	for _, res := range r.Results {
		if res.IsCorrect() {
			n++
		}
	}
	return n
}

type RoundFilter struct {
	PlayerID string
	Since    *time.Time
	Limit    int
	Offset   int
}
