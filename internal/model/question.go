package model

import "encoding/json"

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeCheckbox       QuestionType = "checkbox"
	QuestionTypeText           QuestionType = "text"
	QuestionTypeCode           QuestionType = "code"
)

// DefaultQuestionPoints is applied when a question is created without an
// explicit point value.
const DefaultQuestionPoints = 1

// Question belongs to exactly one test. The organization id is carried
// redundantly so tenant checks never need a join.
//
// CorrectAnswer is stored as raw JSON whose shape depends on Type:
// a single option index for multiple_choice, a list of indices for
// checkbox, and a string for text/code. The grading package owns the
// decoding rules.
type Question struct {
	ID             int64           `json:"id"`
	TestID         int64           `json:"testId"`
	OrganizationID int64           `json:"organizationId"`
	Content        string          `json:"content"`
	Type           QuestionType    `json:"type"`
	Options        []string        `json:"options,omitempty"`
	CorrectAnswer  json.RawMessage `json:"correctAnswer,omitempty"`
	Points         int             `json:"points"`
	Order          int             `json:"order"`
}

// ForCandidate returns a copy of the question with the correct answer
// stripped. Every candidate-facing read path must go through this.
func (q Question) ForCandidate() Question {
	q.CorrectAnswer = nil
	return q
}

// CreateQuestionRequest is the payload for adding a question to a test.
// Points defaults to 1 when omitted; Order defaults to the next position.
type CreateQuestionRequest struct {
	Content       string          `json:"content" binding:"required,min=1,max=5000"`
	Type          string          `json:"type" binding:"required,oneof=multiple_choice checkbox text code"`
	Options       []string        `json:"options" binding:"omitempty,max=26,dive,max=1000"`
	CorrectAnswer json.RawMessage `json:"correctAnswer" binding:"required"`
	Points        *int            `json:"points" binding:"omitempty,min=1,max=1000"`
	Order         *int            `json:"order" binding:"omitempty,min=1"`
}

// UpdateQuestionRequest is the payload for updating an existing question.
type UpdateQuestionRequest struct {
	Content       *string         `json:"content" binding:"omitempty,min=1,max=5000"`
	Options       []string        `json:"options" binding:"omitempty,max=26,dive,max=1000"`
	CorrectAnswer json.RawMessage `json:"correctAnswer" binding:"omitempty"`
	Points        *int            `json:"points" binding:"omitempty,min=1,max=1000"`
}

// ReorderQuestionsRequest supplies the complete desired ordering of a
// test's questions. The id set must exactly match the test's questions.
type ReorderQuestionsRequest struct {
	QuestionIDs []int64 `json:"questionIds" binding:"required,min=1"`
}
