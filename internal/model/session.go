package model

import (
	"encoding/json"
	"time"
)

// SessionStatus enumerates test session states. Transitions are
// monotonic: pending → in_progress → completed. Expiry is evaluated
// from ExpiresAt at each operation, never stored as a status.
type SessionStatus string

const (
	SessionStatusPending    SessionStatus = "pending"
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusCompleted  SessionStatus = "completed"
)

// TestSession is one candidate's attempt at one test, identified
// externally by an opaque access token that acts as a bearer credential.
// Score, PercentScore and Passed stay nil until the session completes and
// are set exactly once, atomically with the completed transition.
type TestSession struct {
	ID             int64         `json:"id"`
	OrganizationID int64         `json:"organizationId"`
	TestID         int64         `json:"testId"`
	CandidateID    int64         `json:"candidateId"`
	AccessToken    string        `json:"accessToken,omitempty"`
	Status         SessionStatus `json:"status"`
	StartedAt      *time.Time    `json:"startedAt,omitempty"`
	CompletedAt    *time.Time    `json:"completedAt,omitempty"`
	Score          *int          `json:"score,omitempty"`
	PercentScore   *int          `json:"percentScore,omitempty"`
	Passed         *bool         `json:"passed,omitempty"`
	ExpiresAt      *time.Time    `json:"expiresAt,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// Expired reports whether the session's expiry has passed at the given
// instant. A nil ExpiresAt never expires.
func (s *TestSession) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && s.ExpiresAt.Before(now)
}

// CandidateAnswer is one candidate's graded response to one question
// within a session. Exactly one exists per (session, question) pair and
// it is never mutated after creation.
type CandidateAnswer struct {
	SessionID     int64           `json:"sessionId"`
	QuestionID    int64           `json:"questionId"`
	Answer        json.RawMessage `json:"answer"`
	AnswerText    *string         `json:"answerText,omitempty"`
	IsCorrect     bool            `json:"isCorrect"`
	PointsAwarded int             `json:"pointsAwarded"`
}

// SubmitAnswer is one item of a submit request. Answer carries the wire
// shape string | number | number[] depending on the question type.
type SubmitAnswer struct {
	QuestionID int64           `json:"questionId" binding:"required"`
	Answer     json.RawMessage `json:"answer" binding:"required"`
}

// SubmitRequest is the candidate-facing submission payload.
type SubmitRequest struct {
	Answers []SubmitAnswer `json:"answers" binding:"required,dive"`
}

// ScoreSummary is the aggregation result for one session.
type ScoreSummary struct {
	Score              int  `json:"score"`
	TotalPossibleScore int  `json:"totalPossibleScore"`
	PercentScore       int  `json:"percentScore"`
	Passed             bool `json:"passed"`
}

// SubmitResult is returned to the candidate after a successful submit.
type SubmitResult struct {
	Score              int          `json:"score"`
	TotalPossibleScore int          `json:"totalPossibleScore"`
	PercentScore       int          `json:"percentScore"`
	Passed             bool         `json:"passed"`
	PassingThreshold   int          `json:"passingThreshold"`
	Session            *TestSession `json:"session"`
}

// SessionPaper is the candidate-facing view of a session: the test and
// its questions with correct answers stripped.
type SessionPaper struct {
	Session   *TestSession `json:"session"`
	Test      *Test        `json:"test"`
	Questions []Question   `json:"questions"`
}

// SessionEventType enumerates audit trail event kinds.
type SessionEventType string

const (
	SessionEventAssigned  SessionEventType = "assigned"
	SessionEventStarted   SessionEventType = "started"
	SessionEventCompleted SessionEventType = "completed"
)

// SessionEvent is an audit record of a lifecycle transition. Events are
// queued in Redis and persisted in batches by the session event worker;
// they never participate in grading or lifecycle decisions.
type SessionEvent struct {
	OrganizationID int64            `json:"organization_id"`
	SessionID      int64            `json:"session_id"`
	TestID         int64            `json:"test_id"`
	Type           SessionEventType `json:"type"`
	PercentScore   *int             `json:"percent_score,omitempty"`
	OccurredAt     time.Time        `json:"occurred_at"`
}
