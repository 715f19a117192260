// Package store defines the tenant-scoped persistence contract. Every
// entity-scoped method takes the organization id first and treats a
// wrong-organization row exactly like an absent one, so callers can
// never distinguish "does not exist" from "belongs to another tenant".
package store

import (
	"context"
	"errors"
	"time"

	"github.com/talentprobe/talentprobe-backend/internal/model"
)

// Sentinel errors shared by all backends.
var (
	// ErrNotFound covers both true absence and cross-tenant lookups.
	ErrNotFound = errors.New("not found")

	// ErrConflict signals a uniqueness violation or a lost
	// compare-and-swap on a session transition.
	ErrConflict = errors.New("conflict")

	// ErrReorderMismatch signals a reorder whose id set does not exactly
	// match the test's existing questions.
	ErrReorderMismatch = errors.New("reorder id set mismatch")
)

// SessionCompletion carries everything persisted atomically with the
// completed transition: the final score fields and one answer row per
// graded question.
type SessionCompletion struct {
	Score        int
	PercentScore int
	Passed       bool
	CompletedAt  time.Time
	Answers      []model.CandidateAnswer
}

// SessionResult is one row of a recruiter-facing results listing.
type SessionResult struct {
	Session        model.TestSession `json:"session"`
	CandidateName  string            `json:"candidateName"`
	CandidateEmail string            `json:"candidateEmail"`
}

// Store is the tenant-scoped data access boundary. The two org-agnostic
// entry points are SessionByToken (candidate bearer-token access) and
// UserByEmail (login, before the organization context is known).
//
// Mutating session methods serialize per session row: of two concurrent
// CompleteSession calls exactly one succeeds, the other observes
// ErrConflict. Backends own their concurrency discipline (mutex for the
// in-memory store, guarded UPDATE in a transaction for Postgres).
type Store interface {
	// Organizations.
	CreateOrganization(ctx context.Context, name string) (*model.Organization, error)
	Organization(ctx context.Context, orgID int64) (*model.Organization, error)
	RenameOrganization(ctx context.Context, orgID int64, name string) (*model.Organization, error)

	// Users.
	CreateUser(ctx context.Context, orgID int64, u *model.User) error
	UserByEmail(ctx context.Context, email string) (*model.User, error)

	// Tests.
	CreateTest(ctx context.Context, orgID int64, t *model.Test) error
	Test(ctx context.Context, orgID, id int64) (*model.Test, error)
	Tests(ctx context.Context, orgID int64) ([]model.Test, error)
	UpdateTest(ctx context.Context, orgID, id int64, upd model.UpdateTestRequest) (*model.Test, error)
	DeleteTest(ctx context.Context, orgID, id int64) error

	// Questions.
	CreateQuestion(ctx context.Context, orgID int64, q *model.Question) error
	Question(ctx context.Context, orgID, id int64) (*model.Question, error)
	QuestionsByTest(ctx context.Context, orgID, testID int64) ([]model.Question, error)
	UpdateQuestion(ctx context.Context, orgID, id int64, upd model.UpdateQuestionRequest) (*model.Question, error)
	DeleteQuestion(ctx context.Context, orgID, id int64) error
	ReorderQuestions(ctx context.Context, orgID, testID int64, orderedIDs []int64) error

	// Candidates.
	CreateCandidate(ctx context.Context, orgID int64, c *model.Candidate) error
	Candidate(ctx context.Context, orgID, id int64) (*model.Candidate, error)
	Candidates(ctx context.Context, orgID int64) ([]model.Candidate, error)
	UpdateCandidate(ctx context.Context, orgID, id int64, upd model.UpdateCandidateRequest) (*model.Candidate, error)

	// Sessions.
	CreateSession(ctx context.Context, orgID int64, s *model.TestSession) error
	Session(ctx context.Context, orgID, id int64) (*model.TestSession, error)
	SessionByToken(ctx context.Context, token string) (*model.TestSession, error)
	SessionsByTest(ctx context.Context, orgID, testID int64, limit, offset int) ([]SessionResult, int, error)
	StartSession(ctx context.Context, sessionID int64, startedAt time.Time) (*model.TestSession, error)
	CompleteSession(ctx context.Context, sessionID int64, completion SessionCompletion) (*model.TestSession, error)
	AnswersBySession(ctx context.Context, orgID, sessionID int64) ([]model.CandidateAnswer, error)
}
