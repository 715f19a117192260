package service

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/talentprobe/talentprobe-backend/internal/config"
	"github.com/talentprobe/talentprobe-backend/internal/model"
	"github.com/talentprobe/talentprobe-backend/internal/store"
)

// AssessmentService handles test and question management for an
// organization. Every mutation of a test's content bumps the test's
// paper version so cached candidate papers are retired.
type AssessmentService struct {
	store store.Store
	rdb   *redis.Client
	log   zerolog.Logger
}

// NewAssessmentService creates a new AssessmentService.
func NewAssessmentService(st store.Store, rdb *redis.Client, log zerolog.Logger) *AssessmentService {
	return &AssessmentService{
		store: st,
		rdb:   rdb,
		log:   log.With().Str("component", "assessment_service").Logger(),
	}
}

// CreateTest creates a test owned by the organization. PassingScore
// defaults to 70 when omitted.
func (s *AssessmentService) CreateTest(ctx context.Context, orgID, userID int64, req model.CreateTestRequest) (*model.Test, error) {
	t := &model.Test{
		Name:          req.Name,
		Description:   req.Description,
		CreatedBy:     userID,
		TimeLimitMins: req.TimeLimitMins,
		IsActive:      true,
		PassingScore:  model.DefaultPassingScore,
	}
	if req.PassingScore != nil {
		t.PassingScore = *req.PassingScore
	}

	if err := s.store.CreateTest(ctx, orgID, t); err != nil {
		return nil, fmt.Errorf("create test: %w", err)
	}
	return t, nil
}

// Test returns one of the organization's tests.
func (s *AssessmentService) Test(ctx context.Context, orgID, testID int64) (*model.Test, error) {
	return s.store.Test(ctx, orgID, testID)
}

// Tests lists all of the organization's tests.
func (s *AssessmentService) Tests(ctx context.Context, orgID int64) ([]model.Test, error) {
	return s.store.Tests(ctx, orgID)
}

// UpdateTest merges the supplied fields into an existing test.
func (s *AssessmentService) UpdateTest(ctx context.Context, orgID, testID int64, req model.UpdateTestRequest) (*model.Test, error) {
	t, err := s.store.UpdateTest(ctx, orgID, testID, req)
	if err != nil {
		return nil, err
	}
	s.bumpPaperVersion(ctx, testID)
	return t, nil
}

// DeleteTest removes a test and everything under it: questions, sessions
// and answers.
func (s *AssessmentService) DeleteTest(ctx context.Context, orgID, testID int64) error {
	if err := s.store.DeleteTest(ctx, orgID, testID); err != nil {
		return err
	}
	s.bumpPaperVersion(ctx, testID)
	return nil
}

// CreateQuestion adds a question to one of the organization's tests.
// Points defaults to 1, Order to the next position.
func (s *AssessmentService) CreateQuestion(ctx context.Context, orgID, testID int64, req model.CreateQuestionRequest) (*model.Question, error) {
	q := &model.Question{
		TestID:        testID,
		Content:       req.Content,
		Type:          model.QuestionType(req.Type),
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		Points:        model.DefaultQuestionPoints,
	}
	if req.Points != nil {
		q.Points = *req.Points
	}
	if req.Order != nil {
		q.Order = *req.Order
	}

	if err := s.store.CreateQuestion(ctx, orgID, q); err != nil {
		return nil, err
	}
	s.bumpPaperVersion(ctx, testID)
	return q, nil
}

// QuestionsByTest lists a test's questions in order, correct answers
// included. This is the recruiter-facing view.
func (s *AssessmentService) QuestionsByTest(ctx context.Context, orgID, testID int64) ([]model.Question, error) {
	return s.store.QuestionsByTest(ctx, orgID, testID)
}

// UpdateQuestion merges the supplied fields into an existing question.
// The question's type is immutable; changing it would silently invalidate
// already-recorded answers.
func (s *AssessmentService) UpdateQuestion(ctx context.Context, orgID, questionID int64, req model.UpdateQuestionRequest) (*model.Question, error) {
	q, err := s.store.UpdateQuestion(ctx, orgID, questionID, req)
	if err != nil {
		return nil, err
	}
	s.bumpPaperVersion(ctx, q.TestID)
	return q, nil
}

// DeleteQuestion removes a question from its test.
func (s *AssessmentService) DeleteQuestion(ctx context.Context, orgID, questionID int64) error {
	q, err := s.store.Question(ctx, orgID, questionID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteQuestion(ctx, orgID, questionID); err != nil {
		return err
	}
	s.bumpPaperVersion(ctx, q.TestID)
	return nil
}

// ReorderQuestions applies a complete new ordering to a test's questions.
// The id set must exactly match the test's questions or nothing changes.
func (s *AssessmentService) ReorderQuestions(ctx context.Context, orgID, testID int64, orderedIDs []int64) error {
	if err := s.store.ReorderQuestions(ctx, orgID, testID, orderedIDs); err != nil {
		return err
	}
	s.bumpPaperVersion(ctx, testID)
	return nil
}

// Results returns a paginated listing of a test's sessions with candidate
// identity attached.
func (s *AssessmentService) Results(ctx context.Context, orgID, testID int64, page, perPage int) ([]store.SessionResult, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return s.store.SessionsByTest(ctx, orgID, testID, perPage, (page-1)*perPage)
}

// SessionAnswers returns the graded answers of a completed session for
// recruiter review.
func (s *AssessmentService) SessionAnswers(ctx context.Context, orgID, sessionID int64) ([]model.CandidateAnswer, error) {
	return s.store.AnswersBySession(ctx, orgID, sessionID)
}

// bumpPaperVersion retires all cached candidate papers for a test.
// Cache invalidation failure is not worth failing the mutation over; a
// stale paper expires via TTL anyway.
func (s *AssessmentService) bumpPaperVersion(ctx context.Context, testID int64) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Incr(ctx, config.CacheKey.TestPaperVersionKey(testID)).Err(); err != nil {
		s.log.Warn().Err(err).Int64("test_id", testID).Msg("failed to bump paper version")
	}
}
