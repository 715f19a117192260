package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/talentprobe/talentprobe-backend/internal/config"
	"github.com/talentprobe/talentprobe-backend/internal/grading"
	"github.com/talentprobe/talentprobe-backend/internal/model"
	"github.com/talentprobe/talentprobe-backend/internal/store"
)

// Lifecycle errors surfaced to the candidate-facing handlers. Precedence
// when several apply: not-found, then expired, then completed.
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionExpired   = errors.New("session expired")
	ErrSessionCompleted = errors.New("session already completed")
	ErrUnknownQuestion  = errors.New("answer references a question not in this test")
)

// paperCacheTTL bounds how long a stale paper version can linger after
// its test was mutated.
const paperCacheTTL = 15 * time.Minute

// testPaper is the cacheable, session-independent part of a candidate's
// view: the test and its answer-stripped questions.
type testPaper struct {
	Test      *model.Test      `json:"test"`
	Questions []model.Question `json:"questions"`
}

// SessionService drives the candidate-facing session lifecycle: paper
// retrieval, start, and exactly-once graded submission. Candidates are
// identified solely by access token; no call here takes an org id.
type SessionService struct {
	store store.Store
	rdb   *redis.Client
	log   zerolog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(st store.Store, rdb *redis.Client, log zerolog.Logger) *SessionService {
	return &SessionService{
		store: st,
		rdb:   rdb,
		log:   log.With().Str("component", "session_service").Logger(),
	}
}

// Paper returns the candidate-facing view of a session: its test and
// questions with correct answers stripped. Completed sessions remain
// viewable after expiry so candidates can revisit their result.
func (s *SessionService) Paper(ctx context.Context, token string) (*model.SessionPaper, error) {
	session, err := s.lookup(ctx, token)
	if err != nil {
		return nil, err
	}

	if session.Status != model.SessionStatusCompleted && session.Expired(time.Now()) {
		return nil, ErrSessionExpired
	}

	paper, err := s.loadPaper(ctx, session.OrganizationID, session.TestID)
	if err != nil {
		return nil, err
	}

	return &model.SessionPaper{
		Session:   session,
		Test:      paper.Test,
		Questions: paper.Questions,
	}, nil
}

// Start transitions a session to in_progress and stamps the start time.
// Starting an already-running session restarts the clock; starting a
// completed one fails.
func (s *SessionService) Start(ctx context.Context, token string) (*model.TestSession, error) {
	session, err := s.lookup(ctx, token)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if session.Expired(now) {
		return nil, ErrSessionExpired
	}
	if session.Status == model.SessionStatusCompleted {
		return nil, ErrSessionCompleted
	}

	started, err := s.store.StartSession(ctx, session.ID, now)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrSessionCompleted
		}
		return nil, fmt.Errorf("start session: %w", err)
	}

	pushSessionEvent(ctx, s.rdb, s.log, model.SessionEvent{
		OrganizationID: started.OrganizationID,
		SessionID:      started.ID,
		TestID:         started.TestID,
		Type:           model.SessionEventStarted,
		OccurredAt:     now,
	})

	return started, nil
}

// Submit grades a candidate's answers and completes the session exactly
// once. Every answer must reference a question of the session's test or
// the whole submission is rejected before anything is graded. Omitted
// questions score zero but still count in the denominator.
func (s *SessionService) Submit(ctx context.Context, token string, req model.SubmitRequest) (*model.SubmitResult, error) {
	session, err := s.lookup(ctx, token)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if session.Expired(now) {
		return nil, ErrSessionExpired
	}
	if session.Status == model.SessionStatusCompleted {
		return nil, ErrSessionCompleted
	}

	test, err := s.store.Test(ctx, session.OrganizationID, session.TestID)
	if err != nil {
		return nil, fmt.Errorf("load test: %w", err)
	}
	questions, err := s.store.QuestionsByTest(ctx, session.OrganizationID, session.TestID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	byID := make(map[int64]*model.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	// Validate the whole submission before grading any of it. Duplicate
	// answers for one question are rejected the same way as foreign ids.
	seen := make(map[int64]bool, len(req.Answers))
	for _, a := range req.Answers {
		if byID[a.QuestionID] == nil || seen[a.QuestionID] {
			return nil, ErrUnknownQuestion
		}
		seen[a.QuestionID] = true
	}

	graded := make([]grading.Result, 0, len(req.Answers))
	answers := make([]model.CandidateAnswer, 0, len(req.Answers))
	for _, a := range req.Answers {
		q := byID[a.QuestionID]
		res := grading.Grade(q, a.Answer)
		graded = append(graded, res)
		answers = append(answers, model.CandidateAnswer{
			SessionID:     session.ID,
			QuestionID:    a.QuestionID,
			Answer:        res.Normalized,
			AnswerText:    res.AnswerText,
			IsCorrect:     res.IsCorrect,
			PointsAwarded: res.PointsAwarded,
		})
	}

	summary := grading.Aggregate(test.PassingScore, questions, graded)

	completed, err := s.store.CompleteSession(ctx, session.ID, store.SessionCompletion{
		Score:        summary.Score,
		PercentScore: summary.PercentScore,
		Passed:       summary.Passed,
		CompletedAt:  now,
		Answers:      answers,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrSessionCompleted
		}
		return nil, fmt.Errorf("complete session: %w", err)
	}

	pushSessionEvent(ctx, s.rdb, s.log, model.SessionEvent{
		OrganizationID: completed.OrganizationID,
		SessionID:      completed.ID,
		TestID:         completed.TestID,
		Type:           model.SessionEventCompleted,
		PercentScore:   completed.PercentScore,
		OccurredAt:     now,
	})

	return &model.SubmitResult{
		Score:              summary.Score,
		TotalPossibleScore: summary.TotalPossibleScore,
		PercentScore:       summary.PercentScore,
		Passed:             summary.Passed,
		PassingThreshold:   test.PassingScore,
		Session:            completed,
	}, nil
}

// lookup resolves an access token to its session, mapping absence to the
// candidate-facing not-found error.
func (s *SessionService) lookup(ctx context.Context, token string) (*model.TestSession, error) {
	session, err := s.store.SessionByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	return session, nil
}

// loadPaper fetches the test's candidate paper, preferring the versioned
// Redis cache. Cache failures degrade to the store; they never fail the
// request.
func (s *SessionService) loadPaper(ctx context.Context, orgID, testID int64) (*testPaper, error) {
	version := s.paperVersion(ctx, testID)
	key := config.CacheKey.TestPaperKey(testID, version)

	if s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
			var paper testPaper
			if json.Unmarshal(raw, &paper) == nil {
				return &paper, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Int64("test_id", testID).Msg("paper cache read failed")
		}
	}

	test, err := s.store.Test(ctx, orgID, testID)
	if err != nil {
		return nil, fmt.Errorf("load test: %w", err)
	}
	questions, err := s.store.QuestionsByTest(ctx, orgID, testID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	stripped := make([]model.Question, len(questions))
	for i, q := range questions {
		stripped[i] = q.ForCandidate()
	}

	paper := &testPaper{Test: test, Questions: stripped}

	if s.rdb != nil {
		if raw, err := json.Marshal(paper); err == nil {
			if err := s.rdb.Set(ctx, key, raw, paperCacheTTL).Err(); err != nil {
				s.log.Warn().Err(err).Int64("test_id", testID).Msg("paper cache write failed")
			}
		}
	}

	return paper, nil
}

// paperVersion reads the test's current paper version, treating any
// cache problem as version 0.
func (s *SessionService) paperVersion(ctx context.Context, testID int64) int64 {
	if s.rdb == nil {
		return 0
	}
	version, err := s.rdb.Get(ctx, config.CacheKey.TestPaperVersionKey(testID)).Int64()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Int64("test_id", testID).Msg("paper version read failed")
		}
		return 0
	}
	return version
}
