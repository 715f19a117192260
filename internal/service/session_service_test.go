package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/talentprobe/talentprobe-backend/internal/config"
	"github.com/talentprobe/talentprobe-backend/internal/model"
	"github.com/talentprobe/talentprobe-backend/internal/store/memstore"
)

type fixture struct {
	store      *memstore.Store
	sessions   *SessionService
	candidates *CandidateService
	orgID      int64
	test       *model.Test
	questions  []model.Question
	candidate  *model.Candidate
}

// newFixture builds an org with one test (passing score 50, three
// questions worth 1+2+1 points) and one candidate.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := t.Context()

	st := memstore.New()
	log := zerolog.Nop()
	cfg := &config.Config{SessionExpiry: 7 * 24 * time.Hour}

	org, err := st.CreateOrganization(ctx, "Acme Hiring")
	if err != nil {
		t.Fatalf("create org: %v", err)
	}

	passing := 50
	test := &model.Test{Name: "Backend Screen", CreatedBy: 1, IsActive: true, PassingScore: passing}
	if err := st.CreateTest(ctx, org.ID, test); err != nil {
		t.Fatalf("create test: %v", err)
	}

	questions := []model.Question{
		{
			TestID:        test.ID,
			Content:       "Pick the capital of France",
			Type:          model.QuestionTypeMultipleChoice,
			Options:       []string{"Berlin", "Paris", "Madrid"},
			CorrectAnswer: json.RawMessage(`1`),
			Points:        1,
		},
		{
			TestID:        test.ID,
			Content:       "Select the prime numbers",
			Type:          model.QuestionTypeCheckbox,
			Options:       []string{"2", "3", "4", "5"},
			CorrectAnswer: json.RawMessage(`[0,1,3]`),
			Points:        2,
		},
		{
			TestID:        test.ID,
			Content:       "Name the HTTP verb for idempotent full update",
			Type:          model.QuestionTypeText,
			CorrectAnswer: json.RawMessage(`"PUT"`),
			Points:        1,
		},
	}
	for i := range questions {
		if err := st.CreateQuestion(ctx, org.ID, &questions[i]); err != nil {
			t.Fatalf("create question %d: %v", i, err)
		}
	}

	candidate := &model.Candidate{Name: "Jo Rivers", Email: "jo@example.com"}
	if err := st.CreateCandidate(ctx, org.ID, candidate); err != nil {
		t.Fatalf("create candidate: %v", err)
	}

	return &fixture{
		store:      st,
		sessions:   NewSessionService(st, nil, log),
		candidates: NewCandidateService(cfg, st, nil, log),
		orgID:      org.ID,
		test:       test,
		questions:  questions,
		candidate:  candidate,
	}
}

func (f *fixture) assign(t *testing.T, ctx context.Context) *model.TestSession {
	t.Helper()
	session, err := f.candidates.AssignTest(ctx, f.orgID, f.test.ID, model.AssignTestRequest{
		CandidateID: f.candidate.ID,
	})
	if err != nil {
		t.Fatalf("assign test: %v", err)
	}
	if session.AccessToken == "" {
		t.Fatal("assigned session has no access token")
	}
	if session.Status != model.SessionStatusPending {
		t.Fatalf("new session status = %q, want pending", session.Status)
	}
	return session
}

func TestSessionLifecycle(t *testing.T) {
	ctx := t.Context()
	f := newFixture(t)
	session := f.assign(t, ctx)

	// The candidate paper must never expose correct answers.
	paper, err := f.sessions.Paper(ctx, session.AccessToken)
	if err != nil {
		t.Fatalf("paper: %v", err)
	}
	if len(paper.Questions) != 3 {
		t.Fatalf("paper has %d questions, want 3", len(paper.Questions))
	}
	for _, q := range paper.Questions {
		if q.CorrectAnswer != nil {
			t.Fatalf("question %d leaks its correct answer", q.ID)
		}
	}

	started, err := f.sessions.Start(ctx, session.AccessToken)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.Status != model.SessionStatusInProgress {
		t.Fatalf("status after start = %q, want in_progress", started.Status)
	}
	if started.StartedAt == nil {
		t.Fatal("start did not stamp startedAt")
	}

	// Correct MC and checkbox, wrong text: 3 of 4 points = 75%.
	result, err := f.sessions.Submit(ctx, session.AccessToken, model.SubmitRequest{
		Answers: []model.SubmitAnswer{
			{QuestionID: f.questions[0].ID, Answer: json.RawMessage(`1`)},
			{QuestionID: f.questions[1].ID, Answer: json.RawMessage(`[3,1,0]`)},
			{QuestionID: f.questions[2].ID, Answer: json.RawMessage(`"PATCH"`)},
		},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Score != 3 || result.TotalPossibleScore != 4 {
		t.Fatalf("score = %d/%d, want 3/4", result.Score, result.TotalPossibleScore)
	}
	if result.PercentScore != 75 {
		t.Fatalf("percent = %d, want 75", result.PercentScore)
	}
	if !result.Passed {
		t.Fatal("75%% should pass a threshold of 50")
	}
	if result.Session.Status != model.SessionStatusCompleted {
		t.Fatalf("status after submit = %q, want completed", result.Session.Status)
	}
	if result.Session.CompletedAt == nil {
		t.Fatal("submit did not stamp completedAt")
	}

	// Answers were persisted, graded.
	answers, err := f.store.AnswersBySession(ctx, f.orgID, session.ID)
	if err != nil {
		t.Fatalf("answers: %v", err)
	}
	if len(answers) != 3 {
		t.Fatalf("persisted %d answers, want 3", len(answers))
	}
}

func TestSubmitOmittedQuestionsCountAgainst(t *testing.T) {
	ctx := t.Context()
	f := newFixture(t)
	session := f.assign(t, ctx)

	if _, err := f.sessions.Start(ctx, session.AccessToken); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Only the 2-point checkbox answered correctly: 2 of 4 = 50%,
	// exactly at the threshold, which passes.
	result, err := f.sessions.Submit(ctx, session.AccessToken, model.SubmitRequest{
		Answers: []model.SubmitAnswer{
			{QuestionID: f.questions[1].ID, Answer: json.RawMessage(`[0,1,3]`)},
		},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.TotalPossibleScore != 4 {
		t.Fatalf("total = %d, want 4: omitted questions must stay in the denominator", result.TotalPossibleScore)
	}
	if result.PercentScore != 50 {
		t.Fatalf("percent = %d, want 50", result.PercentScore)
	}
	if !result.Passed {
		t.Fatal("percent equal to the threshold must pass")
	}
}

func TestSubmitExactlyOnce(t *testing.T) {
	ctx := t.Context()
	f := newFixture(t)
	session := f.assign(t, ctx)

	if _, err := f.sessions.Start(ctx, session.AccessToken); err != nil {
		t.Fatalf("start: %v", err)
	}

	first, err := f.sessions.Submit(ctx, session.AccessToken, model.SubmitRequest{
		Answers: []model.SubmitAnswer{
			{QuestionID: f.questions[0].ID, Answer: json.RawMessage(`1`)},
		},
	})
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}

	_, err = f.sessions.Submit(ctx, session.AccessToken, model.SubmitRequest{
		Answers: []model.SubmitAnswer{
			{QuestionID: f.questions[0].ID, Answer: json.RawMessage(`1`)},
			{QuestionID: f.questions[1].ID, Answer: json.RawMessage(`[0,1,3]`)},
			{QuestionID: f.questions[2].ID, Answer: json.RawMessage(`"PUT"`)},
		},
	})
	if !errors.Is(err, ErrSessionCompleted) {
		t.Fatalf("second submit error = %v, want ErrSessionCompleted", err)
	}

	// The first submission's score survives the retry untouched.
	stored, err := f.store.Session(ctx, f.orgID, session.ID)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	if stored.Score == nil || *stored.Score != first.Score {
		t.Fatalf("stored score = %v, want %d from the first submission", stored.Score, first.Score)
	}
}

func TestSubmitRejectsForeignQuestion(t *testing.T) {
	ctx := t.Context()
	f := newFixture(t)
	session := f.assign(t, ctx)

	if _, err := f.sessions.Start(ctx, session.AccessToken); err != nil {
		t.Fatalf("start: %v", err)
	}

	_, err := f.sessions.Submit(ctx, session.AccessToken, model.SubmitRequest{
		Answers: []model.SubmitAnswer{
			{QuestionID: f.questions[0].ID, Answer: json.RawMessage(`1`)},
			{QuestionID: 999999, Answer: json.RawMessage(`0`)},
		},
	})
	if !errors.Is(err, ErrUnknownQuestion) {
		t.Fatalf("error = %v, want ErrUnknownQuestion", err)
	}

	// Nothing was graded: the session is still running.
	stored, err := f.store.Session(ctx, f.orgID, session.ID)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	if stored.Status != model.SessionStatusInProgress {
		t.Fatalf("status = %q, want in_progress after a rejected submit", stored.Status)
	}
}

func TestSubmitRejectsDuplicateAnswers(t *testing.T) {
	ctx := t.Context()
	f := newFixture(t)
	session := f.assign(t, ctx)

	if _, err := f.sessions.Start(ctx, session.AccessToken); err != nil {
		t.Fatalf("start: %v", err)
	}

	_, err := f.sessions.Submit(ctx, session.AccessToken, model.SubmitRequest{
		Answers: []model.SubmitAnswer{
			{QuestionID: f.questions[0].ID, Answer: json.RawMessage(`1`)},
			{QuestionID: f.questions[0].ID, Answer: json.RawMessage(`2`)},
		},
	})
	if !errors.Is(err, ErrUnknownQuestion) {
		t.Fatalf("error = %v, want ErrUnknownQuestion for duplicate answers", err)
	}
}

func TestExpiredSessionCannotStartOrSubmit(t *testing.T) {
	ctx := t.Context()
	f := newFixture(t)
	session := f.assign(t, ctx)

	// Force the expiry into the past directly in the store.
	f.expireSession(t, ctx, session.ID, time.Now().Add(-time.Hour))

	if _, err := f.sessions.Start(ctx, session.AccessToken); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("start error = %v, want ErrSessionExpired", err)
	}
	if _, err := f.sessions.Paper(ctx, session.AccessToken); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("paper error = %v, want ErrSessionExpired", err)
	}
	if _, err := f.sessions.Submit(ctx, session.AccessToken, model.SubmitRequest{
		Answers: []model.SubmitAnswer{{QuestionID: f.questions[0].ID, Answer: json.RawMessage(`1`)}},
	}); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("submit error = %v, want ErrSessionExpired", err)
	}
}

// A session that is both completed and past its expiry reports the
// expiry first from every mutating entry point, mirroring the
// NotFound → Expired → Completed ladder.
func TestExpiryOutranksCompletedOnMutation(t *testing.T) {
	ctx := t.Context()
	f := newFixture(t)
	session := f.assign(t, ctx)

	if _, err := f.sessions.Start(ctx, session.AccessToken); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.sessions.Submit(ctx, session.AccessToken, model.SubmitRequest{
		Answers: []model.SubmitAnswer{{QuestionID: f.questions[0].ID, Answer: json.RawMessage(`1`)}},
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	f.expireSession(t, ctx, session.ID, time.Now().Add(-time.Hour))

	if _, err := f.sessions.Start(ctx, session.AccessToken); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("start error = %v, want ErrSessionExpired", err)
	}
	if _, err := f.sessions.Submit(ctx, session.AccessToken, model.SubmitRequest{
		Answers: []model.SubmitAnswer{{QuestionID: f.questions[0].ID, Answer: json.RawMessage(`1`)}},
	}); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("submit error = %v, want ErrSessionExpired", err)
	}
}

func TestUnknownTokenIsNotFound(t *testing.T) {
	ctx := t.Context()
	f := newFixture(t)

	if _, err := f.sessions.Paper(ctx, "no-such-token"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("paper error = %v, want ErrSessionNotFound", err)
	}
	if _, err := f.sessions.Start(ctx, "no-such-token"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("start error = %v, want ErrSessionNotFound", err)
	}
}

func TestRestartWhileInProgressRestampsClock(t *testing.T) {
	ctx := t.Context()
	f := newFixture(t)
	session := f.assign(t, ctx)

	first, err := f.sessions.Start(ctx, session.AccessToken)
	if err != nil {
		t.Fatalf("first start: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	second, err := f.sessions.Start(ctx, session.AccessToken)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if !second.StartedAt.After(*first.StartedAt) {
		t.Fatal("restart must move startedAt forward")
	}
	if second.Status != model.SessionStatusInProgress {
		t.Fatalf("status = %q, want in_progress", second.Status)
	}
}

func TestCompletedSessionPaperStillReadable(t *testing.T) {
	ctx := t.Context()
	f := newFixture(t)
	session := f.assign(t, ctx)

	if _, err := f.sessions.Start(ctx, session.AccessToken); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.sessions.Submit(ctx, session.AccessToken, model.SubmitRequest{
		Answers: []model.SubmitAnswer{{QuestionID: f.questions[0].ID, Answer: json.RawMessage(`1`)}},
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	paper, err := f.sessions.Paper(ctx, session.AccessToken)
	if err != nil {
		t.Fatalf("paper after completion: %v", err)
	}
	if paper.Session.Status != model.SessionStatusCompleted {
		t.Fatalf("status = %q, want completed", paper.Session.Status)
	}
	if paper.Session.PercentScore == nil {
		t.Fatal("completed session paper must carry the percent score")
	}

	if _, err := f.sessions.Start(ctx, session.AccessToken); !errors.Is(err, ErrSessionCompleted) {
		t.Fatalf("start after completion error = %v, want ErrSessionCompleted", err)
	}
}

// expireSession rewrites a session's expiry, bypassing the service layer.
func (f *fixture) expireSession(t *testing.T, ctx context.Context, sessionID int64, at time.Time) {
	t.Helper()
	if err := f.store.SetSessionExpiry(ctx, sessionID, at); err != nil {
		t.Fatalf("set session expiry: %v", err)
	}
}
