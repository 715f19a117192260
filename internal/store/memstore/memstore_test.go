package memstore

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/talentprobe/talentprobe-backend/internal/model"
	"github.com/talentprobe/talentprobe-backend/internal/store"
)

func newOrg(t *testing.T, s *Store, name string) *model.Organization {
	t.Helper()
	org, err := s.CreateOrganization(t.Context(), name)
	if err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	return org
}

func newTest(t *testing.T, s *Store, orgID int64) *model.Test {
	t.Helper()
	tt := &model.Test{Name: "Backend Screen", CreatedBy: 1, IsActive: true}
	if err := s.CreateTest(t.Context(), orgID, tt); err != nil {
		t.Fatalf("CreateTest: %v", err)
	}
	return tt
}

func newQuestion(t *testing.T, s *Store, orgID, testID int64) *model.Question {
	t.Helper()
	q := &model.Question{
		TestID:        testID,
		Content:       "2+2?",
		Type:          model.QuestionTypeMultipleChoice,
		Options:       []string{"3", "4"},
		CorrectAnswer: json.RawMessage(`1`),
	}
	if err := s.CreateQuestion(t.Context(), orgID, q); err != nil {
		t.Fatalf("CreateQuestion: %v", err)
	}
	return q
}

func newSession(t *testing.T, s *Store, orgID, testID int64, token string) *model.TestSession {
	t.Helper()
	cand := &model.Candidate{Name: "Ada", Email: token + "@example.com"}
	if err := s.CreateCandidate(t.Context(), orgID, cand); err != nil {
		t.Fatalf("CreateCandidate: %v", err)
	}
	sess := &model.TestSession{TestID: testID, CandidateID: cand.ID, AccessToken: token}
	if err := s.CreateSession(t.Context(), orgID, sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return sess
}

func TestTenantIsolation(t *testing.T) {
	s := New()
	org1 := newOrg(t, s, "org-one")
	org2 := newOrg(t, s, "org-two")

	tt := newTest(t, s, org1.ID)
	q := newQuestion(t, s, org1.ID, tt.ID)
	sess := newSession(t, s, org1.ID, tt.ID, "tok-iso")

	// Entity-scoped reads under the wrong org are plain not-found.
	if _, err := s.Test(t.Context(), org2.ID, tt.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Test cross-org = %v, want ErrNotFound", err)
	}
	if _, err := s.Question(t.Context(), org2.ID, q.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Question cross-org = %v, want ErrNotFound", err)
	}
	if _, err := s.Session(t.Context(), org2.ID, sess.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Session cross-org = %v, want ErrNotFound", err)
	}
	if _, err := s.QuestionsByTest(t.Context(), org2.ID, tt.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("QuestionsByTest cross-org = %v, want ErrNotFound", err)
	}

	// Listings never leak another tenant's rows.
	tests, _ := s.Tests(t.Context(), org2.ID)
	if len(tests) != 0 {
		t.Errorf("Tests(org2) leaked %d rows", len(tests))
	}

	// Cross-org mutations fail identically to absent rows.
	name := "hijacked"
	if _, err := s.UpdateTest(t.Context(), org2.ID, tt.ID, model.UpdateTestRequest{Name: &name}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("UpdateTest cross-org = %v, want ErrNotFound", err)
	}
	if err := s.DeleteTest(t.Context(), org2.ID, tt.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("DeleteTest cross-org = %v, want ErrNotFound", err)
	}
	if got, _ := s.Test(t.Context(), org1.ID, tt.ID); got == nil || got.Name != "Backend Screen" {
		t.Errorf("cross-org mutation touched the row: %+v", got)
	}
}

func TestCreateDefaults(t *testing.T) {
	s := New()
	org := newOrg(t, s, "acme")

	tt := &model.Test{Name: "No threshold", IsActive: true}
	if err := s.CreateTest(t.Context(), org.ID, tt); err != nil {
		t.Fatalf("CreateTest: %v", err)
	}
	if tt.PassingScore != 70 {
		t.Errorf("PassingScore default = %d, want 70", tt.PassingScore)
	}

	q := &model.Question{TestID: tt.ID, Content: "?", Type: model.QuestionTypeText, CorrectAnswer: json.RawMessage(`"x"`)}
	if err := s.CreateQuestion(t.Context(), org.ID, q); err != nil {
		t.Fatalf("CreateQuestion: %v", err)
	}
	if q.Points != 1 {
		t.Errorf("Points default = %d, want 1", q.Points)
	}
	if q.Order != 1 {
		t.Errorf("Order default = %d, want 1", q.Order)
	}

	q2 := &model.Question{TestID: tt.ID, Content: "??", Type: model.QuestionTypeText, CorrectAnswer: json.RawMessage(`"y"`)}
	if err := s.CreateQuestion(t.Context(), org.ID, q2); err != nil {
		t.Fatalf("CreateQuestion: %v", err)
	}
	if q2.Order != 2 {
		t.Errorf("second question Order = %d, want 2", q2.Order)
	}
}

func TestUpdateTestCannotChangeOrganization(t *testing.T) {
	s := New()
	org := newOrg(t, s, "acme")
	tt := newTest(t, s, org.ID)

	desc := "updated"
	got, err := s.UpdateTest(t.Context(), org.ID, tt.ID, model.UpdateTestRequest{Description: &desc})
	if err != nil {
		t.Fatalf("UpdateTest: %v", err)
	}
	if got.OrganizationID != org.ID {
		t.Errorf("OrganizationID changed to %d", got.OrganizationID)
	}
	if got.Description != "updated" {
		t.Errorf("Description = %q, want %q", got.Description, "updated")
	}
}

func TestReorderQuestions(t *testing.T) {
	s := New()
	org := newOrg(t, s, "acme")
	tt := newTest(t, s, org.ID)

	q1 := newQuestion(t, s, org.ID, tt.ID)
	q2 := newQuestion(t, s, org.ID, tt.ID)
	q3 := newQuestion(t, s, org.ID, tt.ID)

	// A valid permutation reassigns orders 1..N.
	if err := s.ReorderQuestions(t.Context(), org.ID, tt.ID, []int64{q3.ID, q1.ID, q2.ID}); err != nil {
		t.Fatalf("ReorderQuestions: %v", err)
	}
	qs, _ := s.QuestionsByTest(t.Context(), org.ID, tt.ID)
	wantOrder := []int64{q3.ID, q1.ID, q2.ID}
	for i, q := range qs {
		if q.ID != wantOrder[i] {
			t.Errorf("position %d = question %d, want %d", i+1, q.ID, wantOrder[i])
		}
		if q.Order != i+1 {
			t.Errorf("question %d Order = %d, want %d", q.ID, q.Order, i+1)
		}
	}

	// Mismatched sets change nothing.
	invalid := [][]int64{
		{q1.ID, q2.ID},               // subset
		{q1.ID, q2.ID, q3.ID, 999},   // foreign id
		{q1.ID, q1.ID, q2.ID},        // duplicate
		{q1.ID, q2.ID, 999},          // replaced member
	}
	for _, ids := range invalid {
		if err := s.ReorderQuestions(t.Context(), org.ID, tt.ID, ids); !errors.Is(err, store.ErrReorderMismatch) {
			t.Errorf("ReorderQuestions(%v) = %v, want ErrReorderMismatch", ids, err)
		}
	}
	after, _ := s.QuestionsByTest(t.Context(), org.ID, tt.ID)
	for i, q := range after {
		if q.ID != wantOrder[i] {
			t.Errorf("failed reorder mutated ranking: position %d = %d", i+1, q.ID)
		}
	}
}

func TestCandidateEmailUniquePerOrganization(t *testing.T) {
	s := New()
	org1 := newOrg(t, s, "org-one")
	org2 := newOrg(t, s, "org-two")

	c := &model.Candidate{Name: "Ada", Email: "ada@example.com"}
	if err := s.CreateCandidate(t.Context(), org1.ID, c); err != nil {
		t.Fatalf("CreateCandidate: %v", err)
	}

	dup := &model.Candidate{Name: "Ada Again", Email: "ada@example.com"}
	if err := s.CreateCandidate(t.Context(), org1.ID, dup); !errors.Is(err, store.ErrConflict) {
		t.Errorf("same-org duplicate = %v, want ErrConflict", err)
	}

	other := &model.Candidate{Name: "Other Ada", Email: "ada@example.com"}
	if err := s.CreateCandidate(t.Context(), org2.ID, other); err != nil {
		t.Errorf("cross-org same email = %v, want nil", err)
	}
}

func TestSessionTokenLookupIsOrgAgnostic(t *testing.T) {
	s := New()
	org := newOrg(t, s, "acme")
	tt := newTest(t, s, org.ID)
	sess := newSession(t, s, org.ID, tt.ID, "tok-1")

	got, err := s.SessionByToken(t.Context(), "tok-1")
	if err != nil {
		t.Fatalf("SessionByToken: %v", err)
	}
	if got.ID != sess.ID {
		t.Errorf("SessionByToken id = %d, want %d", got.ID, sess.ID)
	}

	if _, err := s.SessionByToken(t.Context(), "no-such-token"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown token = %v, want ErrNotFound", err)
	}
}

func TestCompleteSessionExactlyOnce(t *testing.T) {
	s := New()
	org := newOrg(t, s, "acme")
	tt := newTest(t, s, org.ID)
	sess := newSession(t, s, org.ID, tt.ID, "tok-cas")

	completion := store.SessionCompletion{
		Score: 10, PercentScore: 100, Passed: true, CompletedAt: time.Now(),
		Answers: []model.CandidateAnswer{{SessionID: sess.ID, QuestionID: 1, IsCorrect: true, PointsAwarded: 10}},
	}

	var wg sync.WaitGroup
	results := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = s.CompleteSession(t.Context(), sess.ID, completion)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, store.ErrConflict):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("CompleteSession won %d times, want exactly 1", wins)
	}

	answers, _ := s.AnswersBySession(t.Context(), org.ID, sess.ID)
	if len(answers) != 1 {
		t.Errorf("stored %d answers, want 1 (no doubling)", len(answers))
	}

	// Completed is terminal: no restart.
	if _, err := s.StartSession(t.Context(), sess.ID, time.Now()); !errors.Is(err, store.ErrConflict) {
		t.Errorf("StartSession after completion = %v, want ErrConflict", err)
	}
}

func TestSessionsByTestPagination(t *testing.T) {
	s := New()
	org := newOrg(t, s, "acme")
	tt := newTest(t, s, org.ID)
	for i := 0; i < 5; i++ {
		newSession(t, s, org.ID, tt.ID, "tok-"+string(rune('a'+i)))
	}

	page, total, err := s.SessionsByTest(t.Context(), org.ID, tt.ID, 2, 2)
	if err != nil {
		t.Fatalf("SessionsByTest: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(page) != 2 {
		t.Errorf("page size = %d, want 2", len(page))
	}
	if page[0].CandidateEmail == "" {
		t.Error("candidate fields not joined into results")
	}
}
