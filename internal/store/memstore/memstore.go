// Package memstore is an in-memory Store backend. A single mutex
// serializes all access, which also provides the per-session
// compare-and-swap the lifecycle manager relies on. It backs unit tests
// and single-process deployments.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/talentprobe/talentprobe-backend/internal/model"
	"github.com/talentprobe/talentprobe-backend/internal/store"
)

// Store holds all entities in maps keyed by id, with auto-incrementing
// counters. It implements store.Store.
type Store struct {
	mu sync.Mutex

	nextID int64

	orgs       map[int64]model.Organization
	users      map[int64]model.User
	tests      map[int64]model.Test
	questions  map[int64]model.Question
	candidates map[int64]model.Candidate
	sessions   map[int64]model.TestSession
	byToken    map[string]int64
	answers    map[int64][]model.CandidateAnswer // keyed by session id
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		orgs:       make(map[int64]model.Organization),
		users:      make(map[int64]model.User),
		tests:      make(map[int64]model.Test),
		questions:  make(map[int64]model.Question),
		candidates: make(map[int64]model.Candidate),
		sessions:   make(map[int64]model.TestSession),
		byToken:    make(map[string]int64),
		answers:    make(map[int64][]model.CandidateAnswer),
	}
}

var _ store.Store = (*Store)(nil)

func (s *Store) nextid() int64 {
	s.nextID++
	return s.nextID
}

// ─── Organizations ──────────────────────────────────────────────────────

func (s *Store) CreateOrganization(_ context.Context, name string) (*model.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	org := model.Organization{ID: s.nextid(), Name: name, CreatedAt: time.Now()}
	s.orgs[org.ID] = org
	return &org, nil
}

func (s *Store) Organization(_ context.Context, orgID int64) (*model.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	org, ok := s.orgs[orgID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &org, nil
}

func (s *Store) RenameOrganization(_ context.Context, orgID int64, name string) (*model.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	org, ok := s.orgs[orgID]
	if !ok {
		return nil, store.ErrNotFound
	}
	org.Name = name
	s.orgs[orgID] = org
	return &org, nil
}

// ─── Users ──────────────────────────────────────────────────────────────

func (s *Store) CreateUser(_ context.Context, orgID int64, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Login resolves users by email alone, so emails are globally unique.
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return store.ErrConflict
		}
	}

	u.ID = s.nextid()
	u.OrganizationID = orgID
	u.CreatedAt = time.Now()
	s.users[u.ID] = *u
	return nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, store.ErrNotFound
}

// ─── Tests ──────────────────────────────────────────────────────────────

func (s *Store) CreateTest(_ context.Context, orgID int64, t *model.Test) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	t.ID = s.nextid()
	t.OrganizationID = orgID
	t.CreatedAt = now
	t.UpdatedAt = now
	s.tests[t.ID] = *t
	return nil
}

func (s *Store) Test(_ context.Context, orgID, id int64) (*model.Test, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.testLocked(orgID, id)
}

func (s *Store) testLocked(orgID, id int64) (*model.Test, error) {
	t, ok := s.tests[id]
	if !ok || t.OrganizationID != orgID {
		return nil, store.ErrNotFound
	}
	return &t, nil
}

func (s *Store) Tests(_ context.Context, orgID int64) ([]model.Test, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Test
	for _, t := range s.tests {
		if t.OrganizationID == orgID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateTest(_ context.Context, orgID, id int64, upd model.UpdateTestRequest) (*model.Test, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tests[id]
	if !ok || t.OrganizationID != orgID {
		return nil, store.ErrNotFound
	}

	if upd.Name != nil {
		t.Name = *upd.Name
	}
	if upd.Description != nil {
		t.Description = *upd.Description
	}
	if upd.TimeLimitMins != nil {
		t.TimeLimitMins = upd.TimeLimitMins
	}
	if upd.IsActive != nil {
		t.IsActive = *upd.IsActive
	}
	if upd.PassingScore != nil {
		t.PassingScore = *upd.PassingScore
	}
	t.UpdatedAt = time.Now()

	s.tests[id] = t
	return &t, nil
}

func (s *Store) DeleteTest(_ context.Context, orgID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tests[id]
	if !ok || t.OrganizationID != orgID {
		return store.ErrNotFound
	}

	delete(s.tests, id)
	for qid, q := range s.questions {
		if q.TestID == id {
			delete(s.questions, qid)
		}
	}
	for sid, sess := range s.sessions {
		if sess.TestID == id {
			delete(s.byToken, sess.AccessToken)
			delete(s.sessions, sid)
			delete(s.answers, sid)
		}
	}
	return nil
}

// ─── Questions ──────────────────────────────────────────────────────────

func (s *Store) CreateQuestion(_ context.Context, orgID int64, q *model.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.testLocked(orgID, q.TestID); err != nil {
		return err
	}

	q.ID = s.nextid()
	q.OrganizationID = orgID
	if q.Points <= 0 {
		q.Points = model.DefaultQuestionPoints
	}
	if q.Order <= 0 {
		q.Order = s.maxOrderLocked(q.TestID) + 1
	}
	s.questions[q.ID] = *q
	return nil
}

func (s *Store) maxOrderLocked(testID int64) int {
	max := 0
	for _, q := range s.questions {
		if q.TestID == testID && q.Order > max {
			max = q.Order
		}
	}
	return max
}

func (s *Store) Question(_ context.Context, orgID, id int64) (*model.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.questions[id]
	if !ok || q.OrganizationID != orgID {
		return nil, store.ErrNotFound
	}
	return &q, nil
}

func (s *Store) QuestionsByTest(_ context.Context, orgID, testID int64) ([]model.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.questionsByTestLocked(orgID, testID)
}

func (s *Store) questionsByTestLocked(orgID, testID int64) ([]model.Question, error) {
	if _, err := s.testLocked(orgID, testID); err != nil {
		return nil, err
	}

	var out []model.Question
	for _, q := range s.questions {
		if q.TestID == testID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (s *Store) UpdateQuestion(_ context.Context, orgID, id int64, upd model.UpdateQuestionRequest) (*model.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.questions[id]
	if !ok || q.OrganizationID != orgID {
		return nil, store.ErrNotFound
	}

	if upd.Content != nil {
		q.Content = *upd.Content
	}
	if upd.Options != nil {
		q.Options = upd.Options
	}
	if upd.CorrectAnswer != nil {
		q.CorrectAnswer = upd.CorrectAnswer
	}
	if upd.Points != nil {
		q.Points = *upd.Points
	}

	s.questions[id] = q
	return &q, nil
}

func (s *Store) DeleteQuestion(_ context.Context, orgID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.questions[id]
	if !ok || q.OrganizationID != orgID {
		return store.ErrNotFound
	}
	delete(s.questions, id)
	return nil
}

func (s *Store) ReorderQuestions(_ context.Context, orgID, testID int64, orderedIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.questionsByTestLocked(orgID, testID)
	if err != nil {
		return err
	}

	// The supplied ids must be exactly the test's question set: no
	// subset, no duplicates, no foreign ids. Otherwise nothing changes.
	if len(orderedIDs) != len(existing) {
		return store.ErrReorderMismatch
	}
	existingSet := make(map[int64]struct{}, len(existing))
	for _, q := range existing {
		existingSet[q.ID] = struct{}{}
	}
	seen := make(map[int64]struct{}, len(orderedIDs))
	for _, id := range orderedIDs {
		if _, ok := existingSet[id]; !ok {
			return store.ErrReorderMismatch
		}
		if _, dup := seen[id]; dup {
			return store.ErrReorderMismatch
		}
		seen[id] = struct{}{}
	}

	for pos, id := range orderedIDs {
		q := s.questions[id]
		q.Order = pos + 1
		s.questions[id] = q
	}
	return nil
}

// ─── Candidates ─────────────────────────────────────────────────────────

func (s *Store) CreateCandidate(_ context.Context, orgID int64, c *model.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Email is unique per organization.
	for _, existing := range s.candidates {
		if existing.OrganizationID == orgID && existing.Email == c.Email {
			return store.ErrConflict
		}
	}

	c.ID = s.nextid()
	c.OrganizationID = orgID
	c.CreatedAt = time.Now()
	s.candidates[c.ID] = *c
	return nil
}

func (s *Store) Candidate(_ context.Context, orgID, id int64) (*model.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.candidates[id]
	if !ok || c.OrganizationID != orgID {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (s *Store) Candidates(_ context.Context, orgID int64) ([]model.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Candidate
	for _, c := range s.candidates {
		if c.OrganizationID == orgID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateCandidate(_ context.Context, orgID, id int64, upd model.UpdateCandidateRequest) (*model.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.candidates[id]
	if !ok || c.OrganizationID != orgID {
		return nil, store.ErrNotFound
	}

	if upd.Name != nil {
		c.Name = *upd.Name
	}
	if upd.Position != nil {
		c.Position = *upd.Position
	}

	s.candidates[id] = c
	return &c, nil
}

// ─── Sessions ───────────────────────────────────────────────────────────

func (s *Store) CreateSession(_ context.Context, orgID int64, sess *model.TestSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.testLocked(orgID, sess.TestID); err != nil {
		return err
	}
	if c, ok := s.candidates[sess.CandidateID]; !ok || c.OrganizationID != orgID {
		return store.ErrNotFound
	}
	if _, taken := s.byToken[sess.AccessToken]; taken {
		return store.ErrConflict
	}

	sess.ID = s.nextid()
	sess.OrganizationID = orgID
	sess.Status = model.SessionStatusPending
	sess.CreatedAt = time.Now()
	s.sessions[sess.ID] = *sess
	s.byToken[sess.AccessToken] = sess.ID
	return nil
}

func (s *Store) Session(_ context.Context, orgID, id int64) (*model.TestSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || sess.OrganizationID != orgID {
		return nil, store.ErrNotFound
	}
	return &sess, nil
}

func (s *Store) SessionByToken(_ context.Context, token string) (*model.TestSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byToken[token]
	if !ok {
		return nil, store.ErrNotFound
	}
	sess := s.sessions[id]
	return &sess, nil
}

func (s *Store) SessionsByTest(_ context.Context, orgID, testID int64, limit, offset int) ([]store.SessionResult, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.testLocked(orgID, testID); err != nil {
		return nil, 0, err
	}

	var all []store.SessionResult
	for _, sess := range s.sessions {
		if sess.TestID != testID {
			continue
		}
		c := s.candidates[sess.CandidateID]
		all = append(all, store.SessionResult{
			Session:        sess,
			CandidateName:  c.Name,
			CandidateEmail: c.Email,
		})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Session.ID < all[j].Session.ID })

	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (s *Store) StartSession(_ context.Context, sessionID int64, startedAt time.Time) (*model.TestSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if sess.Status == model.SessionStatusCompleted {
		return nil, store.ErrConflict
	}

	sess.Status = model.SessionStatusInProgress
	sess.StartedAt = &startedAt
	s.sessions[sessionID] = sess
	return &sess, nil
}

func (s *Store) CompleteSession(_ context.Context, sessionID int64, completion store.SessionCompletion) (*model.TestSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, store.ErrNotFound
	}
	// Compare-and-swap: the transition and its score fields are written
	// exactly once; a concurrent second submit loses here.
	if sess.Status == model.SessionStatusCompleted {
		return nil, store.ErrConflict
	}

	completedAt := completion.CompletedAt
	score := completion.Score
	percent := completion.PercentScore
	passed := completion.Passed

	sess.Status = model.SessionStatusCompleted
	sess.CompletedAt = &completedAt
	sess.Score = &score
	sess.PercentScore = &percent
	sess.Passed = &passed

	s.sessions[sessionID] = sess
	s.answers[sessionID] = append([]model.CandidateAnswer(nil), completion.Answers...)
	return &sess, nil
}

func (s *Store) AnswersBySession(_ context.Context, orgID, sessionID int64) ([]model.CandidateAnswer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.OrganizationID != orgID {
		return nil, store.ErrNotFound
	}
	return append([]model.CandidateAnswer(nil), s.answers[sessionID]...), nil
}

// SetSessionExpiry rewrites a session's expiry directly. Not part of the
// Store contract; tests use it to age sessions without waiting.
func (s *Store) SetSessionExpiry(_ context.Context, sessionID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return store.ErrNotFound
	}
	sess.ExpiresAt = &at
	s.sessions[sessionID] = sess
	return nil
}
