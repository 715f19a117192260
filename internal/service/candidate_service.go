package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/talentprobe/talentprobe-backend/internal/config"
	"github.com/talentprobe/talentprobe-backend/internal/model"
	"github.com/talentprobe/talentprobe-backend/internal/store"
)

// CandidateService handles candidate management and test assignment.
type CandidateService struct {
	cfg   *config.Config
	store store.Store
	rdb   *redis.Client
	log   zerolog.Logger
}

// NewCandidateService creates a new CandidateService.
func NewCandidateService(cfg *config.Config, st store.Store, rdb *redis.Client, log zerolog.Logger) *CandidateService {
	return &CandidateService{
		cfg:   cfg,
		store: st,
		rdb:   rdb,
		log:   log.With().Str("component", "candidate_service").Logger(),
	}
}

// Create registers a candidate. Email must be unique within the
// organization; the same address may exist under other tenants.
func (s *CandidateService) Create(ctx context.Context, orgID int64, req model.CreateCandidateRequest) (*model.Candidate, error) {
	c := &model.Candidate{
		Name:     req.Name,
		Email:    req.Email,
		Position: req.Position,
	}
	if err := s.store.CreateCandidate(ctx, orgID, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Candidate returns one of the organization's candidates.
func (s *CandidateService) Candidate(ctx context.Context, orgID, id int64) (*model.Candidate, error) {
	return s.store.Candidate(ctx, orgID, id)
}

// Candidates lists all of the organization's candidates.
func (s *CandidateService) Candidates(ctx context.Context, orgID int64) ([]model.Candidate, error) {
	return s.store.Candidates(ctx, orgID)
}

// Update merges the supplied fields into an existing candidate.
func (s *CandidateService) Update(ctx context.Context, orgID, id int64, req model.UpdateCandidateRequest) (*model.Candidate, error) {
	return s.store.UpdateCandidate(ctx, orgID, id, req)
}

// AssignTest creates a pending session linking a candidate to a test,
// identified by a fresh access token. The token is the only credential a
// candidate ever holds. Expiry defaults to the configured window unless
// the request overrides it.
func (s *CandidateService) AssignTest(ctx context.Context, orgID, testID int64, req model.AssignTestRequest) (*model.TestSession, error) {
	now := time.Now()

	window := s.cfg.SessionExpiry
	if req.ExpiresIn != nil {
		window = time.Duration(*req.ExpiresIn) * 24 * time.Hour
	}
	expiresAt := now.Add(window)

	session := &model.TestSession{
		TestID:      testID,
		CandidateID: req.CandidateID,
		AccessToken: uuid.New().String(),
		Status:      model.SessionStatusPending,
		ExpiresAt:   &expiresAt,
	}
	if err := s.store.CreateSession(ctx, orgID, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	pushSessionEvent(ctx, s.rdb, s.log, model.SessionEvent{
		OrganizationID: orgID,
		SessionID:      session.ID,
		TestID:         testID,
		Type:           model.SessionEventAssigned,
		OccurredAt:     now,
	})

	return session, nil
}
