package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/talentprobe/talentprobe-backend/internal/model"
	"github.com/talentprobe/talentprobe-backend/internal/response"
	"github.com/talentprobe/talentprobe-backend/internal/service"
	"github.com/talentprobe/talentprobe-backend/internal/store"
	"github.com/talentprobe/talentprobe-backend/internal/validator"
)

// CandidateHandler handles candidate management and test assignment.
type CandidateHandler struct {
	candidates *service.CandidateService
}

// NewCandidateHandler creates a new CandidateHandler.
func NewCandidateHandler(candidates *service.CandidateService) *CandidateHandler {
	return &CandidateHandler{candidates: candidates}
}

// List godoc
// GET /api/v1/org/candidates
func (h *CandidateHandler) List(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}

	candidates, err := h.candidates.Candidates(c.Request.Context(), claims.OrganizationID)
	if err != nil {
		failStoreErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"candidates": candidates})
}

// Create godoc
// POST /api/v1/org/candidates
func (h *CandidateHandler) Create(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}

	var req model.CreateCandidateRequest
	if !validator.Bind(c, &req) {
		return
	}

	candidate, err := h.candidates.Create(c.Request.Context(), claims.OrganizationID, req)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			response.Fail(c, http.StatusConflict, response.ErrDuplicateEmail)
			return
		}
		failStoreErr(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"candidate": candidate})
}

// Get godoc
// GET /api/v1/org/candidates/:candidate_id
func (h *CandidateHandler) Get(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	candidateID, ok := paramID(c, "candidate_id")
	if !ok {
		return
	}

	candidate, err := h.candidates.Candidate(c.Request.Context(), claims.OrganizationID, candidateID)
	if err != nil {
		failStoreErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"candidate": candidate})
}

// Update godoc
// PATCH /api/v1/org/candidates/:candidate_id
// Email is immutable and not accepted here.
func (h *CandidateHandler) Update(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	candidateID, ok := paramID(c, "candidate_id")
	if !ok {
		return
	}

	var req model.UpdateCandidateRequest
	if !validator.Bind(c, &req) {
		return
	}

	candidate, err := h.candidates.Update(c.Request.Context(), claims.OrganizationID, candidateID, req)
	if err != nil {
		failStoreErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"candidate": candidate})
}

// AssignTest godoc
// POST /api/v1/org/tests/:test_id/assignments
// Creates a pending session for a candidate and returns it with its
// access token. The token is shown to the recruiter exactly here; it is
// the link they send to the candidate.
func (h *CandidateHandler) AssignTest(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	testID, ok := paramID(c, "test_id")
	if !ok {
		return
	}

	var req model.AssignTestRequest
	if !validator.Bind(c, &req) {
		return
	}

	session, err := h.candidates.AssignTest(c.Request.Context(), claims.OrganizationID, testID, req)
	if err != nil {
		failStoreErr(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"session": session})
}
