package model

import "time"

// Candidate is a person an organization assesses. Candidates never log
// in; they reach their sessions through access tokens.
type Candidate struct {
	ID             int64     `json:"id"`
	OrganizationID int64     `json:"organizationId"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Position       string    `json:"position,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// CreateCandidateRequest is the payload for registering a candidate.
// Email must be unique within the organization.
type CreateCandidateRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Position string `json:"position" binding:"omitempty,max=255"`
}

// UpdateCandidateRequest is the payload for updating a candidate.
// Email is immutable after creation, so it is not accepted here.
type UpdateCandidateRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=2,max=100"`
	Position *string `json:"position" binding:"omitempty,max=255"`
}

// AssignTestRequest is the payload for assigning a test to a candidate,
// which creates a pending session with a fresh access token.
type AssignTestRequest struct {
	CandidateID int64 `json:"candidateId" binding:"required"`
	ExpiresIn   *int  `json:"expiresInDays" binding:"omitempty,min=1,max=365"`
}
