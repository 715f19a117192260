package model

import "time"

// DefaultPassingScore is applied when a test is created without an
// explicit passing threshold.
const DefaultPassingScore = 70

// Test is a named assessment definition containing ordered questions.
type Test struct {
	ID             int64     `json:"id"`
	OrganizationID int64     `json:"organizationId"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	CreatedBy      int64     `json:"createdBy"`
	TimeLimitMins  *int      `json:"timeLimitMinutes,omitempty"`
	IsActive       bool      `json:"isActive"`
	PassingScore   int       `json:"passingScore"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// CreateTestRequest is the payload for creating a new test.
// PassingScore defaults to 70 when omitted.
type CreateTestRequest struct {
	Name          string `json:"name" binding:"required,min=2,max=255"`
	Description   string `json:"description" binding:"omitempty,max=2000"`
	TimeLimitMins *int   `json:"timeLimitMinutes" binding:"omitempty,min=1,max=480"`
	PassingScore  *int   `json:"passingScore" binding:"omitempty,min=0,max=100"`
}

// UpdateTestRequest is the payload for updating an existing test.
// Only supplied fields are merged; the owning organization can never change.
type UpdateTestRequest struct {
	Name          *string `json:"name" binding:"omitempty,min=2,max=255"`
	Description   *string `json:"description" binding:"omitempty,max=2000"`
	TimeLimitMins *int    `json:"timeLimitMinutes" binding:"omitempty,min=1,max=480"`
	IsActive      *bool   `json:"isActive" binding:"omitempty"`
	PassingScore  *int    `json:"passingScore" binding:"omitempty,min=0,max=100"`
}
