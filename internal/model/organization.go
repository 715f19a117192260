package model

import "time"

// Organization is the tenant boundary. Every other entity belongs to
// exactly one organization, directly or transitively.
type Organization struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// UpdateOrganizationRequest is the payload for renaming an organization.
// Name is the only mutable attribute.
type UpdateOrganizationRequest struct {
	Name string `json:"name" binding:"required,min=2,max=255"`
}
