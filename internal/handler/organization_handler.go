package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/talentprobe/talentprobe-backend/internal/model"
	"github.com/talentprobe/talentprobe-backend/internal/response"
	"github.com/talentprobe/talentprobe-backend/internal/service"
	"github.com/talentprobe/talentprobe-backend/internal/validator"
)

// OrganizationHandler handles tenant account endpoints.
type OrganizationHandler struct {
	orgService *service.OrganizationService
}

// NewOrganizationHandler creates a new OrganizationHandler.
func NewOrganizationHandler(orgService *service.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{orgService: orgService}
}

// Get godoc
// GET /api/v1/org
// Returns the caller's organization.
func (h *OrganizationHandler) Get(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}

	org, err := h.orgService.Organization(c.Request.Context(), claims.OrganizationID)
	if err != nil {
		failStoreErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"organization": org})
}

// Rename godoc
// PATCH /api/v1/org
// Renames the caller's organization.
func (h *OrganizationHandler) Rename(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}

	var req model.UpdateOrganizationRequest
	if !validator.Bind(c, &req) {
		return
	}

	org, err := h.orgService.Rename(c.Request.Context(), claims.OrganizationID, req)
	if err != nil {
		failStoreErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"organization": org})
}
