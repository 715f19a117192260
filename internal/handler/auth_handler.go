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

// AuthHandler handles recruiter authentication and user management.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login godoc
// POST /api/v1/auth/login
// Authenticates a user by email and password, returning a JWT bound to
// the user's organization.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if !validator.Bind(c, &req) {
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, resp)
}

// CreateUser godoc
// POST /api/v1/org/users
// Adds a user to the caller's organization.
func (h *AuthHandler) CreateUser(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}

	var req model.CreateUserRequest
	if !validator.Bind(c, &req) {
		return
	}

	user, err := h.authService.CreateUser(c.Request.Context(), claims.OrganizationID, req)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			response.Fail(c, http.StatusConflict, response.ErrDuplicateEmail)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"user": user})
}
