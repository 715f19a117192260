package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/talentprobe/talentprobe-backend/internal/model"
	"github.com/talentprobe/talentprobe-backend/internal/response"
	"github.com/talentprobe/talentprobe-backend/internal/service"
	"github.com/talentprobe/talentprobe-backend/internal/validator"
)

// SessionHandler handles the public candidate-facing endpoints. Access is
// by bearer token in the URL; there is no authentication layer and no
// tenant context.
type SessionHandler struct {
	sessions *service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// GetPaper godoc
// GET /api/v1/sessions/:token
// Returns the session with its test and answer-stripped questions.
func (h *SessionHandler) GetPaper(c *gin.Context) {
	paper, err := h.sessions.Paper(c.Request.Context(), c.Param("token"))
	if err != nil {
		failSessionErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, paper)
}

// Start godoc
// POST /api/v1/sessions/:token/start
// Moves the session to in_progress and stamps the start time.
func (h *SessionHandler) Start(c *gin.Context) {
	session, err := h.sessions.Start(c.Request.Context(), c.Param("token"))
	if err != nil {
		failSessionErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// Submit godoc
// POST /api/v1/sessions/:token/submit
// Grades the answers and completes the session exactly once.
func (h *SessionHandler) Submit(c *gin.Context) {
	var req model.SubmitRequest
	if !validator.Bind(c, &req) {
		return
	}

	result, err := h.sessions.Submit(c.Request.Context(), c.Param("token"), req)
	if err != nil {
		failSessionErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// failSessionErr maps session lifecycle errors onto API error codes. An
// unknown token is indistinguishable from an absent session.
func failSessionErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrSessionExpired):
		response.Fail(c, http.StatusGone, response.ErrSessionExpired)
	case errors.Is(err, service.ErrSessionCompleted):
		response.Fail(c, http.StatusConflict, response.ErrSessionCompleted)
	case errors.Is(err, service.ErrUnknownQuestion):
		response.Fail(c, http.StatusBadRequest, response.ErrUnknownQuestion)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
