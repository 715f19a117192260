package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/talentprobe/talentprobe-backend/internal/middleware"
	"github.com/talentprobe/talentprobe-backend/internal/response"
	"github.com/talentprobe/talentprobe-backend/internal/service"
	"github.com/talentprobe/talentprobe-backend/internal/store"
)

// requireClaims pulls validated JWT claims off the context, failing the
// request when the auth middleware did not run.
func requireClaims(c *gin.Context) *service.Claims {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil
	}
	return claims
}

// paramID parses a numeric path parameter, failing the request on junk.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}

// failStoreErr maps store-layer sentinel errors onto API error codes.
func failStoreErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, store.ErrReorderMismatch):
		response.Fail(c, http.StatusBadRequest, response.ErrReorderMismatch)
	case errors.Is(err, store.ErrConflict):
		response.Fail(c, http.StatusConflict, response.ErrConflict)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
