package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/talentprobe/talentprobe-backend/internal/config"
	"github.com/talentprobe/talentprobe-backend/internal/middleware"
	"github.com/talentprobe/talentprobe-backend/internal/service"
	ws "github.com/talentprobe/talentprobe-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// MonitorHandler streams live session lifecycle events of a test to its
// recruiters over WebSocket, fed by the Redis monitor channel.
type MonitorHandler struct {
	rdb         *redis.Client
	assessments *service.AssessmentService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(rdb *redis.Client, assessments *service.AssessmentService, log zerolog.Logger, allowedOrigins []string) *MonitorHandler {
	return &MonitorHandler{
		rdb:         rdb,
		assessments: assessments,
		log:         log.With().Str("component", "monitor_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// Stream godoc
// WS /ws/v1/org/tests/:test_id/monitor?token=...
// Upgrades to WebSocket and forwards every lifecycle event of the test's
// sessions as it happens.
func (h *MonitorHandler) Stream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	testID, ok := paramID(c, "test_id")
	if !ok {
		return
	}

	// Tenant check before the upgrade: a recruiter may only watch tests
	// their organization owns.
	if _, err := h.assessments.Test(c.Request.Context(), claims.OrganizationID, testID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "test not found"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	monLog := h.log.With().
		Int64("test_id", testID).
		Int64("org_id", claims.OrganizationID).
		Logger()
	monLog.Info().Msg("Monitor connected")

	ctx := c.Request.Context()
	pubsub := h.rdb.Subscribe(ctx, config.CacheKey.TestMonitorChannel(testID))
	defer pubsub.Close()

	// Reader loop: the client only ever sends pings. A close frame or a
	// broken read ends the stream; anything unrecognized gets an error
	// frame back but keeps the stream open.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				return
			}
			if msg.Action == ws.ActionPing {
				_ = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
				continue
			}
			_ = ws.WriteError(conn, "unsupported action")
		}
	}()

	events := pubsub.Channel()
	for {
		select {
		case <-done:
			monLog.Debug().Msg("Monitor disconnected")
			return
		case <-ctx.Done():
			return
		case msg, open := <-events:
			if !open {
				return
			}
			update := ws.SessionUpdate{
				Event:   ws.EventSession,
				Session: json.RawMessage(msg.Payload),
			}
			if err := ws.WriteTyped(conn, update); err != nil {
				monLog.Debug().Err(err).Msg("Monitor write failed")
				return
			}
		}
	}
}
