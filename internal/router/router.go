package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/talentprobe/talentprobe-backend/internal/config"
	"github.com/talentprobe/talentprobe-backend/internal/handler"
	"github.com/talentprobe/talentprobe-backend/internal/middleware"
	"github.com/talentprobe/talentprobe-backend/internal/response"
	"github.com/talentprobe/talentprobe-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth         *handler.AuthHandler
	Organization *handler.OrganizationHandler
	Assessment   *handler.AssessmentHandler
	Candidate    *handler.CandidateHandler
	Session      *handler.SessionHandler
	Monitor      *handler.MonitorHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for the unauthenticated endpoints (60 requests per
	// minute per IP): session tokens are guessable only by brute force,
	// and login is the other credential surface.
	publicLimiter := middleware.NewRateLimiter(60, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(publicLimiter.Middleware())
	{
		auth.POST("/login", handlers.Auth.Login)
	}

	// ─── 2. Candidate Session Group (Token Access, Rate Limited) ───────
	sessions := router.Group("/api/v1/sessions")
	sessions.Use(publicLimiter.Middleware(), middleware.NoStore())
	{
		sessions.GET("/:token", handlers.Session.GetPaper)
		sessions.POST("/:token/start", handlers.Session.Start)
		sessions.POST("/:token/submit", handlers.Session.Submit)
	}

	// ─── 3. Organization Group (JWT) ───────────────────────────────────
	orgAPI := router.Group("/api/v1/org")
	orgAPI.Use(middleware.RequireUserJWT(authService))
	{
		orgAPI.GET("", handlers.Organization.Get)
		orgAPI.PATCH("", handlers.Organization.Rename)
		orgAPI.POST("/users", handlers.Auth.CreateUser)

		// Tests
		orgAPI.GET("/tests", handlers.Assessment.ListTests)
		orgAPI.POST("/tests", handlers.Assessment.CreateTest)
		orgAPI.GET("/tests/:test_id", handlers.Assessment.GetTest)
		orgAPI.PATCH("/tests/:test_id", handlers.Assessment.UpdateTest)
		orgAPI.DELETE("/tests/:test_id", handlers.Assessment.DeleteTest)

		// Questions
		orgAPI.GET("/tests/:test_id/questions", handlers.Assessment.ListQuestions)
		orgAPI.POST("/tests/:test_id/questions", handlers.Assessment.CreateQuestion)
		orgAPI.PUT("/tests/:test_id/questions/order", handlers.Assessment.ReorderQuestions)
		orgAPI.PATCH("/questions/:question_id", handlers.Assessment.UpdateQuestion)
		orgAPI.DELETE("/questions/:question_id", handlers.Assessment.DeleteQuestion)

		// Candidates and assignments
		orgAPI.GET("/candidates", handlers.Candidate.List)
		orgAPI.POST("/candidates", handlers.Candidate.Create)
		orgAPI.GET("/candidates/:candidate_id", handlers.Candidate.Get)
		orgAPI.PATCH("/candidates/:candidate_id", handlers.Candidate.Update)
		orgAPI.POST("/tests/:test_id/assignments", handlers.Candidate.AssignTest)

		// Results
		orgAPI.GET("/tests/:test_id/results", handlers.Assessment.ListResults)
		orgAPI.GET("/sessions/:session_id/answers", handlers.Assessment.SessionAnswers)
	}

	// ─── 4. WebSocket Group (WS Auth via query token) ──────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(authService))
	{
		ws.GET("/org/tests/:test_id/monitor", handlers.Monitor.Stream)
	}

	return router
}
