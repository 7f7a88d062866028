package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/smartquiz-backend/internal/config"
	"github.com/stemsi/smartquiz-backend/internal/handler"
	"github.com/stemsi/smartquiz-backend/internal/middleware"
	"github.com/stemsi/smartquiz-backend/internal/response"
	"github.com/stemsi/smartquiz-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Quiz    *handler.QuizHandler
	Session *handler.SessionHandler
	Me      *handler.MeHandler
	WS      *handler.WSHandler
	System  *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	rdb *redis.Client,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware(log))
	router.Use(middleware.Brotli())

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 1. Catalogue (Optional Auth) ──────────────────────────────────
	quizzes := router.Group("/api/v1/quizzes")
	quizzes.Use(middleware.CacheControl(30))
	{
		quizzes.GET("", handlers.Quiz.ListQuizzes)
		quizzes.GET("/:quiz_id", handlers.Quiz.GetQuiz)
	}

	// ─── 2. Sessions (Optional Auth) ───────────────────────────────────
	startLimiter := middleware.NewRateLimiter(rdb, cfg.SessionStartRate, time.Minute, config.CacheKey.SessionStartRateKey, log)

	sessions := router.Group("/api/v1/sessions")
	sessions.Use(middleware.OptionalUser(authService), middleware.NoStore())
	{
		sessions.POST("", startLimiter.Middleware(), handlers.Session.StartSession)
		sessions.GET("/:session_id", handlers.Session.GetSession)
		sessions.POST("/:session_id/select", handlers.Session.SelectOption)
		sessions.POST("/:session_id/submit", handlers.Session.SubmitAnswer)
		sessions.POST("/:session_id/next", handlers.Session.NextQuestion)
		sessions.DELETE("/:session_id", handlers.Session.AbandonSession)
	}

	// ─── 3. WebSocket (Optional Auth via ?token) ───────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.OptionalUser(authService))
	{
		ws.GET("/sessions/:session_id/stream", handlers.WS.SessionStream)
	}

	// ─── 4. Signed-in User ─────────────────────────────────────────────
	me := router.Group("/api/v1/me")
	me.Use(middleware.RequireUser(authService), middleware.NoStore())
	{
		me.GET("/active-session", handlers.Me.GetActiveSession)
		me.GET("/history", handlers.Me.ListHistory)
		me.GET("/results/:result_id", handlers.Me.GetResult)
	}

	// ─── 5. Admin Group (JWT + Role) ───────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(
		middleware.RequireUser(authService),
		middleware.RequireRole(service.RoleAdmin),
		middleware.NoStore(),
	)
	{
		adminAPI.GET("/quizzes", handlers.Quiz.ListQuizzes)
		adminAPI.POST("/quizzes", handlers.Quiz.ImportQuiz)
		adminAPI.DELETE("/quizzes/:quiz_id", handlers.Quiz.DeleteQuiz)
		adminAPI.GET("/quizzes/:quiz_id/questions", handlers.Quiz.ListQuestions)
		adminAPI.GET("/quizzes/:quiz_id/statistics", handlers.Quiz.GetStatistics)

		if handlers.System != nil {
			adminAPI.GET("/system/metrics", handlers.System.SystemMetricsSSE)
		}
	}

	return router
}
