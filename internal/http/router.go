package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/neurobridge-personalization/internal/http/handlers"
	httpMW "github.com/yungbote/neurobridge-personalization/internal/http/middleware"
	"github.com/yungbote/neurobridge-personalization/internal/observability"
	"github.com/yungbote/neurobridge-personalization/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	TracingEnabled bool
	CORSOrigins    []string

	AuthMiddleware *httpMW.AuthMiddleware
	GenerateLimit  *httpMW.RateLimiter

	RecommendationHandler *httpH.RecommendationHandler
	InsightHandler        *httpH.InsightHandler
	StreakHandler         *httpH.StreakHandler
	AchievementHandler    *httpH.AchievementHandler
	UsageHandler          *httpH.UsageHandler
	ProfileHandler        *httpH.ProfileHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(httpMW.Recovery(cfg.Log))
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.TraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	protected := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}

	// Recommendations
	if h := cfg.RecommendationHandler; h != nil {
		protected.POST("/recommendations/generate/:studentId", cfg.GenerateLimit.Limit(), h.Generate)
		protected.GET("/recommendations/student/:studentId", h.ListForStudent)
		protected.POST("/recommendations/:id/present", h.Present)
		protected.POST("/recommendations/:id/respond", h.Respond)
		protected.POST("/recommendations/:id/feedback", h.Feedback)
	}

	// Insights
	if h := cfg.InsightHandler; h != nil {
		protected.POST("/insights/analyze/:userId", h.Analyze)
		protected.GET("/insights/:userId", h.List)
		protected.POST("/insights/:id/respond", h.Respond)
	}

	if h := cfg.StreakHandler; h != nil {
		protected.GET("/streak/:userId", h.Get)
	}

	// Achievements
	if h := cfg.AchievementHandler; h != nil {
		protected.POST("/achievements/check/:userId", h.Check)
		protected.GET("/achievements/:userId", h.List)
		protected.POST("/achievements/:userId/viewed", h.MarkViewed)
	}

	// Usage
	if h := cfg.UsageHandler; h != nil {
		protected.POST("/usage-events", h.Ingest)
		protected.POST("/study-sessions", h.RecordStudySession)
	}

	if h := cfg.ProfileHandler; h != nil {
		protected.GET("/profile/:userId", h.Get)
		protected.PUT("/profile/:userId", h.Update)
	}

	return r
}
