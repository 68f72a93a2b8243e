package app

import (
	"github.com/gin-gonic/gin"

	apphttp "github.com/yungbote/neurobridge-personalization/internal/http"
	httpMW "github.com/yungbote/neurobridge-personalization/internal/http/middleware"
	"github.com/yungbote/neurobridge-personalization/internal/platform/logger"
)

type Middleware struct {
	Auth          *httpMW.AuthMiddleware
	GenerateLimit *httpMW.RateLimiter
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	var limiter *httpMW.RateLimiter
	if cfg.GenerateRateLimit > 0 {
		limiter = httpMW.NewRateLimiter(cfg.GenerateRateLimit, cfg.GenerateRateWindow)
	}
	return Middleware{
		Auth:          httpMW.NewAuthMiddleware(log, cfg.JWTSecretKey),
		GenerateLimit: limiter,
	}
}

func wireRouter(log *logger.Logger, cfg Config, services Services, handlers Handlers, middleware Middleware) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	return apphttp.NewRouter(apphttp.RouterConfig{
		Log:                   log,
		Metrics:               services.Metrics,
		ServiceName:           cfg.OtelServiceName,
		TracingEnabled:        cfg.OtelEnabled,
		CORSOrigins:           cfg.CORSOrigins,
		AuthMiddleware:        middleware.Auth,
		GenerateLimit:         middleware.GenerateLimit,
		RecommendationHandler: handlers.Recommendation,
		InsightHandler:        handlers.Insight,
		StreakHandler:         handlers.Streak,
		AchievementHandler:    handlers.Achievement,
		UsageHandler:          handlers.Usage,
		ProfileHandler:        handlers.Profile,
		HealthHandler:         handlers.Health,
	})
}
