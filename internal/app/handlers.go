package app

import (
	"gorm.io/gorm"

	httpH "github.com/yungbote/neurobridge-personalization/internal/http/handlers"
	"github.com/yungbote/neurobridge-personalization/internal/platform/logger"
)

type Handlers struct {
	Recommendation *httpH.RecommendationHandler
	Insight        *httpH.InsightHandler
	Streak         *httpH.StreakHandler
	Achievement    *httpH.AchievementHandler
	Usage          *httpH.UsageHandler
	Profile        *httpH.ProfileHandler
	Health         *httpH.HealthHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	uc := services.Usecases
	var pinger httpH.Pinger
	if sqlDB, err := db.DB(); err == nil {
		pinger = sqlDB
	}
	return Handlers{
		Recommendation: httpH.NewRecommendationHandler(uc),
		Insight:        httpH.NewInsightHandler(uc),
		Streak:         httpH.NewStreakHandler(uc),
		Achievement:    httpH.NewAchievementHandler(uc),
		Usage:          httpH.NewUsageHandler(uc),
		Profile:        httpH.NewProfileHandler(uc),
		Health:         httpH.NewHealthHandler(pinger),
	}
}
