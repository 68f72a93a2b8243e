package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-personalization/internal/data/repos"
	"github.com/yungbote/neurobridge-personalization/internal/platform/logger"
)

type Repos struct {
	Profiles        repos.UserProfileRepo
	Mastery         repos.TopicMasteryRepo
	Candidates      repos.ContentCandidateRepo
	Recommendations repos.RecommendationRepo
	Usage           repos.UsageEventRepo
	Sessions        repos.StudySessionRepo
	Insights        repos.AdaptiveInsightRepo
	Achievements    repos.AchievementRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Profiles:        repos.NewUserProfileRepo(db, log),
		Mastery:         repos.NewTopicMasteryRepo(db, log),
		Candidates:      repos.NewContentCandidateRepo(db, log),
		Recommendations: repos.NewRecommendationRepo(db, log),
		Usage:           repos.NewUsageEventRepo(db, log),
		Sessions:        repos.NewStudySessionRepo(db, log),
		Insights:        repos.NewAdaptiveInsightRepo(db, log),
		Achievements:    repos.NewAchievementRepo(db, log),
	}
}
