package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-personalization/internal/data/repos/personalization"
	"github.com/yungbote/neurobridge-personalization/internal/platform/logger"
)

type UserProfileRepo = personalization.UserProfileRepo
type TopicMasteryRepo = personalization.TopicMasteryRepo
type ContentCandidateRepo = personalization.ContentCandidateRepo
type ContentCandidateFilter = personalization.ContentCandidateFilter
type RecommendationRepo = personalization.RecommendationRepo
type UsageEventRepo = personalization.UsageEventRepo
type StudySessionRepo = personalization.StudySessionRepo
type AdaptiveInsightRepo = personalization.AdaptiveInsightRepo
type AchievementRepo = personalization.AchievementRepo

var ErrStaleVersion = personalization.ErrStaleVersion

func NewUserProfileRepo(db *gorm.DB, baseLog *logger.Logger) UserProfileRepo {
	return personalization.NewUserProfileRepo(db, baseLog)
}
func NewTopicMasteryRepo(db *gorm.DB, baseLog *logger.Logger) TopicMasteryRepo {
	return personalization.NewTopicMasteryRepo(db, baseLog)
}
func NewContentCandidateRepo(db *gorm.DB, baseLog *logger.Logger) ContentCandidateRepo {
	return personalization.NewContentCandidateRepo(db, baseLog)
}
func NewRecommendationRepo(db *gorm.DB, baseLog *logger.Logger) RecommendationRepo {
	return personalization.NewRecommendationRepo(db, baseLog)
}
func NewUsageEventRepo(db *gorm.DB, baseLog *logger.Logger) UsageEventRepo {
	return personalization.NewUsageEventRepo(db, baseLog)
}
func NewStudySessionRepo(db *gorm.DB, baseLog *logger.Logger) StudySessionRepo {
	return personalization.NewStudySessionRepo(db, baseLog)
}
func NewAdaptiveInsightRepo(db *gorm.DB, baseLog *logger.Logger) AdaptiveInsightRepo {
	return personalization.NewAdaptiveInsightRepo(db, baseLog)
}
func NewAchievementRepo(db *gorm.DB, baseLog *logger.Logger) AchievementRepo {
	return personalization.NewAchievementRepo(db, baseLog)
}
