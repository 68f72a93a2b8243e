package domain

import (
	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-personalization/internal/domain/personalization"
)

type UserProfile = personalization.UserProfile
type TopicMastery = personalization.TopicMastery
type ContentCandidate = personalization.ContentCandidate
type Recommendation = personalization.Recommendation
type UsageEvent = personalization.UsageEvent
type StudySession = personalization.StudySession
type AdaptiveInsight = personalization.AdaptiveInsight
type Achievement = personalization.Achievement
type UnlockedAchievement = personalization.UnlockedAchievement

type ResponseAction = personalization.ResponseAction
type RecommendationStatus = personalization.RecommendationStatus
type ExpiryReason = personalization.ExpiryReason
type Priority = personalization.Priority
type InsightType = personalization.InsightType
type InsightResponse = personalization.InsightResponse
type TimeOfDay = personalization.TimeOfDay
type UsageKind = personalization.UsageKind
type ContentFormat = personalization.ContentFormat
type DifficultyLevel = personalization.DifficultyLevel
type SessionLength = personalization.SessionLength
type Environment = personalization.Environment
type ReadingLevel = personalization.ReadingLevel
type RequirementType = personalization.RequirementType

func DefaultUserProfile(userID uuid.UUID) *UserProfile {
	return personalization.DefaultUserProfile(userID)
}

// Models lists every persisted type in migration order.
func Models() []any {
	return []any{
		&UserProfile{},
		&TopicMastery{},
		&ContentCandidate{},
		&Recommendation{},
		&UsageEvent{},
		&StudySession{},
		&AdaptiveInsight{},
		&Achievement{},
		&UnlockedAchievement{},
	}
}
