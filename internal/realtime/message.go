package realtime

import "github.com/google/uuid"

type Event string

const (
	EventRecommendationsGenerated Event = "RecommendationsGenerated"
	EventInsightsDetected         Event = "InsightsDetected"
	EventAchievementsUnlocked     Event = "AchievementsUnlocked"
)

// Message is one notification fanned out to downstream consumers.
type Message struct {
	Channel string `json:"channel"`
	Event   Event  `json:"event"`
	Data    any    `json:"data,omitempty"`
}

// UserChannel is the channel carrying a single user's notifications.
func UserChannel(userID uuid.UUID) string { return "user:" + userID.String() }
