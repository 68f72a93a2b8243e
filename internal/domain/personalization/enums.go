package personalization

import (
	"fmt"
	"strings"
)

// ResponseAction is what a student did with a presented recommendation.
type ResponseAction string

const (
	ActionViewed     ResponseAction = "viewed"
	ActionBookmarked ResponseAction = "bookmarked"
	ActionStarted    ResponseAction = "started"
	ActionCompleted  ResponseAction = "completed"
	ActionIgnored    ResponseAction = "ignored"
)

func ParseResponseAction(raw string) (ResponseAction, error) {
	switch a := ResponseAction(normalize(raw)); a {
	case ActionViewed, ActionBookmarked, ActionStarted, ActionCompleted, ActionIgnored:
		return a, nil
	default:
		return "", fmt.Errorf("unknown response action %q", raw)
	}
}

type RecommendationStatus string

const (
	StatusActive    RecommendationStatus = "active"
	StatusResponded RecommendationStatus = "responded"
	StatusExpired   RecommendationStatus = "expired"
)

type ExpiryReason string

const (
	ExpiryTTL        ExpiryReason = "ttl"
	ExpirySuperseded ExpiryReason = "superseded"
	ExpiryUnanswered ExpiryReason = "unanswered"
	ExpiryIgnored    ExpiryReason = "ignored"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// PriorityFor maps a [0,1] score onto the three priority levels.
func PriorityFor(score float64) Priority {
	switch {
	case score >= 0.8:
		return PriorityHigh
	case score >= 0.5:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

type InsightType string

const (
	InsightEnergyPeak  InsightType = "energy_peak"
	InsightEnergyDip   InsightType = "energy_dip"
	InsightSuccessPeak InsightType = "success_peak"
	InsightSuccessDip  InsightType = "success_dip"
)

type InsightResponse string

const (
	InsightPending  InsightResponse = "pending"
	InsightAccepted InsightResponse = "accepted"
	InsightRejected InsightResponse = "rejected"
)

// ParseInsightResponse accepts only terminal responses; pending is never a valid input.
func ParseInsightResponse(raw string) (InsightResponse, error) {
	switch r := InsightResponse(normalize(raw)); r {
	case InsightAccepted, InsightRejected:
		return r, nil
	default:
		return "", fmt.Errorf("unknown insight response %q", raw)
	}
}

type TimeOfDay string

const (
	LateNight      TimeOfDay = "late_night"
	EarlyMorning   TimeOfDay = "early_morning"
	LateMorning    TimeOfDay = "late_morning"
	EarlyAfternoon TimeOfDay = "early_afternoon"
	LateAfternoon  TimeOfDay = "late_afternoon"
	EarlyEvening   TimeOfDay = "early_evening"
	LateEvening    TimeOfDay = "late_evening"
)

// TimeOfDays lists the buckets in chronological order.
var TimeOfDays = []TimeOfDay{LateNight, EarlyMorning, LateMorning, EarlyAfternoon, LateAfternoon, EarlyEvening, LateEvening}

// TimeOfDayForHour buckets an hour of the day (0-23).
func TimeOfDayForHour(hour int) TimeOfDay {
	switch {
	case hour < 5:
		return LateNight
	case hour < 8:
		return EarlyMorning
	case hour < 12:
		return LateMorning
	case hour < 15:
		return EarlyAfternoon
	case hour < 17:
		return LateAfternoon
	case hour < 20:
		return EarlyEvening
	default:
		return LateEvening
	}
}

func (t TimeOfDay) Label() string { return strings.ReplaceAll(string(t), "_", " ") }

type UsageKind string

const (
	UsageOpened    UsageKind = "opened"
	UsageUsed      UsageKind = "used"
	UsageCompleted UsageKind = "completed"
	UsageAbandoned UsageKind = "abandoned"
)

func ParseUsageKind(raw string) (UsageKind, error) {
	if strings.TrimSpace(raw) == "" {
		return UsageUsed, nil
	}
	switch k := UsageKind(normalize(raw)); k {
	case UsageOpened, UsageUsed, UsageCompleted, UsageAbandoned:
		return k, nil
	default:
		return "", fmt.Errorf("unknown usage kind %q", raw)
	}
}

type ContentFormat string

const (
	FormatText        ContentFormat = "text"
	FormatVideo       ContentFormat = "video"
	FormatAudio       ContentFormat = "audio"
	FormatInteractive ContentFormat = "interactive"
)

// DifficultyLevel runs from 1 (beginner) to 5 (expert).
type DifficultyLevel int

const (
	DifficultyBeginner     DifficultyLevel = 1
	DifficultyElementary   DifficultyLevel = 2
	DifficultyIntermediate DifficultyLevel = 3
	DifficultyAdvanced     DifficultyLevel = 4
	DifficultyExpert       DifficultyLevel = 5
)

func (d DifficultyLevel) Valid() bool { return d >= DifficultyBeginner && d <= DifficultyExpert }

type SessionLength string

const (
	SessionShort  SessionLength = "short"
	SessionMedium SessionLength = "medium"
	SessionLong   SessionLength = "long"
)

func (s SessionLength) Minutes() int {
	switch s {
	case SessionShort:
		return 15
	case SessionLong:
		return 60
	default:
		return 30
	}
}

func ParseSessionLength(raw string) (SessionLength, error) {
	switch s := SessionLength(normalize(raw)); s {
	case SessionShort, SessionMedium, SessionLong:
		return s, nil
	default:
		return "", fmt.Errorf("unknown session length %q", raw)
	}
}

type Environment string

const (
	EnvironmentQuiet   Environment = "quiet"
	EnvironmentAmbient Environment = "ambient"
	EnvironmentSocial  Environment = "social"
)

func ParseEnvironment(raw string) (Environment, error) {
	switch e := Environment(normalize(raw)); e {
	case EnvironmentQuiet, EnvironmentAmbient, EnvironmentSocial:
		return e, nil
	default:
		return "", fmt.Errorf("unknown environment %q", raw)
	}
}

type ReadingLevel string

const (
	ReadingBasic        ReadingLevel = "basic"
	ReadingIntermediate ReadingLevel = "intermediate"
	ReadingAdvanced     ReadingLevel = "advanced"
)

// Tier is the mastery tier assumed for a learner with no recorded topic mastery.
func (r ReadingLevel) Tier() int {
	switch r {
	case ReadingBasic:
		return 2
	case ReadingAdvanced:
		return 4
	default:
		return 3
	}
}

func ParseReadingLevel(raw string) (ReadingLevel, error) {
	switch r := ReadingLevel(normalize(raw)); r {
	case ReadingBasic, ReadingIntermediate, ReadingAdvanced:
		return r, nil
	default:
		return "", fmt.Errorf("unknown reading level %q", raw)
	}
}

// RequirementType names the metric an achievement threshold is compared against.
type RequirementType string

const (
	RequirementCurrentStreak            RequirementType = "current_streak"
	RequirementLongestStreak            RequirementType = "longest_streak"
	RequirementStudySessions            RequirementType = "study_sessions"
	RequirementToolUses                 RequirementType = "tool_uses"
	RequirementDistinctTools            RequirementType = "distinct_tools"
	RequirementRecommendationsCompleted RequirementType = "recommendations_completed"
	RequirementInsightsAccepted         RequirementType = "insights_accepted"
	RequirementQuizzesCompleted         RequirementType = "quizzes_completed"
	RequirementContentUploaded          RequirementType = "content_uploaded"
	RequirementMessagesSent             RequirementType = "messages_sent"
)

// ServerComputed reports whether the metric is derived by this service rather than
// reported by a collaborator.
func (r RequirementType) ServerComputed() bool {
	switch r {
	case RequirementCurrentStreak, RequirementLongestStreak, RequirementStudySessions,
		RequirementToolUses, RequirementDistinctTools, RequirementRecommendationsCompleted,
		RequirementInsightsAccepted:
		return true
	default:
		return false
	}
}

func ParseRequirementType(raw string) (RequirementType, error) {
	switch r := RequirementType(normalize(raw)); r {
	case RequirementCurrentStreak, RequirementLongestStreak, RequirementStudySessions,
		RequirementToolUses, RequirementDistinctTools, RequirementRecommendationsCompleted,
		RequirementInsightsAccepted, RequirementQuizzesCompleted, RequirementContentUploaded,
		RequirementMessagesSent:
		return r, nil
	default:
		return "", fmt.Errorf("unknown requirement type %q", raw)
	}
}

func normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
