package personalization

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Recommendation pairs a student with a content candidate.
// At most one row per (student, content) may have IsActive set; a partial
// unique index (see data/db.EnsurePersonalizationIndexes) enforces it.
type Recommendation struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;index" json:"student_id"`
	ContentID uuid.UUID `gorm:"type:uuid;not null;index" json:"content_id"`

	Confidence         float64 `gorm:"column:confidence;not null;default:0" json:"confidence"`
	Relevance          float64 `gorm:"column:relevance;not null;default:0" json:"relevance"`
	AccessibilityMatch float64 `gorm:"column:accessibility_match;not null;default:0" json:"accessibility_match"`
	LearningStyleMatch float64 `gorm:"column:learning_style_match;not null;default:0" json:"learning_style_match"`
	DifficultyMatch    float64 `gorm:"column:difficulty_match;not null;default:0" json:"difficulty_match"`
	SuccessPrediction  float64 `gorm:"column:success_prediction;not null;default:0" json:"success_prediction"`
	OverallScore       float64 `gorm:"column:overall_score;not null;default:0;index" json:"overall_score"`

	Status    RecommendationStatus `gorm:"column:status;not null;default:'active';index" json:"status"`
	IsActive  bool                 `gorm:"column:is_active;not null;index" json:"is_active"`
	Priority  Priority             `gorm:"column:priority;not null;default:'low'" json:"priority"`
	Rank      int                  `gorm:"column:rank_position;not null;default:0" json:"rank"`
	Reasoning datatypes.JSON       `gorm:"column:reasoning" json:"reasoning"`

	GeneratedAt time.Time  `gorm:"column:generated_at;not null;index" json:"generated_at"`
	ExpiresAt   time.Time  `gorm:"column:expires_at;not null;index" json:"expires_at"`
	PresentedAt *time.Time `gorm:"column:presented_at;index" json:"presented_at,omitempty"`
	RespondedAt *time.Time `gorm:"column:responded_at" json:"responded_at,omitempty"`
	ExpiredAt   *time.Time `gorm:"column:expired_at" json:"expired_at,omitempty"`

	ResponseAction ResponseAction `gorm:"column:response_action" json:"response_action,omitempty"`
	ExpiryReason   ExpiryReason   `gorm:"column:expiry_reason" json:"expiry_reason,omitempty"`

	FeedbackRating  *int  `gorm:"column:feedback_rating" json:"feedback_rating,omitempty"`
	FeedbackHelpful *bool `gorm:"column:feedback_helpful" json:"feedback_helpful,omitempty"`

	Version int `gorm:"column:version;not null;default:1" json:"version"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Recommendation) TableName() string { return "recommendation" }

func (r *Recommendation) Responded() bool { return r != nil && r.RespondedAt != nil }

func (r *Recommendation) Presented() bool { return r != nil && r.PresentedAt != nil }

// Expired reports whether the row is no longer actionable at now.
func (r *Recommendation) Expired(now time.Time) bool {
	if r == nil {
		return true
	}
	if r.Status == StatusExpired {
		return true
	}
	return !r.Responded() && !r.ExpiresAt.After(now)
}
