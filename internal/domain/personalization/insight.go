package personalization

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PresentationThreshold is the minimum confidence for an insight to be shown.
const PresentationThreshold = 0.8

// AdaptiveInsight is a detected behavioral pattern for one user and bucket.
type AdaptiveInsight struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID   `gorm:"type:uuid;not null;index;index:idx_insight_bucket,unique,priority:1" json:"user_id"`
	InsightType InsightType `gorm:"column:insight_type;not null;index:idx_insight_bucket,unique,priority:2" json:"insight_type"`
	BucketKey   string      `gorm:"column:bucket_key;not null;index:idx_insight_bucket,unique,priority:3" json:"bucket_key"`

	Title   string `gorm:"column:title;not null" json:"title"`
	Message string `gorm:"column:message;not null" json:"message"`

	Confidence  float64  `gorm:"column:confidence;not null;default:0" json:"confidence"`
	Priority    Priority `gorm:"column:priority;not null;default:'low'" json:"priority"`
	SampleCount int      `gorm:"column:sample_count;not null;default:0" json:"sample_count"`
	BucketMean  float64  `gorm:"column:bucket_mean;not null;default:0" json:"bucket_mean"`
	OverallMean float64  `gorm:"column:overall_mean;not null;default:0" json:"overall_mean"`
	Deviation   float64  `gorm:"column:deviation;not null;default:0" json:"deviation"`

	Evidence datatypes.JSON `gorm:"column:evidence" json:"evidence,omitempty"`

	Response    InsightResponse `gorm:"column:response;not null;default:'pending'" json:"response"`
	RespondedAt *time.Time      `gorm:"column:responded_at" json:"responded_at,omitempty"`
	Presented   bool            `gorm:"column:presented;not null;default:false" json:"presented"`
	PresentedAt *time.Time      `gorm:"column:presented_at" json:"presented_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (AdaptiveInsight) TableName() string { return "adaptive_insight" }

// ShouldPresent gates which insights reach the learner.
func (i *AdaptiveInsight) ShouldPresent() bool {
	return i != nil && !i.Presented && i.Confidence >= PresentationThreshold && i.Response == InsightPending
}

// Refreshable reports whether re-analysis may overwrite the row's statistics.
func (i *AdaptiveInsight) Refreshable() bool {
	return i != nil && !i.Presented && i.Response == InsightPending
}
