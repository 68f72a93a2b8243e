package personalization

import (
	"time"

	"github.com/google/uuid"
)

// ContentCandidate is the catalog's read model of a piece of learning material.
// Accessibility flags are tri-state: nil means the item was never classified.
type ContentCandidate struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string          `gorm:"column:title;not null" json:"title"`
	SubjectArea string          `gorm:"column:subject_area;not null;index" json:"subject_area"`
	Difficulty  DifficultyLevel `gorm:"column:difficulty;not null;default:3" json:"difficulty"`
	Format      ContentFormat   `gorm:"column:format;not null;default:'text'" json:"format"`

	EstimatedMinutes int  `gorm:"column:estimated_minutes;not null;default:0" json:"estimated_minutes"`
	Published        bool `gorm:"column:published;not null;default:false;index" json:"published"`

	DyslexiaFriendly *bool `gorm:"column:dyslexia_friendly" json:"dyslexia_friendly,omitempty"`
	ADHDFriendly     *bool `gorm:"column:adhd_friendly" json:"adhd_friendly,omitempty"`
	AutismFriendly   *bool `gorm:"column:autism_friendly" json:"autism_friendly,omitempty"`

	SuccessRate   float64 `gorm:"column:success_rate;not null;default:0" json:"success_rate"`
	RatingAverage float64 `gorm:"column:rating_average;not null;default:0" json:"rating_average"`
	SampleSize    int     `gorm:"column:sample_size;not null;default:0" json:"sample_size"`
	ViewCount     int64   `gorm:"column:view_count;not null;default:0" json:"view_count"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (ContentCandidate) TableName() string { return "content_candidate" }

// AccessibilityClassified reports whether any accessibility flag was ever set.
func (c *ContentCandidate) AccessibilityClassified() bool {
	return c != nil && (c.DyslexiaFriendly != nil || c.ADHDFriendly != nil || c.AutismFriendly != nil)
}
