package personalization

import (
	"time"

	"github.com/google/uuid"
)

// Achievement is a static unlock definition seeded from the catalog.
type Achievement struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Code             string          `gorm:"column:code;not null;uniqueIndex" json:"code"`
	Name             string          `gorm:"column:name;not null" json:"name"`
	Description      string          `gorm:"column:description" json:"description,omitempty"`
	Category         string          `gorm:"column:category" json:"category,omitempty"`
	RequirementType  RequirementType `gorm:"column:requirement_type;not null;index" json:"requirement_type"`
	RequirementValue int64           `gorm:"column:requirement_value;not null" json:"requirement_value"`
	Points           int             `gorm:"column:points;not null;default:0" json:"points"`
	Active           bool            `gorm:"column:active;not null" json:"active"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Achievement) TableName() string { return "achievement" }

// UnlockedAchievement records that a user met an achievement. One row per pair.
type UnlockedAchievement struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index:idx_unlocked_achievement,unique,priority:1" json:"user_id"`
	AchievementID uuid.UUID `gorm:"type:uuid;not null;index:idx_unlocked_achievement,unique,priority:2" json:"achievement_id"`

	Achievement *Achievement `gorm:"foreignKey:AchievementID;constraint:OnDelete:CASCADE" json:"achievement,omitempty"`

	MetricValue int64      `gorm:"column:metric_value;not null;default:0" json:"metric_value"`
	UnlockedAt  time.Time  `gorm:"column:unlocked_at;not null" json:"unlocked_at"`
	IsNew       bool       `gorm:"column:is_new;not null" json:"is_new"`
	ViewedAt    *time.Time `gorm:"column:viewed_at" json:"viewed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (UnlockedAchievement) TableName() string { return "unlocked_achievement" }
