package personalization

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// UsageEvent is one append-only tool usage record.
type UsageEvent struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index;index:idx_usage_event_client,unique,priority:1" json:"user_id"`

	// ClientEventID makes ingestion idempotent per user.
	ClientEventID string `gorm:"column:client_event_id;not null;index:idx_usage_event_client,unique,priority:2" json:"client_event_id"`

	ToolName   string    `gorm:"column:tool_name;not null;index" json:"tool_name"`
	Kind       UsageKind `gorm:"column:kind;not null;default:'used'" json:"kind"`
	OccurredAt time.Time `gorm:"column:occurred_at;not null;index" json:"occurred_at"`
	TimeOfDay  TimeOfDay `gorm:"column:time_of_day;not null" json:"time_of_day"`
	Weekday    int       `gorm:"column:weekday;not null" json:"weekday"`

	// EnergyLevel is 1-10; 0 means not reported.
	EnergyLevel     int    `gorm:"column:energy_level;not null;default:0" json:"energy_level"`
	SessionID       string `gorm:"column:session_id;index" json:"session_id,omitempty"`
	DurationSeconds int    `gorm:"column:duration_seconds;not null;default:0" json:"duration_seconds"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (UsageEvent) TableName() string { return "usage_event" }

// StudySession is one day's study activity for a user.
type StudySession struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_study_session_user_date,priority:1" json:"user_id"`
	StudyDate datatypes.Date `gorm:"column:study_date;not null;index:idx_study_session_user_date,priority:2" json:"study_date"`
	Subject   string         `gorm:"column:subject" json:"subject,omitempty"`
	Minutes   int            `gorm:"column:minutes;not null;default:0" json:"minutes"`
	Completed bool           `gorm:"column:completed;not null;default:false" json:"completed"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (StudySession) TableName() string { return "study_session" }

// Day returns the study date as a UTC midnight.
func (s *StudySession) Day() time.Time {
	y, m, d := time.Time(s.StudyDate).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
