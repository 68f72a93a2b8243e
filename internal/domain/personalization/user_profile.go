package personalization

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	// DefaultTraitScore is the midpoint every trait starts at before an assessment.
	DefaultTraitScore = 5.0
	// NeedThreshold is the trait score below which a support need is significant.
	NeedThreshold = 4.0
)

// UserProfile is the learner's trait vector on a 0-10 scale where higher means
// stronger. Rows are superseded in place (Version bumps), never deleted.
type UserProfile struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`

	HyperfocusIntensity  float64 `gorm:"column:hyperfocus_intensity;not null" json:"hyperfocus_intensity"`
	AttentionFlexibility float64 `gorm:"column:attention_flexibility;not null" json:"attention_flexibility"`
	SustainedAttention   float64 `gorm:"column:sustained_attention;not null" json:"sustained_attention"`
	SensoryRegulation    float64 `gorm:"column:sensory_regulation;not null" json:"sensory_regulation"`
	ExecutiveFunction    float64 `gorm:"column:executive_function;not null" json:"executive_function"`
	ReadingFluency       float64 `gorm:"column:reading_fluency;not null" json:"reading_fluency"`
	WorkingMemory        float64 `gorm:"column:working_memory;not null" json:"working_memory"`
	ProcessingSpeed      float64 `gorm:"column:processing_speed;not null" json:"processing_speed"`
	SocialCommunication  float64 `gorm:"column:social_communication;not null" json:"social_communication"`
	VisualProcessing     float64 `gorm:"column:visual_processing;not null" json:"visual_processing"`

	PreferredSessionLength SessionLength  `gorm:"column:preferred_session_length;not null" json:"preferred_session_length"`
	PreferredEnvironment   Environment    `gorm:"column:preferred_environment;not null" json:"preferred_environment"`
	ReadingLevel           ReadingLevel   `gorm:"column:reading_level;not null" json:"reading_level"`
	PreferredSubjects      datatypes.JSON `gorm:"column:preferred_subjects" json:"preferred_subjects"`

	// Assessed is false while the row only holds defaults.
	Assessed bool `gorm:"column:assessed;not null;default:false" json:"assessed"`
	Version  int  `gorm:"column:version;not null;default:1" json:"version"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (UserProfile) TableName() string { return "user_profile" }

// DefaultUserProfile returns the profile assumed for a learner with no assessment.
func DefaultUserProfile(userID uuid.UUID) *UserProfile {
	return &UserProfile{
		UserID:                 userID,
		HyperfocusIntensity:    DefaultTraitScore,
		AttentionFlexibility:   DefaultTraitScore,
		SustainedAttention:     DefaultTraitScore,
		SensoryRegulation:      DefaultTraitScore,
		ExecutiveFunction:      DefaultTraitScore,
		ReadingFluency:         DefaultTraitScore,
		WorkingMemory:          DefaultTraitScore,
		ProcessingSpeed:        DefaultTraitScore,
		SocialCommunication:    DefaultTraitScore,
		VisualProcessing:       DefaultTraitScore,
		PreferredSessionLength: SessionMedium,
		PreferredEnvironment:   EnvironmentQuiet,
		ReadingLevel:           ReadingIntermediate,
		PreferredSubjects:      datatypes.JSON([]byte("[]")),
		Version:                1,
	}
}

func (p *UserProfile) HasSignificantReadingNeeds() bool {
	return p != nil && p.ReadingFluency < NeedThreshold
}

func (p *UserProfile) HasSignificantAttentionNeeds() bool {
	return p != nil && p.SustainedAttention < NeedThreshold
}

func (p *UserProfile) HasSignificantSensoryNeeds() bool {
	return p != nil && (p.SensoryRegulation < NeedThreshold || p.SocialCommunication < NeedThreshold)
}

// Subjects decodes PreferredSubjects, lower-cased. Malformed JSON reads as no preference.
func (p *UserProfile) Subjects() []string {
	if p == nil || len(p.PreferredSubjects) == 0 {
		return nil
	}
	var raw []string
	if err := json.Unmarshal(p.PreferredSubjects, &raw); err != nil {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Traits returns the ten dimensions keyed by column name.
func (p *UserProfile) Traits() map[string]float64 {
	return map[string]float64{
		"hyperfocus_intensity":  p.HyperfocusIntensity,
		"attention_flexibility": p.AttentionFlexibility,
		"sustained_attention":   p.SustainedAttention,
		"sensory_regulation":    p.SensoryRegulation,
		"executive_function":    p.ExecutiveFunction,
		"reading_fluency":       p.ReadingFluency,
		"working_memory":        p.WorkingMemory,
		"processing_speed":      p.ProcessingSpeed,
		"social_communication":  p.SocialCommunication,
		"visual_processing":     p.VisualProcessing,
	}
}

// TopicMastery is the learner's mastery of one subject area in [0,1].
type TopicMastery struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index:idx_topic_mastery,unique,priority:1" json:"user_id"`
	Topic  string    `gorm:"column:topic;not null;index:idx_topic_mastery,unique,priority:2" json:"topic"`

	Mastery    float64 `gorm:"column:mastery;not null;default:0" json:"mastery"`
	Confidence float64 `gorm:"column:confidence;not null;default:0" json:"confidence"`

	LastObservedAt *time.Time `gorm:"column:last_observed_at" json:"last_observed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (TopicMastery) TableName() string { return "topic_mastery" }

// Tier maps mastery onto the 1-5 difficulty scale.
func (m *TopicMastery) Tier() int {
	v := m.Mastery
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return 1 + int(v*4+0.5)
}
