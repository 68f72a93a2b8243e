package personalization

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/neurobridge-personalization/internal/domain"
	"github.com/yungbote/neurobridge-personalization/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-personalization/internal/platform/logger"
)

// ErrStaleVersion is returned when an update raced with another writer.
var ErrStaleVersion = errors.New("stale version")

type UserProfileRepo interface {
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.UserProfile, error)
	GetOrCreate(dbc dbctx.Context, userID uuid.UUID) (*types.UserProfile, error)
	Supersede(dbc dbctx.Context, row *types.UserProfile) error
}

type userProfileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserProfileRepo(db *gorm.DB, baseLog *logger.Logger) UserProfileRepo {
	return &userProfileRepo{db: db, log: baseLog.With("repo", "UserProfileRepo")}
}

func (r *userProfileRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.UserProfile, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	var row types.UserProfile
	if err := t.WithContext(dbc.Ctx).Where("user_id = ?", userID).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

// GetOrCreate returns the stored profile, inserting defaults on first access.
// Concurrent first reads converge on a single row.
func (r *userProfileRepo) GetOrCreate(dbc dbctx.Context, userID uuid.UUID) (*types.UserProfile, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return nil, errors.New("user id required")
	}
	existing, err := r.GetByUserID(dbc, userID)
	if err != nil || existing != nil {
		return existing, err
	}
	row := types.DefaultUserProfile(userID)
	row.ID = uuid.New()
	if err := t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(row).Error; err != nil {
		return nil, err
	}
	return r.GetByUserID(dbc, userID)
}

// Supersede overwrites the profile in place when row.Version still matches the
// stored version, then bumps it. Returns ErrStaleVersion otherwise.
func (r *userProfileRepo) Supersede(dbc dbctx.Context, row *types.UserProfile) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.UserID == uuid.Nil {
		return errors.New("profile with user id required")
	}
	now := time.Now().UTC()
	res := t.WithContext(dbc.Ctx).
		Model(&types.UserProfile{}).
		Where("user_id = ? AND version = ?", row.UserID, row.Version).
		Updates(map[string]interface{}{
			"hyperfocus_intensity":     row.HyperfocusIntensity,
			"attention_flexibility":    row.AttentionFlexibility,
			"sustained_attention":      row.SustainedAttention,
			"sensory_regulation":       row.SensoryRegulation,
			"executive_function":       row.ExecutiveFunction,
			"reading_fluency":          row.ReadingFluency,
			"working_memory":           row.WorkingMemory,
			"processing_speed":         row.ProcessingSpeed,
			"social_communication":     row.SocialCommunication,
			"visual_processing":        row.VisualProcessing,
			"preferred_session_length": row.PreferredSessionLength,
			"preferred_environment":    row.PreferredEnvironment,
			"reading_level":            row.ReadingLevel,
			"preferred_subjects":       row.PreferredSubjects,
			"assessed":                 row.Assessed,
			"version":                  gorm.Expr("version + 1"),
			"updated_at":               now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleVersion
	}
	row.Version++
	row.UpdatedAt = now
	return nil
}
