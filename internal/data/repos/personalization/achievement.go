package personalization

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/neurobridge-personalization/internal/domain"
	"github.com/yungbote/neurobridge-personalization/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-personalization/internal/platform/logger"
)

type AchievementRepo interface {
	// UpsertDefinitions seeds the catalog keyed by code.
	UpsertDefinitions(dbc dbctx.Context, rows []*types.Achievement) error
	ListActive(dbc dbctx.Context) ([]*types.Achievement, error)

	ListUnlockedByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.UnlockedAchievement, error)
	// Unlock inserts the (user, achievement) row unless it already exists and
	// reports whether this call created it.
	Unlock(dbc dbctx.Context, row *types.UnlockedAchievement) (bool, error)
	MarkViewed(dbc dbctx.Context, userID uuid.UUID, achievementIDs []uuid.UUID, at time.Time) (int64, error)
}

type achievementRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAchievementRepo(db *gorm.DB, baseLog *logger.Logger) AchievementRepo {
	return &achievementRepo{db: db, log: baseLog.With("repo", "AchievementRepo")}
}

func (r *achievementRepo) UpsertDefinitions(dbc dbctx.Context, rows []*types.Achievement) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row != nil && row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		row.UpdatedAt = now
	}
	if err := transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name",
				"description",
				"category",
				"requirement_type",
				"requirement_value",
				"points",
				"active",
				"updated_at",
			}),
		}).
		Create(&rows).Error; err != nil {
		return err
	}
	return nil
}

func (r *achievementRepo) ListActive(dbc dbctx.Context) ([]*types.Achievement, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Achievement
	if err := transaction.WithContext(dbc.Ctx).
		Where("active = ?", true).
		Order("points DESC").Order("code ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *achievementRepo) ListUnlockedByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.UnlockedAchievement, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.UnlockedAchievement
	if userID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Preload("Achievement").
		Where("user_id = ?", userID).
		Order("unlocked_at DESC").Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *achievementRepo) Unlock(dbc dbctx.Context, row *types.UnlockedAchievement) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil || row.UserID == uuid.Nil || row.AchievementID == uuid.Nil {
		return false, nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.UnlockedAt.IsZero() {
		row.UnlockedAt = time.Now().UTC()
	}
	res := transaction.WithContext(dbc.Ctx).
		Omit("Achievement").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "achievement_id"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkViewed clears the new badge. An empty id list clears every unviewed row.
func (r *achievementRepo) MarkViewed(dbc dbctx.Context, userID uuid.UUID, achievementIDs []uuid.UUID, at time.Time) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).
		Model(&types.UnlockedAchievement{}).
		Where("user_id = ? AND is_new = ?", userID, true)
	if len(achievementIDs) > 0 {
		q = q.Where("achievement_id IN ?", achievementIDs)
	}
	res := q.Updates(map[string]interface{}{
		"is_new":    false,
		"viewed_at": at,
	})
	return res.RowsAffected, res.Error
}
