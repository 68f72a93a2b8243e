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

type UsageEventRepo interface {
	// Append inserts events, skipping any (user, client event id) already stored.
	// Returns the number of rows actually inserted.
	Append(dbc dbctx.Context, rows []*types.UsageEvent) (int64, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, since time.Time) ([]*types.UsageEvent, error)
	ListActiveUserIDs(dbc dbctx.Context, since time.Time, limit int) ([]uuid.UUID, error)
	CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error)
	CountDistinctTools(dbc dbctx.Context, userID uuid.UUID) (int64, error)
	ActivityTimes(dbc dbctx.Context, userID uuid.UUID, since time.Time) ([]time.Time, error)
}

type usageEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUsageEventRepo(db *gorm.DB, baseLog *logger.Logger) UsageEventRepo {
	return &usageEventRepo{db: db, log: baseLog.With("repo", "UsageEventRepo")}
}

func (r *usageEventRepo) Append(dbc dbctx.Context, rows []*types.UsageEvent) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return 0, nil
	}
	for _, row := range rows {
		if row == nil {
			continue
		}
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		if row.ClientEventID == "" {
			row.ClientEventID = row.ID.String()
		}
	}
	res := transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "client_event_id"}},
			DoNothing: true,
		}).
		Create(&rows)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// ListByUser returns the user's events in chronological order.
func (r *usageEventRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, since time.Time) ([]*types.UsageEvent, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.UsageEvent
	if userID == uuid.Nil {
		return out, nil
	}
	q := transaction.WithContext(dbc.Ctx).Where("user_id = ?", userID)
	if !since.IsZero() {
		q = q.Where("occurred_at >= ?", since.UTC())
	}
	if err := q.Order("occurred_at ASC").Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListActiveUserIDs returns users with at least one event since the cutoff.
func (r *usageEventRepo) ListActiveUserIDs(dbc dbctx.Context, since time.Time, limit int) ([]uuid.UUID, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []uuid.UUID
	q := transaction.WithContext(dbc.Ctx).
		Model(&types.UsageEvent{}).
		Distinct("user_id").
		Where("occurred_at >= ?", since.UTC()).
		Order("user_id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Pluck("user_id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *usageEventRepo) CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.UsageEvent{}).
		Where("user_id = ?", userID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *usageEventRepo) CountDistinctTools(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.UsageEvent{}).
		Where("user_id = ?", userID).
		Distinct("tool_name").
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *usageEventRepo) ActivityTimes(dbc dbctx.Context, userID uuid.UUID, since time.Time) ([]time.Time, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []time.Time
	q := transaction.WithContext(dbc.Ctx).
		Model(&types.UsageEvent{}).
		Where("user_id = ?", userID)
	if !since.IsZero() {
		q = q.Where("occurred_at >= ?", since.UTC())
	}
	if err := q.Order("occurred_at DESC").Pluck("occurred_at", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
