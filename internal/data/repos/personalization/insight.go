package personalization

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/neurobridge-personalization/internal/domain"
	"github.com/yungbote/neurobridge-personalization/internal/domain/personalization"
	"github.com/yungbote/neurobridge-personalization/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-personalization/internal/platform/logger"
)

type AdaptiveInsightRepo interface {
	Create(dbc dbctx.Context, rows []*types.AdaptiveInsight) ([]*types.AdaptiveInsight, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.AdaptiveInsight, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.AdaptiveInsight, error)
	ListPresentable(dbc dbctx.Context, userID uuid.UUID, minConfidence float64) ([]*types.AdaptiveInsight, error)
	// RefreshStats overwrites the statistics of a row that is still unpresented and pending.
	RefreshStats(dbc dbctx.Context, row *types.AdaptiveInsight) (bool, error)
	MarkPresented(dbc dbctx.Context, ids []uuid.UUID, at time.Time) (int64, error)
	SetResponse(dbc dbctx.Context, id uuid.UUID, response types.InsightResponse, at time.Time) (bool, error)
	CountByUserAndResponse(dbc dbctx.Context, userID uuid.UUID, response types.InsightResponse) (int64, error)
}

type adaptiveInsightRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAdaptiveInsightRepo(db *gorm.DB, baseLog *logger.Logger) AdaptiveInsightRepo {
	return &adaptiveInsightRepo{db: db, log: baseLog.With("repo", "AdaptiveInsightRepo")}
}

func (r *adaptiveInsightRepo) Create(dbc dbctx.Context, rows []*types.AdaptiveInsight) ([]*types.AdaptiveInsight, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.AdaptiveInsight{}, nil
	}
	for _, row := range rows {
		if row != nil && row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *adaptiveInsightRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.AdaptiveInsight, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.AdaptiveInsight
	if err := transaction.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *adaptiveInsightRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.AdaptiveInsight, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.AdaptiveInsight
	if userID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("insight_type ASC").Order("bucket_key ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *adaptiveInsightRepo) ListPresentable(dbc dbctx.Context, userID uuid.UUID, minConfidence float64) ([]*types.AdaptiveInsight, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.AdaptiveInsight
	if userID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ? AND presented = ? AND response = ? AND confidence >= ?",
			userID, false, personalization.InsightPending, minConfidence).
		Order("confidence DESC").Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *adaptiveInsightRepo) RefreshStats(dbc dbctx.Context, row *types.AdaptiveInsight) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil || row.ID == uuid.Nil {
		return false, nil
	}
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.AdaptiveInsight{}).
		Where("id = ? AND presented = ? AND response = ?", row.ID, false, personalization.InsightPending).
		Updates(map[string]interface{}{
			"title":        row.Title,
			"message":      row.Message,
			"confidence":   row.Confidence,
			"priority":     row.Priority,
			"sample_count": row.SampleCount,
			"bucket_mean":  row.BucketMean,
			"overall_mean": row.OverallMean,
			"deviation":    row.Deviation,
			"evidence":     row.Evidence,
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *adaptiveInsightRepo) MarkPresented(dbc dbctx.Context, ids []uuid.UUID, at time.Time) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return 0, nil
	}
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.AdaptiveInsight{}).
		Where("id IN ? AND presented = ?", ids, false).
		Updates(map[string]interface{}{
			"presented":    true,
			"presented_at": at,
			"updated_at":   at,
		})
	return res.RowsAffected, res.Error
}

// SetResponse records the learner's answer once; later calls do not change it.
func (r *adaptiveInsightRepo) SetResponse(dbc dbctx.Context, id uuid.UUID, response types.InsightResponse, at time.Time) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.AdaptiveInsight{}).
		Where("id = ? AND response = ?", id, personalization.InsightPending).
		Updates(map[string]interface{}{
			"response":     response,
			"responded_at": at,
			"updated_at":   at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *adaptiveInsightRepo) CountByUserAndResponse(dbc dbctx.Context, userID uuid.UUID, response types.InsightResponse) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.AdaptiveInsight{}).
		Where("user_id = ? AND response = ?", userID, response).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
