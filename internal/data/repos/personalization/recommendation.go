package personalization

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/neurobridge-personalization/internal/domain"
	"github.com/yungbote/neurobridge-personalization/internal/domain/personalization"
	"github.com/yungbote/neurobridge-personalization/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-personalization/internal/platform/logger"
)

type RecommendationRepo interface {
	Create(dbc dbctx.Context, rows []*types.Recommendation) ([]*types.Recommendation, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Recommendation, error)
	// ListActiveByStudent skips rows whose TTL passed at now, even before the sweep
	// deactivates them.
	ListActiveByStudent(dbc dbctx.Context, studentID uuid.UUID, includePresented bool, now time.Time) ([]*types.Recommendation, error)
	// LockActiveByStudent reads the student's active rows, row-locked where the
	// dialect supports it. Call inside a transaction.
	LockActiveByStudent(dbc dbctx.Context, studentID uuid.UUID) ([]*types.Recommendation, error)

	MarkPresented(dbc dbctx.Context, id uuid.UUID, at time.Time) (bool, error)
	MarkResponded(dbc dbctx.Context, id uuid.UUID, action types.ResponseAction, at time.Time) (bool, error)
	SetFeedback(dbc dbctx.Context, id uuid.UUID, rating int, helpful bool) (bool, error)

	Supersede(dbc dbctx.Context, ids []uuid.UUID, at time.Time) (int64, error)
	ExpireDue(dbc dbctx.Context, now time.Time) (int64, error)
	ExpireDueByStudent(dbc dbctx.Context, studentID uuid.UUID, now time.Time) (int64, error)
	ExpireUnanswered(dbc dbctx.Context, presentedBefore time.Time, now time.Time) (int64, error)

	CountByStudentAndAction(dbc dbctx.Context, studentID uuid.UUID, action types.ResponseAction) (int64, error)
}

type recommendationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecommendationRepo(db *gorm.DB, baseLog *logger.Logger) RecommendationRepo {
	return &recommendationRepo{db: db, log: baseLog.With("repo", "RecommendationRepo")}
}

func (r *recommendationRepo) Create(dbc dbctx.Context, rows []*types.Recommendation) ([]*types.Recommendation, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.Recommendation{}, nil
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

func (r *recommendationRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Recommendation, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Recommendation
	if err := transaction.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *recommendationRepo) ListActiveByStudent(dbc dbctx.Context, studentID uuid.UUID, includePresented bool, now time.Time) ([]*types.Recommendation, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Recommendation
	if studentID == uuid.Nil {
		return out, nil
	}
	q := transaction.WithContext(dbc.Ctx).
		Where("student_id = ? AND is_active = ?", studentID, true).
		Where("(responded_at IS NOT NULL OR expires_at > ?)", now)
	if !includePresented {
		q = q.Where("presented_at IS NULL")
	}
	if err := q.Order("overall_score DESC").Order("rank_position ASC").Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *recommendationRepo) LockActiveByStudent(dbc dbctx.Context, studentID uuid.UUID) ([]*types.Recommendation, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Recommendation
	q := transaction.WithContext(dbc.Ctx)
	if transaction.Dialector != nil && transaction.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.Where("student_id = ? AND is_active = ?", studentID, true).
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// MarkPresented sets presented_at on the first transition only.
func (r *recommendationRepo) MarkPresented(dbc dbctx.Context, id uuid.UUID, at time.Time) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.Recommendation{}).
		Where("id = ? AND is_active = ? AND presented_at IS NULL", id, true).
		Updates(map[string]interface{}{
			"presented_at": at,
			"version":      gorm.Expr("version + 1"),
			"updated_at":   at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkResponded moves an active, unresponded row to responded. Ignoring also
// takes the row out of the active set.
func (r *recommendationRepo) MarkResponded(dbc dbctx.Context, id uuid.UUID, action types.ResponseAction, at time.Time) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	updates := map[string]interface{}{
		"status":          personalization.StatusResponded,
		"response_action": action,
		"responded_at":    at,
		"presented_at":    gorm.Expr("COALESCE(presented_at, ?)", at),
		"version":         gorm.Expr("version + 1"),
		"updated_at":      at,
	}
	if action == personalization.ActionIgnored {
		updates["is_active"] = false
		updates["expiry_reason"] = personalization.ExpiryIgnored
		updates["expired_at"] = at
	}
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.Recommendation{}).
		Where("id = ? AND is_active = ? AND status = ? AND responded_at IS NULL", id, true, personalization.StatusActive).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *recommendationRepo) SetFeedback(dbc dbctx.Context, id uuid.UUID, rating int, helpful bool) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.Recommendation{}).
		Where("id = ? AND responded_at IS NOT NULL", id).
		Updates(map[string]interface{}{
			"feedback_rating":  rating,
			"feedback_helpful": helpful,
			"version":          gorm.Expr("version + 1"),
			"updated_at":       time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Supersede expires unresponded active rows that a regeneration replaces.
func (r *recommendationRepo) Supersede(dbc dbctx.Context, ids []uuid.UUID, at time.Time) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return 0, nil
	}
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.Recommendation{}).
		Where("id IN ? AND is_active = ? AND responded_at IS NULL", ids, true).
		Updates(map[string]interface{}{
			"is_active":     false,
			"status":        personalization.StatusExpired,
			"expiry_reason": personalization.ExpirySuperseded,
			"expired_at":    at,
			"version":       gorm.Expr("version + 1"),
			"updated_at":    at,
		})
	return res.RowsAffected, res.Error
}

// ExpireDue deactivates every active row past its TTL. Responded rows keep
// their status; only unresponded rows become expired.
func (r *recommendationRepo) ExpireDue(dbc dbctx.Context, now time.Time) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return expireDue(transaction.WithContext(dbc.Ctx), now)
}

// ExpireDueByStudent applies the TTL sweep to one student's rows.
func (r *recommendationRepo) ExpireDueByStudent(dbc dbctx.Context, studentID uuid.UUID, now time.Time) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return expireDue(transaction.WithContext(dbc.Ctx).Where("student_id = ?", studentID), now)
}

func expireDue(q *gorm.DB, now time.Time) (int64, error) {
	res := q.Model(&types.Recommendation{}).
		Where("is_active = ? AND expires_at <= ?", true, now).
		Updates(map[string]interface{}{
			"is_active":     false,
			"status":        gorm.Expr("CASE WHEN responded_at IS NULL THEN ? ELSE status END", personalization.StatusExpired),
			"expiry_reason": personalization.ExpiryTTL,
			"expired_at":    now,
			"version":       gorm.Expr("version + 1"),
			"updated_at":    now,
		})
	return res.RowsAffected, res.Error
}

// ExpireUnanswered deactivates rows presented before the cutoff that never got a response.
func (r *recommendationRepo) ExpireUnanswered(dbc dbctx.Context, presentedBefore time.Time, now time.Time) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.Recommendation{}).
		Where("is_active = ? AND responded_at IS NULL AND presented_at IS NOT NULL AND presented_at <= ?", true, presentedBefore).
		Updates(map[string]interface{}{
			"is_active":     false,
			"status":        personalization.StatusExpired,
			"expiry_reason": personalization.ExpiryUnanswered,
			"expired_at":    now,
			"version":       gorm.Expr("version + 1"),
			"updated_at":    now,
		})
	return res.RowsAffected, res.Error
}

func (r *recommendationRepo) CountByStudentAndAction(dbc dbctx.Context, studentID uuid.UUID, action types.ResponseAction) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Recommendation{}).
		Where("student_id = ? AND response_action = ?", studentID, action).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
