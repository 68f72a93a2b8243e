package personalization

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/neurobridge-personalization/internal/domain"
	"github.com/yungbote/neurobridge-personalization/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-personalization/internal/platform/logger"
)

type StudySessionRepo interface {
	Create(dbc dbctx.Context, rows []*types.StudySession) ([]*types.StudySession, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, since time.Time) ([]*types.StudySession, error)
	// CountCompletedByUser ignores sessions the learner did not finish.
	CountCompletedByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error)
}

type studySessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStudySessionRepo(db *gorm.DB, baseLog *logger.Logger) StudySessionRepo {
	return &studySessionRepo{db: db, log: baseLog.With("repo", "StudySessionRepo")}
}

func (r *studySessionRepo) Create(dbc dbctx.Context, rows []*types.StudySession) ([]*types.StudySession, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.StudySession{}, nil
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

// ListByUser returns sessions on or after since (zero means all), newest first.
func (r *studySessionRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, since time.Time) ([]*types.StudySession, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.StudySession
	if userID == uuid.Nil {
		return out, nil
	}
	q := transaction.WithContext(dbc.Ctx).Where("user_id = ?", userID)
	if !since.IsZero() {
		y, m, d := since.Date()
		q = q.Where("study_date >= ?", time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
	}
	if err := q.Order("study_date DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *studySessionRepo) CountCompletedByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.StudySession{}).
		Where("user_id = ? AND completed = ?", userID, true).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
