package personalization

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/neurobridge-personalization/internal/domain"
	"github.com/yungbote/neurobridge-personalization/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-personalization/internal/platform/logger"
)

type ContentCandidateFilter struct {
	SubjectAreas []string
	Limit        int
}

type ContentCandidateRepo interface {
	Create(dbc dbctx.Context, rows []*types.ContentCandidate) ([]*types.ContentCandidate, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.ContentCandidate, error)
	ListPublished(dbc dbctx.Context, filter ContentCandidateFilter) ([]*types.ContentCandidate, error)
	IncrementViewCount(dbc dbctx.Context, id uuid.UUID) error
}

type contentCandidateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContentCandidateRepo(db *gorm.DB, baseLog *logger.Logger) ContentCandidateRepo {
	return &contentCandidateRepo{db: db, log: baseLog.With("repo", "ContentCandidateRepo")}
}

func (r *contentCandidateRepo) Create(dbc dbctx.Context, rows []*types.ContentCandidate) ([]*types.ContentCandidate, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.ContentCandidate{}, nil
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

func (r *contentCandidateRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.ContentCandidate, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ContentCandidate
	if len(ids) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListPublished returns published candidates, newest first.
func (r *contentCandidateRepo) ListPublished(dbc dbctx.Context, filter ContentCandidateFilter) ([]*types.ContentCandidate, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ContentCandidate
	q := transaction.WithContext(dbc.Ctx).
		Where("published = ?", true)
	if len(filter.SubjectAreas) > 0 {
		q = q.Where("subject_area IN ?", filter.SubjectAreas)
	}
	q = q.Order("created_at DESC").Order("id ASC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *contentCandidateRepo) IncrementViewCount(dbc dbctx.Context, id uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.ContentCandidate{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error
}
