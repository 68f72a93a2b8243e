package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/neurobridge-personalization/internal/modules/personalization"
	"github.com/yungbote/neurobridge-personalization/internal/platform/ctxutil"
	"github.com/yungbote/neurobridge-personalization/internal/platform/logger"
)

// Personalization is the slice of the personalization use cases the batch jobs drive.
type Personalization interface {
	ExpireDue(ctx context.Context) (personalization.ExpireResult, error)
	ActiveUsers(ctx context.Context, window time.Duration, limit int) ([]uuid.UUID, error)
	RefreshUser(ctx context.Context, userID uuid.UUID) error
}

type ExpirySweep struct {
	log      *logger.Logger
	uc       Personalization
	interval time.Duration
}

func NewExpirySweep(baseLog *logger.Logger, uc Personalization, interval time.Duration) *ExpirySweep {
	return &ExpirySweep{log: baseLog.With("job", "recommendation_expiry"), uc: uc, interval: interval}
}

func (j *ExpirySweep) Name() string            { return "recommendation_expiry" }
func (j *ExpirySweep) Interval() time.Duration { return j.interval }

func (j *ExpirySweep) Run(ctx context.Context) error {
	res, err := j.uc.ExpireDue(ctxutil.AsService(ctx))
	if err != nil {
		return err
	}
	if res.TTL > 0 || res.Unanswered > 0 {
		j.log.Info("recommendations expired", "ttl", res.TTL, "unanswered", res.Unanswered)
	}
	return nil
}

type BatchConfig struct {
	Interval     time.Duration
	ActiveWindow time.Duration
	MaxUsers     int
	Concurrency  int
}

// InsightBatch re-analyzes usage and re-checks achievements for recently active
// users. A failure for one user is logged and does not stop the others.
type InsightBatch struct {
	log *logger.Logger
	uc  Personalization
	cfg BatchConfig
}

func NewInsightBatch(baseLog *logger.Logger, uc Personalization, cfg BatchConfig) *InsightBatch {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.ActiveWindow <= 0 {
		cfg.ActiveWindow = 24 * time.Hour
	}
	return &InsightBatch{log: baseLog.With("job", "insight_batch"), uc: uc, cfg: cfg}
}

func (j *InsightBatch) Name() string            { return "insight_batch" }
func (j *InsightBatch) Interval() time.Duration { return j.cfg.Interval }

type BatchResult struct {
	Users  int
	Failed int
}

func (j *InsightBatch) Run(ctx context.Context) error {
	_, err := j.RunBatch(ctx)
	return err
}

func (j *InsightBatch) RunBatch(ctx context.Context) (BatchResult, error) {
	ctx = ctxutil.AsService(ctx)
	users, err := j.uc.ActiveUsers(ctx, j.cfg.ActiveWindow, j.cfg.MaxUsers)
	if err != nil {
		return BatchResult{}, err
	}

	var failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.cfg.Concurrency)
	for _, userID := range users {
		userID := userID
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			if err := j.uc.RefreshUser(gctx, userID); err != nil {
				failed.Add(1)
				j.log.Warn("user refresh failed", append(ctxutil.TraceFrom(gctx).Fields(), "user_id", userID, "error", err)...)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BatchResult{Users: len(users), Failed: int(failed.Load())}, err
	}
	res := BatchResult{Users: len(users), Failed: int(failed.Load())}
	j.log.Info("insight batch finished", append(ctxutil.TraceFrom(ctx).Fields(), "users", res.Users, "failed", res.Failed)...)
	return res, nil
}
