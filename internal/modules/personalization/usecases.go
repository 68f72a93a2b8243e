package personalization

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-personalization/internal/data/dberr"
	"github.com/yungbote/neurobridge-personalization/internal/data/repos"
	"github.com/yungbote/neurobridge-personalization/internal/modules/personalization/insights"
	"github.com/yungbote/neurobridge-personalization/internal/modules/personalization/scoring"
	"github.com/yungbote/neurobridge-personalization/internal/observability"
	"github.com/yungbote/neurobridge-personalization/internal/platform/apierr"
	"github.com/yungbote/neurobridge-personalization/internal/platform/ctxutil"
	"github.com/yungbote/neurobridge-personalization/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-personalization/internal/platform/logger"
	"github.com/yungbote/neurobridge-personalization/internal/realtime"
	"github.com/yungbote/neurobridge-personalization/internal/realtime/bus"
)

type Config struct {
	RecommendationTTL time.Duration
	// UnansweredGrace expires presented recommendations nobody answered. Zero disables it.
	UnansweredGrace time.Duration
	DefaultLimit    int
	MaxLimit        int
	// SupersedeDelta is the absolute score change that replaces an active recommendation.
	SupersedeDelta float64
	// CandidateLimit caps how many published candidates one generation scores.
	CandidateLimit  int
	TxRetries       int
	HistoryLookback time.Duration
	InsightLookback time.Duration
	Location        *time.Location
}

func DefaultConfig() Config {
	return Config{
		RecommendationTTL: 7 * 24 * time.Hour,
		UnansweredGrace:   72 * time.Hour,
		DefaultLimit:      10,
		MaxLimit:          50,
		SupersedeDelta:    0.05,
		CandidateLimit:    500,
		TxRetries:         3,
		HistoryLookback:   180 * 24 * time.Hour,
		InsightLookback:   90 * 24 * time.Hour,
		Location:          time.UTC,
	}
}

func (c Config) Validate() error {
	if c.RecommendationTTL <= 0 {
		return fmt.Errorf("recommendation ttl must be positive")
	}
	if c.UnansweredGrace < 0 {
		return fmt.Errorf("unanswered grace must be >= 0")
	}
	if c.DefaultLimit <= 0 || c.MaxLimit < c.DefaultLimit {
		return fmt.Errorf("limits must satisfy 0 < default (%d) <= max (%d)", c.DefaultLimit, c.MaxLimit)
	}
	if c.SupersedeDelta < 0 || c.SupersedeDelta > 1 {
		return fmt.Errorf("supersede delta must be in [0,1]")
	}
	if c.CandidateLimit <= 0 {
		return fmt.Errorf("candidate limit must be positive")
	}
	if c.TxRetries <= 0 {
		return fmt.Errorf("tx retries must be positive")
	}
	return nil
}

type UsecasesDeps struct {
	DB  *gorm.DB
	Log *logger.Logger

	Profiles        repos.UserProfileRepo
	Mastery         repos.TopicMasteryRepo
	Candidates      repos.ContentCandidateRepo
	Recommendations repos.RecommendationRepo
	Usage           repos.UsageEventRepo
	Sessions        repos.StudySessionRepo
	Insights        repos.AdaptiveInsightRepo
	Achievements    repos.AchievementRepo

	Scoring  *scoring.Engine
	Analyzer *insights.Analyzer

	Bus     bus.Bus
	Metrics *observability.Metrics

	Config Config
	Now    func() time.Time
}

type Usecases struct {
	deps UsecasesDeps
}

// New fills unset optional deps with defaults and validates the rest.
func New(deps UsecasesDeps) (Usecases, error) {
	if deps.DB == nil || deps.Log == nil {
		return Usecases{}, fmt.Errorf("db and logger required")
	}
	if deps.Profiles == nil || deps.Mastery == nil || deps.Candidates == nil || deps.Recommendations == nil ||
		deps.Usage == nil || deps.Sessions == nil || deps.Insights == nil || deps.Achievements == nil {
		return Usecases{}, fmt.Errorf("all personalization repos are required")
	}
	if deps.Scoring == nil {
		eng, err := scoring.New(nil)
		if err != nil {
			return Usecases{}, err
		}
		deps.Scoring = eng
	}
	if deps.Analyzer == nil {
		an, err := insights.NewAnalyzer(insights.DefaultConfig())
		if err != nil {
			return Usecases{}, err
		}
		deps.Analyzer = an
	}
	if deps.Bus == nil {
		deps.Bus = bus.NewNoopBus()
	}
	if deps.Config == (Config{}) {
		deps.Config = DefaultConfig()
	}
	if deps.Config.Location == nil {
		deps.Config.Location = time.UTC
	}
	if err := deps.Config.Validate(); err != nil {
		return Usecases{}, err
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	deps.Log = deps.Log.With("service", "PersonalizationUsecases")
	return Usecases{deps: deps}, nil
}

func (u Usecases) WithLog(log *logger.Logger) Usecases {
	u.deps.Log = log
	return u
}

func (u Usecases) Config() Config { return u.deps.Config }

func (u Usecases) now() time.Time { return u.deps.Now().UTC() }

// authorize hides other users' data behind NotFound.
func authorize(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return apierr.InvalidInput("invalid_user_id", errors.New("user id required"))
	}
	if !ctxutil.GetRequestData(ctx).CanActFor(userID) {
		return apierr.NotFound("user_not_found", fmt.Errorf("user %s not found", userID))
	}
	return nil
}

// inTx runs fn in a transaction, retrying unique and serialization conflicts.
func (u Usecases) inTx(ctx context.Context, op string, fn func(dbc dbctx.Context) error) error {
	var err error
	for attempt := 1; attempt <= u.deps.Config.TxRetries; attempt++ {
		err = u.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(dbctx.Context{Ctx: ctx, Tx: tx})
		})
		if err == nil {
			return nil
		}
		if !dberr.IsRetryable(err) {
			return err
		}
		u.deps.Log.Debug("transaction conflict, retrying", "op", op, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt*attempt) * 15 * time.Millisecond):
		}
	}
	return apierr.Conflict("concurrent_update", fmt.Errorf("%s: %w", op, err))
}

func (u Usecases) publish(ctx context.Context, userID uuid.UUID, event realtime.Event, data any) {
	msg := realtime.Message{Channel: realtime.UserChannel(userID), Event: event, Data: data}
	if err := u.deps.Bus.Publish(ctx, msg); err != nil {
		u.deps.Log.Warn("publish failed", "event", event, "user_id", userID, "error", err)
	}
}

func internal(op string, err error) error {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return apierr.Internal(op+"_failed", fmt.Errorf("%s: %w", op, err))
}
