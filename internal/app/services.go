package app

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-personalization/internal/jobs/worker"
	"github.com/yungbote/neurobridge-personalization/internal/modules/personalization"
	"github.com/yungbote/neurobridge-personalization/internal/modules/personalization/insights"
	"github.com/yungbote/neurobridge-personalization/internal/modules/personalization/scoring"
	"github.com/yungbote/neurobridge-personalization/internal/observability"
	"github.com/yungbote/neurobridge-personalization/internal/platform/logger"
	"github.com/yungbote/neurobridge-personalization/internal/realtime/bus"
)

type Services struct {
	Bus          bus.Bus
	Metrics      *observability.Metrics
	Usecases     personalization.Usecases
	ExpirySweep  *worker.ExpirySweep
	InsightBatch *worker.InsightBatch
	JobWorker    *worker.Worker
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos) (Services, error) {
	log.Info("Wiring services...")

	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.Init(log)
	}

	notify := bus.NewNoopBus()
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		b, err := bus.NewRedisBus(log, bus.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Channel:  cfg.RedisChannel,
		})
		if err != nil {
			return Services{}, fmt.Errorf("init redis bus: %w", err)
		}
		notify = b
	}

	scoringCfg, err := loadScoringConfig(cfg.ScoringConfigPath)
	if err != nil {
		return Services{}, err
	}
	engine, err := scoring.New(scoringCfg)
	if err != nil {
		return Services{}, fmt.Errorf("init scoring engine: %w", err)
	}

	analyzerCfg := insights.DefaultConfig()
	analyzerCfg.MinSamples = cfg.InsightMinSamples
	analyzer, err := insights.NewAnalyzer(analyzerCfg)
	if err != nil {
		return Services{}, fmt.Errorf("init insight analyzer: %w", err)
	}

	ucCfg := personalization.DefaultConfig()
	ucCfg.RecommendationTTL = cfg.RecommendationTTL
	ucCfg.UnansweredGrace = cfg.RecommendationGrace
	ucCfg.DefaultLimit = cfg.RecommendationLimit
	ucCfg.MaxLimit = cfg.RecommendationMax
	ucCfg.SupersedeDelta = cfg.SupersedeDelta
	ucCfg.CandidateLimit = cfg.CandidateLimit
	ucCfg.InsightLookback = cfg.InsightLookback
	ucCfg.Location = cfg.Location()
	if err := ucCfg.Validate(); err != nil {
		return Services{}, fmt.Errorf("personalization config: %w", err)
	}

	uc, err := personalization.New(personalization.UsecasesDeps{
		DB:              db,
		Log:             log,
		Profiles:        reposet.Profiles,
		Mastery:         reposet.Mastery,
		Candidates:      reposet.Candidates,
		Recommendations: reposet.Recommendations,
		Usage:           reposet.Usage,
		Sessions:        reposet.Sessions,
		Insights:        reposet.Insights,
		Achievements:    reposet.Achievements,
		Scoring:         engine,
		Analyzer:        analyzer,
		Bus:             notify,
		Metrics:         metrics,
		Config:          ucCfg,
	})
	if err != nil {
		return Services{}, fmt.Errorf("init personalization usecases: %w", err)
	}

	sweep := worker.NewExpirySweep(log, uc, cfg.ExpirySweepInterval)
	batch := worker.NewInsightBatch(log, uc, worker.BatchConfig{
		Interval:     cfg.InsightBatchInterval,
		ActiveWindow: cfg.InsightBatchWindow,
		MaxUsers:     cfg.InsightBatchMaxUsers,
		Concurrency:  cfg.InsightBatchWorkers,
	})

	return Services{
		Bus:          notify,
		Metrics:      metrics,
		Usecases:     uc,
		ExpirySweep:  sweep,
		InsightBatch: batch,
		JobWorker:    worker.NewWorker(log, metrics, cfg.JobTimeout, sweep, batch),
	}, nil
}

// loadScoringConfig overlays a JSON file onto the default weights.
func loadScoringConfig(path string) (*scoring.Config, error) {
	cfg := scoring.DefaultConfig()
	path = strings.TrimSpace(path)
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scoring config: %w", err)
	}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("decode scoring config: %w", err)
	}
	return cfg, nil
}
