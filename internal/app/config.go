package app

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"

	"github.com/yungbote/neurobridge-personalization/internal/data/db"
)

type Config struct {
	LogMode     string `env:"LOG_MODE" envDefault:"development"`
	Environment string `env:"APP_ENV" envDefault:"development"`
	Version     string `env:"APP_VERSION" envDefault:"dev"`
	Port        string `env:"PORT" envDefault:"8080"`

	DBDriver         string        `env:"DB_DRIVER" envDefault:"postgres"`
	PostgresHost     string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     string        `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string        `env:"POSTGRES_USER" envDefault:"postgres"`
	PostgresPassword string        `env:"POSTGRES_PASSWORD"`
	PostgresName     string        `env:"POSTGRES_NAME" envDefault:"personalization"`
	PostgresSSLMode  string        `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	SQLitePath       string        `env:"SQLITE_PATH" envDefault:"personalization.db"`
	DBMaxOpenConns   int           `env:"DB_MAX_OPEN_CONNS" envDefault:"20"`
	DBMaxIdleConns   int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBConnMaxLife    time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	JWTSecretKey string   `env:"JWT_SECRET_KEY,required"`
	CORSOrigins  []string `env:"CORS_ORIGINS" envSeparator:","`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisChannel  string `env:"REDIS_CHANNEL" envDefault:"personalization"`

	Timezone string `env:"TIMEZONE" envDefault:"UTC"`

	RecommendationTTL   time.Duration `env:"RECOMMENDATION_TTL" envDefault:"168h"`
	RecommendationGrace time.Duration `env:"RECOMMENDATION_GRACE_PERIOD" envDefault:"72h"`
	RecommendationLimit int           `env:"RECOMMENDATION_DEFAULT_LIMIT" envDefault:"10"`
	RecommendationMax   int           `env:"RECOMMENDATION_MAX_LIMIT" envDefault:"50"`
	SupersedeDelta      float64       `env:"RECOMMENDATION_SUPERSEDE_DELTA" envDefault:"0.05"`
	CandidateLimit      int           `env:"RECOMMENDATION_CANDIDATE_LIMIT" envDefault:"500"`
	ScoringConfigPath   string        `env:"SCORING_CONFIG_PATH"`
	InsightMinSamples   int           `env:"INSIGHT_MIN_SAMPLES" envDefault:"5"`
	InsightLookback     time.Duration `env:"INSIGHT_LOOKBACK" envDefault:"2160h"`
	AchievementCatalog  string        `env:"ACHIEVEMENT_CATALOG_PATH"`
	GenerateRateLimit   int           `env:"GENERATE_RATE_LIMIT" envDefault:"10"`
	GenerateRateWindow  time.Duration `env:"GENERATE_RATE_WINDOW" envDefault:"1m"`

	WorkerEnabled        bool          `env:"WORKER_ENABLED" envDefault:"true"`
	JobTimeout           time.Duration `env:"JOB_TIMEOUT" envDefault:"10m"`
	ExpirySweepInterval  time.Duration `env:"EXPIRY_SWEEP_INTERVAL" envDefault:"5m"`
	InsightBatchInterval time.Duration `env:"INSIGHT_BATCH_INTERVAL" envDefault:"1h"`
	InsightBatchWindow   time.Duration `env:"INSIGHT_BATCH_ACTIVE_WINDOW" envDefault:"24h"`
	InsightBatchMaxUsers int           `env:"INSIGHT_BATCH_MAX_USERS" envDefault:"1000"`
	InsightBatchWorkers  int           `env:"INSIGHT_BATCH_CONCURRENCY" envDefault:"4"`

	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"false"`
	MetricsAddr    string `env:"METRICS_ADDR"`

	OtelEnabled     bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OtelServiceName string  `env:"OTEL_SERVICE_NAME" envDefault:"neurobridge-personalization"`
	OtelEndpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelHeaders     string  `env:"OTEL_EXPORTER_OTLP_HEADERS"`
	OtelInsecure    bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"false"`
	OtelSampleRatio float64 `env:"OTEL_TRACES_SAMPLER_ARG" envDefault:"1"`

	location *time.Location
}

// LoadConfig parses the process environment.
func LoadConfig() (Config, error) {
	return parseConfig(env.Options{})
}

func parseConfig(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	loc, err := time.LoadLocation(strings.TrimSpace(cfg.Timezone))
	if err != nil {
		return Config{}, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}
	cfg.location = loc
	switch strings.ToLower(strings.TrimSpace(cfg.DBDriver)) {
	case db.DriverPostgres, db.DriverSQLite:
	default:
		return Config{}, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if cfg.InsightBatchWorkers < 1 {
		return Config{}, fmt.Errorf("INSIGHT_BATCH_CONCURRENCY must be >= 1")
	}
	return cfg, nil
}

func (c Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

func (c Config) Database() db.Config {
	return db.Config{
		Driver:           c.DBDriver,
		PostgresHost:     c.PostgresHost,
		PostgresPort:     c.PostgresPort,
		PostgresUser:     c.PostgresUser,
		PostgresPassword: c.PostgresPassword,
		PostgresName:     c.PostgresName,
		PostgresSSLMode:  c.PostgresSSLMode,
		SQLitePath:       c.SQLitePath,
		MaxOpenConns:     c.DBMaxOpenConns,
		MaxIdleConns:     c.DBMaxIdleConns,
		ConnMaxLifetime:  c.DBConnMaxLife,
	}
}
