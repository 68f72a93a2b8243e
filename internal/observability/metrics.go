package observability

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yungbote/neurobridge-personalization/internal/platform/logger"
)

type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	recsGenerated  *prometheus.CounterVec
	recsResponded  *prometheus.CounterVec
	recsExpired    *prometheus.CounterVec
	generateTxRuns *prometheus.CounterVec
	scoreOverall   prometheus.Histogram

	insightsCreated *prometheus.CounterVec
	insightsShown   prometheus.Counter

	achievementsUnlocked *prometheus.CounterVec
	usageIngested        *prometheus.CounterVec

	jobRuns     *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("METRICS_ENABLED"))
	if v == "" {
		return false
	}
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

func Current() *Metrics {
	return instance
}

// Init builds the process-wide metrics once.
func Init(log *logger.Logger) *Metrics {
	initOnce.Do(func() {
		instance = NewMetrics()
		if log != nil {
			log.Info("prometheus metrics enabled")
		}
	})
	return instance
}

// NewMetrics registers every collector on a private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		apiRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "personalization_api_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		apiLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "personalization_api_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		apiInflight: f.NewGauge(prometheus.GaugeOpts{
			Name: "personalization_api_inflight_requests",
			Help: "HTTP requests currently being served",
		}),
		recsGenerated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "personalization_recommendations_generated_total",
			Help: "Recommendation rows by generation outcome (created, superseded, kept)",
		}, []string{"outcome"}),
		recsResponded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "personalization_recommendations_responded_total",
			Help: "Recommendation responses by action",
		}, []string{"action"}),
		recsExpired: f.NewCounterVec(prometheus.CounterOpts{
			Name: "personalization_recommendations_expired_total",
			Help: "Recommendations deactivated by the expiry sweep, by reason",
		}, []string{"reason"}),
		generateTxRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "personalization_generate_transactions_total",
			Help: "Generation transaction attempts by result",
		}, []string{"result"}),
		scoreOverall: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "personalization_overall_score",
			Help:    "Distribution of overall scores for emitted recommendations",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		insightsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "personalization_insights_created_total",
			Help: "Adaptive insights created by type",
		}, []string{"type"}),
		insightsShown: f.NewCounter(prometheus.CounterOpts{
			Name: "personalization_insights_presented_total",
			Help: "Adaptive insights passed through the presentation gate",
		}),
		achievementsUnlocked: f.NewCounterVec(prometheus.CounterOpts{
			Name: "personalization_achievements_unlocked_total",
			Help: "Achievement unlocks by code",
		}, []string{"code"}),
		usageIngested: f.NewCounterVec(prometheus.CounterOpts{
			Name: "personalization_usage_events_total",
			Help: "Usage events by ingestion result (accepted, duplicate)",
		}, []string{"result"}),
		jobRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "personalization_job_runs_total",
			Help: "Background job runs by job and status",
		}, []string{"job", "status"}),
		jobDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "personalization_job_duration_seconds",
			Help:    "Background job duration",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"job"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	code := strconv.Itoa(status)
	m.apiRequests.WithLabelValues(method, route, code).Inc()
	m.apiLatency.WithLabelValues(method, route, code).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveGeneration(created, superseded, kept int) {
	if m == nil {
		return
	}
	m.recsGenerated.WithLabelValues("created").Add(float64(created))
	m.recsGenerated.WithLabelValues("superseded").Add(float64(superseded))
	m.recsGenerated.WithLabelValues("kept").Add(float64(kept))
}

func (m *Metrics) IncGenerateTx(result string) {
	if m == nil {
		return
	}
	m.generateTxRuns.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveScore(overall float64) {
	if m == nil {
		return
	}
	m.scoreOverall.Observe(overall)
}

func (m *Metrics) IncResponded(action string) {
	if m == nil {
		return
	}
	m.recsResponded.WithLabelValues(action).Inc()
}

func (m *Metrics) AddExpired(reason string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.recsExpired.WithLabelValues(reason).Add(float64(n))
}

func (m *Metrics) IncInsightCreated(insightType string) {
	if m == nil {
		return
	}
	m.insightsCreated.WithLabelValues(insightType).Inc()
}

func (m *Metrics) AddInsightsPresented(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.insightsShown.Add(float64(n))
}

func (m *Metrics) IncAchievementUnlocked(code string) {
	if m == nil {
		return
	}
	m.achievementsUnlocked.WithLabelValues(code).Inc()
}

func (m *Metrics) AddUsageIngested(accepted, duplicates int) {
	if m == nil {
		return
	}
	m.usageIngested.WithLabelValues("accepted").Add(float64(accepted))
	m.usageIngested.WithLabelValues("duplicate").Add(float64(duplicates))
}

func (m *Metrics) ObserveJob(job, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if job == "" {
		job = "unknown"
	}
	m.jobRuns.WithLabelValues(job, status).Inc()
	m.jobDuration.WithLabelValues(job).Observe(dur.Seconds())
}
