package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-personalization/internal/observability"
	"github.com/yungbote/neurobridge-personalization/internal/platform/ctxutil"
	"github.com/yungbote/neurobridge-personalization/internal/platform/logger"
)

// Job is one periodic task. Run must be idempotent; a failed run is retried on
// the next tick.
type Job interface {
	Name() string
	Interval() time.Duration
	Run(ctx context.Context) error
}

type Worker struct {
	log     *logger.Logger
	metrics *observability.Metrics
	jobs    []Job
	timeout time.Duration

	wg sync.WaitGroup
}

func NewWorker(baseLog *logger.Logger, metrics *observability.Metrics, timeout time.Duration, jobs ...Job) *Worker {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Worker{
		log:     baseLog.With("component", "JobWorker"),
		metrics: metrics,
		jobs:    jobs,
		timeout: timeout,
	}
}

// Start launches one loop per job. Each job runs once immediately, then on its interval.
func (w *Worker) Start(ctx context.Context) {
	w.log.Info("Starting job worker", "jobs", len(w.jobs))
	for _, j := range w.jobs {
		if j == nil || j.Interval() <= 0 {
			continue
		}
		w.wg.Add(1)
		go w.runLoop(ctx, j)
	}
}

// Wait blocks until every loop has returned after ctx is cancelled.
func (w *Worker) Wait() { w.wg.Wait() }

func (w *Worker) runLoop(ctx context.Context, j Job) {
	defer w.wg.Done()
	ticker := time.NewTicker(j.Interval())
	defer ticker.Stop()

	_ = w.RunOnce(ctx, j)
	for {
		select {
		case <-ctx.Done():
			w.log.Info("Worker loop stopped", "job", j.Name())
			return
		case <-ticker.C:
			_ = w.RunOnce(ctx, j)
		}
	}
}

// RunOnce executes a job with a timeout, converting panics into errors. Each run
// gets its own request id so its log lines can be grouped.
func (w *Worker) RunOnce(ctx context.Context, j Job) (err error) {
	start := time.Now()
	tr := ctxutil.Trace{RequestID: uuid.NewString(), Job: j.Name()}
	runCtx, cancel := context.WithTimeout(ctxutil.WithTrace(ctx, tr), w.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Job panic", append(tr.Fields(), "panic", r)...)
			err = &panicError{Val: r}
		}
		status := "ok"
		if err != nil {
			status = "error"
			w.log.Warn("Job run failed", append(tr.Fields(), "error", err, "duration", time.Since(start))...)
		}
		w.metrics.ObserveJob(j.Name(), status, time.Since(start))
	}()

	return j.Run(runCtx)
}

type panicError struct{ Val any }

func (e *panicError) Error() string { return fmt.Sprintf("panic: %v", e.Val) }
