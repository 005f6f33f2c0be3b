package worker

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/loungely/knowledge-backend/internal/domain"
	"github.com/loungely/knowledge-backend/internal/jobs/runtime"
	"github.com/loungely/knowledge-backend/internal/pkg/dbctx"
	"github.com/loungely/knowledge-backend/internal/pkg/envutil"
	"github.com/loungely/knowledge-backend/internal/pkg/logger"
	"github.com/loungely/knowledge-backend/internal/repos"
)

// Worker polls for pending jobs and dispatches them to registered handlers.
// Multiple instances can run against the same table; claiming uses row locks
// with SKIP LOCKED so each job runs exactly once.
type Worker struct {
	db       *gorm.DB
	log      *logger.Logger
	repo     repos.BackgroundJobRepo
	registry *runtime.Registry
	notify   runtime.Notifier
}

func NewWorker(db *gorm.DB, baseLog *logger.Logger, repo repos.BackgroundJobRepo, registry *runtime.Registry, notify runtime.Notifier) *Worker {
	return &Worker{
		db:       db,
		log:      baseLog.With("component", "JobWorker"),
		repo:     repo,
		registry: registry,
		notify:   notify,
	}
}

func (w *Worker) Start(ctx context.Context) {
	concurrency := envutil.GetInt("WORKER_CONCURRENCY", 4)
	if concurrency < 1 {
		concurrency = 1
	}
	w.log.Info("starting job worker pool", "concurrency", concurrency)

	for i := 0; i < concurrency; i++ {
		workerID := i + 1
		go w.runLoop(ctx, workerID)
	}
	go w.reapLoop(ctx)
}

func (w *Worker) runLoop(ctx context.Context, workerID int) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("worker loop stopped", "worker_id", workerID)
			return
		case <-ticker.C:
			job, err := w.repo.ClaimNextPending(dbctx.Context{Ctx: ctx}, time.Now().UTC())
			if err != nil {
				w.log.Warn("claim failed", "worker_id", workerID, "error", err)
				continue
			}
			if job == nil {
				continue
			}
			w.dispatch(ctx, workerID, job)
		}
	}
}

func (w *Worker) dispatch(ctx context.Context, workerID int, job *domain.BackgroundJob) {
	jc := runtime.NewContext(ctx, w.db, job, w.repo, w.notify)

	h, ok := w.registry.Get(job.JobType)
	if !ok {
		w.log.Warn("no handler registered for job_type",
			"worker_id", workerID,
			"job_type", job.JobType,
			"job_id", job.ID,
		)
		jc.Fail(&missingHandlerError{JobType: job.JobType})
		return
	}

	defer func() {
		if r := recover(); r != nil {
			w.log.Error("job handler panic",
				"worker_id", workerID,
				"job_id", job.ID,
				"job_type", job.JobType,
				"panic", r,
			)
			jc.Fail(&panicError{})
		}
	}()

	if runErr := h.Run(jc); runErr != nil {
		// Pipelines normally call jc.Fail themselves; this is the safety net.
		jc.Fail(runErr)
	}
}

// reapLoop force-fails processing jobs whose heartbeat went quiet. A crashed
// worker or a hung pipeline must not leave its job in processing forever.
func (w *Worker) reapLoop(ctx context.Context) {
	deadline := time.Duration(envutil.GetInt("JOB_STALE_MINUTES", 30)) * time.Minute
	if deadline <= 0 {
		deadline = 30 * time.Minute
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now().UTC()
			n, err := w.repo.FailStale(dbctx.Context{Ctx: ctx}, now.Add(-deadline), now)
			if err != nil {
				w.log.Warn("stale job reap failed", "error", err)
				continue
			}
			if n > 0 {
				w.log.Warn("reaped stale jobs", "count", n, "deadline", deadline.String())
			}
		}
	}
}

type missingHandlerError struct{ JobType domain.JobType }

func (e *missingHandlerError) Error() string {
	return "no handler registered for job_type=" + string(e.JobType)
}

type panicError struct{}

func (e *panicError) Error() string { return "job handler panicked" }
