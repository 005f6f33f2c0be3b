package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/loungely/knowledge-backend/internal/clients/redis"
	"github.com/loungely/knowledge-backend/internal/domain"
	"github.com/loungely/knowledge-backend/internal/pkg/dbctx"
	"github.com/loungely/knowledge-backend/internal/pkg/logger"
	"github.com/loungely/knowledge-backend/internal/repos"
)

const enqueueLockTTL = 30 * time.Second

// JobService creates background jobs. Enqueue is fire-and-forget: the worker
// pool picks the row up, and callers poll or subscribe for the outcome.
type JobService interface {
	// Enqueue creates a pending job for the entity unless one is already
	// pending or processing for the same (job_type, entity). Returns the job
	// and whether it was freshly created.
	Enqueue(dbc dbctx.Context, jobType domain.JobType, ref domain.EntityRef, payload map[string]any) (*domain.BackgroundJob, bool, error)
	// EnqueueBulk creates a bulk embedding sweep; not entity-bound, so no
	// dedupe beyond the lock.
	EnqueueBulk(dbc dbctx.Context, payload map[string]any) (*domain.BackgroundJob, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.BackgroundJob, error)
	List(dbc dbctx.Context, jobType domain.JobType, status domain.JobStatus, limit int) ([]*domain.BackgroundJob, error)
	ListByEntity(dbc dbctx.Context, ref domain.EntityRef) ([]*domain.BackgroundJob, error)
}

type jobService struct {
	db     *gorm.DB
	log    *logger.Logger
	repo   repos.BackgroundJobRepo
	lock   redis.JobLock
	notify JobNotifier
}

func NewJobService(db *gorm.DB, baseLog *logger.Logger, repo repos.BackgroundJobRepo, lock redis.JobLock, notify JobNotifier) JobService {
	return &jobService{
		db:     db,
		log:    baseLog.With("service", "JobService"),
		repo:   repo,
		lock:   lock,
		notify: notify,
	}
}

func (s *jobService) Enqueue(dbc dbctx.Context, jobType domain.JobType, ref domain.EntityRef, payload map[string]any) (*domain.BackgroundJob, bool, error) {
	if jobType == "" {
		return nil, false, fmt.Errorf("missing job_type")
	}
	if ref.ID == uuid.Nil {
		return nil, false, fmt.Errorf("missing entity id")
	}

	// The lock closes the race between two concurrent enqueues; the repo
	// check closes the window against already-queued work.
	lockKey := string(jobType) + ":" + ref.String()
	ok, err := s.lock.TryAcquire(dbc.Ctx, lockKey, enqueueLockTTL)
	if err != nil {
		s.log.Warn("job lock unavailable, enqueueing anyway", "key", lockKey, "error", err)
	} else if !ok {
		existing, _ := s.latestRunnable(dbc, jobType, ref)
		return existing, false, nil
	} else {
		defer s.lock.Release(dbc.Ctx, lockKey)
	}

	has, err := s.repo.HasRunnableForEntity(dbc, jobType, ref.Type, ref.ID)
	if err != nil {
		return nil, false, fmt.Errorf("dedupe check: %w", err)
	}
	if has {
		existing, _ := s.latestRunnable(dbc, jobType, ref)
		return existing, false, nil
	}

	job := &domain.BackgroundJob{
		JobType:    jobType,
		Status:     domain.JobPending,
		EntityType: ref.Type,
		EntityID:   &ref.ID,
		Payload:    encodePayload(payload),
	}
	created, err := s.repo.Create(dbc, job)
	if err != nil {
		return nil, false, fmt.Errorf("create job: %w", err)
	}

	s.log.Info("job enqueued", "job_id", created.ID, "job_type", jobType, "entity", ref.String())
	if s.notify != nil {
		s.notify.JobQueued(created)
	}
	return created, true, nil
}

func (s *jobService) EnqueueBulk(dbc dbctx.Context, payload map[string]any) (*domain.BackgroundJob, error) {
	job := &domain.BackgroundJob{
		JobType: domain.JobBulkEmbedding,
		Status:  domain.JobPending,
		Payload: encodePayload(payload),
	}
	created, err := s.repo.Create(dbc, job)
	if err != nil {
		return nil, fmt.Errorf("create bulk job: %w", err)
	}
	s.log.Info("bulk embedding job enqueued", "job_id", created.ID)
	if s.notify != nil {
		s.notify.JobQueued(created)
	}
	return created, nil
}

func (s *jobService) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.BackgroundJob, error) {
	return s.repo.GetByID(dbc, id)
}

func (s *jobService) List(dbc dbctx.Context, jobType domain.JobType, status domain.JobStatus, limit int) ([]*domain.BackgroundJob, error) {
	return s.repo.List(dbc, jobType, status, limit)
}

func (s *jobService) ListByEntity(dbc dbctx.Context, ref domain.EntityRef) ([]*domain.BackgroundJob, error) {
	return s.repo.ListByEntity(dbc, ref.Type, ref.ID)
}

func (s *jobService) latestRunnable(dbc dbctx.Context, jobType domain.JobType, ref domain.EntityRef) (*domain.BackgroundJob, error) {
	rows, err := s.repo.ListByEntity(dbc, ref.Type, ref.ID)
	if err != nil {
		return nil, err
	}
	for _, j := range rows {
		if j.JobType == jobType && !j.Status.IsTerminal() {
			return j, nil
		}
	}
	return nil, nil
}

func encodePayload(payload map[string]any) datatypes.JSON {
	if len(payload) == 0 {
		return nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}
