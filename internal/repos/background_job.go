package repos

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/loungely/knowledge-backend/internal/domain"
	"github.com/loungely/knowledge-backend/internal/pkg/dbctx"
	"github.com/loungely/knowledge-backend/internal/pkg/logger"
)

type BackgroundJobRepo interface {
	Create(dbc dbctx.Context, j *domain.BackgroundJob) (*domain.BackgroundJob, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.BackgroundJob, error)
	List(dbc dbctx.Context, jobType domain.JobType, status domain.JobStatus, limit int) ([]*domain.BackgroundJob, error)
	ListByEntity(dbc dbctx.Context, entityType domain.EntityType, entityID uuid.UUID) ([]*domain.BackgroundJob, error)

	// ClaimNextPending atomically claims the oldest pending job and flips it
	// to processing. Returns nil when no job is available. Safe under
	// concurrent workers via SKIP LOCKED.
	ClaimNextPending(dbc dbctx.Context, now time.Time) (*domain.BackgroundJob, error)

	// UpdateFieldsUnlessTerminal applies updates only while the job is still
	// pending or processing. Terminal rows are never rewritten.
	UpdateFieldsUnlessTerminal(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error

	Heartbeat(dbc dbctx.Context, id uuid.UUID, now time.Time) error

	// HasRunnableForEntity reports whether a pending or processing job of the
	// given type already targets the entity. Used for enqueue dedupe.
	HasRunnableForEntity(dbc dbctx.Context, jobType domain.JobType, entityType domain.EntityType, entityID uuid.UUID) (bool, error)

	// FailStale force-fails processing jobs whose heartbeat is older than the
	// cutoff. Returns the number of rows failed.
	FailStale(dbc dbctx.Context, cutoff time.Time, now time.Time) (int64, error)
}

type backgroundJobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBackgroundJobRepo(db *gorm.DB, baseLog *logger.Logger) BackgroundJobRepo {
	return &backgroundJobRepo{db: db, log: baseLog.With("repo", "BackgroundJobRepo")}
}

func (r *backgroundJobRepo) Create(dbc dbctx.Context, j *domain.BackgroundJob) (*domain.BackgroundJob, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if j.Status == "" {
		j.Status = domain.JobPending
	}
	if err := transaction.WithContext(dbc.Ctx).Create(j).Error; err != nil {
		return nil, err
	}
	return j, nil
}

func (r *backgroundJobRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.BackgroundJob, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var j domain.BackgroundJob
	err := transaction.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&j).Error
	if err != nil {
		return nil, err
	}
	if j.ID == uuid.Nil {
		return nil, nil
	}
	return &j, nil
}

func (r *backgroundJobRepo) List(dbc dbctx.Context, jobType domain.JobType, status domain.JobStatus, limit int) ([]*domain.BackgroundJob, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Model(&domain.BackgroundJob{})
	if jobType != "" {
		q = q.Where("job_type = ?", jobType)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []*domain.BackgroundJob
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *backgroundJobRepo) ListByEntity(dbc dbctx.Context, entityType domain.EntityType, entityID uuid.UUID) ([]*domain.BackgroundJob, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if entityID == uuid.Nil {
		return nil, nil
	}
	var out []*domain.BackgroundJob
	err := transaction.WithContext(dbc.Ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *backgroundJobRepo) ClaimNextPending(dbc dbctx.Context, now time.Time) (*domain.BackgroundJob, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var claimed *domain.BackgroundJob
	err := transaction.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		var j domain.BackgroundJob
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ?", domain.JobPending).
			Order("created_at ASC").
			Limit(1).
			Find(&j).Error
		if err != nil {
			return err
		}
		if j.ID == uuid.Nil {
			return nil
		}
		if !j.MarkProcessing(now) {
			return nil
		}
		err = tx.Model(&domain.BackgroundJob{}).
			Where("id = ?", j.ID).
			Updates(map[string]interface{}{
				"status":       j.Status,
				"started_at":   j.StartedAt,
				"heartbeat_at": j.HeartbeatAt,
				"updated_at":   j.UpdatedAt,
			}).Error
		if err != nil {
			return err
		}
		claimed = &j
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *backgroundJobRepo) UpdateFieldsUnlessTerminal(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&domain.BackgroundJob{}).
		Where("id = ?", id).
		Where("status NOT IN ?", []domain.JobStatus{domain.JobCompleted, domain.JobFailed}).
		Updates(updates).Error
}

func (r *backgroundJobRepo) Heartbeat(dbc dbctx.Context, id uuid.UUID, now time.Time) error {
	return r.UpdateFieldsUnlessTerminal(dbc, id, map[string]interface{}{
		"heartbeat_at": now,
		"updated_at":   now,
	})
}

func (r *backgroundJobRepo) HasRunnableForEntity(dbc dbctx.Context, jobType domain.JobType, entityType domain.EntityType, entityID uuid.UUID) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if entityID == uuid.Nil {
		return false, nil
	}
	var count int64
	err := transaction.WithContext(dbc.Ctx).
		Model(&domain.BackgroundJob{}).
		Where("job_type = ? AND entity_type = ? AND entity_id = ?", jobType, entityType, entityID).
		Where("status IN ?", []domain.JobStatus{domain.JobPending, domain.JobProcessing}).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *backgroundJobRepo) FailStale(dbc dbctx.Context, cutoff time.Time, now time.Time) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Model(&domain.BackgroundJob{}).
		Where("status = ?", domain.JobProcessing).
		Where("heartbeat_at IS NOT NULL AND heartbeat_at < ?", cutoff).
		Updates(map[string]interface{}{
			"status":        domain.JobFailed,
			"error_message": "job exceeded processing deadline",
			"completed_at":  now,
			"updated_at":    now,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		r.log.Warn("force-failed stale jobs", "count", res.RowsAffected)
	}
	return res.RowsAffected, nil
}
