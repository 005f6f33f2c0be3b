package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loungely/knowledge-backend/internal/clients/redis"
	"github.com/loungely/knowledge-backend/internal/domain"
	"github.com/loungely/knowledge-backend/internal/pkg/dbctx"
	"github.com/loungely/knowledge-backend/internal/pkg/logger"
	"github.com/loungely/knowledge-backend/internal/repos"
)

type fakeJobRepo struct {
	repos.BackgroundJobRepo
	created []*domain.BackgroundJob
}

func (f *fakeJobRepo) Create(dbc dbctx.Context, job *domain.BackgroundJob) (*domain.BackgroundJob, error) {
	job.ID = uuid.New()
	f.created = append(f.created, job)
	return job, nil
}

func (f *fakeJobRepo) HasRunnableForEntity(dbc dbctx.Context, jobType domain.JobType, entityType domain.EntityType, entityID uuid.UUID) (bool, error) {
	for _, j := range f.created {
		if j.JobType == jobType && j.EntityType == entityType && j.EntityID != nil && *j.EntityID == entityID && !j.Status.IsTerminal() {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeJobRepo) ListByEntity(dbc dbctx.Context, entityType domain.EntityType, entityID uuid.UUID) ([]*domain.BackgroundJob, error) {
	var out []*domain.BackgroundJob
	for _, j := range f.created {
		if j.EntityType == entityType && j.EntityID != nil && *j.EntityID == entityID {
			out = append(out, j)
		}
	}
	return out, nil
}

func TestEnqueueCreatesPendingJob(t *testing.T) {
	repo := &fakeJobRepo{}
	svc := NewJobService(nil, logger.NewNop(), repo, redis.NewLocalJobLock(), nil)
	dbc := dbctx.Context{Ctx: context.Background()}

	ref := domain.PromptRef(uuid.New())
	job, created, err := svc.Enqueue(dbc, domain.JobPromptEmbedding, ref, nil)
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, job)
	assert.Equal(t, domain.JobPending, job.Status)
	assert.Equal(t, domain.EntityPrompt, job.EntityType)
	require.NotNil(t, job.EntityID)
	assert.Equal(t, ref.ID, *job.EntityID)
}

func TestEnqueueDeduplicatesRunnableJobs(t *testing.T) {
	repo := &fakeJobRepo{}
	svc := NewJobService(nil, logger.NewNop(), repo, redis.NewLocalJobLock(), nil)
	dbc := dbctx.Context{Ctx: context.Background()}

	ref := domain.FAQRef(uuid.New())
	first, created, err := svc.Enqueue(dbc, domain.JobFAQEmbedding, ref, nil)
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := svc.Enqueue(dbc, domain.JobFAQEmbedding, ref, nil)
	require.NoError(t, err)
	assert.False(t, created)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.created, 1)
}

func TestEnqueueAllowsNewJobAfterTerminal(t *testing.T) {
	repo := &fakeJobRepo{}
	svc := NewJobService(nil, logger.NewNop(), repo, redis.NewLocalJobLock(), nil)
	dbc := dbctx.Context{Ctx: context.Background()}

	ref := domain.DocumentRef(uuid.New())
	first, _, err := svc.Enqueue(dbc, domain.JobDocumentProcessing, ref, nil)
	require.NoError(t, err)
	first.Status = domain.JobCompleted

	_, created, err := svc.Enqueue(dbc, domain.JobDocumentProcessing, ref, nil)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Len(t, repo.created, 2)
}

func TestEnqueueRejectsMissingIdentity(t *testing.T) {
	svc := NewJobService(nil, logger.NewNop(), &fakeJobRepo{}, redis.NewLocalJobLock(), nil)
	dbc := dbctx.Context{Ctx: context.Background()}

	_, _, err := svc.Enqueue(dbc, "", domain.PromptRef(uuid.New()), nil)
	assert.Error(t, err)
	_, _, err = svc.Enqueue(dbc, domain.JobPromptEmbedding, domain.EntityRef{Type: domain.EntityPrompt}, nil)
	assert.Error(t, err)
}
