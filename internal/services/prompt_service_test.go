package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/loungely/knowledge-backend/internal/domain"
	"github.com/loungely/knowledge-backend/internal/pkg/dbctx"
	"github.com/loungely/knowledge-backend/internal/pkg/logger"
	"github.com/loungely/knowledge-backend/internal/repos"
)

type fakePromptRepo struct {
	repos.PromptRepo
	prompt  *domain.Prompt
	updates map[string]interface{}
}

func (f *fakePromptRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Prompt, error) {
	if f.prompt != nil && f.prompt.ID == id {
		return f.prompt, nil
	}
	return nil, nil
}

func (f *fakePromptRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	f.updates = updates
	return nil
}

type fakeJobService struct {
	JobService
	enqueued []domain.JobType
}

func (f *fakeJobService) Enqueue(dbc dbctx.Context, jobType domain.JobType, ref domain.EntityRef, payload map[string]any) (*domain.BackgroundJob, bool, error) {
	f.enqueued = append(f.enqueued, jobType)
	return &domain.BackgroundJob{JobType: jobType}, true, nil
}

func strPtr(s string) *string { return &s }

func TestPromptUpdateContentChangeInvalidatesEmbedding(t *testing.T) {
	p := &domain.Prompt{
		ID:        uuid.New(),
		Title:     "Old title",
		Content:   "Old content",
		Embedding: domain.EncodeVector([]float32{1, 2}),
	}
	repo := &fakePromptRepo{prompt: p}
	jobs := &fakeJobService{}
	svc := NewPromptService(nil, logger.NewNop(), repo, jobs)

	_, err := svc.Update(dbctx.Context{Ctx: context.Background()}, p.ID, UpdatePromptInput{
		Content: strPtr("New content"),
	})
	require.NoError(t, err)

	require.NotNil(t, repo.updates)
	assert.Equal(t, "New content", repo.updates["content"])
	assert.IsType(t, gorm.Expr(""), repo.updates["embedding"])
	assert.Equal(t, "", repo.updates["embedding_model"])
	assert.Equal(t, []domain.JobType{domain.JobPromptEmbedding}, jobs.enqueued)
}

func TestPromptUpdateDescriptionKeepsEmbedding(t *testing.T) {
	p := &domain.Prompt{
		ID:        uuid.New(),
		Title:     "Title",
		Content:   "Content",
		Embedding: domain.EncodeVector([]float32{1, 2}),
	}
	repo := &fakePromptRepo{prompt: p}
	jobs := &fakeJobService{}
	svc := NewPromptService(nil, logger.NewNop(), repo, jobs)

	_, err := svc.Update(dbctx.Context{Ctx: context.Background()}, p.ID, UpdatePromptInput{
		Description: strPtr("new description"),
		Tags:        []string{"a"},
	})
	require.NoError(t, err)

	require.NotNil(t, repo.updates)
	assert.NotContains(t, repo.updates, "embedding")
	assert.NotContains(t, repo.updates, "embedding_model")
	assert.Empty(t, jobs.enqueued)
}

func TestPromptUpdateSameContentIsNoReembed(t *testing.T) {
	p := &domain.Prompt{ID: uuid.New(), Title: "Title", Content: "Content"}
	repo := &fakePromptRepo{prompt: p}
	jobs := &fakeJobService{}
	svc := NewPromptService(nil, logger.NewNop(), repo, jobs)

	_, err := svc.Update(dbctx.Context{Ctx: context.Background()}, p.ID, UpdatePromptInput{
		Title:   strPtr("Title"),
		Content: strPtr("Content"),
	})
	require.NoError(t, err)
	assert.Empty(t, jobs.enqueued)
}

func TestPromptCreateRequiresTitleAndContent(t *testing.T) {
	svc := NewPromptService(nil, logger.NewNop(), &fakePromptRepo{}, &fakeJobService{})
	dbc := dbctx.Context{Ctx: context.Background()}

	_, err := svc.Create(dbc, CreatePromptInput{Content: "body"})
	assert.Error(t, err)
	_, err = svc.Create(dbc, CreatePromptInput{Title: "t", Content: "   "})
	assert.Error(t, err)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "billing-payments", Slugify("Billing & Payments"))
	assert.Equal(t, "faq", Slugify("  FAQ  "))
	assert.Equal(t, "a-b-c", Slugify("a//b__c!"))
	assert.Equal(t, "", Slugify("!!!"))
}
