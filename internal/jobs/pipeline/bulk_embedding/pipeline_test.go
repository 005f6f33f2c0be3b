package bulk_embedding

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/loungely/knowledge-backend/internal/domain"
	"github.com/loungely/knowledge-backend/internal/jobs/runtime"
	"github.com/loungely/knowledge-backend/internal/pkg/dbctx"
	"github.com/loungely/knowledge-backend/internal/pkg/logger"
	"github.com/loungely/knowledge-backend/internal/repos"
)

type fakePrompts struct {
	repos.PromptRepo
	mu      sync.Mutex
	rows    []*domain.Prompt
	updated map[uuid.UUID]map[string]interface{}
}

func (f *fakePrompts) ListMissingEmbedding(dbc dbctx.Context, scope domain.Scope) ([]*domain.Prompt, error) {
	return f.rows, nil
}

func (f *fakePrompts) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updated == nil {
		f.updated = map[uuid.UUID]map[string]interface{}{}
	}
	f.updated[id] = updates
	return nil
}

type fakeFaqs struct {
	repos.FAQRepo
	mu      sync.Mutex
	rows    []*domain.FAQ
	updated map[uuid.UUID]map[string]interface{}
}

func (f *fakeFaqs) ListMissingEmbedding(dbc dbctx.Context, scope domain.Scope) ([]*domain.FAQ, error) {
	return f.rows, nil
}

func (f *fakeFaqs) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updated == nil {
		f.updated = map[uuid.UUID]map[string]interface{}{}
	}
	f.updated[id] = updates
	return nil
}

type fakeDocs struct {
	repos.DocumentRepo
	mu      sync.Mutex
	rows    []*domain.Document
	updated map[uuid.UUID]map[string]interface{}
}

func (f *fakeDocs) ListMissingEmbedding(dbc dbctx.Context, scope domain.Scope) ([]*domain.Document, error) {
	return f.rows, nil
}

func (f *fakeDocs) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updated == nil {
		f.updated = map[uuid.UUID]map[string]interface{}{}
	}
	f.updated[id] = updates
	return nil
}

type fakeAI struct{}

func (fakeAI) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = []float32{0, 1, 0}
	}
	return out, nil
}

func (fakeAI) GenerateText(ctx context.Context, system, user string) (string, error) {
	return "", nil
}

func (fakeAI) EmbedModel() string { return "test-embed-model" }

func newBulkJob(payload string) *domain.BackgroundJob {
	return &domain.BackgroundJob{
		ID:      uuid.New(),
		JobType: domain.JobBulkEmbedding,
		Status:  domain.JobProcessing,
		Payload: datatypes.JSON(payload),
	}
}

func TestRunEmbedsDocumentsWhenRequested(t *testing.T) {
	docs := &fakeDocs{rows: []*domain.Document{
		{ID: uuid.New(), Title: "Handbook", Summary: "Team handbook.", IsProcessed: true},
		{ID: uuid.New(), Title: "Pricing", Summary: "Pricing sheet.", IsProcessed: true},
	}}

	p := New(logger.NewNop(), &fakePrompts{}, &fakeFaqs{}, docs, fakeAI{})
	job := newBulkJob(`{"entity_types":["document"]}`)
	jc := runtime.NewContext(context.Background(), nil, job, nil, nil)

	require.NoError(t, p.Run(jc))
	assert.Equal(t, domain.JobCompleted, job.Status)

	require.Len(t, docs.updated, 2)
	for _, d := range docs.rows {
		updates, ok := docs.updated[d.ID]
		require.True(t, ok, "document %s not embedded", d.ID)
		vec, ok := updates["embedding"].(datatypes.JSON)
		require.True(t, ok)
		assert.NotNil(t, domain.DecodeVector(vec))
		assert.Equal(t, "test-embed-model", updates["embedding_model"])
	}

	var result map[string]any
	require.NoError(t, json.Unmarshal(job.Result, &result))
	assert.Equal(t, float64(2), result["embedded"])
	assert.Equal(t, float64(0), result["skipped"])
	assert.Equal(t, float64(2), result["total"])
}

func TestRunDefaultSweepCoversAllTypes(t *testing.T) {
	prompts := &fakePrompts{rows: []*domain.Prompt{
		{ID: uuid.New(), Title: "Tone", Content: "Be friendly."},
	}}
	faqs := &fakeFaqs{rows: []*domain.FAQ{
		{ID: uuid.New(), Question: "Hours?", Answer: "9 to 5."},
	}}
	docs := &fakeDocs{rows: []*domain.Document{
		{ID: uuid.New(), Title: "Guide", Summary: "A guide.", IsProcessed: true},
	}}

	p := New(logger.NewNop(), prompts, faqs, docs, fakeAI{})
	job := newBulkJob(`{}`)
	jc := runtime.NewContext(context.Background(), nil, job, nil, nil)

	require.NoError(t, p.Run(jc))
	assert.Equal(t, domain.JobCompleted, job.Status)
	assert.Len(t, prompts.updated, 1)
	assert.Len(t, faqs.updated, 1)
	assert.Len(t, docs.updated, 1)

	var result map[string]any
	require.NoError(t, json.Unmarshal(job.Result, &result))
	assert.Equal(t, float64(3), result["embedded"])
	assert.Equal(t, float64(3), result["total"])
}
