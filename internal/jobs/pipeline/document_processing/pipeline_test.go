package document_processing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/loungely/knowledge-backend/internal/clients/blob"
	"github.com/loungely/knowledge-backend/internal/domain"
	"github.com/loungely/knowledge-backend/internal/jobs/runtime"
	"github.com/loungely/knowledge-backend/internal/pkg/dbctx"
	"github.com/loungely/knowledge-backend/internal/pkg/logger"
	"github.com/loungely/knowledge-backend/internal/repos"
)

type fakeDocs struct {
	repos.DocumentRepo
	doc     *domain.Document
	updates []map[string]interface{}
}

func (f *fakeDocs) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Document, error) {
	if f.doc != nil && f.doc.ID == id {
		return f.doc, nil
	}
	return nil, nil
}

func (f *fakeDocs) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	f.updates = append(f.updates, updates)
	return nil
}

type fakeChunks struct {
	repos.DocumentChunkRepo
	stored []*domain.DocumentChunk
}

func (f *fakeChunks) ReplaceForDocument(dbc dbctx.Context, documentID uuid.UUID, chunks []*domain.DocumentChunk) error {
	f.stored = chunks
	return nil
}

func (f *fakeChunks) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	for _, c := range f.stored {
		if c.ID == id {
			if v, ok := updates["embedding"].(datatypes.JSON); ok {
				c.Embedding = v
			}
			if m, ok := updates["embedding_model"].(string); ok {
				c.EmbeddingModel = m
			}
		}
	}
	return nil
}

type fakeStore struct {
	data map[string][]byte
}

func (f *fakeStore) Upload(ctx context.Context, key, contentType string, r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.data[key] = b
	return nil
}

func (f *fakeStore) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	b, ok := f.data[key]
	if !ok {
		return nil, fmt.Errorf("no object %s", key)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	delete(f.data, key)
	return nil
}

var _ blob.Store = (*fakeStore)(nil)

type fakeAI struct {
	embedCalls int
	failEmbeds map[int]bool
}

func (f *fakeAI) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	f.embedCalls++
	if f.failEmbeds[f.embedCalls] {
		return nil, fmt.Errorf("provider unavailable")
	}
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (f *fakeAI) GenerateText(ctx context.Context, system, user string) (string, error) {
	return "A concise summary.", nil
}

func (f *fakeAI) EmbedModel() string { return "test-embed-model" }

func newTestJob(docID uuid.UUID) *domain.BackgroundJob {
	return &domain.BackgroundJob{
		ID:         uuid.New(),
		JobType:    domain.JobDocumentProcessing,
		Status:     domain.JobProcessing,
		EntityType: domain.EntityDocument,
		EntityID:   &docID,
	}
}

func TestRunProcessesDocumentEndToEnd(t *testing.T) {
	docID := uuid.New()
	doc := &domain.Document{
		ID:           docID,
		Title:        "Big notes",
		OriginalName: "notes.txt",
		MimeType:     "text/plain",
		StorageKey:   "documents/notes.txt",
	}
	docs := &fakeDocs{doc: doc}
	chunks := &fakeChunks{}
	store := &fakeStore{data: map[string][]byte{
		"documents/notes.txt": []byte(strings.Repeat("a", 2500)),
	}}
	ai := &fakeAI{}

	p := New(logger.NewNop(), docs, chunks, store, ai)
	job := newTestJob(docID)
	jc := runtime.NewContext(context.Background(), nil, job, nil, nil)

	require.NoError(t, p.Run(jc))

	assert.Equal(t, domain.JobCompleted, job.Status)
	assert.Equal(t, 100.0, job.Progress)

	// 2500 runes at size 1000 / overlap 200 with no boundaries: hard cuts at
	// 0..1000, 800..1800, 1600..2500.
	require.Len(t, chunks.stored, 3)
	for _, c := range chunks.stored {
		assert.NotNil(t, domain.DecodeVector(c.Embedding))
		assert.Equal(t, "test-embed-model", c.EmbeddingModel)
	}

	require.NotEmpty(t, docs.updates)
	final := docs.updates[len(docs.updates)-1]
	assert.Equal(t, true, final["is_processed"])
	assert.Equal(t, "A concise summary.", final["summary"])
	assert.Contains(t, final, "embedding")
}

func TestRunSkipsFailedChunkEmbeddings(t *testing.T) {
	docID := uuid.New()
	doc := &domain.Document{
		ID:           docID,
		Title:        "Flaky",
		OriginalName: "flaky.txt",
		MimeType:     "text/plain",
		StorageKey:   "documents/flaky.txt",
	}
	docs := &fakeDocs{doc: doc}
	chunks := &fakeChunks{}
	store := &fakeStore{data: map[string][]byte{
		"documents/flaky.txt": []byte(strings.Repeat("b", 2500)),
	}}
	// Second embed call (chunk 2 of 3) fails.
	ai := &fakeAI{failEmbeds: map[int]bool{2: true}}

	p := New(logger.NewNop(), docs, chunks, store, ai)
	job := newTestJob(docID)
	jc := runtime.NewContext(context.Background(), nil, job, nil, nil)

	require.NoError(t, p.Run(jc))

	// A chunk failure does not fail the job.
	assert.Equal(t, domain.JobCompleted, job.Status)
	require.Len(t, chunks.stored, 3)

	embedded := 0
	for _, c := range chunks.stored {
		if domain.DecodeVector(c.Embedding) != nil {
			embedded++
		}
	}
	assert.Equal(t, 2, embedded)

	var result map[string]any
	require.NoError(t, json.Unmarshal(job.Result, &result))
	assert.Equal(t, float64(2), result["chunks_embedded"])
	assert.Equal(t, float64(1), result["chunks_skipped"])
}

func TestRunRecordsExtractionFailure(t *testing.T) {
	docID := uuid.New()
	doc := &domain.Document{
		ID:           docID,
		Title:        "Broken",
		OriginalName: "broken.pdf",
		MimeType:     "application/pdf",
		StorageKey:   "documents/broken.pdf",
	}
	docs := &fakeDocs{doc: doc}
	store := &fakeStore{data: map[string][]byte{
		// Claims PDF but carries no PDF header.
		"documents/broken.pdf": []byte{0x00, 0x01, 0x02, 0x03},
	}}

	p := New(logger.NewNop(), docs, &fakeChunks{}, store, &fakeAI{})
	job := newTestJob(docID)
	jc := runtime.NewContext(context.Background(), nil, job, nil, nil)

	require.NoError(t, p.Run(jc))

	assert.Equal(t, domain.JobFailed, job.Status)
	assert.NotEmpty(t, job.ErrorMessage)

	require.NotEmpty(t, docs.updates)
	recorded := docs.updates[len(docs.updates)-1]
	assert.Equal(t, false, recorded["is_processed"])
	assert.NotEmpty(t, recorded["processing_error"])
}
