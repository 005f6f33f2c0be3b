package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/loungely/knowledge-backend/internal/domain"
	"github.com/loungely/knowledge-backend/internal/pkg/dbctx"
	"github.com/loungely/knowledge-backend/internal/pkg/logger"
	"github.com/loungely/knowledge-backend/internal/repos"
)

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(inputs))
	for i := range out {
		out[i] = f.vec
	}
	return out, nil
}

type fakePrompts struct {
	repos.PromptRepo
	rows []*domain.Prompt
}

func (f *fakePrompts) ListForRAG(dbc dbctx.Context, scope domain.Scope, categoryIDs []uuid.UUID) ([]*domain.Prompt, error) {
	var out []*domain.Prompt
	for _, p := range f.rows {
		if scope.Matches(p.LoungeID) {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeFAQs struct {
	repos.FAQRepo
	rows []*domain.FAQ
	err  error
}

func (f *fakeFAQs) ListForRAG(dbc dbctx.Context, scope domain.Scope, categoryIDs []uuid.UUID) ([]*domain.FAQ, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

type fakeDocs struct {
	repos.DocumentRepo
	rows []*domain.Document
}

func (f *fakeDocs) ListForRAG(dbc dbctx.Context, scope domain.Scope, categoryIDs []uuid.UUID) ([]*domain.Document, error) {
	return f.rows, nil
}

type fakeChunks struct {
	repos.DocumentChunkRepo
	rows []*domain.DocumentChunk
}

func (f *fakeChunks) ListEmbeddedByDocuments(dbc dbctx.Context, documentIDs []uuid.UUID) ([]*domain.DocumentChunk, error) {
	return f.rows, nil
}

func TestEngineSearchRanksAndTruncates(t *testing.T) {
	loungeID := uuid.New()

	near := &domain.Prompt{ID: uuid.New(), Title: "near", Content: "near content", Embedding: domain.EncodeVector([]float32{1, 0})}
	far := &domain.Prompt{ID: uuid.New(), Title: "far", Content: "far content", Embedding: domain.EncodeVector([]float32{0, 1})}
	mid := &domain.FAQ{ID: uuid.New(), Question: "mid", Answer: "mid answer", Embedding: domain.EncodeVector([]float32{1, 1})}

	eng := NewEngine(
		logger.NewNop(),
		&fakeEmbedder{vec: []float32{1, 0}},
		&fakePrompts{rows: []*domain.Prompt{near, far}},
		&fakeFAQs{rows: []*domain.FAQ{mid}},
		&fakeDocs{},
		&fakeChunks{},
	)

	got := eng.Search(context.Background(), SearchInput{
		Query: "query",
		Scope: domain.ResolveScope(&loungeID, true),
		TopK:  2,
	})

	require.Len(t, got, 2)
	require.Equal(t, near.ID, got[0].EntityID)
	require.Equal(t, mid.ID, got[1].EntityID)
	require.Greater(t, got[0].SimilarityScore, got[1].SimilarityScore)
}

func TestEngineSearchDedupesDocumentChunks(t *testing.T) {
	doc := &domain.Document{ID: uuid.New(), Title: "handbook", IsProcessed: true}
	weak := &domain.DocumentChunk{DocumentID: doc.ID, ChunkIndex: 0, Text: "weak chunk", Embedding: domain.EncodeVector([]float32{0, 1})}
	strong := &domain.DocumentChunk{DocumentID: doc.ID, ChunkIndex: 3, Text: "strong chunk", Embedding: domain.EncodeVector([]float32{1, 0.1})}

	eng := NewEngine(
		logger.NewNop(),
		&fakeEmbedder{vec: []float32{1, 0}},
		&fakePrompts{},
		&fakeFAQs{},
		&fakeDocs{rows: []*domain.Document{doc}},
		&fakeChunks{rows: []*domain.DocumentChunk{weak, strong}},
	)

	got := eng.Search(context.Background(), SearchInput{
		Query:       "query",
		EntityTypes: []domain.EntityType{domain.EntityDocument},
		Scope:       domain.ResolveScope(nil, true),
	})

	require.Len(t, got, 1)
	require.Equal(t, doc.ID, got[0].EntityID)
	require.Equal(t, "strong chunk", got[0].ContentPreview)
	require.NotNil(t, got[0].ChunkIndex)
	require.Equal(t, 3, *got[0].ChunkIndex)
}

func TestEngineSearchEmbedderFailureIsEmpty(t *testing.T) {
	eng := NewEngine(
		logger.NewNop(),
		&fakeEmbedder{err: errors.New("provider down")},
		&fakePrompts{rows: []*domain.Prompt{{ID: uuid.New(), Embedding: domain.EncodeVector([]float32{1})}}},
		&fakeFAQs{},
		&fakeDocs{},
		&fakeChunks{},
	)

	got := eng.Search(context.Background(), SearchInput{Query: "query", Scope: domain.ResolveScope(nil, true)})
	require.Nil(t, got)
}

func TestEngineSearchRepoFailureSkipsType(t *testing.T) {
	p := &domain.Prompt{ID: uuid.New(), Title: "ok", Content: "ok", Embedding: domain.EncodeVector([]float32{1, 0})}

	eng := NewEngine(
		logger.NewNop(),
		&fakeEmbedder{vec: []float32{1, 0}},
		&fakePrompts{rows: []*domain.Prompt{p}},
		&fakeFAQs{err: errors.New("db down")},
		&fakeDocs{},
		&fakeChunks{},
	)

	got := eng.Search(context.Background(), SearchInput{Query: "query", Scope: domain.ResolveScope(nil, true)})
	require.Len(t, got, 1)
	require.Equal(t, p.ID, got[0].EntityID)
}

func TestEngineSearchBlankQuery(t *testing.T) {
	eng := NewEngine(logger.NewNop(), &fakeEmbedder{vec: []float32{1}}, &fakePrompts{}, &fakeFAQs{}, &fakeDocs{}, &fakeChunks{})
	require.Nil(t, eng.Search(context.Background(), SearchInput{Query: "   "}))
}

func TestPreviewRuneSafe(t *testing.T) {
	long := ""
	for i := 0; i < 300; i++ {
		long += "é"
	}
	p := preview(long)
	require.Equal(t, 200, len([]rune(p)))
}
