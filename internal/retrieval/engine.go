package retrieval

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/loungely/knowledge-backend/internal/domain"
	"github.com/loungely/knowledge-backend/internal/pkg/dbctx"
	"github.com/loungely/knowledge-backend/internal/pkg/logger"
	"github.com/loungely/knowledge-backend/internal/repos"
)

const (
	DefaultTopK   = 5
	previewRunes  = 200
	maxCandidates = 2000
)

// Embedder is the slice of the model client the engine needs.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

type SearchInput struct {
	Query       string
	EntityTypes []domain.EntityType
	CategoryIDs []uuid.UUID
	Scope       domain.Scope
	TopK        int
}

type SearchResult struct {
	EntityType      domain.EntityType `json:"entity_type"`
	EntityID        uuid.UUID         `json:"entity_id"`
	Title           string            `json:"title"`
	ContentPreview  string            `json:"content_preview"`
	SimilarityScore float64           `json:"similarity_score"`
	CategoryName    string            `json:"category_name,omitempty"`
	ChunkIndex      *int              `json:"chunk_index,omitempty"`
}

// Engine ranks knowledge items against a query by embedding similarity.
// Search degrades to empty results on any failure; retrieval never takes the
// chat path down with it.
type Engine struct {
	log      *logger.Logger
	embedder Embedder
	prompts  repos.PromptRepo
	faqs     repos.FAQRepo
	docs     repos.DocumentRepo
	chunks   repos.DocumentChunkRepo
}

func NewEngine(
	log *logger.Logger,
	embedder Embedder,
	prompts repos.PromptRepo,
	faqs repos.FAQRepo,
	docs repos.DocumentRepo,
	chunks repos.DocumentChunkRepo,
) *Engine {
	return &Engine{
		log:      log.With("component", "RetrievalEngine"),
		embedder: embedder,
		prompts:  prompts,
		faqs:     faqs,
		docs:     docs,
		chunks:   chunks,
	}
}

func (e *Engine) Search(ctx context.Context, in SearchInput) []SearchResult {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return nil
	}
	topK := in.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	types := in.EntityTypes
	if len(types) == 0 {
		types = []domain.EntityType{domain.EntityPrompt, domain.EntityDocument, domain.EntityFAQ}
	}

	vecs, err := e.embedder.Embed(ctx, []string{query})
	if err != nil || len(vecs) == 0 || len(vecs[0]) == 0 {
		e.log.Warn("query embedding failed, returning no results", "error", err)
		return nil
	}
	queryVec := vecs[0]

	dbc := dbctx.Context{Ctx: ctx}
	var results []SearchResult

	for _, et := range types {
		switch et {
		case domain.EntityPrompt:
			results = append(results, e.searchPrompts(dbc, queryVec, in)...)
		case domain.EntityFAQ:
			results = append(results, e.searchFAQs(dbc, queryVec, in)...)
		case domain.EntityDocument:
			results = append(results, e.searchDocuments(dbc, queryVec, in)...)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].SimilarityScore > results[j].SimilarityScore
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

func (e *Engine) searchPrompts(dbc dbctx.Context, queryVec []float32, in SearchInput) []SearchResult {
	rows, err := e.prompts.ListForRAG(dbc, in.Scope, in.CategoryIDs)
	if err != nil {
		e.log.Warn("prompt candidates unavailable", "error", err)
		return nil
	}
	out := make([]SearchResult, 0, len(rows))
	for _, p := range rows {
		vec := domain.DecodeVector(p.Embedding)
		if vec == nil {
			continue
		}
		out = append(out, SearchResult{
			EntityType:      domain.EntityPrompt,
			EntityID:        p.ID,
			Title:           p.Title,
			ContentPreview:  preview(p.Content),
			SimilarityScore: Cosine(queryVec, vec),
			CategoryName:    categoryName(p.Category),
		})
	}
	return out
}

func (e *Engine) searchFAQs(dbc dbctx.Context, queryVec []float32, in SearchInput) []SearchResult {
	rows, err := e.faqs.ListForRAG(dbc, in.Scope, in.CategoryIDs)
	if err != nil {
		e.log.Warn("faq candidates unavailable", "error", err)
		return nil
	}
	out := make([]SearchResult, 0, len(rows))
	for _, f := range rows {
		vec := domain.DecodeVector(f.Embedding)
		if vec == nil {
			continue
		}
		out = append(out, SearchResult{
			EntityType:      domain.EntityFAQ,
			EntityID:        f.ID,
			Title:           f.Question,
			ContentPreview:  preview(f.Answer),
			SimilarityScore: Cosine(queryVec, vec),
			CategoryName:    categoryName(f.Category),
		})
	}
	return out
}

// searchDocuments scans chunk embeddings and keeps only the best-scoring
// chunk per document, so one long document cannot flood the result list.
func (e *Engine) searchDocuments(dbc dbctx.Context, queryVec []float32, in SearchInput) []SearchResult {
	docs, err := e.docs.ListForRAG(dbc, in.Scope, in.CategoryIDs)
	if err != nil {
		e.log.Warn("document candidates unavailable", "error", err)
		return nil
	}
	if len(docs) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.Document, len(docs))
	ids := make([]uuid.UUID, 0, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
		ids = append(ids, d.ID)
	}

	chunks, err := e.chunks.ListEmbeddedByDocuments(dbc, ids)
	if err != nil {
		e.log.Warn("document chunks unavailable", "error", err)
		return nil
	}
	if len(chunks) > maxCandidates {
		chunks = chunks[:maxCandidates]
	}

	best := make(map[uuid.UUID]SearchResult, len(byID))
	for _, c := range chunks {
		vec := domain.DecodeVector(c.Embedding)
		if vec == nil {
			continue
		}
		doc, ok := byID[c.DocumentID]
		if !ok {
			continue
		}
		score := Cosine(queryVec, vec)
		prev, seen := best[c.DocumentID]
		if seen && prev.SimilarityScore >= score {
			continue
		}
		idx := c.ChunkIndex
		best[c.DocumentID] = SearchResult{
			EntityType:      domain.EntityDocument,
			EntityID:        doc.ID,
			Title:           doc.Title,
			ContentPreview:  preview(c.Text),
			SimilarityScore: score,
			CategoryName:    categoryName(doc.Category),
			ChunkIndex:      &idx,
		}
	}

	out := make([]SearchResult, 0, len(best))
	for _, r := range best {
		out = append(out, r)
	}
	return out
}

func categoryName(c *domain.Category) string {
	if c == nil {
		return ""
	}
	return c.Name
}

// preview truncates to the preview budget on rune boundaries.
func preview(s string) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= previewRunes {
		return s
	}
	return strings.TrimSpace(string(r[:previewRunes]))
}
