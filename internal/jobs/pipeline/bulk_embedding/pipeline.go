package bulk_embedding

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/loungely/knowledge-backend/internal/domain"
	jobrt "github.com/loungely/knowledge-backend/internal/jobs/runtime"
	"github.com/loungely/knowledge-backend/internal/pkg/dbctx"
)

const embedConcurrency = 4

type workItem struct {
	entityType domain.EntityType
	id         uuid.UUID
	input      string
}

// Run re-embeds every active, RAG-included item in scope that has no current
// embedding. Items are embedded concurrently with a bounded group; a failed
// item is counted and skipped so one bad row cannot sink the whole sweep.
func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}

	scope := p.scopeFromPayload(jc)
	types := p.typesFromPayload(jc)
	dbc := dbctx.Context{Ctx: jc.Ctx}

	var items []workItem
	if types[domain.EntityPrompt] {
		rows, err := p.prompts.ListMissingEmbedding(dbc, scope)
		if err != nil {
			jc.Fail(fmt.Errorf("list prompts: %w", err))
			return nil
		}
		for _, r := range rows {
			items = append(items, workItem{domain.EntityPrompt, r.ID, r.EmbeddingInput()})
		}
	}
	if types[domain.EntityFAQ] {
		rows, err := p.faqs.ListMissingEmbedding(dbc, scope)
		if err != nil {
			jc.Fail(fmt.Errorf("list faqs: %w", err))
			return nil
		}
		for _, r := range rows {
			items = append(items, workItem{domain.EntityFAQ, r.ID, r.EmbeddingInput()})
		}
	}
	if types[domain.EntityDocument] {
		rows, err := p.docs.ListMissingEmbedding(dbc, scope)
		if err != nil {
			jc.Fail(fmt.Errorf("list documents: %w", err))
			return nil
		}
		for _, r := range rows {
			items = append(items, workItem{domain.EntityDocument, r.ID, r.EmbeddingInput()})
		}
	}

	total := len(items)
	if total == 0 {
		jc.Succeed(map[string]any{"embedded": 0, "skipped": 0, "total": 0})
		return nil
	}
	jc.Progress(0, total, fmt.Sprintf("Embedding %d items", total))

	var mu sync.Mutex
	done := 0
	embedded := 0
	skipped := 0

	g, gctx := errgroup.WithContext(jc.Ctx)
	g.SetLimit(embedConcurrency)

	for _, item := range items {
		item := item
		g.Go(func() error {
			ok := p.embedOne(gctx, item)

			mu.Lock()
			done++
			if ok {
				embedded++
			} else {
				skipped++
			}
			completed := done
			mu.Unlock()

			jc.Progress(completed, total, fmt.Sprintf("Embedded %d of %d", completed, total))
			return nil
		})
	}
	_ = g.Wait()

	jc.Succeed(map[string]any{
		"embedded": embedded,
		"skipped":  skipped,
		"total":    total,
	})
	return nil
}

func (p *Pipeline) embedOne(ctx context.Context, item workItem) bool {
	if strings.TrimSpace(item.input) == "" {
		p.log.Warn("item has no embeddable content", "entity_type", item.entityType, "entity_id", item.id)
		return false
	}
	vecs, err := p.ai.Embed(ctx, []string{item.input})
	if err != nil || len(vecs) == 0 || len(vecs[0]) == 0 {
		p.log.Warn("bulk embed failed for item",
			"entity_type", item.entityType,
			"entity_id", item.id,
			"error", err,
		)
		return false
	}

	dbc := dbctx.Context{Ctx: ctx}
	updates := map[string]interface{}{
		"embedding":       domain.EncodeVector(vecs[0]),
		"embedding_model": p.ai.EmbedModel(),
	}
	switch item.entityType {
	case domain.EntityPrompt:
		err = p.prompts.UpdateFields(dbc, item.id, updates)
	case domain.EntityFAQ:
		err = p.faqs.UpdateFields(dbc, item.id, updates)
	case domain.EntityDocument:
		err = p.docs.UpdateFields(dbc, item.id, updates)
	}
	if err != nil {
		p.log.Warn("bulk embed not saved", "entity_type", item.entityType, "entity_id", item.id, "error", err)
		return false
	}
	return true
}

func (p *Pipeline) scopeFromPayload(jc *jobrt.Context) domain.Scope {
	includeGlobal := true
	if v, ok := jc.Payload()["include_global"].(bool); ok {
		includeGlobal = v
	}
	if loungeID, ok := jc.PayloadUUID("lounge_id"); ok {
		return domain.ResolveScope(&loungeID, includeGlobal)
	}
	return domain.ResolveScope(nil, includeGlobal)
}

func (p *Pipeline) typesFromPayload(jc *jobrt.Context) map[domain.EntityType]bool {
	out := map[domain.EntityType]bool{}
	raw, ok := jc.Payload()["entity_types"].([]any)
	if !ok || len(raw) == 0 {
		out[domain.EntityPrompt] = true
		out[domain.EntityFAQ] = true
		out[domain.EntityDocument] = true
		return out
	}
	for _, v := range raw {
		if et, err := domain.ParseEntityType(fmt.Sprint(v)); err == nil {
			out[et] = true
		}
	}
	if len(out) == 0 {
		out[domain.EntityPrompt] = true
		out[domain.EntityFAQ] = true
		out[domain.EntityDocument] = true
	}
	return out
}
