package faq_embedding

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/loungely/knowledge-backend/internal/domain"
	jobrt "github.com/loungely/knowledge-backend/internal/jobs/runtime"
	"github.com/loungely/knowledge-backend/internal/pkg/dbctx"
)

const totalSteps = 3

func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	faqID, ok := jc.EntityID()
	if !ok || faqID == uuid.Nil {
		jc.Fail(fmt.Errorf("missing faq id"))
		return nil
	}

	dbc := dbctx.Context{Ctx: jc.Ctx}

	jc.Progress(1, totalSteps, "Loading FAQ")
	faq, err := p.faqs.GetByID(dbc, faqID)
	if err != nil {
		jc.Fail(fmt.Errorf("load faq: %w", err))
		return nil
	}
	if faq == nil {
		jc.Fail(fmt.Errorf("faq %s not found", faqID))
		return nil
	}

	input := faq.EmbeddingInput()
	if strings.TrimSpace(input) == "" {
		jc.Fail(fmt.Errorf("faq %s has no embeddable content", faqID))
		return nil
	}

	jc.Progress(2, totalSteps, "Generating embedding")
	vecs, err := p.ai.Embed(jc.Ctx, []string{input})
	if err != nil {
		jc.Fail(fmt.Errorf("embed faq: %w", err))
		return nil
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		jc.Fail(fmt.Errorf("embedding provider returned no vector"))
		return nil
	}

	jc.Progress(3, totalSteps, "Saving embedding")
	err = p.faqs.UpdateFields(dbc, faqID, map[string]interface{}{
		"embedding":       domain.EncodeVector(vecs[0]),
		"embedding_model": p.ai.EmbedModel(),
	})
	if err != nil {
		jc.Fail(fmt.Errorf("save embedding: %w", err))
		return nil
	}

	jc.Succeed(map[string]any{
		"faq_id":          faqID.String(),
		"embedding_model": p.ai.EmbedModel(),
		"dimensions":      len(vecs[0]),
	})
	return nil
}
