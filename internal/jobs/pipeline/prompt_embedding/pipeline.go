package prompt_embedding

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
	promptID, ok := jc.EntityID()
	if !ok || promptID == uuid.Nil {
		jc.Fail(fmt.Errorf("missing prompt id"))
		return nil
	}

	dbc := dbctx.Context{Ctx: jc.Ctx}

	jc.Progress(1, totalSteps, "Loading prompt")
	prompt, err := p.prompts.GetByID(dbc, promptID)
	if err != nil {
		jc.Fail(fmt.Errorf("load prompt: %w", err))
		return nil
	}
	if prompt == nil {
		jc.Fail(fmt.Errorf("prompt %s not found", promptID))
		return nil
	}

	input := prompt.EmbeddingInput()
	if strings.TrimSpace(input) == "" {
		jc.Fail(fmt.Errorf("prompt %s has no embeddable content", promptID))
		return nil
	}

	jc.Progress(2, totalSteps, "Generating embedding")
	vecs, err := p.ai.Embed(jc.Ctx, []string{input})
	if err != nil {
		jc.Fail(fmt.Errorf("embed prompt: %w", err))
		return nil
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		jc.Fail(fmt.Errorf("embedding provider returned no vector"))
		return nil
	}

	jc.Progress(3, totalSteps, "Saving embedding")
	err = p.prompts.UpdateFields(dbc, promptID, map[string]interface{}{
		"embedding":       domain.EncodeVector(vecs[0]),
		"embedding_model": p.ai.EmbedModel(),
	})
	if err != nil {
		jc.Fail(fmt.Errorf("save embedding: %w", err))
		return nil
	}

	jc.Succeed(map[string]any{
		"prompt_id":       promptID.String(),
		"embedding_model": p.ai.EmbedModel(),
		"dimensions":      len(vecs[0]),
	})
	return nil
}
