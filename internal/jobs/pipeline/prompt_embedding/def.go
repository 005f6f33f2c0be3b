package prompt_embedding

import (
	"github.com/loungely/knowledge-backend/internal/clients/openai"
	"github.com/loungely/knowledge-backend/internal/domain"
	"github.com/loungely/knowledge-backend/internal/pkg/logger"
	"github.com/loungely/knowledge-backend/internal/repos"
)

type Pipeline struct {
	log     *logger.Logger
	prompts repos.PromptRepo
	ai      openai.Client
}

func New(baseLog *logger.Logger, prompts repos.PromptRepo, ai openai.Client) *Pipeline {
	return &Pipeline{
		log:     baseLog.With("job", "prompt_embedding"),
		prompts: prompts,
		ai:      ai,
	}
}

func (p *Pipeline) Type() domain.JobType { return domain.JobPromptEmbedding }
