package bulk_embedding

import (
	"github.com/loungely/knowledge-backend/internal/clients/openai"
	"github.com/loungely/knowledge-backend/internal/domain"
	"github.com/loungely/knowledge-backend/internal/pkg/logger"
	"github.com/loungely/knowledge-backend/internal/repos"
)

type Pipeline struct {
	log     *logger.Logger
	prompts repos.PromptRepo
	faqs    repos.FAQRepo
	docs    repos.DocumentRepo
	ai      openai.Client
}

func New(baseLog *logger.Logger, prompts repos.PromptRepo, faqs repos.FAQRepo, docs repos.DocumentRepo, ai openai.Client) *Pipeline {
	return &Pipeline{
		log:     baseLog.With("job", "bulk_embedding"),
		prompts: prompts,
		faqs:    faqs,
		docs:    docs,
		ai:      ai,
	}
}

func (p *Pipeline) Type() domain.JobType { return domain.JobBulkEmbedding }
