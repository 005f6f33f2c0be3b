package faq_embedding

import (
	"github.com/loungely/knowledge-backend/internal/clients/openai"
	"github.com/loungely/knowledge-backend/internal/domain"
	"github.com/loungely/knowledge-backend/internal/pkg/logger"
	"github.com/loungely/knowledge-backend/internal/repos"
)

type Pipeline struct {
	log  *logger.Logger
	faqs repos.FAQRepo
	ai   openai.Client
}

func New(baseLog *logger.Logger, faqs repos.FAQRepo, ai openai.Client) *Pipeline {
	return &Pipeline{
		log:  baseLog.With("job", "faq_embedding"),
		faqs: faqs,
		ai:   ai,
	}
}

func (p *Pipeline) Type() domain.JobType { return domain.JobFAQEmbedding }
