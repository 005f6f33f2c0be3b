package document_processing

import (
	"github.com/loungely/knowledge-backend/internal/clients/blob"
	"github.com/loungely/knowledge-backend/internal/clients/openai"
	"github.com/loungely/knowledge-backend/internal/domain"
	"github.com/loungely/knowledge-backend/internal/pkg/logger"
	"github.com/loungely/knowledge-backend/internal/repos"
)

type Pipeline struct {
	log    *logger.Logger
	docs   repos.DocumentRepo
	chunks repos.DocumentChunkRepo
	store  blob.Store
	ai     openai.Client
}

func New(
	baseLog *logger.Logger,
	docs repos.DocumentRepo,
	chunks repos.DocumentChunkRepo,
	store blob.Store,
	ai openai.Client,
) *Pipeline {
	return &Pipeline{
		log:    baseLog.With("job", "document_processing"),
		docs:   docs,
		chunks: chunks,
		store:  store,
		ai:     ai,
	}
}

func (p *Pipeline) Type() domain.JobType { return domain.JobDocumentProcessing }
