package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/loungely/knowledge-backend/internal/clients/openai"
	"github.com/loungely/knowledge-backend/internal/domain"
	"github.com/loungely/knowledge-backend/internal/pkg/envutil"
	"github.com/loungely/knowledge-backend/internal/pkg/logger"
	"github.com/loungely/knowledge-backend/internal/retrieval"
)

const defaultSimilarityThreshold = 0.3

const chatSystemPrompt = `You are a helpful assistant for a lounge community.
Answer the user's question using the knowledge base context below when it is
relevant. If the context does not cover the question, answer from general
knowledge and say so.`

type ChatInput struct {
	Query       string
	Scope       domain.Scope
	EntityTypes []domain.EntityType
	TopK        int
}

type ChatOutput struct {
	Answer  string             `json:"answer"`
	Sources []retrieval.Source `json:"sources,omitempty"`
}

// ChatService answers a query with retrieval-augmented generation. Retrieval
// failures degrade to an unaugmented answer rather than an error.
type ChatService interface {
	Ask(ctx context.Context, in ChatInput) (*ChatOutput, error)
}

type chatService struct {
	log       *logger.Logger
	engine    *retrieval.Engine
	ai        openai.Client
	threshold float64
}

func NewChatService(baseLog *logger.Logger, engine *retrieval.Engine, ai openai.Client) ChatService {
	return &chatService{
		log:       baseLog.With("service", "ChatService"),
		engine:    engine,
		ai:        ai,
		threshold: envutil.GetFloat("RAG_SIMILARITY_THRESHOLD", defaultSimilarityThreshold),
	}
}

func (s *chatService) Ask(ctx context.Context, in ChatInput) (*ChatOutput, error) {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}

	results := s.engine.Search(ctx, retrieval.SearchInput{
		Query:       query,
		EntityTypes: in.EntityTypes,
		Scope:       in.Scope,
		TopK:        in.TopK,
	})
	contextText, sources := retrieval.Assemble(results, s.threshold)

	system := chatSystemPrompt
	if contextText != "" {
		system = chatSystemPrompt + "\n\nKnowledge base context:\n\n" + contextText
	} else {
		s.log.Debug("no context above threshold, answering unaugmented", "query_len", len(query))
	}

	answer, err := s.ai.GenerateText(ctx, system, query)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	return &ChatOutput{Answer: answer, Sources: sources}, nil
}
