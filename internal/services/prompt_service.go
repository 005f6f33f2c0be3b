package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loungely/knowledge-backend/internal/domain"
	"github.com/loungely/knowledge-backend/internal/pkg/dbctx"
	"github.com/loungely/knowledge-backend/internal/pkg/logger"
	"github.com/loungely/knowledge-backend/internal/repos"
)

type CreatePromptInput struct {
	LoungeID    *uuid.UUID
	CategoryID  *uuid.UUID
	Title       string
	Content     string
	Description string
	Tags        []string
	CreatedByID *uuid.UUID
}

// UpdatePromptInput carries only the fields the caller wants changed.
type UpdatePromptInput struct {
	CategoryID      *uuid.UUID
	Title           *string
	Content         *string
	Description     *string
	Tags            []string
	IsActive        *bool
	IsIncludedInRAG *bool
}

type PromptService interface {
	Create(dbc dbctx.Context, in CreatePromptInput) (*domain.Prompt, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Prompt, error)
	List(dbc dbctx.Context, scope domain.Scope, categoryIDs []uuid.UUID, activeOnly bool) ([]*domain.Prompt, error)
	Update(dbc dbctx.Context, id uuid.UUID, in UpdatePromptInput) (*domain.Prompt, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type promptService struct {
	db      *gorm.DB
	log     *logger.Logger
	prompts repos.PromptRepo
	jobs    JobService
}

func NewPromptService(db *gorm.DB, baseLog *logger.Logger, prompts repos.PromptRepo, jobs JobService) PromptService {
	return &promptService{
		db:      db,
		log:     baseLog.With("service", "PromptService"),
		prompts: prompts,
		jobs:    jobs,
	}
}

func (s *promptService) Create(dbc dbctx.Context, in CreatePromptInput) (*domain.Prompt, error) {
	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if content == "" {
		return nil, fmt.Errorf("content is required")
	}

	p := &domain.Prompt{
		LoungeID:        in.LoungeID,
		CategoryID:      in.CategoryID,
		Title:           title,
		Content:         content,
		Description:     strings.TrimSpace(in.Description),
		Tags:            domain.EncodeTags(in.Tags),
		IsActive:        true,
		IsIncludedInRAG: true,
		CreatedByID:     in.CreatedByID,
	}
	created, err := s.prompts.Create(dbc, p)
	if err != nil {
		return nil, fmt.Errorf("create prompt: %w", err)
	}

	s.enqueueEmbedding(dbc, created.ID)
	return created, nil
}

func (s *promptService) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Prompt, error) {
	return s.prompts.GetByID(dbc, id)
}

func (s *promptService) List(dbc dbctx.Context, scope domain.Scope, categoryIDs []uuid.UUID, activeOnly bool) ([]*domain.Prompt, error) {
	return s.prompts.List(dbc, scope, categoryIDs, activeOnly)
}

func (s *promptService) Update(dbc dbctx.Context, id uuid.UUID, in UpdatePromptInput) (*domain.Prompt, error) {
	existing, err := s.prompts.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("prompt %s not found", id)
	}

	updates := map[string]interface{}{}
	contentChanged := false

	if in.Title != nil && strings.TrimSpace(*in.Title) != existing.Title {
		updates["title"] = strings.TrimSpace(*in.Title)
		contentChanged = true
	}
	if in.Content != nil && strings.TrimSpace(*in.Content) != existing.Content {
		updates["content"] = strings.TrimSpace(*in.Content)
		contentChanged = true
	}
	if in.Description != nil {
		updates["description"] = strings.TrimSpace(*in.Description)
	}
	if in.Tags != nil {
		updates["tags"] = domain.EncodeTags(in.Tags)
	}
	if in.CategoryID != nil {
		updates["category_id"] = *in.CategoryID
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if in.IsIncludedInRAG != nil {
		updates["is_included_in_rag"] = *in.IsIncludedInRAG
	}

	// Edits to embedded text invalidate the stored vector; the prompt drops
	// out of search until the new embedding lands.
	if contentChanged {
		updates["embedding"] = gorm.Expr("NULL")
		updates["embedding_model"] = ""
	}

	if len(updates) > 0 {
		if err := s.prompts.UpdateFields(dbc, id, updates); err != nil {
			return nil, fmt.Errorf("update prompt: %w", err)
		}
	}
	if contentChanged {
		s.enqueueEmbedding(dbc, id)
	}
	return s.prompts.GetByID(dbc, id)
}

func (s *promptService) Delete(dbc dbctx.Context, id uuid.UUID) error {
	return s.prompts.Delete(dbc, id)
}

func (s *promptService) enqueueEmbedding(dbc dbctx.Context, id uuid.UUID) {
	_, _, err := s.jobs.Enqueue(dbc, domain.JobPromptEmbedding, domain.PromptRef(id), nil)
	if err != nil {
		s.log.Warn("could not enqueue prompt embedding", "prompt_id", id, "error", err)
	}
}
