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

type CreateFAQInput struct {
	LoungeID    *uuid.UUID
	CategoryID  *uuid.UUID
	Question    string
	Answer      string
	Tags        []string
	CreatedByID *uuid.UUID
}

type UpdateFAQInput struct {
	CategoryID      *uuid.UUID
	Question        *string
	Answer          *string
	Tags            []string
	IsActive        *bool
	IsIncludedInRAG *bool
}

type FAQService interface {
	Create(dbc dbctx.Context, in CreateFAQInput) (*domain.FAQ, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.FAQ, error)
	List(dbc dbctx.Context, scope domain.Scope, categoryIDs []uuid.UUID, activeOnly bool) ([]*domain.FAQ, error)
	Update(dbc dbctx.Context, id uuid.UUID, in UpdateFAQInput) (*domain.FAQ, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type faqService struct {
	db   *gorm.DB
	log  *logger.Logger
	faqs repos.FAQRepo
	jobs JobService
}

func NewFAQService(db *gorm.DB, baseLog *logger.Logger, faqs repos.FAQRepo, jobs JobService) FAQService {
	return &faqService{
		db:   db,
		log:  baseLog.With("service", "FAQService"),
		faqs: faqs,
		jobs: jobs,
	}
}

func (s *faqService) Create(dbc dbctx.Context, in CreateFAQInput) (*domain.FAQ, error) {
	question := strings.TrimSpace(in.Question)
	answer := strings.TrimSpace(in.Answer)
	if question == "" {
		return nil, fmt.Errorf("question is required")
	}
	if answer == "" {
		return nil, fmt.Errorf("answer is required")
	}

	f := &domain.FAQ{
		LoungeID:        in.LoungeID,
		CategoryID:      in.CategoryID,
		Question:        question,
		Answer:          answer,
		Tags:            domain.EncodeTags(in.Tags),
		IsActive:        true,
		IsIncludedInRAG: true,
		CreatedByID:     in.CreatedByID,
	}
	created, err := s.faqs.Create(dbc, f)
	if err != nil {
		return nil, fmt.Errorf("create faq: %w", err)
	}

	s.enqueueEmbedding(dbc, created.ID)
	return created, nil
}

func (s *faqService) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.FAQ, error) {
	return s.faqs.GetByID(dbc, id)
}

func (s *faqService) List(dbc dbctx.Context, scope domain.Scope, categoryIDs []uuid.UUID, activeOnly bool) ([]*domain.FAQ, error) {
	return s.faqs.List(dbc, scope, categoryIDs, activeOnly)
}

func (s *faqService) Update(dbc dbctx.Context, id uuid.UUID, in UpdateFAQInput) (*domain.FAQ, error) {
	existing, err := s.faqs.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("faq %s not found", id)
	}

	updates := map[string]interface{}{}
	contentChanged := false

	if in.Question != nil && strings.TrimSpace(*in.Question) != existing.Question {
		updates["question"] = strings.TrimSpace(*in.Question)
		contentChanged = true
	}
	if in.Answer != nil && strings.TrimSpace(*in.Answer) != existing.Answer {
		updates["answer"] = strings.TrimSpace(*in.Answer)
		contentChanged = true
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

	if contentChanged {
		updates["embedding"] = gorm.Expr("NULL")
		updates["embedding_model"] = ""
	}

	if len(updates) > 0 {
		if err := s.faqs.UpdateFields(dbc, id, updates); err != nil {
			return nil, fmt.Errorf("update faq: %w", err)
		}
	}
	if contentChanged {
		s.enqueueEmbedding(dbc, id)
	}
	return s.faqs.GetByID(dbc, id)
}

func (s *faqService) Delete(dbc dbctx.Context, id uuid.UUID) error {
	return s.faqs.Delete(dbc, id)
}

func (s *faqService) enqueueEmbedding(dbc dbctx.Context, id uuid.UUID) {
	_, _, err := s.jobs.Enqueue(dbc, domain.JobFAQEmbedding, domain.FAQRef(id), nil)
	if err != nil {
		s.log.Warn("could not enqueue faq embedding", "faq_id", id, "error", err)
	}
}
