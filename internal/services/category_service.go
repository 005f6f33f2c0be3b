package services

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loungely/knowledge-backend/internal/domain"
	"github.com/loungely/knowledge-backend/internal/pkg/dbctx"
	"github.com/loungely/knowledge-backend/internal/pkg/logger"
	"github.com/loungely/knowledge-backend/internal/repos"
)

type CreateCategoryInput struct {
	LoungeID     *uuid.UUID
	Name         string
	Slug         string
	DisplayOrder int
	CreatedByID  *uuid.UUID
}

type UpdateCategoryInput struct {
	Name         *string
	Slug         *string
	DisplayOrder *int
	IsActive     *bool
}

type CategoryService interface {
	Create(dbc dbctx.Context, in CreateCategoryInput) (*domain.Category, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Category, error)
	List(dbc dbctx.Context, scope domain.Scope, activeOnly bool) ([]*domain.Category, error)
	Update(dbc dbctx.Context, id uuid.UUID, in UpdateCategoryInput) (*domain.Category, error)
	// Delete removes the category and every prompt, FAQ and document in it.
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type categoryService struct {
	db         *gorm.DB
	log        *logger.Logger
	categories repos.CategoryRepo
	prompts    repos.PromptRepo
	faqs       repos.FAQRepo
	docs       repos.DocumentRepo
}

func NewCategoryService(
	db *gorm.DB,
	baseLog *logger.Logger,
	categories repos.CategoryRepo,
	prompts repos.PromptRepo,
	faqs repos.FAQRepo,
	docs repos.DocumentRepo,
) CategoryService {
	return &categoryService{
		db:         db,
		log:        baseLog.With("service", "CategoryService"),
		categories: categories,
		prompts:    prompts,
		faqs:       faqs,
		docs:       docs,
	}
}

func (s *categoryService) Create(dbc dbctx.Context, in CreateCategoryInput) (*domain.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		slug = Slugify(name)
	}

	c := &domain.Category{
		LoungeID:     in.LoungeID,
		Name:         name,
		Slug:         slug,
		DisplayOrder: in.DisplayOrder,
		IsActive:     true,
		CreatedByID:  in.CreatedByID,
	}
	created, err := s.categories.Create(dbc, c)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return created, nil
}

func (s *categoryService) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Category, error) {
	return s.categories.GetByID(dbc, id)
}

func (s *categoryService) List(dbc dbctx.Context, scope domain.Scope, activeOnly bool) ([]*domain.Category, error) {
	return s.categories.List(dbc, scope, activeOnly)
}

func (s *categoryService) Update(dbc dbctx.Context, id uuid.UUID, in UpdateCategoryInput) (*domain.Category, error) {
	existing, err := s.categories.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("category %s not found", id)
	}

	updates := map[string]interface{}{}
	if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
		updates["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Slug != nil && strings.TrimSpace(*in.Slug) != "" {
		updates["slug"] = Slugify(*in.Slug)
	}
	if in.DisplayOrder != nil {
		updates["display_order"] = *in.DisplayOrder
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}

	if len(updates) > 0 {
		if err := s.categories.UpdateFields(dbc, id, updates); err != nil {
			return nil, fmt.Errorf("update category: %w", err)
		}
	}
	return s.categories.GetByID(dbc, id)
}

func (s *categoryService) Delete(dbc dbctx.Context, id uuid.UUID) error {
	existing, err := s.categories.GetByID(dbc, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}

	// Cascade runs in one transaction so a half-deleted category never
	// becomes visible.
	run := func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		if err := s.prompts.DeleteByCategory(txc, id); err != nil {
			return fmt.Errorf("delete prompts: %w", err)
		}
		if err := s.faqs.DeleteByCategory(txc, id); err != nil {
			return fmt.Errorf("delete faqs: %w", err)
		}
		if err := s.docs.DeleteByCategory(txc, id); err != nil {
			return fmt.Errorf("delete documents: %w", err)
		}
		if err := s.categories.Delete(txc, id); err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return nil
	}
	if dbc.Tx != nil {
		return run(dbc.Tx)
	}
	return s.db.WithContext(dbc.Ctx).Transaction(run)
}

// Slugify lowercases, keeps letters and digits and collapses everything else
// into single hyphens.
func Slugify(s string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
