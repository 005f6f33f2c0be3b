package repos

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loungely/knowledge-backend/internal/domain"
	"github.com/loungely/knowledge-backend/internal/pkg/dbctx"
	"github.com/loungely/knowledge-backend/internal/pkg/logger"
)

type PromptRepo interface {
	Create(dbc dbctx.Context, p *domain.Prompt) (*domain.Prompt, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Prompt, error)
	List(dbc dbctx.Context, scope domain.Scope, categoryIDs []uuid.UUID, activeOnly bool) ([]*domain.Prompt, error)
	// ListForRAG returns active, RAG-included prompts that carry an embedding,
	// with Category preloaded for result shaping.
	ListForRAG(dbc dbctx.Context, scope domain.Scope, categoryIDs []uuid.UUID) ([]*domain.Prompt, error)
	// ListMissingEmbedding returns active, RAG-included prompts without a
	// current embedding (bulk re-embed candidates).
	ListMissingEmbedding(dbc dbctx.Context, scope domain.Scope) ([]*domain.Prompt, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
	DeleteByCategory(dbc dbctx.Context, categoryID uuid.UUID) error
}

type promptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPromptRepo(db *gorm.DB, baseLog *logger.Logger) PromptRepo {
	return &promptRepo{db: db, log: baseLog.With("repo", "PromptRepo")}
}

func (r *promptRepo) Create(dbc dbctx.Context, p *domain.Prompt) (*domain.Prompt, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(dbc.Ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (r *promptRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Prompt, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var p domain.Prompt
	err := transaction.WithContext(dbc.Ctx).
		Preload("Category").
		Where("id = ?", id).Limit(1).Find(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		return nil, nil
	}
	return &p, nil
}

func (r *promptRepo) List(dbc dbctx.Context, scope domain.Scope, categoryIDs []uuid.UUID, activeOnly bool) ([]*domain.Prompt, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Model(&domain.Prompt{}).Preload("Category")
	q = scope.Apply(q)
	if len(categoryIDs) > 0 {
		q = q.Where("category_id IN ?", categoryIDs)
	}
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var out []*domain.Prompt
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *promptRepo) ListForRAG(dbc dbctx.Context, scope domain.Scope, categoryIDs []uuid.UUID) ([]*domain.Prompt, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Model(&domain.Prompt{}).Preload("Category")
	q = scope.Apply(q)
	if len(categoryIDs) > 0 {
		q = q.Where("category_id IN ?", categoryIDs)
	}
	q = q.Where("is_active = ? AND is_included_in_rag = ?", true, true).
		Where("embedding IS NOT NULL")
	var out []*domain.Prompt
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *promptRepo) ListMissingEmbedding(dbc dbctx.Context, scope domain.Scope) ([]*domain.Prompt, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Model(&domain.Prompt{})
	q = scope.Apply(q)
	q = q.Where("is_active = ? AND is_included_in_rag = ?", true, true).
		Where("embedding IS NULL")
	var out []*domain.Prompt
	if err := q.Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *promptRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&domain.Prompt{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *promptRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Unscoped().
		Where("id = ?", id).
		Delete(&domain.Prompt{}).Error
}

func (r *promptRepo) DeleteByCategory(dbc dbctx.Context, categoryID uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if categoryID == uuid.Nil {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Unscoped().
		Where("category_id = ?", categoryID).
		Delete(&domain.Prompt{}).Error
}
