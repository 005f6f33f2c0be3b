package repos

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loungely/knowledge-backend/internal/domain"
	"github.com/loungely/knowledge-backend/internal/pkg/dbctx"
	"github.com/loungely/knowledge-backend/internal/pkg/logger"
)

type FAQRepo interface {
	Create(dbc dbctx.Context, f *domain.FAQ) (*domain.FAQ, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.FAQ, error)
	List(dbc dbctx.Context, scope domain.Scope, categoryIDs []uuid.UUID, activeOnly bool) ([]*domain.FAQ, error)
	ListForRAG(dbc dbctx.Context, scope domain.Scope, categoryIDs []uuid.UUID) ([]*domain.FAQ, error)
	ListMissingEmbedding(dbc dbctx.Context, scope domain.Scope) ([]*domain.FAQ, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
	DeleteByCategory(dbc dbctx.Context, categoryID uuid.UUID) error
}

type faqRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFAQRepo(db *gorm.DB, baseLog *logger.Logger) FAQRepo {
	return &faqRepo{db: db, log: baseLog.With("repo", "FAQRepo")}
}

func (r *faqRepo) Create(dbc dbctx.Context, f *domain.FAQ) (*domain.FAQ, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(dbc.Ctx).Create(f).Error; err != nil {
		return nil, err
	}
	return f, nil
}

func (r *faqRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.FAQ, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var f domain.FAQ
	err := transaction.WithContext(dbc.Ctx).
		Preload("Category").
		Where("id = ?", id).Limit(1).Find(&f).Error
	if err != nil {
		return nil, err
	}
	if f.ID == uuid.Nil {
		return nil, nil
	}
	return &f, nil
}

func (r *faqRepo) List(dbc dbctx.Context, scope domain.Scope, categoryIDs []uuid.UUID, activeOnly bool) ([]*domain.FAQ, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Model(&domain.FAQ{}).Preload("Category")
	q = scope.Apply(q)
	if len(categoryIDs) > 0 {
		q = q.Where("category_id IN ?", categoryIDs)
	}
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var out []*domain.FAQ
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *faqRepo) ListForRAG(dbc dbctx.Context, scope domain.Scope, categoryIDs []uuid.UUID) ([]*domain.FAQ, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Model(&domain.FAQ{}).Preload("Category")
	q = scope.Apply(q)
	if len(categoryIDs) > 0 {
		q = q.Where("category_id IN ?", categoryIDs)
	}
	q = q.Where("is_active = ? AND is_included_in_rag = ?", true, true).
		Where("embedding IS NOT NULL")
	var out []*domain.FAQ
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *faqRepo) ListMissingEmbedding(dbc dbctx.Context, scope domain.Scope) ([]*domain.FAQ, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Model(&domain.FAQ{})
	q = scope.Apply(q)
	q = q.Where("is_active = ? AND is_included_in_rag = ?", true, true).
		Where("embedding IS NULL")
	var out []*domain.FAQ
	if err := q.Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *faqRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&domain.FAQ{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *faqRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
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
		Delete(&domain.FAQ{}).Error
}

func (r *faqRepo) DeleteByCategory(dbc dbctx.Context, categoryID uuid.UUID) error {
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
		Delete(&domain.FAQ{}).Error
}
