package repos

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loungely/knowledge-backend/internal/domain"
	"github.com/loungely/knowledge-backend/internal/pkg/dbctx"
	"github.com/loungely/knowledge-backend/internal/pkg/logger"
)

type DocumentRepo interface {
	Create(dbc dbctx.Context, d *domain.Document) (*domain.Document, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Document, error)
	List(dbc dbctx.Context, scope domain.Scope, categoryIDs []uuid.UUID, activeOnly bool) ([]*domain.Document, error)
	// ListForRAG returns processed, active, RAG-included documents within
	// scope. Chunk embeddings are loaded separately by the retrieval engine.
	ListForRAG(dbc dbctx.Context, scope domain.Scope, categoryIDs []uuid.UUID) ([]*domain.Document, error)
	ListUnprocessed(dbc dbctx.Context, scope domain.Scope) ([]*domain.Document, error)
	// ListMissingEmbedding returns processed, active, RAG-included documents
	// without a current document-level embedding (bulk re-embed candidates).
	ListMissingEmbedding(dbc dbctx.Context, scope domain.Scope) ([]*domain.Document, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
	DeleteByCategory(dbc dbctx.Context, categoryID uuid.UUID) error
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return &documentRepo{db: db, log: baseLog.With("repo", "DocumentRepo")}
}

func (r *documentRepo) Create(dbc dbctx.Context, d *domain.Document) (*domain.Document, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(dbc.Ctx).Create(d).Error; err != nil {
		return nil, err
	}
	return d, nil
}

func (r *documentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Document, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var d domain.Document
	err := transaction.WithContext(dbc.Ctx).
		Preload("Category").
		Where("id = ?", id).Limit(1).Find(&d).Error
	if err != nil {
		return nil, err
	}
	if d.ID == uuid.Nil {
		return nil, nil
	}
	return &d, nil
}

func (r *documentRepo) List(dbc dbctx.Context, scope domain.Scope, categoryIDs []uuid.UUID, activeOnly bool) ([]*domain.Document, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Model(&domain.Document{}).Preload("Category")
	q = scope.Apply(q)
	if len(categoryIDs) > 0 {
		q = q.Where("category_id IN ?", categoryIDs)
	}
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var out []*domain.Document
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *documentRepo) ListForRAG(dbc dbctx.Context, scope domain.Scope, categoryIDs []uuid.UUID) ([]*domain.Document, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Model(&domain.Document{}).Preload("Category")
	q = scope.Apply(q)
	if len(categoryIDs) > 0 {
		q = q.Where("category_id IN ?", categoryIDs)
	}
	q = q.Where("is_active = ? AND is_included_in_rag = ? AND is_processed = ?", true, true, true)
	var out []*domain.Document
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *documentRepo) ListUnprocessed(dbc dbctx.Context, scope domain.Scope) ([]*domain.Document, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Model(&domain.Document{})
	q = scope.Apply(q)
	q = q.Where("is_active = ? AND is_processed = ?", true, false)
	var out []*domain.Document
	if err := q.Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *documentRepo) ListMissingEmbedding(dbc dbctx.Context, scope domain.Scope) ([]*domain.Document, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Model(&domain.Document{})
	q = scope.Apply(q)
	q = q.Where("is_active = ? AND is_included_in_rag = ? AND is_processed = ?", true, true, true).
		Where("embedding IS NULL")
	var out []*domain.Document
	if err := q.Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *documentRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&domain.Document{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *documentRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Delete(&domain.DocumentChunk{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Where("id = ?", id).Delete(&domain.Document{}).Error
	})
}

func (r *documentRepo) DeleteByCategory(dbc dbctx.Context, categoryID uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if categoryID == uuid.Nil {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uuid.UUID
		if err := tx.Model(&domain.Document{}).
			Where("category_id = ?", categoryID).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) > 0 {
			if err := tx.Where("document_id IN ?", ids).Delete(&domain.DocumentChunk{}).Error; err != nil {
				return err
			}
		}
		return tx.Unscoped().Where("category_id = ?", categoryID).Delete(&domain.Document{}).Error
	})
}
