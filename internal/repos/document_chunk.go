package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loungely/knowledge-backend/internal/domain"
	"github.com/loungely/knowledge-backend/internal/pkg/dbctx"
	"github.com/loungely/knowledge-backend/internal/pkg/logger"
)

type DocumentChunkRepo interface {
	// ReplaceForDocument deletes the document's existing chunk set and inserts
	// the new one atomically. Readers never observe a partial set.
	ReplaceForDocument(dbc dbctx.Context, documentID uuid.UUID, chunks []*domain.DocumentChunk) error
	ListByDocument(dbc dbctx.Context, documentID uuid.UUID) ([]*domain.DocumentChunk, error)
	// ListEmbeddedByDocuments returns embedded chunks for the given documents,
	// ordered by document then chunk index.
	ListEmbeddedByDocuments(dbc dbctx.Context, documentIDs []uuid.UUID) ([]*domain.DocumentChunk, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	DeleteByDocument(dbc dbctx.Context, documentID uuid.UUID) error
}

type documentChunkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentChunkRepo(db *gorm.DB, baseLog *logger.Logger) DocumentChunkRepo {
	return &documentChunkRepo{db: db, log: baseLog.With("repo", "DocumentChunkRepo")}
}

func (r *documentChunkRepo) ReplaceForDocument(dbc dbctx.Context, documentID uuid.UUID, chunks []*domain.DocumentChunk) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if documentID == uuid.Nil {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", documentID).Delete(&domain.DocumentChunk{}).Error; err != nil {
			return err
		}
		if len(chunks) == 0 {
			return nil
		}
		for i := range chunks {
			chunks[i].DocumentID = documentID
		}
		return tx.CreateInBatches(chunks, 100).Error
	})
}

func (r *documentChunkRepo) ListByDocument(dbc dbctx.Context, documentID uuid.UUID) ([]*domain.DocumentChunk, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if documentID == uuid.Nil {
		return nil, nil
	}
	var out []*domain.DocumentChunk
	err := transaction.WithContext(dbc.Ctx).
		Where("document_id = ?", documentID).
		Order("chunk_index ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *documentChunkRepo) ListEmbeddedByDocuments(dbc dbctx.Context, documentIDs []uuid.UUID) ([]*domain.DocumentChunk, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(documentIDs) == 0 {
		return nil, nil
	}
	var out []*domain.DocumentChunk
	err := transaction.WithContext(dbc.Ctx).
		Where("document_id IN ?", documentIDs).
		Where("embedding IS NOT NULL").
		Order("document_id ASC, chunk_index ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *documentChunkRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&domain.DocumentChunk{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *documentChunkRepo) DeleteByDocument(dbc dbctx.Context, documentID uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if documentID == uuid.Nil {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Where("document_id = ?", documentID).
		Delete(&domain.DocumentChunk{}).Error
}
