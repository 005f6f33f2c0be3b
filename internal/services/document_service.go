package services

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loungely/knowledge-backend/internal/clients/blob"
	"github.com/loungely/knowledge-backend/internal/domain"
	"github.com/loungely/knowledge-backend/internal/pkg/dbctx"
	"github.com/loungely/knowledge-backend/internal/pkg/logger"
	"github.com/loungely/knowledge-backend/internal/repos"
)

const maxUploadBytes = 25 << 20

type UploadDocumentInput struct {
	LoungeID     *uuid.UUID
	CategoryID   *uuid.UUID
	Title        string
	Description  string
	Tags         []string
	OriginalName string
	MimeType     string
	Data         []byte
	CreatedByID  *uuid.UUID
}

type UpdateDocumentInput struct {
	CategoryID      *uuid.UUID
	Title           *string
	Description     *string
	Tags            []string
	IsActive        *bool
	IsIncludedInRAG *bool
}

type DocumentService interface {
	// Upload stores the file and queues processing. The document is visible
	// in the catalog immediately but joins search only once processed.
	Upload(dbc dbctx.Context, in UploadDocumentInput) (*domain.Document, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Document, error)
	List(dbc dbctx.Context, scope domain.Scope, categoryIDs []uuid.UUID, activeOnly bool) ([]*domain.Document, error)
	// ListUnprocessed surfaces documents still waiting on (or failed during)
	// extraction, for the admin dashboard.
	ListUnprocessed(dbc dbctx.Context, scope domain.Scope) ([]*domain.Document, error)
	Update(dbc dbctx.Context, id uuid.UUID, in UpdateDocumentInput) (*domain.Document, error)
	// Reprocess re-runs extraction and embedding from the stored file.
	Reprocess(dbc dbctx.Context, id uuid.UUID) (*domain.BackgroundJob, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
	Chunks(dbc dbctx.Context, id uuid.UUID) ([]*domain.DocumentChunk, error)
}

type documentService struct {
	db     *gorm.DB
	log    *logger.Logger
	docs   repos.DocumentRepo
	chunks repos.DocumentChunkRepo
	store  blob.Store
	jobs   JobService
}

func NewDocumentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	docs repos.DocumentRepo,
	chunks repos.DocumentChunkRepo,
	store blob.Store,
	jobs JobService,
) DocumentService {
	return &documentService{
		db:     db,
		log:    baseLog.With("service", "DocumentService"),
		docs:   docs,
		chunks: chunks,
		store:  store,
		jobs:   jobs,
	}
}

func (s *documentService) Upload(dbc dbctx.Context, in UploadDocumentInput) (*domain.Document, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = strings.TrimSuffix(in.OriginalName, filepath.Ext(in.OriginalName))
	}
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if len(in.Data) == 0 {
		return nil, fmt.Errorf("file is empty")
	}
	if len(in.Data) > maxUploadBytes {
		return nil, fmt.Errorf("file exceeds %d byte limit", maxUploadBytes)
	}

	docID := uuid.New()
	storageKey := fmt.Sprintf("documents/%s%s", docID, strings.ToLower(filepath.Ext(in.OriginalName)))
	if err := s.store.Upload(dbc.Ctx, storageKey, in.MimeType, bytes.NewReader(in.Data)); err != nil {
		return nil, fmt.Errorf("store file: %w", err)
	}

	d := &domain.Document{
		ID:              docID,
		LoungeID:        in.LoungeID,
		CategoryID:      in.CategoryID,
		Title:           title,
		Description:     strings.TrimSpace(in.Description),
		Tags:            domain.EncodeTags(in.Tags),
		OriginalName:    in.OriginalName,
		MimeType:        in.MimeType,
		StorageKey:      storageKey,
		IsActive:        true,
		IsIncludedInRAG: true,
		CreatedByID:     in.CreatedByID,
	}
	created, err := s.docs.Create(dbc, d)
	if err != nil {
		// Orphaned blobs are cleaned up best-effort.
		_ = s.store.Delete(dbc.Ctx, storageKey)
		return nil, fmt.Errorf("create document: %w", err)
	}

	s.enqueueProcessing(dbc, created.ID)
	return created, nil
}

func (s *documentService) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Document, error) {
	return s.docs.GetByID(dbc, id)
}

func (s *documentService) List(dbc dbctx.Context, scope domain.Scope, categoryIDs []uuid.UUID, activeOnly bool) ([]*domain.Document, error) {
	return s.docs.List(dbc, scope, categoryIDs, activeOnly)
}

func (s *documentService) ListUnprocessed(dbc dbctx.Context, scope domain.Scope) ([]*domain.Document, error) {
	return s.docs.ListUnprocessed(dbc, scope)
}

func (s *documentService) Update(dbc dbctx.Context, id uuid.UUID, in UpdateDocumentInput) (*domain.Document, error) {
	existing, err := s.docs.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("document %s not found", id)
	}

	updates := map[string]interface{}{}
	contentChanged := false

	if in.Title != nil && strings.TrimSpace(*in.Title) != existing.Title {
		updates["title"] = strings.TrimSpace(*in.Title)
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

	// A title edit changes the document-level embedding input; chunk vectors
	// are untouched because chunk text never changed.
	if contentChanged {
		updates["embedding"] = gorm.Expr("NULL")
		updates["embedding_model"] = ""
	}

	if len(updates) > 0 {
		if err := s.docs.UpdateFields(dbc, id, updates); err != nil {
			return nil, fmt.Errorf("update document: %w", err)
		}
	}
	if contentChanged && existing.IsProcessed {
		s.enqueueProcessing(dbc, id)
	}
	return s.docs.GetByID(dbc, id)
}

func (s *documentService) Reprocess(dbc dbctx.Context, id uuid.UUID) (*domain.BackgroundJob, error) {
	existing, err := s.docs.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("document %s not found", id)
	}
	if strings.TrimSpace(existing.StorageKey) == "" {
		return nil, fmt.Errorf("document %s has no stored file", id)
	}

	job, _, err := s.jobs.Enqueue(dbc, domain.JobDocumentProcessing, domain.DocumentRef(id), nil)
	if err != nil {
		return nil, fmt.Errorf("enqueue reprocess: %w", err)
	}
	return job, nil
}

func (s *documentService) Delete(dbc dbctx.Context, id uuid.UUID) error {
	existing, err := s.docs.GetByID(dbc, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}
	if err := s.docs.Delete(dbc, id); err != nil {
		return err
	}
	if existing.StorageKey != "" {
		if err := s.store.Delete(dbc.Ctx, existing.StorageKey); err != nil {
			s.log.Warn("stored file not deleted", "document_id", id, "key", existing.StorageKey, "error", err)
		}
	}
	return nil
}

func (s *documentService) Chunks(dbc dbctx.Context, id uuid.UUID) ([]*domain.DocumentChunk, error) {
	return s.chunks.ListByDocument(dbc, id)
}

func (s *documentService) enqueueProcessing(dbc dbctx.Context, id uuid.UUID) {
	_, _, err := s.jobs.Enqueue(dbc, domain.JobDocumentProcessing, domain.DocumentRef(id), nil)
	if err != nil {
		s.log.Warn("could not enqueue document processing", "document_id", id, "error", err)
	}
}
