package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/loungely/knowledge-backend/internal/middleware"
	"github.com/loungely/knowledge-backend/internal/pkg/logger"
	"github.com/loungely/knowledge-backend/internal/services"
)

type DocumentHandler struct {
	log  *logger.Logger
	docs services.DocumentService
}

func NewDocumentHandler(baseLog *logger.Logger, docs services.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		log:  baseLog.With("handler", "DocumentHandler"),
		docs: docs,
	}
}

// POST /api/documents
// Multipart form: file (required), title, description, tags (comma separated),
// lounge_id, category_id.
func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}

	loungeID, err := parseLoungeID(c.PostForm("lounge_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_lounge_id", err)
		return
	}
	var categoryID *uuid.UUID
	if raw := strings.TrimSpace(c.PostForm("category_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_category_id", err)
			return
		}
		categoryID = &id
	}

	userID := middleware.CurrentUserID(c)
	created, err := h.docs.Upload(requestDB(c), services.UploadDocumentInput{
		LoungeID:     loungeID,
		CategoryID:   categoryID,
		Title:        c.PostForm("title"),
		Description:  c.PostForm("description"),
		Tags:         splitTags(c.PostForm("tags")),
		OriginalName: fileHeader.Filename,
		MimeType:     fileHeader.Header.Get("Content-Type"),
		Data:         data,
		CreatedByID:  &userID,
	})
	if err != nil {
		RespondError(c, http.StatusBadRequest, "upload_failed", err)
		return
	}
	RespondCreated(c, gin.H{"document": created})
}

// GET /api/documents
func (h *DocumentHandler) List(c *gin.Context) {
	scope, err := scopeFromQuery(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_scope", err)
		return
	}
	if c.Query("unprocessed") == "true" {
		rows, err := h.docs.ListUnprocessed(requestDB(c), scope)
		if err != nil {
			RespondError(c, http.StatusInternalServerError, "list_failed", err)
			return
		}
		RespondOK(c, gin.H{"documents": rows})
		return
	}
	categoryIDs, err := categoryIDsFromQuery(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_category_id", err)
		return
	}
	activeOnly := c.Query("active_only") == "true"
	rows, err := h.docs.List(requestDB(c), scope, categoryIDs, activeOnly)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"documents": rows})
}

// GET /api/documents/:id
func (h *DocumentHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	d, err := h.docs.GetByID(requestDB(c), id)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "lookup_failed", err)
		return
	}
	if d == nil {
		RespondError(c, http.StatusNotFound, "not_found", nil)
		return
	}
	RespondOK(c, gin.H{"document": d})
}

// GET /api/documents/:id/chunks
func (h *DocumentHandler) ListChunks(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	chunks, err := h.docs.Chunks(requestDB(c), id)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"chunks": chunks})
}

type updateDocumentRequest struct {
	CategoryID      *uuid.UUID `json:"category_id"`
	Title           *string    `json:"title"`
	Description     *string    `json:"description"`
	Tags            []string   `json:"tags"`
	IsActive        *bool      `json:"is_active"`
	IsIncludedInRAG *bool      `json:"is_included_in_rag"`
}

// PATCH /api/documents/:id
func (h *DocumentHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req updateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	updated, err := h.docs.Update(requestDB(c), id, services.UpdateDocumentInput{
		CategoryID:      req.CategoryID,
		Title:           req.Title,
		Description:     req.Description,
		Tags:            req.Tags,
		IsActive:        req.IsActive,
		IsIncludedInRAG: req.IsIncludedInRAG,
	})
	if err != nil {
		RespondError(c, http.StatusBadRequest, "update_failed", err)
		return
	}
	RespondOK(c, gin.H{"document": updated})
}

// POST /api/documents/:id/reprocess
func (h *DocumentHandler) Reprocess(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	job, err := h.docs.Reprocess(requestDB(c), id)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "reprocess_failed", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job": job})
}

// DELETE /api/documents/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := h.docs.Delete(requestDB(c), id); err != nil {
		RespondError(c, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

func splitTags(raw string) []string {
	var out []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
