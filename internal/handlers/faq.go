package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/loungely/knowledge-backend/internal/middleware"
	"github.com/loungely/knowledge-backend/internal/pkg/logger"
	"github.com/loungely/knowledge-backend/internal/services"
)

type FAQHandler struct {
	log  *logger.Logger
	faqs services.FAQService
}

func NewFAQHandler(baseLog *logger.Logger, faqs services.FAQService) *FAQHandler {
	return &FAQHandler{
		log:  baseLog.With("handler", "FAQHandler"),
		faqs: faqs,
	}
}

type createFAQRequest struct {
	LoungeID   string     `json:"lounge_id"`
	CategoryID *uuid.UUID `json:"category_id"`
	Question   string     `json:"question" binding:"required"`
	Answer     string     `json:"answer" binding:"required"`
	Tags       []string   `json:"tags"`
}

// POST /api/faqs
func (h *FAQHandler) Create(c *gin.Context) {
	var req createFAQRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	loungeID, err := parseLoungeID(req.LoungeID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_lounge_id", err)
		return
	}
	userID := middleware.CurrentUserID(c)
	created, err := h.faqs.Create(requestDB(c), services.CreateFAQInput{
		LoungeID:    loungeID,
		CategoryID:  req.CategoryID,
		Question:    req.Question,
		Answer:      req.Answer,
		Tags:        req.Tags,
		CreatedByID: &userID,
	})
	if err != nil {
		RespondError(c, http.StatusBadRequest, "create_failed", err)
		return
	}
	RespondCreated(c, gin.H{"faq": created})
}

// GET /api/faqs
func (h *FAQHandler) List(c *gin.Context) {
	scope, err := scopeFromQuery(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_scope", err)
		return
	}
	categoryIDs, err := categoryIDsFromQuery(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_category_id", err)
		return
	}
	activeOnly := c.Query("active_only") == "true"
	rows, err := h.faqs.List(requestDB(c), scope, categoryIDs, activeOnly)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"faqs": rows})
}

// GET /api/faqs/:id
func (h *FAQHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	f, err := h.faqs.GetByID(requestDB(c), id)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "lookup_failed", err)
		return
	}
	if f == nil {
		RespondError(c, http.StatusNotFound, "not_found", nil)
		return
	}
	RespondOK(c, gin.H{"faq": f})
}

type updateFAQRequest struct {
	CategoryID      *uuid.UUID `json:"category_id"`
	Question        *string    `json:"question"`
	Answer          *string    `json:"answer"`
	Tags            []string   `json:"tags"`
	IsActive        *bool      `json:"is_active"`
	IsIncludedInRAG *bool      `json:"is_included_in_rag"`
}

// PATCH /api/faqs/:id
func (h *FAQHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req updateFAQRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	updated, err := h.faqs.Update(requestDB(c), id, services.UpdateFAQInput{
		CategoryID:      req.CategoryID,
		Question:        req.Question,
		Answer:          req.Answer,
		Tags:            req.Tags,
		IsActive:        req.IsActive,
		IsIncludedInRAG: req.IsIncludedInRAG,
	})
	if err != nil {
		RespondError(c, http.StatusBadRequest, "update_failed", err)
		return
	}
	RespondOK(c, gin.H{"faq": updated})
}

// DELETE /api/faqs/:id
func (h *FAQHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := h.faqs.Delete(requestDB(c), id); err != nil {
		RespondError(c, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}
