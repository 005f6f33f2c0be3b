package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/loungely/knowledge-backend/internal/middleware"
	"github.com/loungely/knowledge-backend/internal/pkg/logger"
	"github.com/loungely/knowledge-backend/internal/services"
)

type PromptHandler struct {
	log     *logger.Logger
	prompts services.PromptService
}

func NewPromptHandler(baseLog *logger.Logger, prompts services.PromptService) *PromptHandler {
	return &PromptHandler{
		log:     baseLog.With("handler", "PromptHandler"),
		prompts: prompts,
	}
}

type createPromptRequest struct {
	LoungeID    string     `json:"lounge_id"`
	CategoryID  *uuid.UUID `json:"category_id"`
	Title       string     `json:"title" binding:"required"`
	Content     string     `json:"content" binding:"required"`
	Description string     `json:"description"`
	Tags        []string   `json:"tags"`
}

// POST /api/prompts
func (h *PromptHandler) Create(c *gin.Context) {
	var req createPromptRequest
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
	created, err := h.prompts.Create(requestDB(c), services.CreatePromptInput{
		LoungeID:    loungeID,
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Content:     req.Content,
		Description: req.Description,
		Tags:        req.Tags,
		CreatedByID: &userID,
	})
	if err != nil {
		RespondError(c, http.StatusBadRequest, "create_failed", err)
		return
	}
	RespondCreated(c, gin.H{"prompt": created})
}

// GET /api/prompts
func (h *PromptHandler) List(c *gin.Context) {
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
	rows, err := h.prompts.List(requestDB(c), scope, categoryIDs, activeOnly)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"prompts": rows})
}

// GET /api/prompts/:id
func (h *PromptHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	p, err := h.prompts.GetByID(requestDB(c), id)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "lookup_failed", err)
		return
	}
	if p == nil {
		RespondError(c, http.StatusNotFound, "not_found", nil)
		return
	}
	RespondOK(c, gin.H{"prompt": p})
}

type updatePromptRequest struct {
	CategoryID      *uuid.UUID `json:"category_id"`
	Title           *string    `json:"title"`
	Content         *string    `json:"content"`
	Description     *string    `json:"description"`
	Tags            []string   `json:"tags"`
	IsActive        *bool      `json:"is_active"`
	IsIncludedInRAG *bool      `json:"is_included_in_rag"`
}

// PATCH /api/prompts/:id
func (h *PromptHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req updatePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	updated, err := h.prompts.Update(requestDB(c), id, services.UpdatePromptInput{
		CategoryID:      req.CategoryID,
		Title:           req.Title,
		Content:         req.Content,
		Description:     req.Description,
		Tags:            req.Tags,
		IsActive:        req.IsActive,
		IsIncludedInRAG: req.IsIncludedInRAG,
	})
	if err != nil {
		RespondError(c, http.StatusBadRequest, "update_failed", err)
		return
	}
	RespondOK(c, gin.H{"prompt": updated})
}

// DELETE /api/prompts/:id
func (h *PromptHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := h.prompts.Delete(requestDB(c), id); err != nil {
		RespondError(c, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}
