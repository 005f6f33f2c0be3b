package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/loungely/knowledge-backend/internal/middleware"
	"github.com/loungely/knowledge-backend/internal/pkg/logger"
	"github.com/loungely/knowledge-backend/internal/services"
)

type CategoryHandler struct {
	log        *logger.Logger
	categories services.CategoryService
}

func NewCategoryHandler(baseLog *logger.Logger, categories services.CategoryService) *CategoryHandler {
	return &CategoryHandler{
		log:        baseLog.With("handler", "CategoryHandler"),
		categories: categories,
	}
}

type createCategoryRequest struct {
	LoungeID     string `json:"lounge_id"`
	Name         string `json:"name" binding:"required"`
	Slug         string `json:"slug"`
	DisplayOrder int    `json:"display_order"`
}

// POST /api/categories
func (h *CategoryHandler) Create(c *gin.Context) {
	var req createCategoryRequest
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
	created, err := h.categories.Create(requestDB(c), services.CreateCategoryInput{
		LoungeID:     loungeID,
		Name:         req.Name,
		Slug:         req.Slug,
		DisplayOrder: req.DisplayOrder,
		CreatedByID:  &userID,
	})
	if err != nil {
		RespondError(c, http.StatusBadRequest, "create_failed", err)
		return
	}
	RespondCreated(c, gin.H{"category": created})
}

// GET /api/categories
func (h *CategoryHandler) List(c *gin.Context) {
	scope, err := scopeFromQuery(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_scope", err)
		return
	}
	activeOnly := c.Query("active_only") == "true"
	rows, err := h.categories.List(requestDB(c), scope, activeOnly)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"categories": rows})
}

// GET /api/categories/:id
func (h *CategoryHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	cat, err := h.categories.GetByID(requestDB(c), id)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "lookup_failed", err)
		return
	}
	if cat == nil {
		RespondError(c, http.StatusNotFound, "not_found", nil)
		return
	}
	RespondOK(c, gin.H{"category": cat})
}

type updateCategoryRequest struct {
	Name         *string `json:"name"`
	Slug         *string `json:"slug"`
	DisplayOrder *int    `json:"display_order"`
	IsActive     *bool   `json:"is_active"`
}

// PATCH /api/categories/:id
func (h *CategoryHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req updateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	updated, err := h.categories.Update(requestDB(c), id, services.UpdateCategoryInput{
		Name:         req.Name,
		Slug:         req.Slug,
		DisplayOrder: req.DisplayOrder,
		IsActive:     req.IsActive,
	})
	if err != nil {
		RespondError(c, http.StatusBadRequest, "update_failed", err)
		return
	}
	RespondOK(c, gin.H{"category": updated})
}

// DELETE /api/categories/:id
func (h *CategoryHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := h.categories.Delete(requestDB(c), id); err != nil {
		RespondError(c, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}
