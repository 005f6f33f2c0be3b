package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/loungely/knowledge-backend/internal/domain"
	"github.com/loungely/knowledge-backend/internal/pkg/logger"
	"github.com/loungely/knowledge-backend/internal/retrieval"
)

type SearchHandler struct {
	log    *logger.Logger
	engine *retrieval.Engine
}

func NewSearchHandler(baseLog *logger.Logger, engine *retrieval.Engine) *SearchHandler {
	return &SearchHandler{
		log:    baseLog.With("handler", "SearchHandler"),
		engine: engine,
	}
}

type searchRequest struct {
	Query         string      `json:"query" binding:"required"`
	EntityTypes   []string    `json:"entity_types"`
	CategoryIDs   []uuid.UUID `json:"category_ids"`
	LoungeID      string      `json:"lounge_id"`
	IncludeGlobal *bool       `json:"include_global"`
	TopK          int         `json:"top_k"`
}

// POST /api/search
func (h *SearchHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	loungeID, err := parseLoungeID(req.LoungeID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_lounge_id", err)
		return
	}
	includeGlobal := true
	if req.IncludeGlobal != nil {
		includeGlobal = *req.IncludeGlobal
	}

	var types []domain.EntityType
	for _, raw := range req.EntityTypes {
		et, err := domain.ParseEntityType(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_entity_type", err)
			return
		}
		types = append(types, et)
	}

	results := h.engine.Search(c.Request.Context(), retrieval.SearchInput{
		Query:       req.Query,
		EntityTypes: types,
		CategoryIDs: req.CategoryIDs,
		Scope:       domain.ResolveScope(loungeID, includeGlobal),
		TopK:        req.TopK,
	})
	if results == nil {
		results = []retrieval.SearchResult{}
	}
	RespondOK(c, gin.H{"results": results})
}
