package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/loungely/knowledge-backend/internal/domain"
	"github.com/loungely/knowledge-backend/internal/pkg/logger"
	"github.com/loungely/knowledge-backend/internal/services"
)

type ChatHandler struct {
	log  *logger.Logger
	chat services.ChatService
}

func NewChatHandler(baseLog *logger.Logger, chat services.ChatService) *ChatHandler {
	return &ChatHandler{
		log:  baseLog.With("handler", "ChatHandler"),
		chat: chat,
	}
}

type chatRequest struct {
	Query         string   `json:"query" binding:"required"`
	EntityTypes   []string `json:"entity_types"`
	LoungeID      string   `json:"lounge_id"`
	IncludeGlobal *bool    `json:"include_global"`
	TopK          int      `json:"top_k"`
}

// POST /api/chat
func (h *ChatHandler) Ask(c *gin.Context) {
	var req chatRequest
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

	out, err := h.chat.Ask(c.Request.Context(), services.ChatInput{
		Query:       req.Query,
		Scope:       domain.ResolveScope(loungeID, includeGlobal),
		EntityTypes: types,
		TopK:        req.TopK,
	})
	if err != nil {
		RespondError(c, http.StatusBadGateway, "chat_failed", err)
		return
	}
	RespondOK(c, out)
}
