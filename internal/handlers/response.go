package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/loungely/knowledge-backend/internal/domain"
	"github.com/loungely/knowledge-backend/internal/pkg/dbctx"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

func requestDB(c *gin.Context) dbctx.Context {
	return dbctx.Context{Ctx: c.Request.Context()}
}

// scopeFromQuery reads lounge_id and include_global from the query string.
// No lounge_id with the default include_global matches everything;
// include_global=false without a lounge narrows to global rows only.
func scopeFromQuery(c *gin.Context) (domain.Scope, error) {
	var loungeID *uuid.UUID
	if raw := strings.TrimSpace(c.Query("lounge_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return domain.Scope{}, fmt.Errorf("invalid lounge_id: %w", err)
		}
		loungeID = &id
	}
	includeGlobal := true
	if raw := strings.TrimSpace(c.Query("include_global")); raw != "" {
		includeGlobal = raw == "true" || raw == "1"
	}
	return domain.ResolveScope(loungeID, includeGlobal), nil
}

func categoryIDsFromQuery(c *gin.Context) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, raw := range c.QueryArray("category_id") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid category_id %q: %w", raw, err)
		}
		out = append(out, id)
	}
	return out, nil
}

func parseLoungeID(raw string) (*uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid lounge_id: %w", err)
	}
	return &id, nil
}
