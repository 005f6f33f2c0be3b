package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/loungely/knowledge-backend/internal/domain"
	"github.com/loungely/knowledge-backend/internal/pkg/logger"
	"github.com/loungely/knowledge-backend/internal/services"
)

type JobsHandler struct {
	log  *logger.Logger
	jobs services.JobService
}

func NewJobsHandler(baseLog *logger.Logger, jobs services.JobService) *JobsHandler {
	return &JobsHandler{
		log:  baseLog.With("handler", "JobsHandler"),
		jobs: jobs,
	}
}

// GET /api/jobs/:id
func (h *JobsHandler) GetByID(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	job, err := h.jobs.GetByID(requestDB(c), jobID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "lookup_failed", err)
		return
	}
	if job == nil {
		RespondError(c, http.StatusNotFound, "job_not_found", nil)
		return
	}
	RespondOK(c, gin.H{"job": job})
}

// GET /api/jobs
func (h *JobsHandler) List(c *gin.Context) {
	var jobType domain.JobType
	if raw := strings.TrimSpace(c.Query("job_type")); raw != "" {
		jobType = domain.JobType(raw)
	}
	var status domain.JobStatus
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status = domain.JobStatus(raw)
	}
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	rows, err := h.jobs.List(requestDB(c), jobType, status, limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"jobs": rows})
}

// GET /api/jobs/entity/:type/:id
func (h *JobsHandler) ListByEntity(c *gin.Context) {
	entityType, err := domain.ParseEntityType(c.Param("type"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_entity_type", err)
		return
	}
	entityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_entity_id", err)
		return
	}
	rows, err := h.jobs.ListByEntity(requestDB(c), domain.EntityRef{Type: entityType, ID: entityID})
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"jobs": rows})
}

type bulkEmbedRequest struct {
	LoungeID      string   `json:"lounge_id"`
	IncludeGlobal *bool    `json:"include_global"`
	EntityTypes   []string `json:"entity_types"`
}

// POST /api/jobs/bulk-embed
func (h *JobsHandler) EnqueueBulkEmbed(c *gin.Context) {
	var req bulkEmbedRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	payload := map[string]any{}
	if req.LoungeID != "" {
		if _, err := uuid.Parse(req.LoungeID); err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_lounge_id", err)
			return
		}
		payload["lounge_id"] = req.LoungeID
	}
	if req.IncludeGlobal != nil {
		payload["include_global"] = *req.IncludeGlobal
	}
	if len(req.EntityTypes) > 0 {
		types := make([]any, 0, len(req.EntityTypes))
		for _, raw := range req.EntityTypes {
			if _, err := domain.ParseEntityType(raw); err != nil {
				RespondError(c, http.StatusBadRequest, "invalid_entity_type", err)
				return
			}
			types = append(types, raw)
		}
		payload["entity_types"] = types
	}
	job, err := h.jobs.EnqueueBulk(requestDB(c), payload)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "enqueue_failed", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job": job})
}
