package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/loungely/knowledge-backend/internal/domain"
	"github.com/loungely/knowledge-backend/internal/pkg/dbctx"
	"github.com/loungely/knowledge-backend/internal/repos"
)

// Notifier is the progress side channel. The SSE notifier implements it; a
// nil notifier is valid and silences events.
type Notifier interface {
	JobProgress(job *domain.BackgroundJob)
	JobCompleted(job *domain.BackgroundJob)
	JobFailed(job *domain.BackgroundJob)
}

// Context is the execution handle for one claimed job. Pipelines report
// progress and terminate through it; they never write the job row directly.
// Terminal transitions are guarded in storage, so a job that the reaper
// already failed cannot be resurrected by a slow pipeline.
type Context struct {
	Ctx    context.Context
	DB     *gorm.DB
	Job    *domain.BackgroundJob
	Repo   repos.BackgroundJobRepo
	Notify Notifier

	payload map[string]any
}

func NewContext(ctx context.Context, db *gorm.DB, job *domain.BackgroundJob, repo repos.BackgroundJobRepo, notify Notifier) *Context {
	c := &Context{
		Ctx:    ctx,
		DB:     db,
		Job:    job,
		Repo:   repo,
		Notify: notify,
	}
	_ = c.decodePayload()
	return c
}

func (c *Context) decodePayload() error {
	if c.Job == nil {
		return nil
	}
	if len(c.Job.Payload) == 0 {
		c.payload = map[string]any{}
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(c.Job.Payload, &m); err != nil {
		c.payload = map[string]any{}
		return err
	}
	c.payload = m
	return nil
}

// Payload never returns nil.
func (c *Context) Payload() map[string]any {
	if c.payload == nil {
		c.payload = map[string]any{}
	}
	return c.payload
}

func (c *Context) PayloadUUID(key string) (uuid.UUID, bool) {
	v, ok := c.Payload()[key]
	if !ok || v == nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(fmt.Sprint(v))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (c *Context) PayloadString(key string) string {
	v, ok := c.Payload()[key]
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// EntityID returns the job's target entity id, falling back to the payload.
func (c *Context) EntityID() (uuid.UUID, bool) {
	if c.Job != nil && c.Job.EntityID != nil && *c.Job.EntityID != uuid.Nil {
		return *c.Job.EntityID, true
	}
	return c.PayloadUUID("entity_id")
}

// Progress persists step counts, recomputes the percentage and emits an
// event. Rejected silently once the job is terminal.
func (c *Context) Progress(completed, total int, label string) {
	if c == nil || c.Job == nil || c.Job.ID == uuid.Nil {
		return
	}
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	now := time.Now().UTC()

	if !c.Job.UpdateProgress(completed, total, label, now) {
		return
	}
	if c.Repo != nil {
		err := c.Repo.UpdateFieldsUnlessTerminal(dbctx.Context{Ctx: ctx}, c.Job.ID, map[string]interface{}{
			"completed_steps": completed,
			"total_steps":     total,
			"progress":        c.Job.Progress,
			"current_step":    label,
			"heartbeat_at":    now,
			"updated_at":      now,
		})
		if err != nil {
			return
		}
	}
	if c.Notify != nil {
		c.Notify.JobProgress(c.Job)
	}
}

// Heartbeat refreshes heartbeat_at without touching step counts. Pipelines
// call it before long model calls so the reaper knows the job is alive.
func (c *Context) Heartbeat() {
	if c == nil || c.Job == nil || c.Job.ID == uuid.Nil || c.Repo == nil {
		return
	}
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	now := time.Now().UTC()
	if err := c.Repo.Heartbeat(dbctx.Context{Ctx: ctx}, c.Job.ID, now); err != nil {
		return
	}
	c.Job.HeartbeatAt = &now
}

// Fail marks the job terminally failed.
func (c *Context) Fail(err error) {
	if c == nil || c.Job == nil || c.Job.ID == uuid.Nil {
		return
	}
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	now := time.Now().UTC()
	msg := "job failed"
	if err != nil {
		msg = err.Error()
	}

	if !c.Job.MarkFailed(msg, now) {
		return
	}
	if c.Repo != nil {
		updErr := c.Repo.UpdateFieldsUnlessTerminal(dbctx.Context{Ctx: ctx}, c.Job.ID, map[string]interface{}{
			"status":        domain.JobFailed,
			"error_message": msg,
			"completed_at":  now,
			"updated_at":    now,
		})
		if updErr != nil {
			return
		}
	}
	if c.Notify != nil {
		c.Notify.JobFailed(c.Job)
	}
}

// Succeed marks the job terminally completed with an optional result payload.
func (c *Context) Succeed(result any) {
	if c == nil || c.Job == nil || c.Job.ID == uuid.Nil {
		return
	}
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	now := time.Now().UTC()
	var res datatypes.JSON
	if result != nil {
		b, _ := json.Marshal(result)
		res = datatypes.JSON(b)
	}

	if !c.Job.MarkCompleted(res, now) {
		return
	}
	if c.Repo != nil {
		err := c.Repo.UpdateFieldsUnlessTerminal(dbctx.Context{Ctx: ctx}, c.Job.ID, map[string]interface{}{
			"status":          domain.JobCompleted,
			"progress":        100.0,
			"completed_steps": c.Job.CompletedSteps,
			"result":          res,
			"error_message":   "",
			"completed_at":    now,
			"updated_at":      now,
		})
		if err != nil {
			return
		}
	}
	if c.Notify != nil {
		c.Notify.JobCompleted(c.Job)
	}
}
