package services

import (
	"context"

	"github.com/loungely/knowledge-backend/internal/clients/redis"
	"github.com/loungely/knowledge-backend/internal/domain"
	"github.com/loungely/knowledge-backend/internal/pkg/logger"
	"github.com/loungely/knowledge-backend/internal/sse"
)

// JobNotifier pushes job lifecycle events to connected clients. Events go to
// the local hub and, when a bus is configured, to every other instance.
type JobNotifier interface {
	JobQueued(job *domain.BackgroundJob)
	JobProgress(job *domain.BackgroundJob)
	JobCompleted(job *domain.BackgroundJob)
	JobFailed(job *domain.BackgroundJob)
}

type jobNotifier struct {
	log *logger.Logger
	hub *sse.SSEHub
	bus redis.SSEBus
}

// NewJobNotifier wires the hub and an optional cross-instance bus (nil is
// fine for single-instance deployments).
func NewJobNotifier(baseLog *logger.Logger, hub *sse.SSEHub, bus redis.SSEBus) JobNotifier {
	return &jobNotifier{
		log: baseLog.With("service", "JobNotifier"),
		hub: hub,
		bus: bus,
	}
}

func (n *jobNotifier) JobQueued(job *domain.BackgroundJob) {
	n.emit(sse.SSEEventJobQueued, job)
}

func (n *jobNotifier) JobProgress(job *domain.BackgroundJob) {
	n.emit(sse.SSEEventJobProgress, job)
}

func (n *jobNotifier) JobCompleted(job *domain.BackgroundJob) {
	n.emit(sse.SSEEventJobCompleted, job)
}

func (n *jobNotifier) JobFailed(job *domain.BackgroundJob) {
	n.emit(sse.SSEEventJobFailed, job)
}

func (n *jobNotifier) emit(event sse.SSEEvent, job *domain.BackgroundJob) {
	if job == nil {
		return
	}
	data := map[string]any{
		"job_id":       job.ID,
		"job_type":     job.JobType,
		"status":       job.Status,
		"progress":     job.Progress,
		"current_step": job.CurrentStep,
		"error":        job.ErrorMessage,
	}
	// With a bus configured, local delivery happens via the forwarder so the
	// message is broadcast exactly once per instance.
	for _, channel := range []string{sse.JobChannel(job.ID), sse.JobsChannel} {
		msg := sse.SSEMessage{Channel: channel, Event: event, Data: data}
		if n.bus != nil {
			if err := n.bus.Publish(context.Background(), msg); err != nil {
				n.log.Warn("SSE bus publish failed, delivering locally", "job_id", job.ID, "error", err)
				n.hub.Broadcast(msg)
			}
			continue
		}
		n.hub.Broadcast(msg)
	}
}
