package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type JobType string

const (
	JobPromptEmbedding    JobType = "prompt_embedding"
	JobDocumentProcessing JobType = "document_processing"
	JobFAQEmbedding       JobType = "faq_embedding"
	JobBulkEmbedding      JobType = "bulk_embedding"
)

type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// IsTerminal reports whether no further transition may leave the status.
func (s JobStatus) IsTerminal() bool {
	return s == JobCompleted || s == JobFailed
}

// BackgroundJob tracks one asynchronous pipeline run. The row is the only
// place a job's failure is surfaced; submitters fire and forget.
type BackgroundJob struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	JobType JobType   `gorm:"column:job_type;not null;index" json:"job_type"`
	Status  JobStatus `gorm:"column:status;not null;index" json:"status"`

	EntityType EntityType `gorm:"column:entity_type;index" json:"entity_type,omitempty"`
	EntityID   *uuid.UUID `gorm:"type:uuid;column:entity_id;index" json:"entity_id,omitempty"`

	TotalSteps     int     `gorm:"column:total_steps;not null;default:0" json:"total_steps"`
	CompletedSteps int     `gorm:"column:completed_steps;not null;default:0" json:"completed_steps"`
	Progress       float64 `gorm:"column:progress;not null;default:0" json:"progress"`
	CurrentStep    string  `gorm:"column:current_step" json:"current_step,omitempty"`

	Result       datatypes.JSON `gorm:"type:jsonb;column:result" json:"result,omitempty"`
	ErrorMessage string         `gorm:"column:error_message" json:"error_message,omitempty"`

	Payload datatypes.JSON `gorm:"type:jsonb;column:payload" json:"payload,omitempty"`

	HeartbeatAt *time.Time `gorm:"column:heartbeat_at;index" json:"-"`

	CreatedAt   time.Time  `gorm:"not null;default:now();index" json:"created_at"`
	StartedAt   *time.Time `gorm:"column:started_at" json:"started_at,omitempty"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	UpdatedAt   time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (BackgroundJob) TableName() string { return "background_job" }

// ProgressPct computes the 0-100 percentage with one decimal place. This is
// the derived value persisted in Progress.
func ProgressPct(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	pct := float64(completed) / float64(total) * 100
	if pct > 100 {
		pct = 100
	}
	return math.Round(pct*10) / 10
}

// MarkProcessing transitions pending -> processing and stamps started_at.
// No-op when the job is already terminal.
func (j *BackgroundJob) MarkProcessing(now time.Time) bool {
	if j.Status.IsTerminal() || j.Status == JobProcessing {
		return false
	}
	j.Status = JobProcessing
	j.StartedAt = &now
	j.HeartbeatAt = &now
	j.UpdatedAt = now
	return true
}

// UpdateProgress records step counts and the human-readable label. Ignored on
// terminal jobs: completion and failure are final.
func (j *BackgroundJob) UpdateProgress(completed, total int, label string, now time.Time) bool {
	if j.Status.IsTerminal() {
		return false
	}
	j.CompletedSteps = completed
	j.TotalSteps = total
	j.Progress = ProgressPct(completed, total)
	j.CurrentStep = label
	j.HeartbeatAt = &now
	j.UpdatedAt = now
	return true
}

func (j *BackgroundJob) MarkCompleted(result datatypes.JSON, now time.Time) bool {
	if j.Status.IsTerminal() {
		return false
	}
	j.Status = JobCompleted
	j.Progress = 100
	j.CompletedSteps = j.TotalSteps
	j.Result = result
	j.ErrorMessage = ""
	j.CompletedAt = &now
	j.UpdatedAt = now
	return true
}

func (j *BackgroundJob) MarkFailed(errMsg string, now time.Time) bool {
	if j.Status.IsTerminal() {
		return false
	}
	j.Status = JobFailed
	j.ErrorMessage = errMsg
	j.CompletedAt = &now
	j.UpdatedAt = now
	return true
}
